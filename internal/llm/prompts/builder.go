// Package prompts assembles the instruction/schema/content prompts sent to
// the LLM. The templates are embedded and restated on every request so each
// call is self-contained from the model's perspective.
package prompts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed templates/resume_system.md
var resumeSystemTemplate string

//go:embed templates/resume_schema.md
var resumeSchemaTemplate string

//go:embed templates/resume_user.md
var resumeUserTemplate string

//go:embed templates/chat.md
var chatTemplate string

// defaultImageInstruction replaces the caption when a photo arrives
// without one
const defaultImageInstruction = "Describe this image in detail."

// Builder renders the named prompt templates
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// ResumePrompt returns the three prompt parts for resume parsing: the
// system instruction, the schema restatement, and the user part embedding
// the extracted text verbatim.
func (b *Builder) ResumePrompt(rawText string) []string {
	userPart := strings.ReplaceAll(resumeUserTemplate, "{{RESUME_TEXT}}", rawText)

	return []string{
		resumeSystemTemplate,
		resumeSchemaTemplate,
		userPart,
	}
}

// ChatPrompt combines a user message with the serialized memory block
func (b *Builder) ChatPrompt(message string, memory map[string]string) string {
	prompt := strings.ReplaceAll(chatTemplate, "{{MESSAGE}}", message)
	prompt = strings.ReplaceAll(prompt, "{{MEMORY}}", FormatMemory(memory))
	return strings.TrimSpace(prompt)
}

// ImagePrompt builds the prompt accompanying an image. An empty caption is
// replaced with the default describe-this-image instruction.
func (b *Builder) ImagePrompt(caption string, memory map[string]string) string {
	if strings.TrimSpace(caption) == "" {
		caption = defaultImageInstruction
	}
	return b.ChatPrompt(caption, memory)
}

// FormatMemory serializes a memory mapping as one "key: value" line per
// pair. Keys are sorted so the block is stable across calls.
func FormatMemory(memory map[string]string) string {
	keys := make([]string, 0, len(memory))
	for k := range memory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, memory[k]))
	}
	return strings.Join(lines, "\n")
}
