// Package processors post-processes raw model output before it reaches
// callers: fence stripping, schema-aware JSON decoding, and chat text
// recovery.
package processors

import (
	"encoding/json"
	"strings"

	"cvlens/internal/logging"
	"cvlens/pkg/models"
	"cvlens/pkg/utils"
)

// parseFailureMessage is the fixed error marker callers branch on when the
// model's output is not valid JSON
const parseFailureMessage = "JSON parsing failed"

// emptyReplyApology is returned when no text could be recovered from a
// chat response; the bot never sends an empty reply
const emptyReplyApology = "I couldn't understand this image properly, sorry."

// ResponseNormalizer coerces free-form model output into the declared
// result shapes
type ResponseNormalizer struct {
	logger logging.Logger
}

// NewResponseNormalizer creates a new response normalizer
func NewResponseNormalizer() *ResponseNormalizer {
	return &ResponseNormalizer{
		logger: logging.GetGlobalLogger(),
	}
}

// NormalizeResumeJSON strips incidental markdown formatting from the raw
// model output and decodes it against the resume schema. Total parse
// failure degrades to a ParseFailure record; it never returns an error.
func (n *ResponseNormalizer) NormalizeResumeJSON(rawOutput string) *models.ResumeParseResult {
	cleaned := stripFences(rawOutput)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		n.logger.Warn("Model output is not valid JSON", map[string]interface{}{
			"error":  err.Error(),
			"output": utils.Truncate(cleaned, 200),
		})
		return &models.ResumeParseResult{
			Failure: &models.ParseFailure{
				Error:     parseFailureMessage,
				RawOutput: cleaned,
			},
		}
	}

	result := &models.ResumeParseResult{Resume: &models.ParsedResume{}}
	resume := result.Resume

	decodeField(raw, "name", &resume.Name, result)
	decodeField(raw, "email", &resume.Email, result)
	decodeField(raw, "phone", &resume.Phone, result)
	decodeField(raw, "location", &resume.Location, result)
	decodeField(raw, "summary", &resume.Summary, result)
	decodeField(raw, "skills", &resume.Skills, result)
	decodeField(raw, "experience", &resume.Experience, result)
	decodeField(raw, "education", &resume.Education, result)
	decodeField(raw, "projects", &resume.Projects, result)
	decodeField(raw, "social_links", &resume.SocialLinks, result)
	decodeField(raw, "certifications", &resume.Certifications, result)
	decodeField(raw, "extras", &resume.Extras, result)

	return result
}

// decodeField decodes one top-level schema field, recording absent keys in
// MissingFields and wrong-shaped values in MalformedFields. A malformed
// field keeps its zero value instead of failing the whole parse.
func decodeField[T any](raw map[string]json.RawMessage, key string, target *T, result *models.ResumeParseResult) {
	value, ok := raw[key]
	if !ok {
		result.MissingFields = append(result.MissingFields, key)
		return
	}

	if err := json.Unmarshal(value, target); err != nil {
		var zero T
		*target = zero
		result.MalformedFields = append(result.MalformedFields, key)
	}
}

// stripFences trims the output and removes markdown code fences. When the
// text starts with a triple-backtick fence, every backtick is dropped and
// one leading "json" language tag is removed.
func stripFences(rawOutput string) string {
	cleaned := strings.TrimSpace(rawOutput)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.ReplaceAll(cleaned, "`", "")
		cleaned = strings.TrimSpace(cleaned)
		cleaned = strings.TrimPrefix(cleaned, "json")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// NormalizeChatText extracts the reply text from a model response. It
// prefers the aggregated text, falls back to concatenating the individual
// text-bearing parts, and finally substitutes a fixed apology so the user
// never receives an empty reply.
func (n *ResponseNormalizer) NormalizeChatText(reply *models.ModelReply) string {
	if reply != nil {
		if text := strings.TrimSpace(reply.Text); text != "" {
			return text
		}

		var builder strings.Builder
		for _, part := range reply.Parts {
			builder.WriteString(part)
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			return text
		}
	}

	return emptyReplyApology
}
