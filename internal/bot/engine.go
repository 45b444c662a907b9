package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cvlens/internal/llm/processors"
	"cvlens/internal/llm/prompts"
	"cvlens/internal/logging"
	"cvlens/internal/storage"
	"cvlens/pkg/models"
)

const (
	replyStart = "🤖 Hello! I'm your AI assistant bot.\n" +
		"You can:\n" +
		"• Send text → I reply\n" +
		"• Send an image (with or without caption) → I understand it\n\n" +
		"Commands:\n" +
		"/remember key=value – Save memory\n" +
		"/memory – Show memory\n" +
		"/clear – Clear chat history\n" +
		"/stop – End chat"

	replyStop          = "Chat stopped. Goodbye! 👋"
	replyCleared       = "🧹 Chat history cleared!"
	replyRememberUsage = "Use format: /remember key=value"
	replyServerTrouble = "Sorry, something went wrong. Please try again."

	historyImagePlaceholder = "[Image]"
	telegramPhotoMIME       = "image/jpeg"
)

// Engine implements the conversation logic independently of the Telegram
// transport, so it can be exercised directly in tests.
type Engine struct {
	store      storage.Store
	generator  Generator
	prompts    *prompts.Builder
	normalizer *processors.ResponseNormalizer
}

// NewEngine creates a conversation engine on top of the given store and
// model generator
func NewEngine(store storage.Store, generator Generator) *Engine {
	return &Engine{
		store:      store,
		generator:  generator,
		prompts:    prompts.NewBuilder(),
		normalizer: processors.NewResponseNormalizer(),
	}
}

// HandleCommand executes a bot command as a direct state operation and
// returns the fixed reply text. Commands never reach the model.
func (e *Engine) HandleCommand(ctx context.Context, userID, command, args string) (string, error) {
	switch command {
	case "start":
		return replyStart, nil
	case "stop":
		return replyStop, nil
	case "clear":
		if err := e.store.ClearHistory(ctx, userID); err != nil {
			return "", fmt.Errorf("failed to clear history: %w", err)
		}
		return replyCleared, nil
	case "memory":
		memory, err := e.store.LoadMemory(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("failed to load memory: %w", err)
		}
		return "🧠 Memory:\n" + formatMemoryJSON(memory), nil
	case "remember":
		return e.remember(ctx, userID, args)
	default:
		return "Unknown command. Send /start to see what I can do.", nil
	}
}

func (e *Engine) remember(ctx context.Context, userID, args string) (string, error) {
	key, value, found := strings.Cut(args, "=")
	if !found {
		return replyRememberUsage, nil
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	memory, err := e.store.LoadMemory(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load memory: %w", err)
	}
	memory[key] = value
	if err := e.store.SaveMemory(ctx, userID, memory); err != nil {
		return "", fmt.Errorf("failed to save memory: %w", err)
	}

	return fmt.Sprintf("✔ Remembered: %s = %s", key, value), nil
}

// HandleText answers a free-text message with the user's memory folded
// into the prompt, then records both sides in the history log
func (e *Engine) HandleText(ctx context.Context, userID, text string) (string, error) {
	memory, err := e.store.LoadMemory(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load memory: %w", err)
	}

	reply, err := e.generator.Generate(ctx, &models.GenerateRequest{
		Parts: []string{e.prompts.ChatPrompt(text, memory)},
	})
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	answer := e.normalizer.NormalizeChatText(reply)
	e.appendExchange(ctx, userID, models.SenderUser, text, answer)
	return answer, nil
}

// HandlePhoto answers a photo message, using the caption when present and
// a fixed describe instruction otherwise
func (e *Engine) HandlePhoto(ctx context.Context, userID, caption string, image []byte) (string, error) {
	memory, err := e.store.LoadMemory(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load memory: %w", err)
	}

	reply, err := e.generator.Generate(ctx, &models.GenerateRequest{
		Parts:     []string{e.prompts.ImagePrompt(caption, memory)},
		Image:     image,
		ImageMIME: telegramPhotoMIME,
	})
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	answer := e.normalizer.NormalizeChatText(reply)

	inbound := caption
	if inbound == "" {
		inbound = historyImagePlaceholder
	}
	e.appendExchange(ctx, userID, models.SenderUserImage, inbound, answer)
	return answer, nil
}

// appendExchange records the inbound message and the reply. History is a
// log, not the source of the answer already sent, so failures here must
// not fail the exchange.
func (e *Engine) appendExchange(ctx context.Context, userID string, inSender models.Sender, inbound, answer string) {
	if err := e.store.AppendHistory(ctx, userID, inSender, inbound); err != nil {
		logging.GetGlobalLogger().Warn("Failed to append inbound history entry", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	if err := e.store.AppendHistory(ctx, userID, models.SenderAssistant, answer); err != nil {
		logging.GetGlobalLogger().Warn("Failed to append reply history entry", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func formatMemoryJSON(memory map[string]string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(memory); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}
