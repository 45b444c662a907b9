// Package bot runs the Telegram chat surface: commands are direct state
// operations against the user store, free text and photos go through the
// model with the user's memory folded into the prompt.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/internal/storage"
	"cvlens/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Generator is the slice of the model manager the bot needs
type Generator interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error)
}

// Bot wires the Telegram API to the conversation engine
type Bot struct {
	api        *tgbotapi.BotAPI
	engine     *Engine
	cfg        *config.Config
	logger     logging.Logger
	httpClient *http.Client
}

// New creates a bot connected to the Telegram API
func New(cfg *config.Config, store storage.Store, generator Generator) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	return &Bot{
		api:        api,
		engine:     NewEngine(store, generator),
		cfg:        cfg,
		logger:     logging.GetGlobalLogger(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Run polls for updates until the context is cancelled
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot running with text + image understanding", map[string]interface{}{
		"username": b.api.Self.UserName,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.Bot.PollTimeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	var reply string
	var err error

	switch {
	case msg.IsCommand():
		reply, err = b.engine.HandleCommand(ctx, userID, msg.Command(), msg.CommandArguments())
	case len(msg.Photo) > 0:
		reply, err = b.handlePhoto(ctx, userID, msg)
	case msg.Text != "":
		reply, err = b.engine.HandleText(ctx, userID, msg.Text)
	default:
		return
	}

	if err != nil {
		b.logger.Error("Failed to handle message", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		reply = replyServerTrouble
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Error("Failed to send reply", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (b *Bot) handlePhoto(ctx context.Context, userID string, msg *tgbotapi.Message) (string, error) {
	// Highest resolution variant is last
	photo := msg.Photo[len(msg.Photo)-1]

	image, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to download photo: %w", err)
	}

	return b.engine.HandlePhoto(ctx, userID, msg.Caption, image)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
