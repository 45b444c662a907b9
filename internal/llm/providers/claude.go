package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
	"cvlens/pkg/utils"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Generate sends the request content to Claude and returns its reply
func (cp *ClaudeProvider) Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error) {
	startTime := time.Now()

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Parts)+1)
	if len(req.Image) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			req.ImageMIME,
			base64.StdEncoding.EncodeToString(req.Image),
		))
	}
	for _, text := range req.Parts {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.config.LLM.Model),
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(cp.config.LLM.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: blocks,
			Role:    anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	reply := &models.ModelReply{}
	for _, content := range response.Content {
		text := content.AsText().Text
		if text == "" {
			continue
		}
		reply.Parts = append(reply.Parts, text)
	}
	reply.Text = strings.TrimSpace(strings.Join(reply.Parts, ""))

	cp.logger.Debug("Claude generation completed", map[string]interface{}{
		"provider":        "claude",
		"model":           cp.config.LLM.Model,
		"parts":           len(reply.Parts),
		"processing_time": utils.FormatDuration(time.Since(startTime)),
	})

	return reply, nil
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cp.config.LLM.Model),
		MaxTokens: 500,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock("Hello"),
			},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}
