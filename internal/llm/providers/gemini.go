package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
	"cvlens/pkg/utils"
)

// GeminiProvider implements the LLM provider interface using Google's
// Gemini API
type GeminiProvider struct {
	client *genai.Client
	config *config.Config
	logger logging.Logger
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}, nil
}

// Generate sends the request content to Gemini and returns its reply
func (gp *GeminiProvider) Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error) {
	startTime := time.Now()

	parts := make([]*genai.Part, 0, len(req.Parts)+1)
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.ImageMIME,
				Data:     req.Image,
			},
		})
	}
	for _, text := range req.Parts {
		parts = append(parts, &genai.Part{Text: text})
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}

	temperature := gp.config.LLM.Temperature
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(gp.config.LLM.MaxTokens),
		Temperature:     &temperature,
	}

	resp, err := gp.client.Models.GenerateContent(ctx, gp.config.LLM.Model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	reply := assembleReply(resp)

	gp.logger.Debug("Gemini generation completed", map[string]interface{}{
		"provider":        "gemini",
		"model":           gp.config.LLM.Model,
		"parts":           len(reply.Parts),
		"processing_time": utils.FormatDuration(time.Since(startTime)),
	})

	return reply, nil
}

// assembleReply walks the candidate/part structure and collects every
// text-bearing part alongside the aggregated text
func assembleReply(resp *genai.GenerateContentResponse) *models.ModelReply {
	reply := &models.ModelReply{}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			reply.Parts = append(reply.Parts, part.Text)
		}
	}

	reply.Text = strings.TrimSpace(strings.Join(reply.Parts, ""))
	return reply
}

// IsHealthy checks if the Gemini provider is healthy and available
func (gp *GeminiProvider) IsHealthy(ctx context.Context) error {
	if gp.config.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured - set GEMINI_API_KEY environment variable")
	}

	_, err := gp.client.Models.GenerateContent(ctx, gp.config.LLM.Model, genai.Text("Hello"), nil)
	if err != nil {
		return fmt.Errorf("Gemini API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (gp *GeminiProvider) GetProviderName() string {
	return "gemini"
}
