package llm

import (
	"context"

	"cvlens/pkg/models"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Generate sends the request content to the hosted model and returns
	// its textual reply
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error)

	// IsHealthy checks if the LLM provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}
