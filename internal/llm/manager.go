package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
)

// ErrProviderUnavailable indicates the provider call failed after the
// configured retries were exhausted
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// Manager manages LLM providers and their lifecycle. Every call runs under
// the configured timeout with bounded retries and linear backoff; transient
// provider failures are retried, exhaustion is surfaced as
// ErrProviderUnavailable.
type Manager struct {
	config   *config.Config
	factory  *Factory
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewFactory(cfg),
		logger:  logging.GetGlobalLogger(),
	}
}

// Start initializes the LLM manager and creates the provider
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{
		"provider": m.config.LLM.Provider,
	})

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	m.provider = provider

	// Test provider health; a failed probe is logged but not fatal so the
	// process can start before the provider key is in place
	ctx, cancel := context.WithTimeout(context.Background(), m.config.LLM.Timeout)
	defer cancel()

	if err := m.provider.IsHealthy(ctx); err != nil {
		m.logger.Warn("LLM provider health check failed", map[string]interface{}{
			"provider": provider.GetProviderName(),
			"error":    err.Error(),
		})
		m.healthy = false
	} else {
		m.healthy = true
		m.logger.Info("LLM manager started successfully", map[string]interface{}{
			"provider": provider.GetProviderName(),
		})
	}

	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// Generate invokes the configured provider with timeout and retry handling
func (m *Manager) Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error) {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("LLM manager not started or provider not available")
	}

	var lastErr error
	for attempt := 1; attempt <= m.config.LLM.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, m.config.LLM.Timeout)
		reply, err := provider.Generate(callCtx, req)
		cancel()

		if err == nil {
			m.setHealthy(true)
			return reply, nil
		}

		lastErr = err

		// Caller cancellation is permanent, everything else is treated as
		// transient and retried
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
		}

		m.logger.Warn("LLM provider call failed", map[string]interface{}{
			"provider": provider.GetProviderName(),
			"attempt":  attempt,
			"error":    err.Error(),
		})

		if attempt < m.config.LLM.MaxRetries {
			select {
			case <-time.After(m.config.LLM.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
			}
		}
	}

	m.setHealthy(false)
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderUnavailable, m.config.LLM.MaxRetries, lastErr)
}

func (m *Manager) setHealthy(healthy bool) {
	m.mu.Lock()
	m.healthy = healthy
	m.mu.Unlock()
}

// IsHealthy checks if the LLM manager and provider are healthy
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}

// CheckHealth performs a health check on the LLM provider
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("LLM provider not available")
	}

	err := provider.IsHealthy(ctx)
	m.setHealthy(err == nil)
	return err
}
