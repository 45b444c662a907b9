package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
)

type fakeProvider struct {
	replies  []*models.ModelReply
	errs     []error
	calls    int
	lastReq  *models.GenerateRequest
	healthy  error
	provName string
}

func (f *fakeProvider) Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error) {
	i := f.calls
	f.calls++
	f.lastReq = req
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return &models.ModelReply{Text: "ok"}, nil
}

func (f *fakeProvider) IsHealthy(ctx context.Context) error { return f.healthy }

func (f *fakeProvider) GetProviderName() string {
	if f.provName != "" {
		return f.provName
	}
	return "fake"
}

func testManager(provider Provider, maxRetries int) *Manager {
	cfg := &config.Config{}
	cfg.LLM.Timeout = 5 * time.Second
	cfg.LLM.MaxRetries = maxRetries
	cfg.LLM.RetryBackoff = time.Millisecond

	return &Manager{
		config:   cfg,
		factory:  NewFactory(cfg),
		provider: provider,
		logger:   logging.GetGlobalLogger(),
		healthy:  true,
	}
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	provider := &fakeProvider{replies: []*models.ModelReply{{Text: "hello"}}}
	m := testManager(provider, 3)

	reply, err := m.Generate(context.Background(), &models.GenerateRequest{Parts: []string{"hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, 1, provider.calls)
	assert.True(t, m.IsHealthy())
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	provider := &fakeProvider{
		errs:    []error{errors.New("boom"), errors.New("boom again"), nil},
		replies: []*models.ModelReply{nil, nil, {Text: "recovered"}},
	}
	m := testManager(provider, 3)

	reply, err := m.Generate(context.Background(), &models.GenerateRequest{Parts: []string{"hi"}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Text)
	assert.Equal(t, 3, provider.calls)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	provider := &fakeProvider{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	m := testManager(provider, 3)

	_, err := m.Generate(context.Background(), &models.GenerateRequest{Parts: []string{"hi"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 3, provider.calls)
	assert.False(t, m.IsHealthy())
}

func TestGenerateStopsOnCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{
		errs: []error{errors.New("slow")},
	}
	m := testManager(provider, 5)

	cancel()
	_, err := m.Generate(ctx, &models.GenerateRequest{Parts: []string{"hi"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 1, provider.calls, "cancelled context must not be retried")
}

func TestGenerateWithoutProvider(t *testing.T) {
	m := NewManager(&config.Config{})

	_, err := m.Generate(context.Background(), &models.GenerateRequest{Parts: []string{"hi"}})
	assert.Error(t, err)
}

func TestGetProviderName(t *testing.T) {
	m := testManager(&fakeProvider{provName: "gemini"}, 1)
	assert.Equal(t, "gemini", m.GetProviderName())

	empty := NewManager(&config.Config{})
	assert.Equal(t, "none", empty.GetProviderName())
}

func TestCheckHealthUpdatesState(t *testing.T) {
	provider := &fakeProvider{healthy: errors.New("unreachable")}
	m := testManager(provider, 1)

	err := m.CheckHealth(context.Background())
	assert.Error(t, err)
	assert.False(t, m.IsHealthy())

	provider.healthy = nil
	require.NoError(t, m.CheckHealth(context.Background()))
	assert.True(t, m.IsHealthy())
}
