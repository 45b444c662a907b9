// Package storage provides the per-user durable state: a key-value memory
// mapping and an append-only history log. State is authoritative in the
// backing store, not in process memory; every access re-reads and rewrites
// the backing record.
package storage

import (
	"context"
	"fmt"
	"sync"

	"cvlens/internal/config"
	"cvlens/pkg/models"
)

// Store is the per-user state contract shared by the file and redis
// backends. Implementations serialize load-mutate-save cycles per user
// identifier, so concurrent operations for the same user cannot lose
// updates within one process.
type Store interface {
	// LoadMemory returns the user's memory mapping, empty when no record
	// exists yet
	LoadMemory(ctx context.Context, userID string) (map[string]string, error)

	// SaveMemory overwrites the user's memory record wholesale
	SaveMemory(ctx context.Context, userID string, memory map[string]string) error

	// AppendHistory appends one entry with a freshly captured timestamp,
	// treating a corrupt existing record as empty
	AppendHistory(ctx context.Context, userID string, sender models.Sender, message string) error

	// LoadHistory returns the user's history log in append order
	LoadHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)

	// ClearHistory replaces the history record with an empty sequence
	ClearHistory(ctx context.Context, userID string) error

	// Close releases backend resources
	Close() error
}

// NewStore creates the configured storage backend
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "file":
		return NewFileStore(cfg.Storage.DataDir)
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// userLocks hands out one mutex per user identifier
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (u *userLocks) lock(userID string) *sync.Mutex {
	u.mu.Lock()
	m, ok := u.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		u.locks[userID] = m
	}
	u.mu.Unlock()

	m.Lock()
	return m
}
