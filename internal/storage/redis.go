package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cvlens/internal/config"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
)

// RedisStore keeps the per-user memory and history records in Redis. The
// record shapes match the file backend; only the medium differs.
type RedisStore struct {
	client *redis.Client
	locks  *userLocks
	logger logging.Logger
}

// NewRedisStore creates a redis-backed store from the configured URL
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Storage.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Storage.Redis.Password != "" {
		opts.Password = cfg.Storage.Redis.Password
	}
	opts.DB = cfg.Storage.Redis.DB

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Redis.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		locks:  newUserLocks(),
		logger: logging.GetGlobalLogger(),
	}, nil
}

func memoryKey(userID string) string {
	return "cvlens:memory:" + userID
}

func historyKey(userID string) string {
	return "cvlens:history:" + userID
}

// LoadMemory returns the user's memory mapping, empty when no record
// exists yet
func (s *RedisStore) LoadMemory(ctx context.Context, userID string) (map[string]string, error) {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.readMemory(ctx, userID)
}

func (s *RedisStore) readMemory(ctx context.Context, userID string) (map[string]string, error) {
	data, err := s.client.Get(ctx, memoryKey(userID)).Bytes()
	if err == redis.Nil {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory record: %w", err)
	}

	memory := map[string]string{}
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, fmt.Errorf("failed to parse memory record: %w", err)
	}

	return memory, nil
}

// SaveMemory overwrites the user's memory record wholesale
func (s *RedisStore) SaveMemory(ctx context.Context, userID string, memory map[string]string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.writeJSON(ctx, memoryKey(userID), memory)
}

// AppendHistory reads the existing log, appends one freshly timestamped
// entry, and rewrites the full sequence
func (s *RedisStore) AppendHistory(ctx context.Context, userID string, sender models.Sender, message string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	history := s.readHistory(ctx, userID)
	history = append(history, models.NewHistoryEntry(sender, message))

	return s.writeJSON(ctx, historyKey(userID), history)
}

// LoadHistory returns the user's history log in append order
func (s *RedisStore) LoadHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.readHistory(ctx, userID), nil
}

func (s *RedisStore) readHistory(ctx context.Context, userID string) []models.HistoryEntry {
	data, err := s.client.Get(ctx, historyKey(userID)).Bytes()
	if err != nil {
		return []models.HistoryEntry{}
	}

	var history []models.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn("History record unparseable, starting fresh", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return []models.HistoryEntry{}
	}

	return history
}

// ClearHistory replaces the history record with an empty sequence
func (s *RedisStore) ClearHistory(ctx context.Context, userID string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.writeJSON(ctx, historyKey(userID), []models.HistoryEntry{})
}

func (s *RedisStore) writeJSON(ctx context.Context, key string, value interface{}) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := s.client.Set(ctx, key, buf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Close closes the redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
