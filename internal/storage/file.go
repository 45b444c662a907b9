package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cvlens/internal/logging"
	"cvlens/pkg/models"
)

// FileStore persists one memory record and one history record per user as
// standalone JSON documents under a data directory.
type FileStore struct {
	dir    string
	locks  *userLocks
	logger logging.Logger
}

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{
		dir:    dir,
		locks:  newUserLocks(),
		logger: logging.GetGlobalLogger(),
	}, nil
}

func (s *FileStore) memoryPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("memory_%s.json", userID))
}

func (s *FileStore) historyPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("history_%s.json", userID))
}

// LoadMemory returns the user's memory mapping, empty when no record
// exists yet
func (s *FileStore) LoadMemory(_ context.Context, userID string) (map[string]string, error) {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.readMemory(userID)
}

func (s *FileStore) readMemory(userID string) (map[string]string, error) {
	data, err := os.ReadFile(s.memoryPath(userID))
	if os.IsNotExist(err) {
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
func (s *FileStore) SaveMemory(_ context.Context, userID string, memory map[string]string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.writeJSON(s.memoryPath(userID), memory)
}

// AppendHistory reads the existing log, appends one freshly timestamped
// entry, and rewrites the full sequence. A corrupt existing record is
// treated as empty, not fatal.
func (s *FileStore) AppendHistory(_ context.Context, userID string, sender models.Sender, message string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	history := s.readHistory(userID)
	history = append(history, models.NewHistoryEntry(sender, message))

	return s.writeJSON(s.historyPath(userID), history)
}

// LoadHistory returns the user's history log in append order
func (s *FileStore) LoadHistory(_ context.Context, userID string) ([]models.HistoryEntry, error) {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.readHistory(userID), nil
}

func (s *FileStore) readHistory(userID string) []models.HistoryEntry {
	data, err := os.ReadFile(s.historyPath(userID))
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
func (s *FileStore) ClearHistory(_ context.Context, userID string) error {
	lock := s.locks.lock(userID)
	defer lock.Unlock()

	return s.writeJSON(s.historyPath(userID), []models.HistoryEntry{})
}

// writeJSON writes the value as indented JSON with non-ASCII characters
// preserved literally
func (s *FileStore) writeJSON(path string, value interface{}) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
