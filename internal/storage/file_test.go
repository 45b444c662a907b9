package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlens/pkg/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLoadMemoryMissingRecord(t *testing.T) {
	store := newTestStore(t)

	memory, err := store.LoadMemory(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, memory)
	assert.Empty(t, memory)
}

func TestSaveAndLoadMemory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := map[string]string{"favorite_color": "blue", "city": "Berlin"}
	require.NoError(t, store.SaveMemory(ctx, "42", saved))

	loaded, err := store.LoadMemory(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSaveMemoryOverwritesWholesale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMemory(ctx, "42", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, store.SaveMemory(ctx, "42", map[string]string{"c": "3"}))

	loaded, err := store.LoadMemory(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, loaded)
}

func TestMemoryIsPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMemory(ctx, "42", map[string]string{"name": "Jane"}))

	other, err := store.LoadMemory(ctx, "43")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAppendHistoryPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendHistory(ctx, "42", models.SenderUser, "hello"))
	require.NoError(t, store.AppendHistory(ctx, "42", models.SenderAssistant, "hi there"))

	history, err := store.LoadHistory(ctx, "42")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, models.SenderUser, history[0].Sender)
	assert.Equal(t, "hello", history[0].Message)
	assert.Equal(t, models.SenderAssistant, history[1].Sender)
	assert.Equal(t, "hi there", history[1].Message)

	for _, entry := range history {
		assert.NotEmpty(t, entry.Timestamp)
	}
}

func TestAppendHistoryToleratesCorruptRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(store.dir, "history_42.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not json"), 0o644))

	require.NoError(t, store.AppendHistory(ctx, "42", models.SenderUser, "fresh start"))

	history, err := store.LoadHistory(ctx, "42")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "fresh start", history[0].Message)
}

func TestClearHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendHistory(ctx, "42", models.SenderUser, "hello"))
	require.NoError(t, store.ClearHistory(ctx, "42"))

	history, err := store.LoadHistory(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, history)

	// The record holds an empty sequence, not nothing
	data, err := os.ReadFile(filepath.Join(store.dir, "history_42.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestWriteJSONKeepsUnicodeLiteral(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMemory(ctx, "42", map[string]string{"greeting": "héllo <world> 👋"}))

	data, err := os.ReadFile(filepath.Join(store.dir, "memory_42.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "héllo <world> 👋")
}

func TestConcurrentAppendsSameUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AppendHistory(ctx, "42", models.SenderUser, "msg"))
		}()
	}
	wg.Wait()

	history, err := store.LoadHistory(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, history, n)
}
