package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "nested", "session.json"), testLogger())
	ctx := context.Background()

	sess := demoSession()
	require.NoError(t, storage.Save(ctx, sess))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, sess.Preferences, loaded.Preferences)
	assert.True(t, sess.CreatedAt.Equal(loaded.CreatedAt))
}

func TestFileStorageMissingFile(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "session.json"), testLogger())

	_, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStorageMalformedRecord(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: "{broken"},
		{name: "missing id", content: `{"name":"Test User"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			storage := NewFileStorage(path, testLogger())
			_, err := storage.Load(context.Background())
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestFileStorageLastWriterWins(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "session.json"), testLogger())
	ctx := context.Background()

	first := demoSession()
	second := demoSession()
	second.ID = "session-two"
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, storage.Save(ctx, first))
	require.NoError(t, storage.Save(ctx, second))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-two", loaded.ID)
}

func TestFileStorageClearIsIdempotent(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "session.json"), testLogger())
	ctx := context.Background()

	require.NoError(t, storage.Clear(ctx))

	require.NoError(t, storage.Save(ctx, demoSession()))
	require.NoError(t, storage.Clear(ctx))
	require.NoError(t, storage.Clear(ctx))

	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
