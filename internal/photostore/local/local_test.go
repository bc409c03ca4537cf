package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stampcam/internal/domain"
)

func TestLocalPhotoStoreSaveAndGet(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	ctx := context.Background()
	imageData := []byte("fake jpeg data")

	key, err := store.Save(ctx, "shot_full", "image/jpeg", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/jpeg", mimeType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestLocalPhotoStoreDelete(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	ctx := context.Background()

	key, err := store.Save(ctx, "shot_thumb", "image/jpeg", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Delete(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPhotoStoreNotFound(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "nonexistent.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPhotoStorePathTraversal(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Save(ctx, "../escape", "image/jpeg", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocalPhotoStorePurge(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	ctx := context.Background()
	for _, prefix := range []string{"a", "b", "c"} {
		_, err := store.Save(ctx, prefix, "image/jpeg", bytes.NewReader([]byte(prefix)))
		require.NoError(t, err)
	}

	require.NoError(t, store.Purge(ctx))

	entries, err := os.ReadDir(tmpdir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMimeTypeExtensions(t *testing.T) {
	tests := []struct {
		mime string
		ext  string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"application/octet-stream", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.ext, mimeTypeToExt(tt.mime))
			if tt.mime != "application/octet-stream" {
				assert.Equal(t, tt.mime, extToMimeType("x"+tt.ext))
			}
		})
	}
}
