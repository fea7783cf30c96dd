package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(&conf.StorageSettings{
		Provider:  conf.StorageLocal,
		LocalPath: t.TempDir(),
	})
	require.NoError(t, err)
	return store
}

func TestLocalStorePutGetRoundtrip(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()
	content := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}

	location, err := store.Put(ctx, "d1/2025/03/e1.jpg", content)
	require.NoError(t, err)
	assert.Equal(t, "/api/storage/files/d1/2025/03/e1.jpg", location)

	got, err := store.Get(ctx, "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorePutOverwritesExisting(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "d1/2025/03/e1.jpg", []byte("first"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "d1/2025/03/e1.jpg", []byte("second"))
	require.NoError(t, err)

	got, err := store.Get(ctx, "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestLocalStoreGetMissingKey(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)

	_, err := store.Get(context.Background(), "d1/2025/03/absent.jpg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestLocalStoreExists(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Put(ctx, "d1/2025/03/e1.jpg", []byte("x"))
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "d1/2025/03/e1.jpg", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "d1/2025/03/e1.jpg"))
	// Deleting again must not error.
	require.NoError(t, store.Delete(ctx, "d1/2025/03/e1.jpg"))

	exists, err := store.Exists(ctx, "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
	}{
		{name: "empty key", key: ""},
		{name: "parent traversal", key: "../outside.jpg"},
		{name: "nested traversal", key: "d1/../../outside.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Put(ctx, tt.key, []byte("x"))
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestLocalStoreNoPartialObjectOnCancel(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "d1/2025/03/e1.jpg", []byte("x"))
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrCanceled))

	exists, err := store.Exists(context.Background(), "d1/2025/03/e1.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorePutLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewLocalStore(&conf.StorageSettings{
		Provider:  conf.StorageLocal,
		LocalPath: dir,
	})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "d1/2025/03/e1.jpg", []byte("x"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "d1", "2025", "03"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1.jpg", entries[0].Name())
}

func TestLocalStoreValidate(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	require.NoError(t, store.Validate())
}

func TestNewLocalStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewLocalStore(&conf.StorageSettings{Provider: conf.StorageLocal})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(&conf.StorageSettings{Provider: "ftp"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
