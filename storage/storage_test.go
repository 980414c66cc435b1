package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, store Storage) {
	ctx := context.Background()

	ok, err := store.Has(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	content := []byte("first")
	require.NoError(t, store.Put(ctx, "b", content))
	require.NoError(t, store.Put(ctx, "a", []byte("second")))
	content[0] = 'X'

	data, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	require.NoError(t, store.Put(ctx, "b", []byte("replaced")))
	data, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), data)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Delete(ctx, "a"))
	assert.ErrorIs(t, store.Delete(ctx, "a"), ErrNotFound)

	ok, err = store.Has(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, store.Put(ctx, "../escape", nil), ErrInvalidLocation)
	assert.ErrorIs(t, store.Put(ctx, "", nil), ErrInvalidLocation)
	assert.ErrorIs(t, store.Put(ctx, CacheDirTag, nil), ErrInvalidLocation)
}

func TestMemory(t *testing.T) {
	testStorage(t, NewMemory())
}

func TestDirectory(t *testing.T) {
	testStorage(t, NewDirectory(filepath.Join(t.TempDir(), "collection"), false))
}

func TestDirectoryCreatedOnDemand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "collection")
	dir := NewDirectory(path, true)

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	resolved, err := dir.Resolve()
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.FileExists(t, filepath.Join(path, CacheDirTag))

	_, err = dir.Resolve()
	require.NoError(t, err)

	keys, err := dir.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys, "backup tag is not a document")
}

func TestDirectoryWithoutBackupTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection")
	_, err := NewDirectory(path, false).Resolve()
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(path, CacheDirTag))
}

func TestDirectoryKeysSkipsDirectories(t *testing.T) {
	path := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(path, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, ".hidden"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "doc"), []byte("x"), 0o644))

	keys, err := NewDirectory(path, false).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, keys)
}

func TestDirectoryInvalidLocation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	dir := NewDirectory(file, false)
	_, err := dir.Keys(context.Background())
	assert.ErrorIs(t, err, ErrInvalidLocation)

	err = dir.Put(context.Background(), "doc", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestLevelDB(t *testing.T) {
	store, err := OpenLevelDB(filepath.Join(t.TempDir(), "collection"))
	require.NoError(t, err)
	defer store.Close()

	testStorage(t, store)
}
