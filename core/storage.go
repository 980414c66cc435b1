package core

import (
	"fmt"
	"path/filepath"

	"github.com/nasdf/docstore/storage"
)

// StorageFunc returns the storage backing the named collection.
type StorageFunc func(name string) (storage.Storage, error)

// DirectoryStorage stores each collection in a directory under root.
func DirectoryStorage(root string, excludeFromBackup bool) StorageFunc {
	return func(name string) (storage.Storage, error) {
		if root == "" {
			return nil, fmt.Errorf("%w: empty root directory", ErrInvalidLocation)
		}
		return storage.NewDirectory(filepath.Join(root, name), excludeFromBackup), nil
	}
}

// LevelDBStorage stores each collection in a LevelDB database under root.
func LevelDBStorage(root string) StorageFunc {
	return func(name string) (storage.Storage, error) {
		if root == "" {
			return nil, fmt.Errorf("%w: empty root directory", ErrInvalidLocation)
		}
		return storage.OpenLevelDB(filepath.Join(root, name))
	}
}

// MemoryStorage keeps every collection in memory.
//
// Reopening a collection returns an empty store.
func MemoryStorage() StorageFunc {
	return func(name string) (storage.Storage, error) {
		return storage.NewMemory(), nil
	}
}
