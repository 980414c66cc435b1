// Package storage implements the byte stores that back a collection.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/ipld/go-ipld-prime/storage"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidLocation is returned when a key or directory cannot be resolved.
	ErrInvalidLocation = errors.New("invalid location")
)

// Storage is a flat key value store of serialized documents.
type Storage interface {
	storage.ReadableStorage
	storage.WritableStorage
	// Delete removes the value stored under key.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys in sorted order.
	Keys(ctx context.Context) ([]string, error)
}

// ValidKey reports whether key can be used as a document name.
//
// Keys naming hidden files or the backup exclusion tag are rejected by every backend.
func ValidKey(key string) bool {
	if key == "" || key == CacheDirTag || strings.HasPrefix(key, ".") {
		return false
	}
	return !strings.ContainsAny(key, `/\`+"\x00")
}
