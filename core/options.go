package core

import (
	"time"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/dispatch"
	"github.com/nasdf/docstore/encryption"
)

// Options configures the collections opened by a Manager.
type Options struct {
	// RootDirectory is the directory collections are stored under.
	RootDirectory string
	// ExcludeFromBackup marks new collection directories as excluded from backups.
	ExcludeFromBackup bool
	// Encryption is applied to serialized documents. Defaults to encryption.Identity.
	Encryption encryption.Hook
	// Serializer is the ordered codec chain. Defaults to codec.DefaultChain.
	Serializer codec.Chain
	// Executor runs completions and notifications when the caller does not choose one.
	// Defaults to dispatch.Go.
	Executor dispatch.Executor
	// Storage opens the storage for a collection. Defaults to DirectoryStorage.
	Storage StorageFunc
	// CacheExpiration is how long decoded documents are cached. Zero disables the cache.
	CacheExpiration time.Duration
}

func (o Options) withDefaults() Options {
	if o.Encryption == nil {
		o.Encryption = encryption.Identity{}
	}
	if len(o.Serializer) == 0 {
		o.Serializer = codec.DefaultChain()
	}
	if o.Executor == nil {
		o.Executor = dispatch.Go
	}
	if o.Storage == nil {
		o.Storage = DirectoryStorage(o.RootDirectory, o.ExcludeFromBackup)
	}
	return o
}
