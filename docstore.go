// Package docstore is an embedded document store.
//
// Documents are schema-less node trees kept in named collections. Every collection is
// backed by its own storage and serializes writes while letting reads run concurrently.
// Queries enumerate documents and carry subscriptions that observe document changes.
package docstore

import (
	"github.com/nasdf/docstore/config"
	"github.com/nasdf/docstore/core"
)

// Open returns a collection manager configured by cfg.
func Open(cfg config.Config) (*core.Manager, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return core.NewManager(opts), nil
}
