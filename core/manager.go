package core

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/golang/glog"

	"github.com/nasdf/docstore/storage"
)

// Manager holds the open collections of a process.
type Manager struct {
	opts        Options
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewManager returns a manager that opens collections with the given options.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:        opts.withDefaults(),
		collections: make(map[string]*Collection),
	}
}

// Collection returns the named collection, opening it if needed.
func (m *Manager) Collection(name string) (*Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[name]; ok {
		return c, nil
	}
	if !storage.ValidKey(name) {
		return nil, fmt.Errorf("%w: collection name %q", ErrInvalidLocation, name)
	}
	store, err := m.opts.Storage(name)
	if err != nil {
		return nil, err
	}
	c := newCollection(name, store, m.opts)
	m.collections[name] = c
	glog.V(1).Infof("opened collection %s", name)
	return c, nil
}

// IsOpen returns true if the named collection is open.
func (m *Manager) IsOpen(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.collections[name]
	return ok
}

// Names returns the names of all open collections.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close closes the named collection.
//
// Operations already admitted finish first. Later operations on the collection and
// its queries fail with ErrStorageUnavailable. Stored documents are kept.
func (m *Manager) Close(name string) error {
	m.mu.Lock()
	c, ok := m.collections[name]
	delete(m.collections, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	glog.V(1).Infof("closing collection %s", name)
	return c.close()
}

// Shutdown closes every open collection.
func (m *Manager) Shutdown() error {
	var errs []error
	for _, name := range m.Names() {
		if err := m.Close(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
