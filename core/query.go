package core

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/nasdf/docstore/dispatch"
	"github.com/nasdf/docstore/node"
	"github.com/nasdf/docstore/storage"
)

// Observer receives change notifications for a query.
type Observer struct {
	// Fn is called with the document name and the change that happened.
	Fn func(name string, change Changes)
	// Executor runs Fn. Defaults to the collection executor.
	Executor dispatch.Executor
	// Changes selects which changes are delivered. Zero means All.
	Changes Changes
}

type subscription struct {
	id       string
	name     string
	all      bool
	observer Observer
}

func (s *subscription) matches(name string, change Changes) bool {
	mask := s.observer.Changes
	if mask == 0 {
		mask = All
	}
	if mask&change == 0 {
		return false
	}
	return s.all || s.name == name
}

// Query is a filtered view over the documents of a collection.
//
// A query owns the subscriptions it creates. Close releases all of them. A query
// that is garbage collected without being closed releases them as well.
type Query struct {
	collection *Collection
	name       string
	all        bool

	mu     sync.Mutex
	ids    []string
	closed bool
}

func newQuery(c *Collection, name string, all bool) *Query {
	q := &Query{
		collection: c,
		name:       name,
		all:        all,
	}
	runtime.SetFinalizer(q, (*Query).finalize)
	return q
}

// QueryReference returns a query matching the document ref points to.
func (c *Collection) QueryReference(ref node.Reference) *Query {
	return c.QueryByName(ref.Name)
}

// Collection returns the collection the query is bound to.
func (q *Query) Collection() *Collection {
	return q.collection
}

// keys returns the names of the candidate documents.
func (q *Query) keys(ctx context.Context) ([]string, error) {
	if !q.all {
		if !storage.ValidKey(q.name) {
			return nil, nil
		}
		return []string{q.name}, nil
	}
	return q.collection.store.Keys(ctx)
}

// FetchFirstAsync returns the first matching document that can be decoded.
//
// The document is nil when nothing matches.
func (q *Query) FetchFirstAsync(exec dispatch.Executor, done func(doc *Document, err error)) {
	submit(q.collection, false, exec, done, func(ctx context.Context) (*Document, error) {
		keys, err := q.keys(ctx)
		if err != nil {
			return nil, err
		}
		docs, err := q.collection.fetch(ctx, keys, true)
		if err != nil || len(docs) == 0 {
			return nil, err
		}
		return docs[0], nil
	})
}

// FetchFirst returns the first matching document that can be decoded.
//
// The document is nil when nothing matches.
func (q *Query) FetchFirst(ctx context.Context) (*Document, error) {
	return wait(ctx, func(done func(*Document, error)) {
		q.FetchFirstAsync(dispatch.Inline, done)
	})
}

// FetchAllAsync returns every matching document that can be decoded.
func (q *Query) FetchAllAsync(exec dispatch.Executor, done func(docs []*Document, err error)) {
	submit(q.collection, false, exec, done, func(ctx context.Context) ([]*Document, error) {
		keys, err := q.keys(ctx)
		if err != nil {
			return nil, err
		}
		return q.collection.fetch(ctx, keys, false)
	})
}

// FetchAll returns every matching document that can be decoded.
func (q *Query) FetchAll(ctx context.Context) ([]*Document, error) {
	return wait(ctx, func(done func([]*Document, error)) {
		q.FetchAllAsync(dispatch.Inline, done)
	})
}

// Subscribe registers an observer for changes to documents matching the query.
//
// The returned id is owned by the query. Registration is ordered with the other
// operations of the collection: every write admitted after Subscribe returns is
// delivered to the observer.
func (q *Query) Subscribe(observer Observer) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", ErrStorageUnavailable
	}
	sub := &subscription{
		id:       ulid.Make().String(),
		name:     q.name,
		all:      q.all,
		observer: observer,
	}
	if err := q.collection.register(sub); err != nil {
		return "", ErrStorageUnavailable
	}
	q.ids = append(q.ids, sub.id)
	return sub.id, nil
}

// Unsubscribe removes the subscription with the given id.
//
// Ids that were not created by this query are ignored.
func (q *Query) Unsubscribe(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := slices.Index(q.ids, id)
	if i < 0 {
		return nil
	}
	q.ids = slices.Delete(q.ids, i, i+1)
	if err := q.collection.unregister(id); err != nil {
		return ErrStorageUnavailable
	}
	return nil
}

// Close releases every subscription created by the query.
//
// Fetching from a closed query still works. Subscribing does not.
func (q *Query) Close() error {
	runtime.SetFinalizer(q, nil)
	q.release()
	return nil
}

func (q *Query) release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	ids := q.ids
	q.ids = nil
	// a closed collection has already dropped its registry
	_ = q.collection.unregister(ids...)
}

func (q *Query) finalize() {
	glog.V(1).Infof("collection %s: releasing discarded query", q.collection.name)
	q.release()
}
