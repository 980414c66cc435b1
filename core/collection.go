package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/dispatch"
	"github.com/nasdf/docstore/encryption"
	"github.com/nasdf/docstore/storage"
)

// Collection is a named set of documents backed by a single storage.
//
// Every operation is admitted to the collection queue. Writes run exclusively and
// reads run concurrently with other reads. Completions run on the executor passed
// to each call, or the collection executor when it is nil. Completions running on
// dispatch.Inline execute inside the queue and must not wait on the collection.
type Collection struct {
	name       string
	store      storage.Storage
	serializer codec.Chain
	hook       encryption.Hook
	executor   dispatch.Executor
	queue      *dispatch.Queue
	cache      *cache.Cache

	// subscriptions is only accessed from queue tasks.
	subscriptions map[string]*subscription
}

func newCollection(name string, store storage.Storage, opts Options) *Collection {
	c := &Collection{
		name:          name,
		store:         store,
		serializer:    opts.Serializer,
		hook:          opts.Encryption,
		executor:      opts.Executor,
		queue:         dispatch.NewQueue(),
		subscriptions: make(map[string]*subscription),
	}
	if opts.CacheExpiration > 0 {
		c.cache = cache.New(opts.CacheExpiration, 2*opts.CacheExpiration)
	}
	return c
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// submit admits op to the queue and delivers its result to done on exec.
func submit[T any](c *Collection, write bool, exec dispatch.Executor, done func(T, error), op func(ctx context.Context) (T, error)) {
	if exec == nil {
		exec = c.executor
	}
	complete := func(v T, err error) {
		if done != nil {
			exec.Execute(func() { done(v, err) })
		}
	}
	task := func() {
		v, err := run(c, op)
		complete(v, err)
	}
	var err error
	if write {
		err = c.queue.Write(task)
	} else {
		err = c.queue.Read(task)
	}
	if err != nil {
		var zero T
		complete(zero, ErrStorageUnavailable)
	}
}

// run calls op and turns a panic into ErrOperationPanicked.
func run[T any](c *Collection, op func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("collection %s: operation panicked: %v", c.name, r)
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()
	return op(context.Background())
}

type result[T any] struct {
	value T
	err   error
}

// wait starts an asynchronous operation and blocks until it completes or ctx is done.
//
// The operation is never cancelled. The context only bounds the wait.
func wait[T any](ctx context.Context, start func(done func(T, error))) (T, error) {
	ch := make(chan result[T], 1)
	start(func(v T, err error) {
		ch <- result[T]{value: v, err: err}
	})
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CreateAsync stores root under a newly generated name.
func (c *Collection) CreateAsync(root any, exec dispatch.Executor, done func(name string, err error)) {
	submit(c, true, exec, done, func(ctx context.Context) (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		name := id.String()
		if err := c.write(ctx, name, root); err != nil {
			return "", err
		}
		glog.V(1).Infof("collection %s: created %s", c.name, name)
		c.notify(name, Created)
		return name, nil
	})
}

// Create stores root under a newly generated name and returns the name.
func (c *Collection) Create(ctx context.Context, root any) (string, error) {
	return wait(ctx, func(done func(string, error)) {
		c.CreateAsync(root, dispatch.Inline, done)
	})
}

// SaveAsync replaces the stored content of doc with its current root.
func (c *Collection) SaveAsync(doc *Document, exec dispatch.Executor, done func(err error)) {
	name, root := doc.Name, doc.Root
	submit(c, true, exec, ignoreValue(done), func(ctx context.Context) (struct{}, error) {
		if !storage.ValidKey(name) {
			return struct{}{}, fmt.Errorf("%w: document name %q", ErrInvalidLocation, name)
		}
		if err := c.write(ctx, name, root); err != nil {
			return struct{}{}, err
		}
		glog.V(1).Infof("collection %s: saved %s", c.name, name)
		c.notify(name, Updated)
		return struct{}{}, nil
	})
}

// Save replaces the stored content of doc with its current root.
func (c *Collection) Save(ctx context.Context, doc *Document) error {
	_, err := wait(ctx, func(done func(struct{}, error)) {
		c.SaveAsync(doc, dispatch.Inline, func(err error) { done(struct{}{}, err) })
	})
	return err
}

// RemoveAsync deletes the named document.
func (c *Collection) RemoveAsync(name string, exec dispatch.Executor, done func(err error)) {
	submit(c, true, exec, ignoreValue(done), func(ctx context.Context) (struct{}, error) {
		err := c.store.Delete(ctx, name)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return struct{}{}, fmt.Errorf("%w: %s", ErrDocumentUnavailable, name)
		case errors.Is(err, storage.ErrInvalidLocation):
			return struct{}{}, err
		case err != nil:
			glog.Errorf("collection %s: failed to remove %s: %v", c.name, name, err)
			return struct{}{}, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
		c.evict(name)
		glog.V(1).Infof("collection %s: removed %s", c.name, name)
		c.notify(name, Removed)
		return struct{}{}, nil
	})
}

// Remove deletes the named document.
func (c *Collection) Remove(ctx context.Context, name string) error {
	_, err := wait(ctx, func(done func(struct{}, error)) {
		c.RemoveAsync(name, dispatch.Inline, func(err error) { done(struct{}{}, err) })
	})
	return err
}

// QueryAll returns a query matching every document in the collection.
func (c *Collection) QueryAll() *Query {
	return newQuery(c, "", true)
}

// QueryByName returns a query matching the document with the given name.
func (c *Collection) QueryByName(name string) *Query {
	return newQuery(c, name, false)
}

// SubscriptionIDsAsync returns the ids of every live subscription.
func (c *Collection) SubscriptionIDsAsync(exec dispatch.Executor, done func(ids []string, err error)) {
	submit(c, false, exec, done, func(ctx context.Context) ([]string, error) {
		ids := make([]string, 0, len(c.subscriptions))
		for id := range c.subscriptions {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return ids, nil
	})
}

// SubscriptionIDs returns the ids of every live subscription.
func (c *Collection) SubscriptionIDs(ctx context.Context) ([]string, error) {
	return wait(ctx, func(done func([]string, error)) {
		c.SubscriptionIDsAsync(dispatch.Inline, done)
	})
}

// Documents returns an iterator over every document in the collection.
func (c *Collection) Documents(ctx context.Context) (*DocumentIterator, error) {
	keys, err := wait(ctx, func(done func([]string, error)) {
		submit(c, false, dispatch.Inline, done, c.store.Keys)
	})
	if err != nil {
		return nil, err
	}
	return &DocumentIterator{collection: c, keys: keys}, nil
}

func ignoreValue(done func(error)) func(struct{}, error) {
	if done == nil {
		return nil
	}
	return func(_ struct{}, err error) { done(err) }
}

// write encodes root and stores it under name.
func (c *Collection) write(ctx context.Context, name string, root any) error {
	data, err := c.serializer.Encode(root)
	if err != nil {
		return err
	}
	data, err = c.hook.Encrypt(data)
	if err != nil {
		return err
	}
	err = c.store.Put(ctx, name, data)
	if errors.Is(err, storage.ErrInvalidLocation) {
		return err
	}
	if err != nil {
		glog.Errorf("collection %s: failed to write %s: %v", c.name, name, err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	c.evict(name)
	return nil
}

// read loads and decodes the named document.
func (c *Collection) read(ctx context.Context, name string) (any, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(name); ok {
			return detach(v), nil
		}
	}
	data, err := c.store.Get(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentUnavailable, name)
	}
	if err != nil {
		return nil, err
	}
	data, err = c.hook.Decrypt(data)
	if err != nil {
		return nil, err
	}
	v, err := c.serializer.Decode(data)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetDefault(name, detach(v))
	}
	return v, nil
}

func (c *Collection) evict(name string) {
	if c.cache != nil {
		c.cache.Delete(name)
	}
}

// fetch returns the documents stored under keys.
//
// Entries that fail to decode are skipped. When first is set fetch stops at the
// first document that decodes.
func (c *Collection) fetch(ctx context.Context, keys []string, first bool) ([]*Document, error) {
	var docs []*Document
	for _, name := range keys {
		v, err := c.read(ctx, name)
		if errors.Is(err, ErrDocumentUnavailable) {
			continue
		}
		if errors.Is(err, storage.ErrInvalidLocation) {
			return nil, err
		}
		if err != nil {
			glog.Warningf("collection %s: skipping %s: %v", c.name, name, err)
			continue
		}
		glog.V(2).Infof("collection %s: loaded %s", c.name, name)
		docs = append(docs, &Document{Name: name, Root: v, collection: c})
		if first {
			break
		}
	}
	return docs, nil
}

// notify delivers a change to every matching subscription.
//
// Must be called from a write task after the change is stored.
func (c *Collection) notify(name string, change Changes) {
	for _, sub := range c.subscriptions {
		if !sub.matches(name, change) {
			continue
		}
		exec := sub.observer.Executor
		if exec == nil {
			exec = c.executor
		}
		fn, id := sub.observer.Fn, sub.id
		exec.Execute(func() {
			defer func() {
				if r := recover(); r != nil {
					glog.Errorf("collection %s: observer %s panicked on %s: %v", c.name, id, name, r)
				}
			}()
			fn(name, change)
		})
	}
}

func (c *Collection) register(sub *subscription) error {
	return c.queue.Write(func() {
		c.subscriptions[sub.id] = sub
		glog.V(1).Infof("collection %s: registered subscription %s", c.name, sub.id)
	})
}

func (c *Collection) unregister(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.queue.Write(func() {
		for _, id := range ids {
			delete(c.subscriptions, id)
			glog.V(1).Infof("collection %s: removed subscription %s", c.name, id)
		}
	})
}

// close stops admission and waits for admitted operations to finish.
func (c *Collection) close() error {
	c.queue.Close()
	<-c.queue.Done()

	c.subscriptions = nil
	if c.cache != nil {
		c.cache.Flush()
	}
	if closer, ok := c.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
