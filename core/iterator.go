package core

import (
	"context"

	"github.com/nasdf/docstore/dispatch"
)

// DocumentIterator iterates over the documents of a collection in name order.
//
// The set of names is fixed when the iterator is created.
type DocumentIterator struct {
	collection *Collection
	keys       []string
}

// Done returns true if the iterator has no items left.
func (i *DocumentIterator) Done() bool {
	return len(i.keys) == 0
}

// Next returns the next document from the iterator.
//
// Documents that cannot be decoded are returned as errors so the caller can skip them.
func (i *DocumentIterator) Next(ctx context.Context) (*Document, error) {
	if i.Done() {
		return nil, ErrIteratorDone
	}
	name := i.keys[0]
	i.keys = i.keys[1:]

	c := i.collection
	return wait(ctx, func(done func(*Document, error)) {
		submit(c, false, dispatch.Inline, done, func(ctx context.Context) (*Document, error) {
			v, err := c.read(ctx, name)
			if err != nil {
				return nil, err
			}
			return &Document{Name: name, Root: v, collection: c}, nil
		})
	})
}
