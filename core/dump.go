package core

import (
	"context"
	"errors"

	"github.com/golang/glog"
)

// Dump returns a map of document names to raw document contents.
//
// Documents that are not nodes or cannot be decoded are left out.
// This function is primarily used for testing and debugging.
func Dump(ctx context.Context, c *Collection) (map[string]map[string]any, error) {
	iter, err := c.Documents(ctx)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]map[string]any)
	for !iter.Done() {
		doc, err := iter.Next(ctx)
		if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err != nil {
			glog.Warningf("dump %s: %v", c.name, err)
			continue
		}
		n, ok := doc.Node()
		if !ok {
			continue
		}
		docs[doc.Name] = n.ToMap()
	}
	return docs, nil
}
