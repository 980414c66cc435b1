package core

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"github.com/nasdf/docstore/link"
	"github.com/nasdf/docstore/node"
)

// Snapshot stores every decodable document of the collection in the archive and
// returns the root link.
//
// Nodes are stored as maps. Other documents are stored as their serialized bytes.
func Snapshot(ctx context.Context, c *Collection, archive *link.Archive) (datamodel.Link, error) {
	iter, err := c.Documents(ctx)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]datamodel.Node)
	for !iter.Done() {
		doc, err := iter.Next(ctx)
		if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err != nil {
			glog.Warningf("snapshot %s: %v", c.name, err)
			continue
		}
		switch root := doc.Root.(type) {
		case *node.Node:
			n, err := root.ToIPLD()
			if err != nil {
				return nil, err
			}
			docs[doc.Name] = n
		default:
			data, err := c.serializer.Encode(root)
			if err != nil {
				return nil, err
			}
			docs[doc.Name] = basicnode.NewBytes(data)
		}
	}
	return archive.Snapshot(ctx, docs)
}

// Export writes a CAR snapshot of the collection to the given io.Writer and returns its root link.
func Export(ctx context.Context, c *Collection, out io.Writer) (datamodel.Link, error) {
	archive := link.NewMemoryArchive()
	root, err := Snapshot(ctx, c, archive)
	if err != nil {
		return nil, err
	}
	return root, archive.Export(ctx, root, out)
}
