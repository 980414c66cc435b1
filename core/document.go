package core

import (
	"context"
	"image"
	"image/draw"
	"slices"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/node"
)

// Document is a named value stored in a collection.
//
// Root is usually a *node.Node but can be any value the collection serializer accepts.
type Document struct {
	Name       string
	Root       any
	collection *Collection
}

// Collection returns the collection the document belongs to.
func (d *Document) Collection() *Collection {
	return d.collection
}

// Node returns the document root if it is a node.
func (d *Document) Node() (*node.Node, bool) {
	n, ok := d.Root.(*node.Node)
	return n, ok
}

// Reference returns a reference to this document.
func (d *Document) Reference() node.Reference {
	return node.NewReference(d.Name)
}

// Save writes the current root of the document to its collection.
func (d *Document) Save(ctx context.Context) error {
	if d.collection == nil {
		return ErrStorageUnavailable
	}
	return d.collection.Save(ctx, d)
}

// detach returns a value that does not share mutable state with v.
func detach(v any) any {
	switch t := v.(type) {
	case *node.Node:
		return t.Copy()
	case codec.Blob:
		return slices.Clone(t)
	case image.Image:
		return cloneImage(t)
	default:
		return v
	}
}

// cloneImage returns a copy of img with its own pixel buffer.
func cloneImage(img image.Image) image.Image {
	switch t := img.(type) {
	case *image.RGBA:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.NRGBA:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.RGBA64:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.NRGBA64:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.Gray:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.Gray16:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		return &out
	case *image.Paletted:
		out := *t
		out.Pix = slices.Clone(t.Pix)
		out.Palette = slices.Clone(t.Palette)
		return &out
	}
	b := img.Bounds()
	out := image.NewNRGBA64(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
