// Package link builds content addressed archives of collections.
package link

import (
	"context"
	"io"
	"slices"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-car/v2"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/linking"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/storage"
	"github.com/ipld/go-ipld-prime/storage/memstore"
	"github.com/ipld/go-ipld-prime/traversal/selector"
	"github.com/ipld/go-ipld-prime/traversal/selector/builder"

	// codecs need to be initialized and registered
	_ "github.com/ipld/go-ipld-prime/codec/dagcbor"
	_ "github.com/ipld/go-ipld-prime/codec/dagjson"
)

var linkPrototype = cidlink.LinkPrototype{Prefix: cid.Prefix{
	Version:  1,    // Usually '1'.
	Codec:    0x71, // dag-cbor -- See the multicodecs table: https://github.com/multiformats/multicodec/
	MhType:   0x13, // sha2-512 -- See the multicodecs table: https://github.com/multiformats/multicodec/
	MhLength: 64,   // sha2-512 hash has a 64-byte sum.
}}

// Store is the block storage used by an Archive.
type Store interface {
	storage.ReadableStorage
	storage.WritableStorage
}

// Archive is a content addressable snapshot of documents.
type Archive struct {
	lsys linking.LinkSystem
}

// NewArchive returns an archive that keeps its blocks in the given store.
func NewArchive(store Store) *Archive {
	lsys := cidlink.DefaultLinkSystem()
	lsys.SetReadStorage(store)
	lsys.SetWriteStorage(store)

	return &Archive{
		lsys: lsys,
	}
}

// NewMemoryArchive returns an archive that keeps its blocks in memory.
func NewMemoryArchive() *Archive {
	return NewArchive(&memstore.Store{})
}

// Load returns the node matching the given link and built using the given prototype.
func (a *Archive) Load(ctx context.Context, lnk datamodel.Link, np datamodel.NodePrototype) (datamodel.Node, error) {
	return a.lsys.Load(linking.LinkContext{Ctx: ctx}, lnk, np)
}

// Store writes the given node to the archive and returns its link.
func (a *Archive) Store(ctx context.Context, node datamodel.Node) (datamodel.Link, error) {
	return a.lsys.Store(linking.LinkContext{Ctx: ctx}, linkPrototype, node)
}

// Snapshot stores every document and returns the link of a root map from
// document name to document link.
func (a *Archive) Snapshot(ctx context.Context, docs map[string]datamodel.Node) (datamodel.Link, error) {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	slices.Sort(names)

	nb := basicnode.Prototype.Map.NewBuilder()
	ma, err := nb.BeginMap(int64(len(names)))
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		lnk, err := a.Store(ctx, docs[name])
		if err != nil {
			return nil, err
		}
		na, err := ma.AssembleEntry(name)
		if err != nil {
			return nil, err
		}
		err = na.AssignLink(lnk)
		if err != nil {
			return nil, err
		}
	}
	err = ma.Finish()
	if err != nil {
		return nil, err
	}
	return a.Store(ctx, nb.Build())
}

// Export writes a CAR containing the DAG starting from the given root link to the given io.Writer.
func (a *Archive) Export(ctx context.Context, rootLink datamodel.Link, out io.Writer) error {
	cid := rootLink.(cidlink.Link).Cid
	ssb := builder.NewSelectorSpecBuilder(basicnode.Prototype.Any)
	sel := ssb.ExploreRecursive(selector.RecursionLimitNone(), ssb.ExploreAll(ssb.ExploreRecursiveEdge()))

	w, err := car.NewSelectiveWriter(ctx, &a.lsys, cid, sel.Node())
	if err != nil {
		return err
	}
	_, err = w.WriteTo(out)
	return err
}
