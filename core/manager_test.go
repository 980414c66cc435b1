package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ipld/go-car/v2"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerOpenClose(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})

	assert.False(t, m.IsOpen("documents"))

	c, err := m.Collection("documents")
	require.NoError(t, err)
	assert.True(t, m.IsOpen("documents"))
	assert.Equal(t, "documents", c.Name())

	same, err := m.Collection("documents")
	require.NoError(t, err)
	assert.Same(t, c, same)

	_, err = m.Collection("images")
	require.NoError(t, err)
	assert.Equal(t, []string{"documents", "images"}, m.Names())

	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)

	require.NoError(t, m.Close("documents"))
	assert.False(t, m.IsOpen("documents"))
	require.NoError(t, m.Close("documents"))

	reopened, err := m.Collection("documents")
	require.NoError(t, err)
	assert.NotSame(t, c, reopened)

	doc, err := reopened.QueryByName(name).FetchFirst(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc, "closing keeps stored documents")

	require.NoError(t, m.Shutdown())
	assert.Empty(t, m.Names())
}

func TestManagerLevelDB(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := newTestManager(t, Options{Storage: LevelDBStorage(root)})

	c, err := m.Collection("documents")
	require.NoError(t, err)

	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)
	require.NoError(t, m.Close("documents"))

	c, err = m.Collection("documents")
	require.NoError(t, err)
	docs, err := c.QueryAll().FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, name, docs[0].Name)
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)
	_, err = c.Create(ctx, testImage())
	require.NoError(t, err)

	docs, err := Dump(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]any{name: testDocument().ToMap()}, docs)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	_, err := c.Create(ctx, testDocument())
	require.NoError(t, err)
	other := testDocument()
	other.SetInteger("votes", 11)
	_, err = c.Create(ctx, other)
	require.NoError(t, err)
	_, err = c.Create(ctx, testImage())
	require.NoError(t, err)

	var buf bytes.Buffer
	root, err := Export(ctx, c, &buf)
	require.NoError(t, err)

	br, err := car.NewBlockReader(&buf)
	require.NoError(t, err)
	require.Len(t, br.Roots, 1)
	assert.Equal(t, root.(cidlink.Link).Cid, br.Roots[0])

	count := 0
	for {
		_, err := br.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 4, count)
}
