package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddingAttributes(t *testing.T) {
	n := New()
	n.SetString("fullname", "John Gold")
	n.SetInteger("votes", 10)
	n.SetString("firstname", "John")
	n.SetInteger("rating", 100)

	fullname, ok := n.GetString("fullname")
	require.True(t, ok)
	assert.Equal(t, "John Gold", fullname)

	votes, ok := n.GetInteger("votes")
	require.True(t, ok)
	assert.Equal(t, int64(10), votes)

	_, ok = n.GetInteger("fullname")
	assert.False(t, ok, "wrong variant must not resolve")

	_, ok = n.GetString("missing")
	assert.False(t, ok)
}

func TestSetOverwritesVariant(t *testing.T) {
	n := New()
	n.SetInteger("value", 1)
	n.SetString("value", "one")

	assert.Equal(t, KindString, n.KindOf("value"))
	_, ok := n.GetInteger("value")
	assert.False(t, ok)
	assert.Equal(t, 1, n.Len())
}

func TestAllKeys(t *testing.T) {
	n := New()
	n.SetString("fullname", "John Gold")
	n.SetInteger("votes", 10)
	n.SetReference("scan", NewReference("a4c2"))

	assert.Equal(t, []string{"fullname", "scan", "votes"}, n.Keys())
	assert.Len(t, n.KeySet(), 3)

	n.Remove("scan")
	assert.Equal(t, []string{"fullname", "votes"}, n.Keys())
}

func TestReferenceIsNotNode(t *testing.T) {
	n := New()
	n.SetReference("scan", NewReference("a4c2"))

	_, ok := n.GetNode("scan")
	assert.False(t, ok)

	ref, ok := n.GetReference("scan")
	require.True(t, ok)
	assert.Equal(t, "a4c2", ref.Name)
}

func TestSetNodeIsolatesChild(t *testing.T) {
	child := New()
	child.SetString("title", "My Job")

	parent := New()
	parent.SetNode("job", child)

	child.SetString("title", "Other Job")

	job, ok := parent.GetNode("job")
	require.True(t, ok)
	title, _ := job.GetString("title")
	assert.Equal(t, "My Job", title)

	job.SetString("title", "Changed")
	job, _ = parent.GetNode("job")
	title, _ = job.GetString("title")
	assert.Equal(t, "My Job", title)
}

func TestSetListIsolatesElements(t *testing.T) {
	a := New()
	a.SetString("name", "a")
	list := []*Node{a}

	n := New()
	n.SetList("items", list)

	a.SetString("name", "changed")
	list[0] = New()

	items, ok := n.GetList("items")
	require.Len(t, items, 1)
	require.True(t, ok)
	name, _ := items[0].GetString("name")
	assert.Equal(t, "a", name)
}

func TestEqual(t *testing.T) {
	build := func(votes int64) *Node {
		job := New()
		job.SetString("title", "My Job")
		addr := New()
		addr.SetReference("photo", NewReference("123231"))
		n := New()
		n.SetString("fullname", "John")
		n.SetInteger("votes", votes)
		n.SetNode("job", job)
		n.SetList("addresses", []*Node{addr, New()})
		return n
	}

	assert.True(t, Equal(build(10), build(10)))
	assert.False(t, Equal(build(10), build(11)))

	other := build(10)
	other.SetString("votes", "10")
	assert.False(t, Equal(build(10), other), "same value different variant")

	other = build(10)
	other.SetString("extra", "x")
	assert.False(t, Equal(build(10), other))
	assert.True(t, Equal(New(), New()))
}

func TestClone(t *testing.T) {
	child := New()
	child.SetInteger("count", 1)
	n := New()
	n.SetNode("child", child)

	c := n.Clone()
	assert.True(t, Equal(n, c))

	c.SetInteger("count", 2)
	assert.False(t, Equal(n, c))
}

type recordingVisitor struct {
	visits []string
}

func (r *recordingVisitor) VisitInteger(v int64)         { r.visits = append(r.visits, "integer") }
func (r *recordingVisitor) VisitString(v string)         { r.visits = append(r.visits, "string") }
func (r *recordingVisitor) VisitReference(ref Reference) { r.visits = append(r.visits, "reference") }
func (r *recordingVisitor) VisitNode(n *Node)            { r.visits = append(r.visits, "node") }
func (r *recordingVisitor) VisitList(list []*Node)       { r.visits = append(r.visits, "list") }

func TestAccept(t *testing.T) {
	n := New()
	n.SetInteger("i", 1)
	n.SetString("s", "x")
	n.SetReference("r", NewReference("x"))
	n.SetNode("n", New())
	n.SetList("l", []*Node{New()})

	for key, expect := range map[string]string{"i": "integer", "s": "string", "r": "reference", "n": "node", "l": "list"} {
		var v recordingVisitor
		require.True(t, n.Accept(&v, key))
		assert.Equal(t, []string{expect}, v.visits, "key %s", key)
	}

	var v recordingVisitor
	assert.False(t, n.Accept(&v, "missing"))
	assert.Empty(t, v.visits)

	n.Walk(&v)
	assert.Equal(t, []string{"integer", "list", "node", "reference", "string"}, v.visits)
}

func TestMapRoundTrip(t *testing.T) {
	raw := map[string]any{
		"fullname": "John",
		"votes":    int64(10),
		"job":      map[string]any{"title": "My Job"},
		"scan":     map[string]any{ReferenceKey: "123231"},
		"addresses": []any{
			map[string]any{"street": "address1"},
			map[string]any{"house": "address2"},
		},
	}
	n, err := FromMap(raw)
	require.NoError(t, err)

	_, ok := n.GetReference("scan")
	assert.True(t, ok)
	assert.Equal(t, raw, n.ToMap())

	_, err = FromMap(map[string]any{"ratio": 0.5})
	assert.ErrorIs(t, err, ErrUnexpectedVertexType)
}

func TestIPLDRoundTrip(t *testing.T) {
	job := New()
	job.SetString("title", "My Job")
	n := New()
	n.SetInteger("votes", 10)
	n.SetNode("job", job)
	n.SetReference("photo", NewReference("123231"))
	n.SetList("nodes", []*Node{job, New()})

	in, err := n.ToIPLD()
	require.NoError(t, err)

	out, err := FromIPLD(in)
	require.NoError(t, err)
	assert.True(t, Equal(n, out))

	bad := New()
	bad.SetString(ReferenceKey, "x")
	_, err = bad.ToIPLD()
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestCopyIsolation(t *testing.T) {
	n := New()
	n.SetInteger("votes", 1)

	c := n.Copy()
	c.SetInteger("votes", 2)
	d := n.Copy()

	votes, _ := n.GetInteger("votes")
	assert.Equal(t, int64(1), votes)
	votes, _ = d.GetInteger("votes")
	assert.Equal(t, int64(1), votes)
	votes, _ = c.GetInteger("votes")
	assert.Equal(t, int64(2), votes)
}
