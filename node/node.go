package node

import (
	"maps"
	"slices"
)

// Kind identifies which variant a node key holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindString
	KindReference
	KindNode
	KindList
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindReference:
		return "reference"
	case KindNode:
		return "node"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// ReferenceKey is the reserved key used to encode a reference.
const ReferenceKey = "_id"

// Reference is a named pointer to another document.
//
// Only the target name is stored. Resolving a reference is done lazily by querying a collection.
type Reference struct {
	Name string
}

// NewReference returns a reference to the document with the given name.
func NewReference(name string) Reference {
	return Reference{Name: name}
}

// value is a tagged union holding exactly one variant.
type value struct {
	kind Kind
	i    int64
	s    string
	ref  Reference
	node *Node
	list []*Node
}

// Node is a schema-less document tree.
//
// A node behaves like a value: nodes returned from accessors or embedded with setters
// share storage with their source until one of them is modified, at which point the
// modified node takes a private copy. Nodes are not safe for concurrent modification.
type Node struct {
	values map[string]value
	// shared is set when values may be observed through another node.
	shared bool
}

// New returns an empty node.
func New() *Node {
	return &Node{values: make(map[string]value)}
}

// view returns a node sharing storage with n.
func (n *Node) view() *Node {
	if !n.shared {
		n.shared = true
	}
	return &Node{values: n.values, shared: true}
}

// own makes sure the node has a private copy of its values before a write.
func (n *Node) own() {
	if n.values == nil {
		n.values = make(map[string]value)
		n.shared = false
		return
	}
	if n.shared {
		n.values = maps.Clone(n.values)
		n.shared = false
	}
}

func (n *Node) set(key string, v value) {
	n.own()
	n.values[key] = v
}

func (n *Node) get(key string) (value, bool) {
	if n == nil {
		return value{}, false
	}
	v, ok := n.values[key]
	return v, ok
}

// SetInteger sets the key to an integer value.
func (n *Node) SetInteger(key string, v int64) {
	n.set(key, value{kind: KindInteger, i: v})
}

// SetString sets the key to a string value.
func (n *Node) SetString(key string, v string) {
	n.set(key, value{kind: KindString, s: v})
}

// SetReference sets the key to a reference value.
func (n *Node) SetReference(key string, ref Reference) {
	n.set(key, value{kind: KindReference, ref: ref})
}

// SetNode sets the key to a nested node.
//
// Later changes to child are not visible through n.
func (n *Node) SetNode(key string, child *Node) {
	if child == nil {
		child = New()
	}
	n.set(key, value{kind: KindNode, node: child.view()})
}

// SetList sets the key to a list of nodes.
//
// Later changes to list or its elements are not visible through n.
func (n *Node) SetList(key string, list []*Node) {
	n.set(key, value{kind: KindList, list: viewList(list)})
}

// GetInteger returns the integer value of the key.
func (n *Node) GetInteger(key string) (int64, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// GetString returns the string value of the key.
func (n *Node) GetString(key string) (string, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// GetReference returns the reference value of the key.
func (n *Node) GetReference(key string) (Reference, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != KindReference {
		return Reference{}, false
	}
	return v.ref, true
}

// GetNode returns the nested node of the key.
func (n *Node) GetNode(key string) (*Node, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != KindNode {
		return nil, false
	}
	return v.node.view(), true
}

// GetList returns the list of nodes of the key.
func (n *Node) GetList(key string) ([]*Node, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != KindList {
		return nil, false
	}
	return viewList(v.list), true
}

// KindOf returns the kind of value held by the key.
func (n *Node) KindOf(key string) Kind {
	v, ok := n.get(key)
	if !ok {
		return KindInvalid
	}
	return v.kind
}

// Has returns true if the key holds a value.
func (n *Node) Has(key string) bool {
	_, ok := n.get(key)
	return ok
}

// Remove deletes the key and its value.
func (n *Node) Remove(key string) {
	if !n.Has(key) {
		return
	}
	n.own()
	delete(n.values, key)
}

// Keys returns all keys in sorted order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(n.values))
}

// KeySet returns the set of all keys.
func (n *Node) KeySet() map[string]struct{} {
	out := make(map[string]struct{}, n.Len())
	for k := range n.values {
		out[k] = struct{}{}
	}
	return out
}

// Len returns the number of keys.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.values)
}

// Copy returns a node that shares storage with n until either one is modified.
//
// Copying a node that was already copied does not write to it, so concurrent
// readers may copy the same node.
func (n *Node) Copy() *Node {
	return n.view()
}

// Clone returns a node that shares no storage with n.
func (n *Node) Clone() *Node {
	out := &Node{values: make(map[string]value, n.Len())}
	for k, v := range n.values {
		switch v.kind {
		case KindNode:
			v.node = v.node.Clone()
		case KindList:
			list := make([]*Node, len(v.list))
			for i, e := range v.list {
				list[i] = e.Clone()
			}
			v.list = list
		}
		out.values[k] = v
	}
	return out
}

func viewList(list []*Node) []*Node {
	out := make([]*Node, len(list))
	for i, e := range list {
		if e == nil {
			e = New()
		}
		out[i] = e.view()
	}
	return out
}
