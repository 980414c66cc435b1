package node

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnexpectedVertexType is returned when a path enters a value that is not a node or list.
	ErrUnexpectedVertexType = errors.New("unexpected vertex type")
	// ErrInvalidListIndex is returned when a list index is past the end of the list.
	ErrInvalidListIndex = errors.New("invalid list index")
	// ErrEmptyPath is returned when a path contains no segments.
	ErrEmptyPath = errors.New("empty path")
	// ErrInvalidPath is returned when a path string cannot be parsed.
	ErrInvalidPath = errors.New("invalid path")
)

// Segment is a single step in a Path.
//
// A segment either enters a node by key or a list by index.
type Segment struct {
	key   string
	index int
	list  bool
}

// Key returns a segment that enters a node by key.
func Key(key string) Segment {
	return Segment{key: key}
}

// Index returns a segment that enters a list by index.
func Index(index int) Segment {
	return Segment{index: index, list: true}
}

// IsIndex returns true if the segment enters a list.
func (s Segment) IsIndex() bool {
	return s.list
}

// Key returns the node key of the segment.
func (s Segment) Key() string {
	return s.key
}

// Index returns the list index of the segment.
func (s Segment) Index() int {
	return s.index
}

// String returns a printable form of the segment.
func (s Segment) String() string {
	if s.list {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// Path is an ordered sequence of segments addressing a value inside a node.
type Path []Segment

// Keys returns a path made only of node keys.
func Keys(keys ...string) Path {
	path := make(Path, len(keys))
	for i, k := range keys {
		path[i] = Key(k)
	}
	return path
}

// String returns a printable form of the path.
func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		if i > 0 && !s.list {
			sb.WriteByte('.')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// ParsePath parses the form returned by Path.String, such as "items[3].name".
//
// Keys containing '.', '[' or ']' cannot be expressed in this form.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, ErrEmptyPath
	}
	var path Path
	for _, part := range strings.Split(s, ".") {
		key, rest, hasIndex := strings.Cut(part, "[")
		if key == "" && !hasIndex || strings.Contains(key, "]") {
			return nil, fmt.Errorf("%w: bad key in %q", ErrInvalidPath, s)
		}
		if key != "" {
			path = append(path, Key(key))
		}
		if !hasIndex {
			continue
		}
		if !strings.HasSuffix(rest, "]") {
			return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, s)
		}
		for _, index := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			i, err := strconv.Atoi(index)
			if err != nil || i < 0 {
				return nil, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, s)
			}
			path = append(path, Index(i))
		}
	}
	return path, nil
}

// resolve returns the value at the path.
func (n *Node) resolve(path Path) (value, bool) {
	if len(path) == 0 || path[0].list {
		return value{}, false
	}
	v, ok := n.get(path[0].key)
	if !ok {
		return value{}, false
	}
	for _, s := range path[1:] {
		switch {
		case s.list && v.kind == KindList:
			if s.index < 0 || s.index >= len(v.list) {
				return value{}, false
			}
			v = value{kind: KindNode, node: v.list[s.index]}
		case !s.list && v.kind == KindNode:
			v, ok = v.node.get(s.key)
			if !ok {
				return value{}, false
			}
		default:
			return value{}, false
		}
	}
	return v, true
}

// IntegerAt returns the integer value at the path.
func (n *Node) IntegerAt(path Path) (int64, bool) {
	if len(path) == 1 && !path[0].list {
		return n.GetInteger(path[0].key)
	}
	v, ok := n.resolve(path)
	if !ok || v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// StringAt returns the string value at the path.
func (n *Node) StringAt(path Path) (string, bool) {
	if len(path) == 1 && !path[0].list {
		return n.GetString(path[0].key)
	}
	v, ok := n.resolve(path)
	if !ok || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// ReferenceAt returns the reference value at the path.
func (n *Node) ReferenceAt(path Path) (Reference, bool) {
	if len(path) == 1 && !path[0].list {
		return n.GetReference(path[0].key)
	}
	v, ok := n.resolve(path)
	if !ok || v.kind != KindReference {
		return Reference{}, false
	}
	return v.ref, true
}

// NodeAt returns the node at the path.
func (n *Node) NodeAt(path Path) (*Node, bool) {
	if len(path) == 1 && !path[0].list {
		return n.GetNode(path[0].key)
	}
	v, ok := n.resolve(path)
	if !ok || v.kind != KindNode {
		return nil, false
	}
	return v.node.view(), true
}

// ListAt returns the list at the path.
func (n *Node) ListAt(path Path) ([]*Node, bool) {
	if len(path) == 1 && !path[0].list {
		return n.GetList(path[0].key)
	}
	v, ok := n.resolve(path)
	if !ok || v.kind != KindList {
		return nil, false
	}
	return viewList(v.list), true
}

// WithInteger returns a new root node with the integer set at the path.
func (n *Node) WithInteger(path Path, v int64) (*Node, error) {
	return n.with(path, value{kind: KindInteger, i: v})
}

// WithString returns a new root node with the string set at the path.
func (n *Node) WithString(path Path, v string) (*Node, error) {
	return n.with(path, value{kind: KindString, s: v})
}

// WithReference returns a new root node with the reference set at the path.
func (n *Node) WithReference(path Path, ref Reference) (*Node, error) {
	return n.with(path, value{kind: KindReference, ref: ref})
}

// WithNode returns a new root node with the child set at the path.
//
// When the last segment of the path is a list index the child replaces the element
// at that index, or is appended when the index equals the list length.
func (n *Node) WithNode(path Path, child *Node) (*Node, error) {
	if child == nil {
		child = New()
	}
	return n.with(path, value{kind: KindNode, node: child.view()})
}

// WithList returns a new root node with the list set at the path.
func (n *Node) WithList(path Path, list []*Node) (*Node, error) {
	return n.with(path, value{kind: KindList, list: viewList(list)})
}

func (n *Node) with(path Path, leaf value) (*Node, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	if n == nil {
		n = New()
	}
	out, err := setInNode(n, path, leaf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return out, nil
}

// setInNode returns a copy of n with the leaf written at the path.
//
// Only the nodes along the path are copied, all other values are shared.
func setInNode(n *Node, path Path, leaf value) (*Node, error) {
	s := path[0]
	if s.list {
		return nil, ErrUnexpectedVertexType
	}
	out := n.view()
	if len(path) == 1 {
		out.set(s.key, leaf)
		return out, nil
	}
	current, exists := n.get(s.key)
	if path[1].list {
		var list []*Node
		if exists {
			if current.kind != KindList {
				return nil, ErrUnexpectedVertexType
			}
			list = current.list
		}
		next, err := setInList(list, path[1:], leaf)
		if err != nil {
			return nil, err
		}
		out.set(s.key, value{kind: KindList, list: next})
		return out, nil
	}
	child := New()
	if exists {
		if current.kind != KindNode {
			return nil, ErrUnexpectedVertexType
		}
		child = current.node
	}
	next, err := setInNode(child, path[1:], leaf)
	if err != nil {
		return nil, err
	}
	out.set(s.key, value{kind: KindNode, node: next.view()})
	return out, nil
}

// setInList returns a copy of list with the leaf written at the path.
func setInList(list []*Node, path Path, leaf value) ([]*Node, error) {
	s := path[0]
	if !s.list {
		return nil, ErrUnexpectedVertexType
	}
	if s.index < 0 || s.index > len(list) {
		return nil, ErrInvalidListIndex
	}
	out := make([]*Node, len(list), len(list)+1)
	copy(out, list)

	var next *Node
	if len(path) == 1 {
		if leaf.kind != KindNode {
			return nil, ErrUnexpectedVertexType
		}
		next = leaf.node
	} else {
		element := New()
		if s.index < len(list) {
			element = list[s.index]
		}
		updated, err := setInNode(element, path[1:], leaf)
		if err != nil {
			return nil, err
		}
		next = updated.view()
	}
	if s.index < len(list) {
		out[s.index] = next
	} else {
		out = append(out, next)
	}
	return out, nil
}
