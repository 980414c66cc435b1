package node

import (
	"fmt"
	"math"
)

// ToMap returns the node as plain go values suitable for generic encoders.
//
// Integers are int64, references are maps with a single ReferenceKey entry,
// nested nodes are maps and lists are slices of maps.
func (n *Node) ToMap() map[string]any {
	out := make(map[string]any, n.Len())
	for k, v := range n.values {
		out[k] = v.raw()
	}
	return out
}

func (v value) raw() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindString:
		return v.s
	case KindReference:
		return map[string]any{ReferenceKey: v.ref.Name}
	case KindNode:
		return v.node.ToMap()
	case KindList:
		list := make([]any, len(v.list))
		for i, e := range v.list {
			list[i] = e.ToMap()
		}
		return list
	default:
		return nil
	}
}

// FromMap returns a node built from plain go values.
//
// This is the inverse of ToMap and also accepts the shapes produced by common
// decoders such as int, float64 without a fraction, and map[string]any.
func FromMap(raw map[string]any) (*Node, error) {
	out := New()
	for k, r := range raw {
		v, err := valueFromRaw(r)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out.values[k] = v
	}
	return out, nil
}

func valueFromRaw(r any) (value, error) {
	switch t := r.(type) {
	case int:
		return value{kind: KindInteger, i: int64(t)}, nil
	case int32:
		return value{kind: KindInteger, i: int64(t)}, nil
	case int64:
		return value{kind: KindInteger, i: t}, nil
	case float64:
		if t != math.Trunc(t) {
			return value{}, fmt.Errorf("%w: %v is not an integer", ErrUnexpectedVertexType, t)
		}
		return value{kind: KindInteger, i: int64(t)}, nil
	case string:
		return value{kind: KindString, s: t}, nil
	case Reference:
		return value{kind: KindReference, ref: t}, nil
	case *Node:
		return value{kind: KindNode, node: t.view()}, nil
	case []*Node:
		return value{kind: KindList, list: viewList(t)}, nil
	case map[string]any:
		if name, ok := t[ReferenceKey].(string); ok && len(t) == 1 {
			return value{kind: KindReference, ref: Reference{Name: name}}, nil
		}
		child, err := FromMap(t)
		if err != nil {
			return value{}, err
		}
		return value{kind: KindNode, node: child.view()}, nil
	case []any:
		list := make([]*Node, len(t))
		for i, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return value{}, fmt.Errorf("%w: list element %d is %T", ErrUnexpectedVertexType, i, e)
			}
			child, err := FromMap(m)
			if err != nil {
				return value{}, err
			}
			list[i] = child.view()
		}
		return value{kind: KindList, list: list}, nil
	default:
		return value{}, fmt.Errorf("%w: %T", ErrUnexpectedVertexType, r)
	}
}
