package node

import (
	"errors"
	"fmt"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// ErrReservedKey is returned when a node key collides with the reference encoding.
var ErrReservedKey = errors.New("reserved key " + ReferenceKey)

// KeyCheck validates a key before it is assembled.
type KeyCheck func(key string) error

// CheckReservedKey rejects the key used to encode references.
func CheckReservedKey(key string) error {
	if key == ReferenceKey {
		return ErrReservedKey
	}
	return nil
}

// ToIPLD returns an ipld node containing the values of this node.
func (n *Node) ToIPLD() (datamodel.Node, error) {
	nb := basicnode.Prototype.Map.NewBuilder()
	if err := n.Assemble(nb, CheckReservedKey); err != nil {
		return nil, err
	}
	return nb.Build(), nil
}

// Assemble writes the node as a map into the given assembler.
//
// Keys are written in sorted order and every key is passed to check first.
func (n *Node) Assemble(na datamodel.NodeAssembler, check KeyCheck) error {
	ma, err := na.BeginMap(int64(n.Len()))
	if err != nil {
		return err
	}
	for _, k := range n.Keys() {
		if check != nil {
			if err := check(k); err != nil {
				return err
			}
		}
		ea, err := ma.AssembleEntry(k)
		if err != nil {
			return err
		}
		err = assembleValue(n.values[k], ea, check)
		if err != nil {
			return err
		}
	}
	return ma.Finish()
}

func assembleValue(v value, na datamodel.NodeAssembler, check KeyCheck) error {
	switch v.kind {
	case KindInteger:
		return na.AssignInt(v.i)
	case KindString:
		return na.AssignString(v.s)
	case KindReference:
		return assembleReference(v.ref, na)
	case KindNode:
		return v.node.Assemble(na, check)
	case KindList:
		la, err := na.BeginList(int64(len(v.list)))
		if err != nil {
			return err
		}
		for _, e := range v.list {
			err = e.Assemble(la.AssembleValue(), check)
			if err != nil {
				return err
			}
		}
		return la.Finish()
	default:
		return fmt.Errorf("cannot assemble value of kind %s", v.kind)
	}
}

func assembleReference(ref Reference, na datamodel.NodeAssembler) error {
	ma, err := na.BeginMap(1)
	if err != nil {
		return err
	}
	ea, err := ma.AssembleEntry(ReferenceKey)
	if err != nil {
		return err
	}
	err = ea.AssignString(ref.Name)
	if err != nil {
		return err
	}
	return ma.Finish()
}

// FromIPLD returns a node containing the values of the given ipld map.
//
// Integers, strings, references, maps, and lists of maps are kept. Entries of any other
// kind are dropped.
func FromIPLD(n datamodel.Node) (*Node, error) {
	if n.Kind() != datamodel.Kind_Map {
		return nil, fmt.Errorf("cannot create node from %s", n.Kind().String())
	}
	out := New()
	for iter := n.MapIterator(); !iter.Done(); {
		k, v, err := iter.Next()
		if err != nil {
			return nil, err
		}
		key, err := k.AsString()
		if err != nil {
			return nil, err
		}
		val, ok, err := valueFromIPLD(v)
		if err != nil {
			return nil, err
		}
		if ok {
			out.values[key] = val
		}
	}
	return out, nil
}

func valueFromIPLD(n datamodel.Node) (value, bool, error) {
	switch n.Kind() {
	case datamodel.Kind_Int:
		i, err := n.AsInt()
		return value{kind: KindInteger, i: i}, err == nil, err
	case datamodel.Kind_String:
		s, err := n.AsString()
		return value{kind: KindString, s: s}, err == nil, err
	case datamodel.Kind_Map:
		if ref, ok := referenceFromIPLD(n); ok {
			return value{kind: KindReference, ref: ref}, true, nil
		}
		child, err := FromIPLD(n)
		if err != nil {
			return value{}, false, err
		}
		return value{kind: KindNode, node: child.view()}, true, nil
	case datamodel.Kind_List:
		list := make([]*Node, 0, n.Length())
		for iter := n.ListIterator(); !iter.Done(); {
			_, e, err := iter.Next()
			if err != nil {
				return value{}, false, err
			}
			if e.Kind() != datamodel.Kind_Map {
				return value{}, false, nil
			}
			child, err := FromIPLD(e)
			if err != nil {
				return value{}, false, err
			}
			list = append(list, child.view())
		}
		return value{kind: KindList, list: list}, true, nil
	default:
		return value{}, false, nil
	}
}

func referenceFromIPLD(n datamodel.Node) (Reference, bool) {
	if n.Length() != 1 {
		return Reference{}, false
	}
	v, err := n.LookupByString(ReferenceKey)
	if err != nil {
		return Reference{}, false
	}
	name, err := v.AsString()
	if err != nil {
		return Reference{}, false
	}
	return Reference{Name: name}, true
}
