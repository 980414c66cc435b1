package codec

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/nasdf/docstore/node"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

type (
	encodeFunc func(datamodel.Node, io.Writer) error
	decodeFunc func(datamodel.NodeAssembler, io.Reader) error
)

// DocumentJSON encodes document nodes as DAG-JSON objects.
type DocumentJSON struct{}

func (DocumentJSON) Name() string {
	return "json"
}

func (DocumentJSON) Encode(value any) ([]byte, error) {
	if doc, ok := value.(*node.Node); ok {
		if err := checkUTF8(doc); err != nil {
			return nil, err
		}
	}
	return encodeDocument(value, jsonKeyCheck, dagjson.Encode)
}

// checkUTF8 rejects keys and strings that DAG-JSON cannot represent exactly.
func checkUTF8(n *node.Node) error {
	for _, k := range n.Keys() {
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: key %q is not valid utf-8", ErrInvalidKey, k)
		}
		var s string
		switch n.KindOf(k) {
		case node.KindString:
			s, _ = n.GetString(k)
		case node.KindReference:
			ref, _ := n.GetReference(k)
			s = ref.Name
		case node.KindNode:
			child, _ := n.GetNode(k)
			if err := checkUTF8(child); err != nil {
				return err
			}
		case node.KindList:
			list, _ := n.GetList(k)
			for _, e := range list {
				if err := checkUTF8(e); err != nil {
					return err
				}
			}
		}
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: value of %q is not valid utf-8", ErrUnsupportedFormat, k)
		}
	}
	return nil
}

func (DocumentJSON) Decode(data []byte) (any, error) {
	return decodeDocument(data, dagjson.Decode)
}

// jsonKeyCheck rejects the reference key and the DAG-JSON link key.
func jsonKeyCheck(key string) error {
	if key == "/" {
		return fmt.Errorf("%w: %q is reserved by dag-json", ErrInvalidKey, key)
	}
	if err := node.CheckReservedKey(key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

// DocumentCBOR encodes document nodes as DAG-CBOR maps.
type DocumentCBOR struct{}

func (DocumentCBOR) Name() string {
	return "cbor"
}

func (DocumentCBOR) Encode(value any) ([]byte, error) {
	return encodeDocument(value, cborKeyCheck, dagcbor.Encode)
}

func (DocumentCBOR) Decode(data []byte) (any, error) {
	return decodeDocument(data, dagcbor.Decode)
}

func cborKeyCheck(key string) error {
	if err := node.CheckReservedKey(key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

func encodeDocument(value any, check node.KeyCheck, encode encodeFunc) ([]byte, error) {
	doc, ok := value.(*node.Node)
	if !ok || doc == nil {
		return nil, fmt.Errorf("%w: %T is not a document node", ErrUnsupportedFormat, value)
	}
	nb := basicnode.Prototype.Map.NewBuilder()
	if err := doc.Assemble(nb, check); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(nb.Build(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeDocument(data []byte, decode decodeFunc) (any, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := decode(nb, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	doc, err := node.FromIPLD(nb.Build())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return doc, nil
}
