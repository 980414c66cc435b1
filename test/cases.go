package test

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/node"
)

//go:embed cases
var casesFS embed.FS

type TestCase struct {
	// Description is a simple description for the test case.
	Description string
	// Document is the DAG-JSON document the operations start from.
	Document string
	// Operations is a list of keypath writes applied in order.
	Operations []Operation
	// Expect is the DAG-JSON document expected after all operations.
	Expect string
}

type Operation struct {
	// Path is the keypath written by this operation, such as "items[0].name".
	Path string
	// Exactly one of the value fields is set.
	Integer   *int64
	String    *string
	Reference *string
	// Node is a DAG-JSON node value.
	Node string
	// Error is the name of the expected error, if any.
	Error string
}

// TestCasePaths returns a list of all test case file paths.
func TestCasePaths() (paths []string, _ error) {
	return paths, fs.WalkDir(casesFS, "cases", func(path string, d fs.DirEntry, err error) error {
		if filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return err
	})
}

// LoadTestCase loads and parses a test case file.
func LoadTestCase(path string) (*TestCase, error) {
	data, err := fs.ReadFile(casesFS, path)
	if err != nil {
		return nil, err
	}
	var testCase TestCase
	if err := yaml.Unmarshal(data, &testCase); err != nil {
		return nil, err
	}
	return &testCase, nil
}

// Root returns the document the test case starts from.
func (tc *TestCase) Root() (*node.Node, error) {
	if tc.Document == "" {
		return node.New(), nil
	}
	return decodeNode(tc.Document)
}

// Expected returns the document expected after all operations.
func (tc *TestCase) Expected() (*node.Node, error) {
	return decodeNode(tc.Expect)
}

// Apply writes the operation value into n and returns the new root.
func (op Operation) Apply(n *node.Node) (*node.Node, error) {
	path, err := node.ParsePath(op.Path)
	if err != nil {
		return nil, err
	}
	switch {
	case op.Integer != nil:
		return n.WithInteger(path, *op.Integer)
	case op.String != nil:
		return n.WithString(path, *op.String)
	case op.Reference != nil:
		return n.WithReference(path, node.NewReference(*op.Reference))
	case op.Node != "":
		value, err := decodeNode(op.Node)
		if err != nil {
			return nil, err
		}
		return n.WithNode(path, value)
	default:
		return nil, fmt.Errorf("operation at %s has no value", op.Path)
	}
}

// ExpectedError returns the error the operation is expected to fail with.
func (op Operation) ExpectedError() error {
	switch op.Error {
	case "":
		return nil
	case "UnexpectedVertexType":
		return node.ErrUnexpectedVertexType
	case "InvalidListIndex":
		return node.ErrInvalidListIndex
	case "InvalidPath":
		return node.ErrInvalidPath
	default:
		return fmt.Errorf("unknown error %s", op.Error)
	}
}

func decodeNode(input string) (*node.Node, error) {
	value, err := codec.DocumentJSON{}.Decode([]byte(input))
	if err != nil {
		return nil, err
	}
	return value.(*node.Node), nil
}
