package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when no codec accepts a value or payload.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidKey is returned when a key cannot be represented in the target encoding.
	ErrInvalidKey = errors.New("invalid key")
)

// Codec converts between values and raw bytes.
//
// A codec must return an error wrapping ErrUnsupportedFormat when the value or payload
// does not have a shape it accepts.
type Codec interface {
	// Name returns the configuration name of the codec.
	Name() string
	// Encode returns the bytes for the given value.
	Encode(value any) ([]byte, error)
	// Decode returns the value for the given bytes.
	Decode(data []byte) (any, error)
}

// Chain is an ordered list of codecs where the first successful codec wins.
type Chain []Codec

// DefaultChain returns the chain used when none is configured.
func DefaultChain() Chain {
	return Chain{DocumentJSON{}, PNG{}}
}

// Encode returns the bytes produced by the first codec that accepts the value.
func (c Chain) Encode(value any) ([]byte, error) {
	var errs []error
	for _, codec := range c {
		data, err := codec.Encode(value)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", codec.Name(), err))
	}
	return nil, unsupported(fmt.Sprintf("cannot encode %T", value), errs)
}

// Decode returns the value produced by the first codec that accepts the bytes.
func (c Chain) Decode(data []byte) (any, error) {
	var errs []error
	for _, codec := range c {
		value, err := codec.Decode(data)
		if err == nil {
			return value, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", codec.Name(), err))
	}
	return nil, unsupported("cannot decode payload", errs)
}

// Names returns the names of all codecs in the chain.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, codec := range c {
		names[i] = codec.Name()
	}
	return names
}

func unsupported(msg string, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: %s: empty codec chain", ErrUnsupportedFormat, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, msg, errors.Join(errs...))
}

// ByName returns the codec registered with the given name.
func ByName(name string) (Codec, error) {
	switch name {
	case DocumentJSON{}.Name():
		return DocumentJSON{}, nil
	case DocumentCBOR{}.Name():
		return DocumentCBOR{}, nil
	case PNG{}.Name():
		return PNG{}, nil
	case Binary{}.Name():
		return Binary{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %s", name)
	}
}

// ParseChain returns a chain containing the codecs with the given names in order.
func ParseChain(names []string) (Chain, error) {
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		codec, err := ByName(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, codec)
	}
	return chain, nil
}
