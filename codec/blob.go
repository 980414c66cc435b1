package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Blob is an opaque binary payload stored as a document.
type Blob []byte

// blobHeader prefixes every encoded blob so arbitrary bytes are not mistaken for one.
var blobHeader = []byte("docstore/blob\x00")

// Binary encodes Blob values.
type Binary struct{}

func (Binary) Name() string {
	return "blob"
}

func (Binary) Encode(value any) ([]byte, error) {
	blob, ok := value.(Blob)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a blob", ErrUnsupportedFormat, value)
	}
	out := make([]byte, 0, len(blobHeader)+len(blob))
	out = append(out, blobHeader...)
	return append(out, blob...), nil
}

func (Binary) Decode(data []byte) (any, error) {
	if !bytes.HasPrefix(data, blobHeader) {
		return nil, fmt.Errorf("%w: missing blob header", ErrUnsupportedFormat)
	}
	return Blob(bytes.Clone(data[len(blobHeader):])), nil
}

// PNG encodes image.Image values.
type PNG struct{}

func (PNG) Name() string {
	return "png"
}

func (PNG) Encode(value any) ([]byte, error) {
	img, ok := value.(image.Image)
	if !ok || img == nil {
		return nil, fmt.Errorf("%w: %T is not an image", ErrUnsupportedFormat, value)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (PNG) Decode(data []byte) (any, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, nil
}
