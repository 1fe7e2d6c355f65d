// Package persist provides the codecs that turn store values into bytes.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// Codec names as recorded in a store's format marker.
const (
	JSONName = "json"
	GobName  = "gob"

	lz4Suffix = "+lz4"
)

// ErrUnknownCodec is returned when a codec name cannot be resolved.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec defines how a value is serialized and deserialized.
type Codec interface {
	// Encode writes the value to the writer.
	Encode(w io.Writer, v any) error
	// Decode reads the value from the reader.
	Decode(r io.Reader, v any) error
	// Name identifies the codec, e.g. "json" or "json+lz4".
	Name() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a compact JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Name implements Codec.Name.
func (c *JSONCodec) Name() string {
	return JSONName
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, v any) error {
	err := gob.NewEncoder(w).Encode(v)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, v any) error {
	err := gob.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Name implements Codec.Name.
func (c *GobCodec) Name() string {
	return GobName
}

// LZ4Codec wraps another codec in an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec creates an LZ4-framed codec around inner.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode, compressing the inner encoding.
func (c *LZ4Codec) Encode(w io.Writer, v any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, v)
	if err != nil {
		return err
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("lz4 encode: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode, decompressing before the inner decode.
func (c *LZ4Codec) Decode(r io.Reader, v any) error {
	return c.Inner.Decode(lz4.NewReader(r), v)
}

// Name implements Codec.Name.
func (c *LZ4Codec) Name() string {
	return c.Inner.Name() + lz4Suffix
}

// New returns the codec for a base encoding, optionally LZ4-compressed.
func New(encoding string, compress bool) (Codec, error) {
	var base Codec

	switch encoding {
	case JSONName, "":
		base = NewJSONCodec()
	case GobName:
		base = NewGobCodec()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, encoding)
	}

	if compress {
		return NewLZ4Codec(base), nil
	}

	return base, nil
}

// Lookup resolves a codec from the name it reports.
func Lookup(name string) (Codec, error) {
	encoding, compressed := strings.CutSuffix(name, lz4Suffix)
	if encoding == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	return New(encoding, compressed)
}
