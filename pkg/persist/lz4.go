package persist

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Extension is appended after the wrapped codec's own extension, e.g.
// ".json.lz4".
const lz4Extension = ".lz4"

// CompressingCodec wraps another Codec, streaming its output through LZ4
// before it reaches disk and decompressing on the way back in. Large
// snapshots of batch contents are typically long runs of structurally
// similar tuples, the shape LZ4's block matching handles well. The
// streaming io.Writer/io.Reader API is used rather than the block API,
// since a codec's output is an arbitrary-length byte stream rather than a
// fixed-size numeric array.
type CompressingCodec struct {
	Inner Codec
}

// NewCompressingCodec wraps inner with LZ4 stream compression.
func NewCompressingCodec(inner Codec) *CompressingCodec {
	return &CompressingCodec{Inner: inner}
}

// Encode compresses inner's encoding of state as it is written to w.
func (c *CompressingCodec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	if err := c.Inner.Encode(zw, state); err != nil {
		return fmt.Errorf("lz4 encode: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode decompresses r before handing it to inner's decoder.
func (c *CompressingCodec) Decode(r io.Reader, state any) error {
	zr := lz4.NewReader(r)

	if err := c.Inner.Decode(zr, state); err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}

	return nil
}

// Extension returns the wrapped codec's extension with ".lz4" appended.
func (c *CompressingCodec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

var _ Codec = (*CompressingCodec)(nil)
