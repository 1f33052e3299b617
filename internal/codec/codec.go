// Package codec converts records to and from their stored representation.
//
// Records are marshalled to JSON, compressed with zstd and written out as
// base64 text so that every backend (files, redis strings, sqlite columns)
// holds printable data.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec encodes and decodes records. It is safe for concurrent use.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a Codec
func New() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{encoder: enc, decoder: dec}, nil
}

// Must is like New but panics on error
func Must() *Codec {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Encode marshals v into its stored form
func (c *Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	compressed := c.encoder.EncodeAll(raw, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(compressed)))
	base64.StdEncoding.Encode(out, compressed)
	return out, nil
}

// Decode reverses Encode into v. An empty record leaves v untouched, so
// callers get back whatever empty container they passed in.
func (c *Codec) Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	compressed := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(compressed, data)
	if err != nil {
		return fmt.Errorf("decode record text: %w", err)
	}
	raw, err := c.decoder.DecodeAll(compressed[:n], nil)
	if err != nil {
		return fmt.Errorf("decompress record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
