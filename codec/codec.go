// Package codec encodes and decodes values to and from byte streams. It is
// the value codec the checkpoint layer uses for operator state and for the
// checkpoint envelope itself.
//
// Values are written as msgpack. Structs are encoded as maps keyed by field
// name, so schemas may evolve additively: fields missing from the input keep
// their zero value and fields unknown to the target are ignored.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var (
	// ErrNilTarget is returned when Deserialize is given something other than
	// a non-nil pointer.
	ErrNilTarget = errors.New("codec: decode target must be a non-nil pointer")
)

// Codec serializes values with a shared msgpack handle.
type Codec struct {
	handle *codec.MsgpackHandle
}

// New returns a Codec configured for state blobs.
func New() *Codec {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return &Codec{handle: h}
}

// Serialize writes v to w.
func (c *Codec) Serialize(w io.Writer, v any) error {
	if err := codec.NewEncoder(w, c.handle).Encode(v); err != nil {
		return fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return nil
}

// Deserialize reads the next value from r into the value pointed to by v.
func (c *Codec) Deserialize(r io.Reader, v any) error {
	if !isPointer(v) {
		return ErrNilTarget
	}
	if err := codec.NewDecoder(r, c.handle).Decode(v); err != nil {
		return fmt.Errorf("codec: decode %T: %w", v, err)
	}
	return nil
}

// Marshal returns the encoding of v.
func (c *Codec) Marshal(v any) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := c.Serialize(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return c.Deserialize(bytes.NewReader(data), v)
}

// NewEncoder returns an Encoder that writes a sequence of values to w.
func (c *Codec) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: codec.NewEncoder(w, c.handle)}
}

// NewDecoder returns a Decoder that reads a sequence of values from r.
func (c *Codec) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: codec.NewDecoder(r, c.handle)}
}

// Encoder writes consecutive values to one stream.
type Encoder struct {
	enc *codec.Encoder
}

// Encode appends v to the stream.
func (e *Encoder) Encode(v any) error {
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return nil
}

// Decoder reads consecutive values from one stream.
type Decoder struct {
	dec *codec.Decoder
}

// Decode reads the next value into v.
func (d *Decoder) Decode(v any) error {
	if !isPointer(v) {
		return ErrNilTarget
	}
	if err := d.dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("codec: decode %T: %w", v, err)
	}
	return nil
}

func isPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}
