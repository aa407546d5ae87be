package stream

import (
	"io"
	"time"

	"github.com/tarungka/ripple/codec"
)

// StateWriter receives the state of one operator during a checkpoint.
type StateWriter struct {
	enc *codec.Encoder
}

// NewStateWriter returns a writer encoding values to w.
func NewStateWriter(w io.Writer, c *codec.Codec) *StateWriter {
	return &StateWriter{enc: c.NewEncoder(w)}
}

// Write appends v to the operator state.
func (w *StateWriter) Write(v any) error {
	return w.enc.Encode(v)
}

// WriteTime appends t with nanosecond precision.
func (w *StateWriter) WriteTime(t time.Time) error {
	return w.enc.Encode(t.UnixNano())
}

// StateReader yields the values an operator wrote in SaveState, in order.
type StateReader struct {
	dec     *codec.Decoder
	version uint32
}

// NewStateReader returns a reader over state written by version of an
// operator.
func NewStateReader(r io.Reader, c *codec.Codec, version uint32) *StateReader {
	return &StateReader{dec: c.NewDecoder(r), version: version}
}

// Version is the operator version recorded alongside the state.
func (r *StateReader) Version() uint32 {
	return r.version
}

// Read decodes the next value into v.
func (r *StateReader) Read(v any) error {
	return r.dec.Decode(v)
}

// ReadTime decodes a value written by WriteTime.
func (r *StateReader) ReadTime() (time.Time, error) {
	var ns int64
	if err := r.dec.Decode(&ns); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}
