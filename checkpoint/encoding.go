package checkpoint

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/tarungka/ripple/codec"
)

// A checkpoint blob is laid out as
//
//	magic (4) | compression (1) | crc32 of payload (4) | payload
//
// where payload is the possibly compressed msgpack encoding of a Checkpoint.
var magic = [4]byte{'R', 'P', 'C', '1'}

const headerSize = 9

// Encode serializes cp into a self-describing blob.
func Encode(cp *Checkpoint, compression CompressionType, c *codec.Codec) ([]byte, error) {
	raw, err := c.Marshal(cp)
	if err != nil {
		return nil, err
	}
	payload, err := compress(compression, raw)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, headerSize+len(payload))
	copy(blob, magic[:])
	blob[4] = byte(compression)
	binary.BigEndian.PutUint32(blob[5:9], crc32.ChecksumIEEE(payload))
	copy(blob[headerSize:], payload)
	return blob, nil
}

// Decode parses a blob produced by Encode.
func Decode(blob []byte, c *codec.Codec) (*Checkpoint, error) {
	if len(blob) < headerSize || [4]byte(blob[:4]) != magic {
		return nil, fmt.Errorf("%w: bad checkpoint header", ErrCorruptState)
	}
	compression := CompressionType(blob[4])
	payload := blob[headerSize:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(blob[5:9]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptState)
	}

	raw, err := decompress(compression, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	cp := &Checkpoint{}
	if err := c.Unmarshal(raw, cp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	return cp, nil
}
