package checkpoint

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// CompressionType is the tag byte of a blob naming how its payload is
// compressed. Tags are persisted and must never be renumbered.
type CompressionType byte

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZSTD
)

var compressionNames = map[CompressionType]string{
	CompressionNone:   "none",
	CompressionSnappy: "snappy",
	CompressionZSTD:   "zstd",
}

func (t CompressionType) String() string {
	if name, ok := compressionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("compression(%d)", byte(t))
}

// ParseCompressionType accepts the config spelling of a compression, case
// insensitively. The empty string means none.
func ParseCompressionType(name string) (CompressionType, error) {
	name = strings.ToLower(name)
	if name == "" {
		return CompressionNone, nil
	}
	for t, n := range compressionNames {
		if n == name {
			return t, nil
		}
	}
	return CompressionNone, fmt.Errorf("unsupported compression type: %s", name)
}

// shared zstd coders; EncodeAll and DecodeAll are safe for concurrent use
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func compress(t CompressionType, data []byte) ([]byte, error) {
	switch t {
	case CompressionNone:
		return data, nil
	case CompressionSnappy:
		return snappy.Encode(nil, data), nil
	case CompressionZSTD:
		enc, _, err := zstdCoders()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("unsupported compression type: %s", t)
}

func decompress(t CompressionType, data []byte) ([]byte, error) {
	switch t {
	case CompressionNone:
		return data, nil
	case CompressionSnappy:
		return snappy.Decode(nil, data)
	case CompressionZSTD:
		_, dec, err := zstdCoders()
		if err != nil {
			return nil, err
		}
		return dec.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("unsupported compression type: %s", t)
}
