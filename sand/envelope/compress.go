package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrCompressionFailed   = errors.New("envelope: compression failed")
	ErrDecompressionFailed = errors.New("envelope: decompression failed")
)

// Compression controls whether and how hard Seal compresses.
type Compression int

const (
	CompressionOff     Compression = iota // never compress
	CompressionFast                       // Fastest, lower ratio
	CompressionDefault                    // Balanced
	CompressionBest                       // Best ratio, slower
)

// ParseCompression maps a config string to a Compression level.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "off", "none":
		return CompressionOff, nil
	case "fast":
		return CompressionFast, nil
	case "default":
		return CompressionDefault, nil
	case "best":
		return CompressionBest, nil
	}
	return CompressionOff, errors.New("envelope: unknown compression " + s)
}

func (c Compression) String() string {
	switch c {
	case CompressionOff:
		return "off"
	case CompressionFast:
		return "fast"
	case CompressionDefault:
		return "default"
	case CompressionBest:
		return "best"
	default:
		return "unknown"
	}
}

// compressorPool reuses LZ4 writers to reduce allocations.
var compressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

// decompressorPool reuses LZ4 readers.
var decompressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// Compress compresses data using the LZ4 frame format.
func Compress(data []byte, level Compression) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)

	w.Reset(&buf)

	switch level {
	case CompressionFast:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Fast))
	case CompressionBest:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Level9))
	default:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Level4))
	}

	if _, err := w.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// Decompress decompresses LZ4-framed data. Output beyond MaxMessageSize is
// never materialised; such input fails with ErrMessageTooLarge.
func Decompress(data []byte) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)

	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxMessageSize+1))
	if err != nil {
		return nil, ErrDecompressionFailed
	}
	if n > MaxMessageSize {
		return nil, fmt.Errorf("%w: decompressed output exceeds %d bytes", ErrMessageTooLarge, MaxMessageSize)
	}
	return buf.Bytes(), nil
}
