package envelope

import (
	"errors"
	"fmt"
)

const (
	FlagRaw byte = 0x00
	FlagLZ4 byte = 0x01
)

// DefaultThreshold is the smallest message worth trying to compress.
const DefaultThreshold = 512

// MaxMessageSize bounds a message before sealing and after opening, so a
// recovered plaintext always fits in a single protocol frame.
const MaxMessageSize = 1 << 20

var (
	ErrMalformed       = errors.New("envelope: malformed plaintext envelope")
	ErrMessageTooLarge = errors.New("envelope: message too large")
)

// Seal frames msg, compressing it when level is not CompressionOff, msg is at
// least threshold bytes and compression actually shrinks it.
func Seal(msg []byte, level Compression, threshold int) []byte {
	if level != CompressionOff && len(msg) >= threshold {
		if compressed, err := Compress(msg, level); err == nil && len(compressed) < len(msg) {
			return frame(FlagLZ4, compressed)
		}
	}
	return frame(FlagRaw, msg)
}

func frame(flag byte, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = flag
	copy(out[1:], body)
	return out
}

// Open returns the message carried by an envelope.
func Open(env []byte) ([]byte, error) {
	if len(env) < 2 {
		return nil, ErrMalformed
	}
	switch env[0] {
	case FlagRaw:
		if len(env)-1 > MaxMessageSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(env)-1)
		}
		return env[1:], nil
	case FlagLZ4:
		msg, err := Decompress(env[1:])
		if errors.Is(err, ErrMessageTooLarge) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: unknown flag 0x%02x", ErrMalformed, env[0])
	}
}
