package conn

import "fmt"

// HandshakeVerifier decides whether peer key material is acceptable.
type HandshakeVerifier interface {
	Verify(peerKeyMaterial []byte) error
}

// KeyShapeVerifier accepts any non-empty material of the expected length.
// It authenticates nothing: anyone can produce key-shaped bytes.
type KeyShapeVerifier struct {
	Size int
}

func (v KeyShapeVerifier) Verify(peerKeyMaterial []byte) error {
	if len(peerKeyMaterial) == 0 {
		return ErrMissingPeerKey
	}
	if v.Size > 0 && len(peerKeyMaterial) != v.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPeerKey, len(peerKeyMaterial), v.Size)
	}
	return nil
}

// VerifierFunc adapts a function to HandshakeVerifier.
type VerifierFunc func(peerKeyMaterial []byte) error

func (f VerifierFunc) Verify(peerKeyMaterial []byte) error { return f(peerKeyMaterial) }
