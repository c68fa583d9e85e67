package crypto

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the length of every session key.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the length of the nonce prepended to each ciphertext.
	NonceSize = chacha20poly1305.NonceSizeX
	// Overhead is the authentication tag length appended to each ciphertext.
	Overhead = chacha20poly1305.Overhead
)

var (
	ErrAuthenticationFailed = errors.New("crypto: authentication failed: ciphertext tampered or wrong key")
	ErrInvalidKeySize       = errors.New("crypto: invalid key size")
)

// AEAD wraps XChaCha20-Poly1305 with automatic nonce management.
// The 192-bit nonce is a 128-bit random prefix followed by a 64-bit counter,
// so two connections sharing a key will not collide in practice.
type AEAD struct {
	aead   cipher.AEAD
	prefix [NonceSize - 8]byte
	seq    atomic.Uint64
}

// NewAEAD creates a new AEAD cipher from a 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	a := &AEAD{aead: aead}
	if _, err := io.ReadFull(randReader, a.prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return a, nil
}

func (a *AEAD) nextNonce() []byte {
	seq := a.seq.Add(1)
	nonce := make([]byte, NonceSize)
	copy(nonce, a.prefix[:])
	binary.BigEndian.PutUint64(nonce[len(a.prefix):], seq)
	return nonce
}

// Seal encrypts and authenticates plaintext.
// Returns: nonce (24 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Seal(plaintext, additionalData []byte) []byte {
	nonce := a.nextNonce()
	out := make([]byte, len(nonce), len(nonce)+len(plaintext)+Overhead)
	copy(out, nonce)
	return a.aead.Seal(out, nonce, plaintext, additionalData)
}

// Open decrypts and verifies ciphertext produced by Seal.
// It never returns partial plaintext.
func (a *AEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+Overhead {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrAuthenticationFailed)
	}
	nonce := ciphertext[:NonceSize]
	plaintext, err := a.aead.Open(nil, nonce, ciphertext[NonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}
