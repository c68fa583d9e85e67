package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

var (
	ErrKeyGeneration = errors.New("crypto: key generation failed")
	ErrEmptyInput    = errors.New("crypto: empty input")
	ErrKeyDestroyed  = errors.New("crypto: session key destroyed")
)

// AssociatedData binds every ciphertext to the SANd protocol version.
var AssociatedData = []byte("sand/1")

// randReader is swapped in tests to simulate an unavailable RNG.
var randReader io.Reader = rand.Reader

// SessionKeyManager owns one symmetric session key and the AEAD bound to it.
// The key is fixed for the manager's lifetime and wiped by Destroy.
type SessionKeyManager struct {
	key  []byte
	aead *AEAD
}

// GenerateSessionKeyManager creates a manager with a fresh random key.
// An error wrapping ErrKeyGeneration means the system RNG is unusable;
// callers must not fall back to a weaker source.
func GenerateSessionKeyManager() (*SessionKeyManager, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	m, err := newSessionKeyManager(key)
	if err != nil {
		Wipe(key)
		return nil, err
	}
	return m, nil
}

// NewSessionKeyManager creates a manager over a copy of key.
func NewSessionKeyManager(key []byte) (*SessionKeyManager, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	owned := make([]byte, KeySize)
	copy(owned, key)
	m, err := newSessionKeyManager(owned)
	if err != nil {
		Wipe(owned)
		return nil, err
	}
	return m, nil
}

func newSessionKeyManager(key []byte) (*SessionKeyManager, error) {
	aead, err := NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return &SessionKeyManager{key: key, aead: aead}, nil
}

// Key returns a copy of the session key, or nil once destroyed.
func (m *SessionKeyManager) Key() []byte {
	if m.aead == nil {
		return nil
	}
	out := make([]byte, len(m.key))
	copy(out, m.key)
	return out
}

// Encrypt seals plaintext. Empty plaintext is rejected as a no-op encryption.
func (m *SessionKeyManager) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyInput
	}
	if m.aead == nil {
		return nil, ErrKeyDestroyed
	}
	return m.aead.Seal(plaintext, AssociatedData), nil
}

// Decrypt opens a ciphertext produced by Encrypt under the same key.
func (m *SessionKeyManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	if m.aead == nil {
		return nil, ErrKeyDestroyed
	}
	return m.aead.Open(ciphertext, AssociatedData)
}

// Destroyed reports whether Destroy has been called.
func (m *SessionKeyManager) Destroyed() bool { return m.aead == nil }

// Destroy wipes the key. It is safe to call more than once.
func (m *SessionKeyManager) Destroy() {
	Wipe(m.key)
	m.aead = nil
}
