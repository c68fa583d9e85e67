package crypto

import (
	"bytes"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const sessionKeyLabel = "sand-session-key"

// DeriveKey derives a key of the specified length using HKDF-SHA256.
// salt can be nil (uses zero salt), info provides context binding.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveSessionKey derives the shared session key from an X25519 secret.
// The two public keys are bound in sorted order so both peers derive the same key
// without agreeing on roles first.
func DeriveSessionKey(sharedSecret []byte, pubA, pubB [32]byte) ([]byte, error) {
	lo, hi := pubA, pubB
	if bytes.Compare(lo[:], hi[:]) > 0 {
		lo, hi = hi, lo
	}
	info := make([]byte, 0, len(sessionKeyLabel)+64)
	info = append(info, sessionKeyLabel...)
	info = append(info, lo[:]...)
	info = append(info, hi[:]...)
	return DeriveKey(sharedSecret, nil, info, KeySize)
}
