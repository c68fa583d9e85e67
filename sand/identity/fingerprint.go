// Package identity names peers by the key material they present during a handshake.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// shortLen is the number of bytes shown by Short.
const shortLen = 10

var ErrInvalidFingerprint = errors.New("identity: invalid fingerprint length")

// Fingerprint identifies the key material a peer handed over.
// It is defined as: Fingerprint = SHA-256(material).
type Fingerprint [32]byte

func FingerprintOf(material []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(material))
}

func ParseFingerprintHex(s string) (Fingerprint, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Fingerprint{}, err
	}
	if len(b) != len(Fingerprint{}) {
		return Fingerprint{}, ErrInvalidFingerprint
	}
	var fp Fingerprint
	copy(fp[:], b)
	return fp, nil
}

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// Short returns a truncated hex form suitable for log lines.
func (fp Fingerprint) Short() string {
	return hex.EncodeToString(fp[:shortLen])
}

func (fp Fingerprint) IsZero() bool {
	return fp == Fingerprint{}
}
