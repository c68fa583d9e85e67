package crypto

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

var (
	ErrInvalidPublicKey = errors.New("crypto: invalid X25519 public key")
)

// KeyAgreement turns the key material a peer hands over during a handshake
// into the SessionKeyManager used for traffic.
type KeyAgreement interface {
	// Material returns the bytes the peer passes to its own handshake.
	Material() []byte
	// Agree returns a new manager owned by the caller.
	Agree(peerMaterial []byte) (*SessionKeyManager, error)
	// Destroy wipes the agreement's secrets.
	Destroy()
}

// LocalAgreement keeps a single locally generated session key and ignores the
// peer's material: each side encrypts and decrypts with its own key only.
// Material exposes the raw session key.
type LocalAgreement struct {
	keys *SessionKeyManager
}

// NewLocalAgreement generates a random session key that the agreement uses
// for every peer.
func NewLocalAgreement() (*LocalAgreement, error) {
	keys, err := GenerateSessionKeyManager()
	if err != nil {
		return nil, err
	}
	return &LocalAgreement{keys: keys}, nil
}

func (l *LocalAgreement) Material() []byte { return l.keys.Key() }

func (l *LocalAgreement) Agree(_ []byte) (*SessionKeyManager, error) {
	if l.keys.Destroyed() {
		return nil, ErrKeyDestroyed
	}
	return NewSessionKeyManager(l.keys.key)
}

func (l *LocalAgreement) Destroy() { l.keys.Destroy() }

// X25519KeyPair represents an ephemeral ECDH keypair.
type X25519KeyPair struct {
	PublicKey  [32]byte
	PrivateKey [32]byte
}

// GenerateX25519 generates a new ephemeral X25519 keypair.
func GenerateX25519() (X25519KeyPair, error) {
	var kp X25519KeyPair
	if _, err := io.ReadFull(randReader, kp.PrivateKey[:]); err != nil {
		return X25519KeyPair{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	// Clamp private key per RFC 7748
	kp.PrivateKey[0] &= 248
	kp.PrivateKey[31] &= 127
	kp.PrivateKey[31] |= 64

	curve25519.ScalarBaseMult(&kp.PublicKey, &kp.PrivateKey)
	return kp, nil
}

// ECDH computes the raw X25519 shared secret. The result must go through HKDF.
func ECDH(privateKey, peerPublicKey [32]byte) ([]byte, error) {
	var zero [32]byte
	if peerPublicKey == zero {
		return nil, ErrInvalidPublicKey
	}
	shared, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		// low-order point
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return shared, nil
}

// X25519Agreement derives the session key from an X25519 exchange of public keys.
// Both peers end up with the same key, and an eavesdropper who sees the
// exchanged material cannot compute it.
type X25519Agreement struct {
	kp        X25519KeyPair
	destroyed bool
}

// NewX25519Agreement generates a fresh X25519 key pair.
func NewX25519Agreement() (*X25519Agreement, error) {
	kp, err := GenerateX25519()
	if err != nil {
		return nil, err
	}
	return &X25519Agreement{kp: kp}, nil
}

func (x *X25519Agreement) Material() []byte {
	pub := x.kp.PublicKey
	return pub[:]
}

func (x *X25519Agreement) Agree(peerMaterial []byte) (*SessionKeyManager, error) {
	if x.destroyed {
		return nil, ErrKeyDestroyed
	}
	if len(peerMaterial) != len(x.kp.PublicKey) {
		return nil, ErrInvalidPublicKey
	}
	var peerPub [32]byte
	copy(peerPub[:], peerMaterial)

	shared, err := ECDH(x.kp.PrivateKey, peerPub)
	if err != nil {
		return nil, err
	}
	defer Wipe(shared)

	key, err := DeriveSessionKey(shared, x.kp.PublicKey, peerPub)
	if err != nil {
		return nil, err
	}
	defer Wipe(key)
	return NewSessionKeyManager(key)
}

func (x *X25519Agreement) Destroy() {
	Wipe(x.kp.PrivateKey[:])
	x.destroyed = true
}
