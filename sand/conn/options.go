package conn

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/SANd/sand/crypto"
	"github.com/TheusHen/SANd/sand/envelope"
	"github.com/TheusHen/SANd/sand/integration"
)

// Keying selects how the traffic key is established.
type Keying int

const (
	// KeyingX25519 exchanges X25519 public keys and derives one shared key.
	KeyingX25519 Keying = iota
	// KeyingLocal hands out the raw session key and keeps using only the local
	// key. Two connections in this mode cannot read each other's traffic.
	KeyingLocal
)

// ParseKeying maps a configuration string such as "x25519" or "local" to a
// Keying mode.
func ParseKeying(s string) (Keying, error) {
	switch s {
	case "", "x25519":
		return KeyingX25519, nil
	case "local":
		return KeyingLocal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKeying, s)
}

func (k Keying) String() string {
	switch k {
	case KeyingX25519:
		return "x25519"
	case KeyingLocal:
		return "local"
	default:
		return "unknown"
	}
}

func (k Keying) agreement() (crypto.KeyAgreement, error) {
	switch k {
	case KeyingX25519:
		return crypto.NewX25519Agreement()
	case KeyingLocal:
		return crypto.NewLocalAgreement()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeying, int(k))
	}
}

// Options configures a SecureConnection. The zero value is usable.
type Options struct {
	Keying Keying
	// Verifier defaults to KeyShapeVerifier{Size: crypto.KeySize}.
	Verifier HandshakeVerifier
	// Integrator is invoked by RequestIntegration; nil means no-op.
	Integrator integration.Integrator
	// RequireSegmentation makes Send and Receive fail until a tag is set.
	RequireSegmentation bool
	Compression         envelope.Compression
	// CompressionThreshold defaults to envelope.DefaultThreshold.
	CompressionThreshold int
	Logger               *logrus.Entry
}

func (o Options) withDefaults() Options {
	if o.Verifier == nil {
		o.Verifier = KeyShapeVerifier{Size: crypto.KeySize}
	}
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = envelope.DefaultThreshold
	}
	if o.Logger == nil {
		o.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return o
}
