package trust

import (
	"errors"
	"fmt"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/identity"
)

var ErrNotPinned = errors.New("trust: peer key material is not pinned")

// Verifier accepts only key material whose fingerprint is pinned in Store.
// Shape is checked first, so unpinned and malformed material stay distinguishable.
type Verifier struct {
	Store *Store
	Shape conn.KeyShapeVerifier
}

func NewVerifier(store *Store, size int) Verifier {
	return Verifier{Store: store, Shape: conn.KeyShapeVerifier{Size: size}}
}

func (v Verifier) Verify(peerKeyMaterial []byte) error {
	if err := v.Shape.Verify(peerKeyMaterial); err != nil {
		return err
	}
	fp := identity.FingerprintOf(peerKeyMaterial)
	if _, ok := v.Store.Pinned(fp); !ok {
		return fmt.Errorf("%w: %s", ErrNotPinned, fp.Short())
	}
	return nil
}
