// Package trust pins the key material a connection is willing to handshake with.
package trust

import (
	"sort"
	"sync"

	"github.com/TheusHen/SANd/sand/identity"
)

// Store is an in-memory set of pinned peer fingerprints with optional labels.
// It is useful for tests, examples and embedding in applications.
type Store struct {
	mu     sync.RWMutex
	pinned map[identity.Fingerprint]string
}

func NewStore() *Store {
	return &Store{pinned: map[identity.Fingerprint]string{}}
}

// Pin trusts fp. The label is informational only.
func (s *Store) Pin(fp identity.Fingerprint, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned[fp] = label
}

// PinMaterial pins the fingerprint of raw key material.
func (s *Store) PinMaterial(material []byte, label string) identity.Fingerprint {
	fp := identity.FingerprintOf(material)
	s.Pin(fp, label)
	return fp
}

func (s *Store) Unpin(fp identity.Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pinned, fp)
}

// Pinned reports whether fp is trusted and returns its label.
func (s *Store) Pinned(fp identity.Fingerprint) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	label, ok := s.pinned[fp]
	return label, ok
}

// List returns the pinned fingerprints in hex order.
func (s *Store) List() []identity.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]identity.Fingerprint, 0, len(s.pinned))
	for fp := range s.pinned {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
