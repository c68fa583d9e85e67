package conn

// PeerLink is the capability a connection uses to hand ciphertext to its peer.
// Receive returns the plaintext the peer recovered. A PeerLink is passed per
// Send call and never retained.
type PeerLink interface {
	Receive(ciphertext []byte) (string, error)
}

// PeerLinkFunc adapts a function to PeerLink.
type PeerLinkFunc func(ciphertext []byte) (string, error)

func (f PeerLinkFunc) Receive(ciphertext []byte) (string, error) { return f(ciphertext) }

var _ PeerLink = (*SecureConnection)(nil)
