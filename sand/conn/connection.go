package conn

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/SANd/sand/crypto"
	"github.com/TheusHen/SANd/sand/envelope"
	"github.com/TheusHen/SANd/sand/identity"
)

// SecureConnection is one side of a SANd point-to-point session.
// It is safe for concurrent use; the lock is never held while calling a PeerLink
// or an Integrator.
type SecureConnection struct {
	mu        sync.Mutex
	opts      Options
	log       *logrus.Entry
	agreement crypto.KeyAgreement
	keys      *crypto.SessionKeyManager

	authenticated bool
	segment       string
	hasSegment    bool
	peer          identity.Fingerprint
	hasPeer       bool
	lastErr       error
	closed        bool
}

// New creates an unauthenticated connection with fresh key material.
// An error wrapping crypto.ErrKeyGeneration means the RNG is unusable.
func New(opts Options) (*SecureConnection, error) {
	opts = opts.withDefaults()
	agreement, err := opts.Keying.agreement()
	if err != nil {
		return nil, err
	}
	return &SecureConnection{
		opts:      opts,
		log:       opts.Logger.WithFields(logrus.Fields{"component": "conn", "keying": opts.Keying.String()}),
		agreement: agreement,
	}, nil
}

// KeyMaterial returns the bytes a peer must pass to its Handshake.
// In KeyingLocal mode this is the raw session key.
func (c *SecureConnection) KeyMaterial() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.agreement.Material()
}

// Handshake authenticates the peer from its key material and reports success.
// On failure the connection is left unauthenticated; the reason is available
// from LastHandshakeError. It may be called again to re-authenticate.
func (c *SecureConnection) Handshake(peerKeyMaterial []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.lastErr = ErrClosed
		return false
	}
	if err := c.handshake(peerKeyMaterial); err != nil {
		c.dropKeys()
		c.authenticated = false
		c.peer, c.hasPeer = identity.Fingerprint{}, false
		c.lastErr = err
		c.log.WithError(err).Warn("Handshake failed")
		return false
	}
	c.log.WithField("peer", c.peer.Short()).Info("Handshake successful, peer authenticated")
	return true
}

func (c *SecureConnection) handshake(material []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conn: handshake aborted: %v", r)
		}
	}()

	if err := c.opts.Verifier.Verify(material); err != nil {
		return err
	}
	keys, err := c.agreement.Agree(material)
	if err != nil {
		return err
	}
	c.dropKeys()
	c.keys = keys
	c.authenticated = true
	c.peer, c.hasPeer = identity.FingerprintOf(material), true
	c.lastErr = nil
	return nil
}

func (c *SecureConnection) dropKeys() {
	if c.keys != nil {
		c.keys.Destroy()
		c.keys = nil
	}
}

// Authenticated reports whether the last handshake succeeded and the
// connection has not been closed since.
func (c *SecureConnection) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// LastHandshakeError returns why the most recent handshake failed, or nil.
func (c *SecureConnection) LastHandshakeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// PeerFingerprint returns the fingerprint of the material accepted by the last
// successful handshake.
func (c *SecureConnection) PeerFingerprint() (identity.Fingerprint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer, c.hasPeer
}

// Keying returns the key-agreement mode the connection was created with.
func (c *SecureConnection) Keying() Keying { return c.opts.Keying }

// SetSegmentation tags the connection with a security-zone label.
// Re-tagging overwrites the previous label.
func (c *SecureConnection) SetSegmentation(tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return ErrClosed
	case tag == "":
		return ErrEmptyTag
	case !c.authenticated:
		return ErrNotAuthenticated
	}
	c.segment, c.hasSegment = tag, true
	c.log.WithField("segment", tag).Info("Segmentation set")
	return nil
}

// Segmentation returns the current tag and whether one is set.
func (c *SecureConnection) Segmentation() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.segment, c.hasSegment
}

// EncryptMessage encrypts message under the session key.
func (c *SecureConnection) EncryptMessage(message string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encrypt(message, false)
}

// DecryptMessage decrypts a ciphertext produced by an EncryptMessage under the same session key.
func (c *SecureConnection) DecryptMessage(ciphertext []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrypt(ciphertext, false)
}

func (c *SecureConnection) encrypt(message string, messaging bool) ([]byte, error) {
	switch {
	case c.closed:
		return nil, ErrClosed
	case message == "":
		return nil, ErrEmptyMessage
	case len(message) > envelope.MaxMessageSize:
		return nil, fmt.Errorf("%w: %d bytes", envelope.ErrMessageTooLarge, len(message))
	}
	if err := c.ready(messaging); err != nil {
		return nil, err
	}
	env := envelope.Seal([]byte(message), c.opts.Compression, c.opts.CompressionThreshold)
	defer crypto.Wipe(env)
	return c.keys.Encrypt(env)
}

func (c *SecureConnection) decrypt(ciphertext []byte, messaging bool) (string, error) {
	switch {
	case c.closed:
		return "", ErrClosed
	case len(ciphertext) == 0:
		return "", crypto.ErrEmptyInput
	}
	if err := c.ready(messaging); err != nil {
		return "", err
	}
	env, err := c.keys.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(env)
	msg, err := envelope.Open(env)
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

func (c *SecureConnection) ready(messaging bool) error {
	if !c.authenticated {
		return ErrNotAuthenticated
	}
	if messaging && c.opts.RequireSegmentation && !c.hasSegment {
		return ErrSegmentationRequired
	}
	return nil
}

// Send encrypts message and hands the ciphertext to peer, returning whatever
// plaintext the peer recovered. Errors from either side propagate unchanged.
func (c *SecureConnection) Send(message string, peer PeerLink) (string, error) {
	if peer == nil {
		return "", ErrNoPeerLink
	}
	c.mu.Lock()
	ciphertext, err := c.encrypt(message, true)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	c.log.WithField("bytes", len(ciphertext)).Debug("Sending encrypted message")
	return peer.Receive(ciphertext)
}

// Receive decrypts a ciphertext delivered by a peer.
func (c *SecureConnection) Receive(ciphertext []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := c.decrypt(ciphertext, true)
	if err != nil {
		return "", err
	}
	c.log.WithField("bytes", len(ciphertext)).Debug("Received and decrypted message")
	return msg, nil
}

// RequestIntegration notifies the configured Integrator that this connection is
// active. Its outcome never changes connection state and is not logged here.
func (c *SecureConnection) RequestIntegration(ctx context.Context) error {
	c.mu.Lock()
	closed, integrator := c.closed, c.opts.Integrator
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if integrator == nil {
		return nil
	}
	return integrator.Integrate(ctx)
}

// Close wipes all key material. Later operations fail with ErrClosed.
func (c *SecureConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.dropKeys()
	c.agreement.Destroy()
	c.authenticated = false
	c.closed = true
	c.log.Debug("Connection closed, key material wiped")
	return nil
}
