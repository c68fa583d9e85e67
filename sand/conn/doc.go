// Package conn implements SecureConnection, the SANd point-to-point session.
//
// A connection starts unauthenticated. Handshake moves it to authenticated
// from peer-supplied key material. Only then may messages be encrypted,
// decrypted or tagged with a segmentation label.
//
// Handshake reports its outcome as a bool rather than an error so callers can
// branch on trust establishment directly. Every other operation returns an
// error, and errors from the crypto layer or from a PeerLink pass through
// unchanged.
//
// The default HandshakeVerifier only checks the shape of the peer key material.
// It does not prove the peer holds any secret. Use a different verifier (see
// package trust) where that matters.
package conn
