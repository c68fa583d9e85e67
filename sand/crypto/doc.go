// Package crypto provides the session key material and authenticated encryption used by SANd connections.
//
// Design goals:
//   - One 32-byte symmetric key per connection, generated from crypto/rand
//   - AEAD encryption via XChaCha20-Poly1305 with internally managed nonces
//   - Optional X25519 key agreement with HKDF-SHA256 key derivation
//   - Best-effort zeroization of key material when a key is destroyed
//
// Key material is never logged by this package.
package crypto
