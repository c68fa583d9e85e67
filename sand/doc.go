// Package sand provides the SANd secure point-to-point connection.
//
// A conn.SecureConnection authenticates a peer from its key material, tags
// itself with a segmentation label, and exchanges AEAD-protected messages with
// any conn.PeerLink. Two connections in one process link directly; Node links
// them over QUIC using the link and transport/quic packages.
package sand
