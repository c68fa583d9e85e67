package conn

import "errors"

var (
	// ErrNotAuthenticated means the connection has no successful handshake.
	ErrNotAuthenticated = errors.New("conn: not authenticated: perform handshake first")
	// ErrEmptyMessage rejects encrypting an empty message.
	ErrEmptyMessage = errors.New("conn: empty message cannot be encrypted")
	// ErrEmptyTag rejects an empty segmentation tag.
	ErrEmptyTag = errors.New("conn: segmentation tag cannot be empty")
	// ErrSegmentationRequired is returned by Send and Receive when
	// Options.RequireSegmentation is set and no tag has been set.
	ErrSegmentationRequired = errors.New("conn: segmentation tag required: set segmentation first")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("conn: connection closed")

	ErrMissingPeerKey = errors.New("conn: peer key is missing")
	ErrInvalidPeerKey = errors.New("conn: invalid peer key")
	ErrUnknownKeying  = errors.New("conn: unknown keying mode")
	ErrNoPeerLink     = errors.New("conn: no peer link")
)
