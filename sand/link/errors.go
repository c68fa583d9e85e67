package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/crypto"
	"github.com/TheusHen/SANd/sand/envelope"
	"github.com/TheusHen/SANd/sand/protocol"
)

var (
	// ErrHandshakeRejected means either side refused the peer's key material.
	ErrHandshakeRejected = errors.New("link: handshake rejected")
	ErrUnexpectedFrame   = errors.New("link: unexpected frame")
	// ErrRemote wraps a peer failure that has no matching local sentinel.
	ErrRemote = errors.New("link: remote error")
)

var codeErrors = []struct {
	code protocol.ErrorCode
	err  error
}{
	{protocol.CodeNotAuthenticated, conn.ErrNotAuthenticated},
	{protocol.CodeAuthenticationFailed, crypto.ErrAuthenticationFailed},
	{protocol.CodeEmptyInput, crypto.ErrEmptyInput},
	{protocol.CodeSegmentationRequired, conn.ErrSegmentationRequired},
	{protocol.CodeClosed, conn.ErrClosed},
	{protocol.CodeHandshakeRejected, ErrHandshakeRejected},
	{protocol.CodeMalformed, envelope.ErrMalformed},
	{protocol.CodeMessageTooLarge, envelope.ErrMessageTooLarge},
	{protocol.CodeFrameTooLarge, protocol.ErrFrameTooLarge},
}

func errorPayload(err error) protocol.ErrorPayload {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return protocol.ErrorPayload{Code: ce.code, Message: err.Error()}
		}
	}
	return protocol.ErrorPayload{Code: protocol.CodeInternal, Message: err.Error()}
}

// payloadError restores the sentinel for p so callers can use errors.Is
// the same way they would on an in-process peer.
func payloadError(p protocol.ErrorPayload) error {
	for _, ce := range codeErrors {
		if p.Code != ce.code {
			continue
		}
		if rest, ok := strings.CutPrefix(p.Message, ce.err.Error()); ok {
			if rest == "" {
				return ce.err
			}
			return fmt.Errorf("%w%s", ce.err, rest)
		}
		if p.Message == "" {
			return ce.err
		}
		return fmt.Errorf("%w: %s", ce.err, p.Message)
	}
	return fmt.Errorf("%w: %s", ErrRemote, p.Message)
}
