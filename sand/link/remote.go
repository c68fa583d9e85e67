// Package link carries a SecureConnection's messages to a peer over QUIC.
//
// Dial performs the HELLO exchange and returns a Remote, which is a
// conn.PeerLink: passing it to SecureConnection.Send delivers the ciphertext
// to the peer's connection and returns the plaintext the peer recovered.
// Serve is the other end.
package link

import (
	"context"
	"fmt"
	"io"
	"time"

	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/identity"
	"github.com/TheusHen/SANd/sand/protocol"
	"github.com/TheusHen/SANd/sand/transport/quic"
)

// Remote is the client side of a link.
type Remote struct {
	qc      q.Connection
	pool    *StreamPool
	timeout time.Duration
	log     *logrus.Entry

	peer protocol.Hello
}

var _ conn.PeerLink = (*Remote)(nil)

// Dial connects to addr, exchanges HELLO frames and authenticates the peer
// on local. The peer authenticates local the same way before replying.
// When opts.Segment is set, local is tagged with it once authenticated.
func Dial(ctx context.Context, addr string, local *conn.SecureConnection, opts Options) (*Remote, error) {
	opts = opts.withDefaults()
	log := opts.Logger.WithFields(logrus.Fields{"component": "link", "remote": addr})

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	qc, err := quic.DialWithConfig(ctx, addr, opts.Transport)
	if err != nil {
		return nil, err
	}
	peer, err := exchangeHello(ctx, qc, local, opts)
	if err != nil {
		_ = qc.CloseWithError(1, "handshake failed")
		return nil, err
	}

	fp, _ := local.PeerFingerprint()
	log.WithFields(logrus.Fields{"peer": fp.Short(), "segment": peer.Segment}).Info("Link established")

	return &Remote{
		qc:      qc,
		pool:    NewStreamPool(streamOpener{qc}, opts.MaxStreams),
		timeout: opts.Timeout,
		log:     log,
		peer:    peer,
	}, nil
}

func exchangeHello(ctx context.Context, qc q.Connection, local *conn.SecureConnection, opts Options) (protocol.Hello, error) {
	control, err := qc.OpenStreamSync(ctx)
	if err != nil {
		return protocol.Hello{}, err
	}
	defer control.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = control.SetDeadline(dl)
	}

	payload, err := protocol.EncodeHello(protocol.NewHello(local.KeyMaterial(), opts.Segment, opts.Capabilities))
	if err != nil {
		return protocol.Hello{}, err
	}
	if err := protocol.WriteFrame(control, protocol.Frame{Type: protocol.MessageTypeHello, Payload: payload}); err != nil {
		return protocol.Hello{}, err
	}

	frame, err := protocol.ReadFrame(control)
	if err != nil {
		return protocol.Hello{}, err
	}
	switch frame.Type {
	case protocol.MessageTypeHello:
	case protocol.MessageTypeError:
		return protocol.Hello{}, decodeErrorFrame(frame.Payload)
	default:
		return protocol.Hello{}, fmt.Errorf("%w: %s during handshake", ErrUnexpectedFrame, frame.Type)
	}

	peer, err := protocol.DecodeHello(frame.Payload)
	if err != nil {
		return protocol.Hello{}, err
	}
	if !local.Handshake(peer.KeyMaterial) {
		return protocol.Hello{}, fmt.Errorf("%w: %v", ErrHandshakeRejected, local.LastHandshakeError())
	}
	if opts.Segment != "" {
		if err := local.SetSegmentation(opts.Segment); err != nil {
			return protocol.Hello{}, err
		}
	}
	return peer, nil
}

func decodeErrorFrame(payload []byte) error {
	p, err := protocol.DecodeError(payload)
	if err != nil {
		return fmt.Errorf("%w: undecodable error frame: %v", ErrRemote, err)
	}
	return payloadError(p)
}

// Receive implements conn.PeerLink by sending ciphertext in a DATA frame and
// waiting for the peer's PLAINTEXT or ERROR reply.
func (r *Remote) Receive(ciphertext []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.ReceiveContext(ctx, ciphertext)
}

func (r *Remote) ReceiveContext(ctx context.Context, ciphertext []byte) (string, error) {
	s, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	if d, ok := s.(interface{ SetDeadline(time.Time) error }); ok {
		if dl, ok := ctx.Deadline(); ok {
			_ = d.SetDeadline(dl)
		} else {
			_ = d.SetDeadline(time.Time{})
		}
	}

	reply, err := roundTrip(s, ciphertext)
	if err != nil {
		r.pool.Discard(s)
		r.log.WithError(err).Warn("Stream failed")
		return "", err
	}
	r.pool.Release(s)

	switch reply.Type {
	case protocol.MessageTypePlaintext:
		return string(reply.Payload), nil
	case protocol.MessageTypeError:
		return "", decodeErrorFrame(reply.Payload)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedFrame, reply.Type)
	}
}

func roundTrip(rw io.ReadWriter, ciphertext []byte) (protocol.Frame, error) {
	if err := protocol.WriteFrame(rw, protocol.Frame{Type: protocol.MessageTypeData, Payload: ciphertext}); err != nil {
		return protocol.Frame{}, err
	}
	return protocol.ReadFrame(rw)
}

// PeerSegment returns the segmentation tag the peer advertised.
func (r *Remote) PeerSegment() string { return r.peer.Segment }

func (r *Remote) PeerCapabilities() map[string]string {
	out := make(map[string]string, len(r.peer.Capabilities))
	for k, v := range r.peer.Capabilities {
		out[k] = v
	}
	return out
}

// PeerFingerprint identifies the peer's HELLO key material.
func (r *Remote) PeerFingerprint() identity.Fingerprint {
	return identity.FingerprintOf(r.peer.KeyMaterial)
}

func (r *Remote) Close() error {
	_ = r.pool.Close()
	return r.qc.CloseWithError(0, "closed")
}

type streamOpener struct {
	qc q.Connection
}

func (o streamOpener) OpenStreamSync(ctx context.Context) (io.ReadWriteCloser, error) {
	return o.qc.OpenStreamSync(ctx)
}
