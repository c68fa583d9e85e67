package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/crypto"
	"github.com/TheusHen/SANd/sand/envelope"
	"github.com/TheusHen/SANd/sand/protocol"
	"github.com/TheusHen/SANd/sand/transport/quic"
)

func newConn(t *testing.T, keying conn.Keying) *conn.SecureConnection {
	t.Helper()
	c, err := conn.New(conn.Options{Keying: keying})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestErrorCodesRoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		conn.ErrNotAuthenticated,
		crypto.ErrAuthenticationFailed,
		crypto.ErrEmptyInput,
		conn.ErrSegmentationRequired,
		conn.ErrClosed,
		ErrHandshakeRejected,
		envelope.ErrMalformed,
		envelope.ErrMessageTooLarge,
		protocol.ErrFrameTooLarge,
	} {
		got := payloadError(errorPayload(sentinel))
		assert.Same(t, sentinel, got, sentinel.Error())
	}

	short := payloadError(errorPayload(fmt.Errorf("%w: ciphertext too short", crypto.ErrAuthenticationFailed)))
	assert.ErrorIs(t, short, crypto.ErrAuthenticationFailed)
	assert.Equal(t, crypto.ErrAuthenticationFailed.Error()+": ciphertext too short", short.Error())

	other := payloadError(errorPayload(errors.New("disk on fire")))
	assert.ErrorIs(t, other, ErrRemote)
	assert.Contains(t, other.Error(), "disk on fire")
}

func TestHandleStreamOverPipe(t *testing.T) {
	local := newConn(t, conn.KeyingX25519)
	client := newConn(t, conn.KeyingX25519)

	srv := &server{local: local, opts: Options{Segment: "Segment_B"}.withDefaults()}
	srv.log = srv.opts.Logger

	cliEnd, srvEnd := net.Pipe()
	defer cliEnd.Close()
	done := make(chan error, 1)
	go func() {
		done <- srv.handleStream(srvEnd, srv.log)
		_ = srvEnd.Close()
	}()

	// DATA before HELLO reaches an unauthenticated connection.
	reply, err := roundTrip(cliEnd, []byte("ciphertext"))
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypeError, reply.Type)
	assert.ErrorIs(t, decodeErrorFrame(reply.Payload), conn.ErrNotAuthenticated)

	hello, err := protocol.EncodeHello(protocol.NewHello(client.KeyMaterial(), "Segment_A", nil))
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(cliEnd, protocol.Frame{Type: protocol.MessageTypeHello, Payload: hello}))
	reply, err = protocol.ReadFrame(cliEnd)
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypeHello, reply.Type)
	peer, err := protocol.DecodeHello(reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, "Segment_B", peer.Segment)
	segment, ok := local.Segmentation()
	assert.True(t, ok)
	assert.Equal(t, "Segment_B", segment)
	require.True(t, client.Handshake(peer.KeyMaterial))

	ct, err := client.EncryptMessage("Hello, secure world!")
	require.NoError(t, err)
	reply, err = roundTrip(cliEnd, ct)
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypePlaintext, reply.Type)
	assert.Equal(t, "Hello, secure world!", string(reply.Payload))

	require.NoError(t, protocol.WriteFrame(cliEnd, protocol.Frame{Type: protocol.MessageTypeClose}))
	require.NoError(t, <-done)
}

func TestHandleStreamRejectsBadHello(t *testing.T) {
	local := newConn(t, conn.KeyingX25519)
	srv := &server{local: local, opts: Options{}.withDefaults()}
	srv.log = srv.opts.Logger

	cliEnd, srvEnd := net.Pipe()
	defer cliEnd.Close()
	go func() {
		_ = srv.handleStream(srvEnd, srv.log)
		_ = srvEnd.Close()
	}()

	hello, err := protocol.EncodeHello(protocol.NewHello([]byte("short"), "", nil))
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(cliEnd, protocol.Frame{Type: protocol.MessageTypeHello, Payload: hello}))
	reply, err := protocol.ReadFrame(cliEnd)
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypeError, reply.Type)
	assert.ErrorIs(t, decodeErrorFrame(reply.Payload), ErrHandshakeRejected)
	assert.False(t, local.Authenticated())
}

func sendHello(t *testing.T, rw net.Conn, c *conn.SecureConnection) protocol.Hello {
	t.Helper()
	hello, err := protocol.EncodeHello(protocol.NewHello(c.KeyMaterial(), "", nil))
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(rw, protocol.Frame{Type: protocol.MessageTypeHello, Payload: hello}))
	reply, err := protocol.ReadFrame(rw)
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypeHello, reply.Type)
	peer, err := protocol.DecodeHello(reply.Payload)
	require.NoError(t, err)
	return peer
}

func TestHelloReplacingPeerIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	local := newConn(t, conn.KeyingX25519)
	first := newConn(t, conn.KeyingX25519)
	second := newConn(t, conn.KeyingX25519)

	srv := &server{local: local, opts: Options{Logger: logrus.NewEntry(logger)}.withDefaults()}
	srv.log = srv.opts.Logger

	cliEnd, srvEnd := net.Pipe()
	defer cliEnd.Close()
	go func() {
		_ = srv.handleStream(srvEnd, srv.log)
		_ = srvEnd.Close()
	}()

	require.True(t, first.Handshake(sendHello(t, cliEnd, first).KeyMaterial))
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, e.Level, e.Message)
	}

	// Repeating the same peer's HELLO is not a replacement.
	sendHello(t, cliEnd, first)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "Replacing authenticated peer", e.Message)
	}

	require.True(t, second.Handshake(sendHello(t, cliEnd, second).KeyMaterial))
	var replaced *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Replacing authenticated peer" {
			replaced = e
		}
	}
	require.NotNil(t, replaced)
	assert.Equal(t, logrus.WarnLevel, replaced.Level)
	current, _ := local.PeerFingerprint()
	assert.Equal(t, current.Short(), replaced.Data["peer"])
	assert.NotEqual(t, replaced.Data["previous"], replaced.Data["peer"])

	// The displaced client can no longer talk to the served connection.
	ct, err := first.EncryptMessage("stale")
	require.NoError(t, err)
	reply, err := roundTrip(cliEnd, ct)
	require.NoError(t, err)
	require.Equal(t, protocol.MessageTypeError, reply.Type)
	assert.ErrorIs(t, decodeErrorFrame(reply.Payload), crypto.ErrAuthenticationFailed)

	ct, err = second.EncryptMessage("fresh")
	require.NoError(t, err)
	reply, err = roundTrip(cliEnd, ct)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(reply.Payload))
}

func serve(t *testing.T, local *conn.SecureConnection, opts Options) string {
	t.Helper()
	ln, err := quic.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, local, opts) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("Serve did not stop")
		}
		_ = ln.Close()
	})
	return ln.AddrString()
}

func TestQUICSend(t *testing.T) {
	connB := newConn(t, conn.KeyingX25519)
	addr := serve(t, connB, Options{Segment: "Segment_B"})

	connA := newConn(t, conn.KeyingX25519)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	remote, err := Dial(ctx, addr, connA, Options{Segment: "Segment_A", Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer remote.Close()

	assert.True(t, connA.Authenticated())
	assert.True(t, connB.Authenticated())
	assert.Equal(t, "Segment_B", remote.PeerSegment())
	segment, _ := connA.Segmentation()
	assert.Equal(t, "Segment_A", segment)

	for _, msg := range []string{"Hello, secure world!", "second message", "third"} {
		got, err := connA.Send(msg, remote)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}

	_, err = connA.Send("", remote)
	assert.ErrorIs(t, err, conn.ErrEmptyMessage)

	// A forged DATA frame is rejected by the server's AEAD.
	_, err = remote.Receive([]byte("forged ciphertext that is long enough to look real"))
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailed)

	got, err := connA.Send("still works", remote)
	require.NoError(t, err)
	assert.Equal(t, "still works", got)
}

func TestQUICSendLocalKeying(t *testing.T) {
	connB := newConn(t, conn.KeyingLocal)
	addr := serve(t, connB, Options{})

	connA := newConn(t, conn.KeyingLocal)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	remote, err := Dial(ctx, addr, connA, Options{})
	require.NoError(t, err)
	defer remote.Close()

	_, err = connA.Send("Hello, secure world!", remote)
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
}

func TestQUICDialRejected(t *testing.T) {
	connB := newConn(t, conn.KeyingX25519)
	addr := serve(t, connB, Options{})

	// The server accepts A, then A refuses the server's HELLO.
	connA, err := conn.New(conn.Options{
		Keying: conn.KeyingX25519,
		Verifier: conn.VerifierFunc(func([]byte) error {
			return errors.New("not trusted")
		}),
	})
	require.NoError(t, err)
	defer connA.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = Dial(ctx, addr, connA, Options{})
	assert.ErrorIs(t, err, ErrHandshakeRejected)
	assert.False(t, connA.Authenticated())
}

func TestQUICOversizedMessage(t *testing.T) {
	connB := newConn(t, conn.KeyingLocal)
	addr := serve(t, connB, Options{})

	connA := newConn(t, conn.KeyingLocal)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	remote, err := Dial(ctx, addr, connA, Options{})
	require.NoError(t, err)
	defer remote.Close()

	_, err = connA.Send(string(bytes.Repeat([]byte("a"), envelope.MaxMessageSize+1)), remote)
	assert.ErrorIs(t, err, envelope.ErrMessageTooLarge)

	// Local keying hands out the raw key, so a client can build an envelope
	// that only inflates past the limit on the server.
	forger, err := crypto.NewSessionKeyManager(connB.KeyMaterial())
	require.NoError(t, err)
	bomb, err := envelope.Compress(bytes.Repeat([]byte("a"), 2<<20), envelope.CompressionDefault)
	require.NoError(t, err)
	require.Less(t, len(bomb), protocol.MaxFramePayload)
	ct, err := forger.Encrypt(append([]byte{envelope.FlagLZ4}, bomb...))
	require.NoError(t, err)

	_, err = remote.Receive(ct)
	assert.ErrorIs(t, err, envelope.ErrMessageTooLarge)
	assert.NotErrorIs(t, err, io.EOF)

	ct, err = forger.Encrypt(envelope.Seal([]byte("after"), envelope.CompressionOff, 0))
	require.NoError(t, err)
	got, err := remote.Receive(ct)
	require.NoError(t, err)
	assert.Equal(t, "after", got)
}
