package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/protocol"
	"github.com/TheusHen/SANd/sand/transport/quic"
)

// Serve accepts links on ln and answers them with local until ctx is done.
// Serve returns ctx.Err() after cancellation, once every handler has exited.
//
// local holds a single session. Every accepted HELLO re-authenticates it
// against the sender and tags it with opts.Segment when set, so only the most
// recent peer can exchange messages; earlier clients start failing with
// crypto.ErrAuthenticationFailed. A displaced peer is logged as a warning.
func Serve(ctx context.Context, ln *quic.Listener, local *conn.SecureConnection, opts Options) error {
	opts = opts.withDefaults()
	s := &server{
		local: local,
		opts:  opts,
		log:   opts.Logger.WithFields(logrus.Fields{"component": "link", "listen": ln.AddrString()}),
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		qc, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, qc)
		}()
	}
}

type server struct {
	local *conn.SecureConnection
	opts  Options
	log   *logrus.Entry
}

func (s *server) handleConn(ctx context.Context, qc q.Connection) {
	log := s.log.WithField("remote", qc.RemoteAddr().String())
	log.Debug("Connection accepted")
	var wg sync.WaitGroup
	defer wg.Wait()
	defer qc.CloseWithError(0, "")
	for {
		st, err := qc.AcceptStream(ctx)
		if err != nil {
			log.WithError(err).Debug("Connection ended")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer st.Close()
			if err := s.handleStream(st, log); err != nil {
				log.WithError(err).Debug("Stream ended with error")
			}
		}()
	}
}

// handleStream answers frames until the client closes its side.
func (s *server) handleStream(rw io.ReadWriter, log *logrus.Entry) error {
	for {
		frame, err := protocol.ReadFrame(rw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var reply protocol.Frame
		switch frame.Type {
		case protocol.MessageTypeHello:
			reply = s.hello(frame.Payload, log)
		case protocol.MessageTypeData:
			msg, err := s.local.Receive(frame.Payload)
			if err != nil {
				log.WithError(err).Warn("Rejected message")
				reply = errorFrame(err)
			} else {
				reply = protocol.Frame{Type: protocol.MessageTypePlaintext, Payload: []byte(msg)}
			}
			if len(reply.Payload) > protocol.MaxFramePayload {
				err := fmt.Errorf("%w: reply of %d bytes", protocol.ErrFrameTooLarge, len(reply.Payload))
				log.WithError(err).Warn("Rejected message")
				reply = errorFrame(err)
			}
		case protocol.MessageTypeClose:
			return nil
		default:
			reply = protocol.Frame{
				Type:    protocol.MessageTypeError,
				Payload: protocol.EncodeError(protocol.ErrorPayload{Code: protocol.CodeMalformed, Message: "unexpected " + frame.Type.String() + " frame"}),
			}
		}
		if err := protocol.WriteFrame(rw, reply); err != nil {
			return err
		}
	}
}

func (s *server) hello(payload []byte, log *logrus.Entry) protocol.Frame {
	peer, err := protocol.DecodeHello(payload)
	if err != nil {
		return errorFrame(err)
	}
	prev, hadPeer := s.local.PeerFingerprint()
	hadPeer = hadPeer && s.local.Authenticated()
	if !s.local.Handshake(peer.KeyMaterial) {
		err := s.local.LastHandshakeError()
		log.WithError(err).Warn("Rejected HELLO")
		return protocol.Frame{
			Type:    protocol.MessageTypeError,
			Payload: protocol.EncodeError(protocol.ErrorPayload{Code: protocol.CodeHandshakeRejected, Message: errMessage(err)}),
		}
	}
	if s.opts.Segment != "" {
		if err := s.local.SetSegmentation(s.opts.Segment); err != nil {
			return errorFrame(err)
		}
	}
	fp, _ := s.local.PeerFingerprint()
	if hadPeer && prev != fp {
		log.WithFields(logrus.Fields{"previous": prev.Short(), "peer": fp.Short()}).Warn("Replacing authenticated peer")
	}
	log.WithFields(logrus.Fields{"peer": fp.Short(), "segment": peer.Segment}).Info("Peer authenticated")

	segment, _ := s.local.Segmentation()
	out, err := protocol.EncodeHello(protocol.NewHello(s.local.KeyMaterial(), segment, s.opts.Capabilities))
	if err != nil {
		return errorFrame(err)
	}
	return protocol.Frame{Type: protocol.MessageTypeHello, Payload: out}
}

func errorFrame(err error) protocol.Frame {
	return protocol.Frame{Type: protocol.MessageTypeError, Payload: protocol.EncodeError(errorPayload(err))}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
