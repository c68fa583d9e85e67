package quic

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestNewTLSConfig(t *testing.T) {
	conf, err := NewServerTLSConfig()
	if err != nil {
		t.Fatalf("NewServerTLSConfig: %v", err)
	}
	if len(conf.Certificates) != 1 {
		t.Fatalf("expected one certificate")
	}
	if len(conf.NextProtos) != 1 || conf.NextProtos[0] != ALPN {
		t.Fatalf("unexpected ALPN %v", conf.NextProtos)
	}
}

func TestConfigDefaults(t *testing.T) {
	qc := Config{}.quicConfig()
	if qc.HandshakeIdleTimeout != DefaultHandshakeTimeout || qc.MaxIdleTimeout != DefaultIdleTimeout {
		t.Fatalf("defaults not applied: %+v", qc)
	}
	qc = Config{HandshakeTimeout: time.Second, IdleTimeout: 2 * time.Second}.quicConfig()
	if qc.HandshakeIdleTimeout != time.Second || qc.MaxIdleTimeout != 2*time.Second {
		t.Fatalf("overrides not applied: %+v", qc)
	}
}

func TestLoopbackStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	if ln.AddrString() == "" {
		t.Fatalf("empty listen address")
	}

	done := make(chan error, 1)
	go func() {
		c, err := ln.Accept(ctx)
		if err != nil {
			done <- err
			return
		}
		s, err := c.AcceptStream(ctx)
		if err != nil {
			done <- err
			return
		}
		buf, err := io.ReadAll(s)
		if err != nil {
			done <- err
			return
		}
		_, err = s.Write(buf)
		if err == nil {
			err = s.Close()
		}
		done <- err
	}()

	c, err := Dial(ctx, ln.AddrString())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.CloseWithError(0, "")

	s, err := c.OpenStreamSync(ctx)
	if err != nil {
		t.Fatalf("OpenStreamSync: %v", err)
	}
	if _, err := s.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = s.Close()
	echo, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(echo) != "ping" {
		t.Fatalf("unexpected echo %q", echo)
	}
	if err := <-done; err != nil {
		t.Fatalf("server: %v", err)
	}
}
