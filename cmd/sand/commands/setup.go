package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/TheusHen/SANd/internal/config"
	"github.com/TheusHen/SANd/internal/logging"
	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/crypto"
	"github.com/TheusHen/SANd/sand/envelope"
	"github.com/TheusHen/SANd/sand/identity"
	"github.com/TheusHen/SANd/sand/integration"
	"github.com/TheusHen/SANd/sand/link"
	"github.com/TheusHen/SANd/sand/transport/quic"
	"github.com/TheusHen/SANd/sand/trust"
)

const (
	defaultIntegrationCommand = "echo 'Integrating with BusyBox...'"
	shellSubsystem            = "shell"
)

func cfgDuration(v any) time.Duration {
	d, _ := v.(time.Duration)
	return d
}

// newConnection builds a SecureConnection from c. name labels its log entries.
func newConnection(c config.Config, name string, out io.Writer) (*conn.SecureConnection, error) {
	keying, err := conn.ParseKeying(c.Keying)
	if err != nil {
		return nil, err
	}
	level, err := envelope.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	verifier, err := verifierFor(c)
	if err != nil {
		return nil, err
	}

	entry := logging.Discard()
	if logger != nil {
		entry = logging.Component(logger, "conn").WithField("conn", name)
	}
	return conn.New(conn.Options{
		Keying:               keying,
		Verifier:             verifier,
		Integrator:           integratorFor(c, out),
		RequireSegmentation:  c.RequireSegmentation,
		Compression:          level,
		CompressionThreshold: c.CompressionThreshold,
		Logger:               entry,
	})
}

func verifierFor(c config.Config) (conn.HandshakeVerifier, error) {
	if len(c.TrustedPeers) == 0 {
		return conn.KeyShapeVerifier{Size: crypto.KeySize}, nil
	}
	store := trust.NewStore()
	for _, hex := range c.TrustedPeers {
		fp, err := identity.ParseFingerprintHex(hex)
		if err != nil {
			return nil, fmt.Errorf("trusted peer %q: %w", hex, err)
		}
		store.Pin(fp, "config")
	}
	return trust.NewVerifier(store, crypto.KeySize), nil
}

func integratorFor(c config.Config, out io.Writer) *integration.Registry {
	r := integration.NewRegistry()
	if c.Hardware {
		r = integration.NewHardwareRegistry()
	}
	command := c.IntegrationCommand
	if command == "" {
		command = defaultIntegrationCommand
	}
	r.Register(shellSubsystem, integration.Shell{Command: command, Stdout: out, Stderr: out})
	return r
}

func linkOptions(c config.Config, capabilities map[string]string) link.Options {
	entry := logging.Discard()
	if logger != nil {
		entry = logging.Component(logger, "link")
	}
	return link.Options{
		Segment:      c.Segment,
		Capabilities: capabilities,
		Timeout:      c.Timeout,
		Transport:    quic.Config{HandshakeTimeout: c.Timeout},
		Logger:       entry,
	}
}
