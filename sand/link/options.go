package link

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/SANd/sand/transport/quic"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxStreams = 4
)

type Options struct {
	// Segment tags the local connection after each successful handshake and
	// is advertised to the peer in HELLO.
	Segment      string
	Capabilities map[string]string

	// Timeout bounds the HELLO exchange and each Remote.Receive call.
	Timeout    time.Duration
	MaxStreams int
	Transport  quic.Config
	Logger     *logrus.Entry
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxStreams <= 0 {
		o.MaxStreams = DefaultMaxStreams
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = logrus.NewEntry(l)
	}
	return o
}
