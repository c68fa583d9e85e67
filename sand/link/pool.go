package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var ErrPoolClosed = errors.New("link: stream pool closed")

// StreamOpener is the interface for opening new streams.
type StreamOpener interface {
	OpenStreamSync(ctx context.Context) (io.ReadWriteCloser, error)
}

// StreamPool keeps request streams open between Receive calls so each message
// does not pay for a new stream. At most maxSize streams exist at once.
type StreamPool struct {
	opener  StreamOpener
	maxSize int
	streams chan io.ReadWriteCloser
	mu      sync.Mutex
	closed  atomic.Bool
	created atomic.Int32
}

func NewStreamPool(opener StreamOpener, maxSize int) *StreamPool {
	if maxSize <= 0 {
		maxSize = DefaultMaxStreams
	}
	return &StreamPool{
		opener:  opener,
		maxSize: maxSize,
		streams: make(chan io.ReadWriteCloser, maxSize),
	}
}

// Acquire gets an idle stream or opens a new one, waiting for a release once
// the limit is reached.
func (p *StreamPool) Acquire(ctx context.Context) (io.ReadWriteCloser, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	select {
	case s, ok := <-p.streams:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	default:
	}

	p.mu.Lock()
	if int(p.created.Load()) < p.maxSize {
		p.created.Add(1)
		p.mu.Unlock()
		s, err := p.opener.OpenStreamSync(ctx)
		if err != nil {
			p.created.Add(-1)
			return nil, err
		}
		return s, nil
	}
	p.mu.Unlock()

	select {
	case s, ok := <-p.streams:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a healthy stream for reuse.
func (p *StreamPool) Release(s io.ReadWriteCloser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		_ = s.Close()
		return
	}
	select {
	case p.streams <- s:
	default:
		_ = s.Close()
		p.created.Add(-1)
	}
}

// Discard closes a stream that saw an I/O error and frees its slot.
func (p *StreamPool) Discard(s io.ReadWriteCloser) {
	_ = s.Close()
	p.created.Add(-1)
}

func (p *StreamPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	close(p.streams)
	for s := range p.streams {
		_ = s.Close()
	}
	return nil
}

// Size returns the number of idle streams.
func (p *StreamPool) Size() int { return len(p.streams) }

// Created returns the number of live streams.
func (p *StreamPool) Created() int { return int(p.created.Load()) }
