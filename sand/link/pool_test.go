package link

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	closed atomic.Bool
}

func (s *fakeStream) Read([]byte) (int, error)    { return 0, io.EOF }
func (s *fakeStream) Write(p []byte) (int, error) { return len(p), nil }
func (s *fakeStream) Close() error                { s.closed.Store(true); return nil }

type fakeOpener struct {
	opened atomic.Int32
	err    error
}

func (o *fakeOpener) OpenStreamSync(context.Context) (io.ReadWriteCloser, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened.Add(1)
	return &fakeStream{}, nil
}

func TestStreamPoolReuse(t *testing.T) {
	opener := &fakeOpener{}
	pool := NewStreamPool(opener, 2)

	s1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(s1)

	s2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), opener.opened.Load())
	assert.Equal(t, 1, pool.Created())
}

func TestStreamPoolLimit(t *testing.T) {
	pool := NewStreamPool(&fakeOpener{}, 1)

	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(s)
	got, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestStreamPoolDiscard(t *testing.T) {
	pool := NewStreamPool(&fakeOpener{}, 1)
	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	pool.Discard(s)
	assert.True(t, s.(*fakeStream).closed.Load())
	assert.Equal(t, 0, pool.Created())

	_, err = pool.Acquire(context.Background())
	require.NoError(t, err)
}

func TestStreamPoolOpenError(t *testing.T) {
	boom := errors.New("boom")
	pool := NewStreamPool(&fakeOpener{err: boom}, 1)
	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Created())
}

func TestStreamPoolClose(t *testing.T) {
	pool := NewStreamPool(&fakeOpener{}, 2)
	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(s)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.True(t, s.(*fakeStream).closed.Load())

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)

	late := &fakeStream{}
	pool.Release(late)
	assert.True(t, late.closed.Load())
}
