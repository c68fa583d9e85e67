package sand

import (
	"context"
	"errors"
	"sync"

	"github.com/TheusHen/SANd/sand/conn"
	"github.com/TheusHen/SANd/sand/link"
	"github.com/TheusHen/SANd/sand/transport/quic"
)

var ErrNotListening = errors.New("sand: node is not listening")

// Node is a high-level helper that puts one SecureConnection on the network.
// It can serve inbound links and dial outbound ones with the same connection.
type Node struct {
	Conn *conn.SecureConnection
	opts link.Options

	mu       sync.Mutex
	listener *quic.Listener
	remotes  []*link.Remote
}

func NewNode(c *conn.SecureConnection, opts link.Options) *Node {
	capsCopy := map[string]string{}
	for k, v := range opts.Capabilities {
		capsCopy[k] = v
	}
	opts.Capabilities = capsCopy
	return &Node{Conn: c, opts: opts}
}

func (n *Node) Listen(addr string) error {
	ln, err := quic.ListenWithConfig(addr, n.opts.Transport)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.listener = ln
	n.mu.Unlock()
	return nil
}

func (n *Node) ListenAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listener.AddrString()
}

// Serve answers inbound links until ctx is done or the node is closed.
func (n *Node) Serve(ctx context.Context) error {
	n.mu.Lock()
	ln := n.listener
	n.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}
	return link.Serve(ctx, ln, n.Conn, n.opts)
}

// Dial links to addr. The returned Remote is closed by Close if the caller
// has not closed it already.
func (n *Node) Dial(ctx context.Context, addr string) (*link.Remote, error) {
	r, err := link.Dial(ctx, addr, n.Conn, n.opts)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.remotes = append(n.remotes, r)
	n.mu.Unlock()
	return r, nil
}

// Close stops listening and closes dialed links. The connection itself is
// left to its owner.
func (n *Node) Close() error {
	n.mu.Lock()
	ln, remotes := n.listener, n.remotes
	n.listener, n.remotes = nil, nil
	n.mu.Unlock()

	var errs []error
	for _, r := range remotes {
		_ = r.Close()
	}
	if ln != nil {
		errs = append(errs, ln.Close())
	}
	return errors.Join(errs...)
}
