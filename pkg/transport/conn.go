package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pnwamk/cryptol/pkg/codec"
)

// ConnTransport frames netstrings over any stream connection. It backs the
// TCP transport and, via net.Pipe, in-process test wiring.
type ConnTransport struct {
	opts *ClientOptions

	rwc io.ReadWriteCloser
	br  *bufio.Reader
	bw  *bufio.Writer

	mu     sync.RWMutex // protects started/closed and rwc swap
	sendMu sync.Mutex   // serializes writes
	recvMu sync.Mutex   // serializes reads

	started bool
	closed  bool
}

var _ ClientTransport = (*ConnTransport)(nil)

// NewConnTransport wraps an already-open connection. Start is a no-op.
func NewConnTransport(rwc io.ReadWriteCloser, options ...ClientOption) *ConnTransport {
	opts := DefaultClientOptions()
	for _, o := range options {
		o(opts)
	}

	return &ConnTransport{
		opts: opts,
		rwc:  rwc,
		br:   bufio.NewReaderSize(rwc, opts.ReadBufferSize),
		bw:   bufio.NewWriterSize(rwc, opts.WriteBufferSize),
	}
}

func (t *ConnTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport closed")
	}
	t.started = true
	return nil
}

func (t *ConnTransport) Send(ctx context.Context, frame []byte) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	if err := t.setWriteDeadline(ctx); err != nil {
		return err
	}

	if err := codec.WriteNetstring(t.bw, frame); err != nil {
		return err
	}

	if err := t.bw.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}

	return nil
}

func (t *ConnTransport) Recv(ctx context.Context) ([]byte, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}

	t.recvMu.Lock()
	defer t.recvMu.Unlock()

	if err := t.setReadDeadline(ctx); err != nil {
		return nil, err
	}

	return codec.ReadNetstring(t.br)
}

func (t *ConnTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	return t.rwc.Close()
}

func (t *ConnTransport) ensureOpen() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return fmt.Errorf("transport closed")
	}
	return nil
}

// Deadlines only apply when the underlying stream is a net.Conn; pipes and
// subprocess fds do not support them.

func (t *ConnTransport) setWriteDeadline(ctx context.Context) error {
	conn, ok := t.rwc.(net.Conn)
	if !ok {
		return nil
	}

	deadline, ok := ctx.Deadline()
	if !ok && t.opts.WriteTimeout > 0 {
		deadline = time.Now().Add(t.opts.WriteTimeout)
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return nil
}

func (t *ConnTransport) setReadDeadline(ctx context.Context) error {
	conn, ok := t.rwc.(net.Conn)
	if !ok {
		return nil
	}

	deadline, ok := ctx.Deadline()
	if !ok && t.opts.ReadTimeout > 0 {
		deadline = time.Now().Add(t.opts.ReadTimeout)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}
	return nil
}
