// Package tcp carries netstring-framed protocol messages over TCP sockets.
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pnwamk/cryptol/pkg/transport"
)

type Client struct {
	address string
	opts    *transport.ClientOptions
	options []transport.ClientOption

	mu   sync.Mutex
	conn *transport.ConnTransport
}

var _ transport.ClientTransport = (*Client)(nil)

func NewClient(address string, options ...transport.ClientOption) *Client {
	opts := transport.DefaultClientOptions()
	for _, o := range options {
		o(opts)
	}

	return &Client{
		address: address,
		opts:    opts,
		options: options,
	}
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("tcp: already connected to %s", c.address)
	}

	dialer := &net.Dialer{
		Timeout:   c.opts.DialTimeout,
		KeepAlive: c.opts.KeepAlivePeriod,
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("tcp: dial %s: %w", c.address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if c.opts.KeepAlive {
			if err := tcpConn.SetKeepAlive(true); err != nil {
				_ = conn.Close()
				return fmt.Errorf("tcp: set keep-alive: %w", err)
			}
			if err := tcpConn.SetKeepAlivePeriod(c.opts.KeepAlivePeriod); err != nil {
				_ = conn.Close()
				return fmt.Errorf("tcp: set keep-alive period: %w", err)
			}
		}
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return fmt.Errorf("tcp: set no delay: %w", err)
		}
	}

	c.conn = transport.NewConnTransport(conn, c.options...)
	return c.conn.Start(ctx)
}

func (c *Client) Send(ctx context.Context, frame []byte) error {
	conn, err := c.transport()
	if err != nil {
		return err
	}
	return conn.Send(ctx, frame)
}

func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	conn, err := c.transport()
	if err != nil {
		return nil, err
	}
	return conn.Recv(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) transport() (*transport.ConnTransport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("tcp: not connected, call Start first")
	}
	return c.conn, nil
}
