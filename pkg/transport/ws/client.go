// Package ws carries protocol messages over websockets, one JSON-RPC
// message per text frame. Websocket frames are self-delimiting, so no
// netstring layer is involved.
package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pnwamk/cryptol/pkg/transport"
)

type Client struct {
	url  string
	opts *transport.ClientOptions

	mu     sync.Mutex
	sendMu sync.Mutex
	recvMu sync.Mutex
	conn   *websocket.Conn
	closed bool
}

var _ transport.ClientTransport = (*Client)(nil)

func NewClient(url string, options ...transport.ClientOption) *Client {
	opts := transport.DefaultClientOptions()
	for _, o := range options {
		o(opts)
	}

	return &Client{
		url:  url,
		opts: opts,
	}
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("ws: already connected to %s", c.url)
	}
	if c.closed {
		return fmt.Errorf("ws: transport closed")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.DialTimeout,
		ReadBufferSize:   c.opts.ReadBufferSize,
		WriteBufferSize:  c.opts.WriteBufferSize,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("ws: dial %s: %w", c.url, err)
	}

	c.conn = conn
	return nil
}

func (c *Client) Send(ctx context.Context, frame []byte) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("ws: set write deadline: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("ws: write message: %w", err)
	}
	return nil
}

func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}

	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("ws: set read deadline: %w", err)
		}
	}

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("ws: read message: %w", err)
	}
	return frame, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return c.conn.Close()
}

func (c *Client) connection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("ws: transport closed")
	}
	if c.conn == nil {
		return nil, fmt.Errorf("ws: not connected, call Start first")
	}
	return c.conn, nil
}
