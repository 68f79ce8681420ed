// Package transport moves opaque protocol frames between a client and an
// evaluation server. Payload encoding is the codec package's job; a
// transport only delivers frames in order.
package transport

import (
	"context"
	"net"
)

// ClientTransport is a bidirectional ordered frame pipe to one server.
type ClientTransport interface {
	// Start establishes the transport (dials, spawns the subprocess, ...).
	Start(ctx context.Context) error
	// Send delivers one frame. Safe for sequential use; callers wanting
	// concurrency must serialize.
	Send(ctx context.Context, frame []byte) error
	// Recv blocks for the next frame from the server.
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// Handler processes one request frame and produces the response frame.
type Handler func(ctx context.Context, frame []byte) ([]byte, error)

// ServerTransport accepts clients and feeds their frames through a Handler.
type ServerTransport interface {
	Listen(ctx context.Context, addr string) error
	Serve(ctx context.Context, handler Handler) error
	Addr() net.Addr
	Close() error
}
