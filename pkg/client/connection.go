// Package client connects to a remote evaluation server and exposes its
// contract: change directory, load file, evaluate expression, and call.
// Every operation returns a Deferred whose result is fetched explicitly;
// requests go out strictly in FIFO order because the protocol threads a
// state token from each response into the next request.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/interceptor"
	"github.com/pnwamk/cryptol/pkg/protocol"
	"github.com/pnwamk/cryptol/pkg/transport"
	"github.com/pnwamk/cryptol/pkg/transport/stdio"
	"github.com/pnwamk/cryptol/pkg/transport/tcp"
	"github.com/pnwamk/cryptol/pkg/transport/ws"
	"github.com/pnwamk/cryptol/pkg/value"
)

type Connection struct {
	opts      *clientOptions
	transport transport.ClientTransport
	codec     codec.Codec
	chain     *interceptor.Chain

	queue chan *pendingCall

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup

	// state is touched only by the dispatch goroutine.
	state string
}

type pendingCall struct {
	ctx         context.Context
	method      string
	buildParams func(state string) any
	deferred    *Deferred
}

// Connect launches the server as a subprocess via a shell-style command
// string and speaks the protocol over its stdin/stdout.
func Connect(ctx context.Context, command string, opts ...Option) (*Connection, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	t, err := stdio.New(command, options.transportOpts...)
	if err != nil {
		return nil, err
	}

	return newConnection(ctx, t, options)
}

// Dial connects to an already-running server over TCP.
func Dial(ctx context.Context, address string, opts ...Option) (*Connection, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	return newConnection(ctx, tcp.NewClient(address, options.transportOpts...), options)
}

// DialWS connects to an already-running server over a websocket URL.
func DialWS(ctx context.Context, url string, opts ...Option) (*Connection, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	return newConnection(ctx, ws.NewClient(url, options.transportOpts...), options)
}

// NewConnection wraps an already-built transport. Tests use this with a
// ConnTransport over one end of a net.Pipe.
func NewConnection(ctx context.Context, t transport.ClientTransport, opts ...Option) (*Connection, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	return newConnection(ctx, t, options)
}

func newConnection(ctx context.Context, t transport.ClientTransport, options *clientOptions) (*Connection, error) {
	if err := t.Start(ctx); err != nil {
		return nil, err
	}

	c := &Connection{
		opts:      options,
		transport: t,
		codec:     codec.GetOrDefault(options.codecName),
		chain:     interceptor.NewChain(options.interceptors...),
		queue:     make(chan *pendingCall, options.queueSize),
		closed:    make(chan struct{}),
		state:     protocol.InitialState,
	}

	c.wg.Add(1)
	go c.dispatch()

	return c, nil
}

// ChangeDirectory sets the directory the server resolves relative file
// paths against.
func (c *Connection) ChangeDirectory(ctx context.Context, path string) *Deferred {
	return c.enqueue(ctx, protocol.MethodChangeDirectory, func(state string) any {
		return protocol.ChangeDirectoryParams{State: state, Path: path}
	})
}

// LoadFile loads a module's source into the server's evaluation context.
func (c *Connection) LoadFile(ctx context.Context, file string) *Deferred {
	return c.enqueue(ctx, protocol.MethodLoadFile, func(state string) any {
		return protocol.LoadFileParams{State: state, File: file}
	})
}

// EvaluateExpression evaluates a textual expression against the loaded
// module.
func (c *Connection) EvaluateExpression(ctx context.Context, expression string) *Deferred {
	return c.enqueue(ctx, protocol.MethodEvaluateExpression, func(state string) any {
		return protocol.EvaluateParams{State: state, Expression: expression}
	})
}

// Call invokes a remote function positionally. Arguments may be Values,
// bit vectors, byte slices (8 bits per byte), bools, or slices thereof; see
// value.Coerce.
func (c *Connection) Call(ctx context.Context, function string, args ...any) *Deferred {
	encoded, err := encodeArgs(args)
	if err != nil {
		return rejected(err)
	}

	return c.enqueue(ctx, protocol.MethodCall, func(state string) any {
		return protocol.CallParams{State: state, Function: function, Arguments: encoded}
	})
}

// Close tears the connection down: the transport is closed (killing the
// subprocess, for stdio) and all pending calls are rejected.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.transport.Close()
		c.wg.Wait()
	})
	return err
}

func (c *Connection) enqueue(ctx context.Context, method string, buildParams func(state string) any) *Deferred {
	call := &pendingCall{
		ctx:         ctx,
		method:      method,
		buildParams: buildParams,
		deferred:    newDeferred(),
	}

	select {
	case <-c.closed:
		return rejected(ErrConnectionClosed)
	case <-ctx.Done():
		return rejected(ctx.Err())
	case c.queue <- call:
		return call.deferred
	}
}

// dispatch is the single goroutine that talks to the transport. One call at
// a time: the state token from each response feeds the next request.
func (c *Connection) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case <-c.closed:
			c.drain()
			return
		case call := <-c.queue:
			c.invoke(call)
		}
	}
}

func (c *Connection) drain() {
	for {
		select {
		case call := <-c.queue:
			call.deferred.reject(ErrConnectionClosed)
		default:
			return
		}
	}
}

func (c *Connection) invoke(call *pendingCall) {
	ctx := call.ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.opts.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.callTimeout)
		defer cancel()
	}

	req, err := protocol.NewRequest(call.method, call.buildParams(c.state))
	if err != nil {
		call.deferred.reject(err)
		return
	}

	resp, err := c.chain.Intercept(ctx, req, c.roundTrip)
	if err != nil {
		call.deferred.reject(err)
		return
	}

	if resp.IsError() {
		call.deferred.reject(unmapError(resp.Error))
		return
	}

	if resp.Result == nil {
		call.deferred.reject(fmt.Errorf("malformed response %d: neither result nor error", resp.ID))
		return
	}

	c.state = resp.Result.State

	v, err := value.Decode(resp.Result.Answer)
	if err != nil {
		call.deferred.reject(fmt.Errorf("decode answer for %q: %w", call.method, err))
		return
	}

	call.deferred.resolve(v)
}

func (c *Connection) roundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	frame, err := c.codec.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if err := c.transport.Send(ctx, frame); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	respFrame, err := c.transport.Recv(ctx)
	if err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}

	var resp protocol.Response
	if err := c.codec.Decode(respFrame, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.ID != req.ID {
		return nil, fmt.Errorf("mismatched response ID: got %d, want %d", resp.ID, req.ID)
	}

	return &resp, nil
}

func encodeArgs(args []any) ([]json.RawMessage, error) {
	encoded := make([]json.RawMessage, len(args))
	for i, arg := range args {
		v, err := value.Coerce(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}

		raw, err := value.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		encoded[i] = raw
	}
	return encoded, nil
}
