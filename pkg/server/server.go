// Package server is the reference evaluation server: it speaks the JSON-RPC
// protocol over any ServerTransport (or a raw connection, for in-process
// tests) and evaluates against the eval package's engine. One server holds
// one session: a working directory, a loaded environment, and the current
// state token.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/interceptor"
	"github.com/pnwamk/cryptol/pkg/protocol"
	"github.com/pnwamk/cryptol/pkg/server/eval"
	"github.com/pnwamk/cryptol/pkg/transport"
)

type Server struct {
	opts  *serverOptions
	codec codec.Codec

	mu      sync.Mutex
	state   string
	workdir string
	env     *eval.Env // nil until a module is loaded

	methods map[string]methodHandler
}

type methodHandler func(ctx context.Context, params json.RawMessage) (json.RawMessage, *protocol.Error)

func NewServer(opts ...Option) *Server {
	options := defaultServerOptions()
	for _, o := range opts {
		o(options)
	}

	s := &Server{
		opts:  options,
		codec: codec.GetOrDefault(options.codecName),
		state: protocol.InitialState,
	}

	s.methods = map[string]methodHandler{
		protocol.MethodChangeDirectory:    s.handleChangeDirectory,
		protocol.MethodLoadFile:           s.handleLoadFile,
		protocol.MethodEvaluateExpression: s.handleEvaluate,
		protocol.MethodCall:               s.handleCall,
	}

	return s
}

// HandleFrame is the transport.Handler for this server: one request frame
// in, one response frame out. Protocol-level failures still produce a
// response frame; only encoding bugs surface as errors.
func (s *Server) HandleFrame(ctx context.Context, frame []byte) ([]byte, error) {
	var req protocol.Request
	if err := s.codec.Decode(frame, &req); err != nil {
		return s.encodeResponse(protocol.NewErrorResponse(0,
			protocol.NewErrorf(protocol.CodeParseError, "malformed request: %v", err)))
	}

	resp := s.handleRequest(ctx, &req)
	return s.encodeResponse(resp)
}

func (s *Server) handleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req.JSONRPC != protocol.Version {
		return protocol.NewErrorResponse(req.ID,
			protocol.NewErrorf(protocol.CodeInvalidRequest, "unsupported protocol version %q", req.JSONRPC))
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		return protocol.NewErrorResponse(req.ID,
			protocol.NewErrorf(protocol.CodeMethodNotFound, "unknown method %q", req.Method))
	}

	s.opts.logger.Infof("serving %q id=%d", req.Method, req.ID)

	answer, perr := handler(ctx, req.Params)
	if perr != nil {
		s.opts.logger.Errorf("%q id=%d: %v", req.Method, req.ID, perr)
		return protocol.NewErrorResponse(req.ID, perr)
	}

	// Only successful requests advance the state; a failed one leaves the
	// client's token valid so it can continue.
	return protocol.NewSuccessResponse(req.ID, s.advanceState(), answer)
}

// Serve runs the server over a listening transport until ctx is canceled.
func (s *Server) Serve(ctx context.Context, t transport.ServerTransport, addr string) error {
	if err := t.Listen(ctx, addr); err != nil {
		return err
	}
	return t.Serve(ctx, s.HandleFrame)
}

// ServeConn pumps netstring frames on a single raw connection. Tests use
// this with one end of a net.Pipe.
func (s *Server) ServeConn(ctx context.Context, rwc connLike) error {
	conn := transport.NewConnTransport(rwc)
	defer conn.Close()

	for {
		reqFrame, err := conn.Recv(ctx)
		if err != nil {
			return nil
		}

		respFrame, err := s.HandleFrame(ctx, reqFrame)
		if err != nil {
			return fmt.Errorf("handle frame: %w", err)
		}

		if err := conn.Send(ctx, respFrame); err != nil {
			return nil
		}
	}
}

type connLike interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// ---------------- state threading ----------------

// validateState checks the presented token against the session's current
// one. Minting the successor happens in advanceState, after the handler
// succeeds.
func (s *Server) validateState(presented string) *protocol.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if presented != s.state {
		return protocol.NewErrorf(protocol.CodeInvalidState,
			"stale state token %q", presented)
	}
	return nil
}

func (s *Server) advanceState() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = mintState()
	return s.state
}

func mintState() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("state token entropy: %v", err))
	}
	return hex.EncodeToString(buf[:])
}

func (s *Server) encodeResponse(resp *protocol.Response) ([]byte, error) {
	frame, err := s.codec.Encode(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return frame, nil
}

var _ interceptor.Logger = (*nopLogger)(nil)

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
