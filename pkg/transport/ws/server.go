package ws

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pnwamk/cryptol/pkg/transport"
)

type Server struct {
	opts *transport.ServerOptions

	mu       sync.RWMutex
	listener net.Listener
	server   *http.Server
	serving  bool
	closed   bool

	upgrader websocket.Upgrader
}

var _ transport.ServerTransport = (*Server)(nil)

func NewServer(options ...transport.ServerOption) *Server {
	opts := transport.DefaultServerOptions()
	for _, o := range options {
		o(opts)
	}

	return &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
		},
	}
}

func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("ws: already listening on %s", s.listener.Addr())
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("ws: listen on %s: %w", addr, err)
	}

	s.listener = listener
	return nil
}

func (s *Server) Serve(ctx context.Context, handler transport.Handler) error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return fmt.Errorf("ws: not listening, call Listen first")
	}
	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("ws: already serving on %s", s.listener.Addr())
	}
	s.serving = true

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.handleUpgrade(ctx, w, r, handler)
	})

	s.server = &http.Server{
		Handler:      mux,
		WriteTimeout: s.opts.WriteTimeout,
	}
	server := s.server
	listener := s.listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	err := server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleUpgrade(ctx context.Context, w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, reqFrame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		respFrame, err := handler(ctx, reqFrame)
		if err != nil {
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, respFrame); err != nil {
			return
		}
	}
}

func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.server != nil {
		return s.server.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
