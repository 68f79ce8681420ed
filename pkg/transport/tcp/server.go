package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/transport"
)

type Server struct {
	opts *transport.ServerOptions

	mu       sync.RWMutex
	listener net.Listener
	serving  bool
	closed   bool
	wg       sync.WaitGroup

	connSemaphore chan struct{}
}

var _ transport.ServerTransport = (*Server)(nil)

func NewServer(options ...transport.ServerOption) *Server {
	opts := transport.DefaultServerOptions()
	for _, o := range options {
		o(opts)
	}

	server := &Server{opts: opts}
	if opts.MaxConnections > 0 {
		server.connSemaphore = make(chan struct{}, opts.MaxConnections)
	}

	return server
}

func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("tcp: already listening on %s", s.listener.Addr())
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp: listen on %s: %w", addr, err)
	}

	s.listener = listener
	return nil
}

func (s *Server) Serve(ctx context.Context, handler transport.Handler) error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return fmt.Errorf("tcp: not listening, call Listen first")
	}
	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("tcp: already serving on %s", s.listener.Addr())
	}
	s.serving = true
	listener := s.listener
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-done:
				return ctx.Err()
			default:
			}

			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if closed {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			return fmt.Errorf("tcp: accept: %w", err)
		}

		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			default:
				// at capacity, shed the connection
				_ = conn.Close()
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
			}()
			s.handleConn(ctx, conn, handler)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn, handler transport.Handler) {
	defer conn.Close()

	br := bufio.NewReaderSize(conn, s.opts.ReadBufferSize)
	bw := bufio.NewWriterSize(conn, s.opts.WriteBufferSize)

	for {
		if s.opts.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
				return
			}
		}

		// EOF and corruption end the connection alike; framing errors
		// leave no request ID to answer with.
		reqFrame, err := codec.ReadNetstring(br)
		if err != nil {
			return
		}

		respFrame, err := handler(ctx, reqFrame)
		if err != nil {
			return
		}

		if s.opts.WriteTimeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
				return
			}
		}

		if err := codec.WriteNetstring(bw, respFrame); err != nil {
			return
		}
		if err := bw.Flush(); err != nil {
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
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}

	s.wg.Wait()
	return err
}
