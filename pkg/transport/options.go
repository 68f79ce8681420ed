package transport

import "time"

// ------------------- Client Options -------------------

type ClientOptions struct {
	DialTimeout     time.Duration
	KeepAlive       bool
	KeepAlivePeriod time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		DialTimeout:     5 * time.Second,
		KeepAlive:       true,
		KeepAlivePeriod: 30 * time.Second,

		// Zero read timeout: an evaluation (the exhaustive sweeps
		// especially) may legitimately take a long time, so reads only
		// time out when the caller's context says so.
		ReadTimeout:  0,
		WriteTimeout: 10 * time.Second,

		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
	}
}

type ClientOption func(*ClientOptions)

func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.DialTimeout = timeout
	}
}

func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.WriteTimeout = timeout
	}
}

func WithKeepAlive(keepAlive bool, period time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.KeepAlive = keepAlive
		opts.KeepAlivePeriod = period
	}
}

func WithBufferSize(readSize, writeSize int) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadBufferSize = readSize
		opts.WriteBufferSize = writeSize
	}
}

// ------------------- Server Options -------------------

type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxConnections  int
	ReadBufferSize  int
	WriteBufferSize int
}

func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		ReadTimeout:     0,
		WriteTimeout:    10 * time.Second,
		MaxConnections:  128,
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
	}
}

type ServerOption func(*ServerOptions)

func WithServerTimeout(read, write time.Duration) ServerOption {
	return func(opts *ServerOptions) {
		opts.ReadTimeout = read
		opts.WriteTimeout = write
	}
}

func WithMaxConnections(n int) ServerOption {
	return func(opts *ServerOptions) {
		opts.MaxConnections = n
	}
}

func WithServerBufferSize(readSize, writeSize int) ServerOption {
	return func(opts *ServerOptions) {
		opts.ReadBufferSize = readSize
		opts.WriteBufferSize = writeSize
	}
}
