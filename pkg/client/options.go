package client

import (
	"time"

	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/interceptor"
	"github.com/pnwamk/cryptol/pkg/transport"
)

type clientOptions struct {
	codecName     string
	queueSize     int
	callTimeout   time.Duration
	interceptors  []interceptor.Interceptor
	transportOpts []transport.ClientOption
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		codecName: codec.JSONCodecName,
		queueSize: 64,

		// No default deadline: evaluations may legitimately run long.
		callTimeout: 0,

		// Recovery sits outermost so a panic anywhere in the chain or the
		// transport round trip fails the one call instead of killing the
		// dispatch goroutine.
		interceptors: []interceptor.Interceptor{interceptor.Recovery()},
	}
}

type Option func(*clientOptions)

func WithCodec(name string) Option {
	return func(o *clientOptions) {
		o.codecName = name
	}
}

// WithQueueSize bounds how many calls may be pending before enqueueing
// blocks.
func WithQueueSize(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithCallTimeout bounds each remote call when the caller's context carries
// no deadline of its own.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.callTimeout = timeout
	}
}

// WithInterceptors appends to the call chain; they run in the given order.
func WithInterceptors(interceptors ...interceptor.Interceptor) Option {
	return func(o *clientOptions) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithTransportOptions forwards options to the transport built by Connect,
// Dial or DialWS.
func WithTransportOptions(opts ...transport.ClientOption) Option {
	return func(o *clientOptions) {
		o.transportOpts = append(o.transportOpts, opts...)
	}
}
