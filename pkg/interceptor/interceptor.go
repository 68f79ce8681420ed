// Package interceptor wraps the send/receive path of an evaluation
// connection with cross-cutting behavior: logging, metrics, panic recovery.
package interceptor

import (
	"context"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

type Invoker func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

type Interceptor func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error)

type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: interceptors}
}

func (c *Chain) Intercept(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
	if len(c.interceptors) == 0 {
		return invoker(ctx, req)
	}

	return c.buildChain(invoker)(ctx, req)
}

func (c *Chain) buildChain(invoker Invoker) Invoker {
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		next := invoker
		ic := c.interceptors[i]

		invoker = func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return ic(ctx, req, next)
		}
	}

	return invoker
}
