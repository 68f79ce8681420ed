package server

import (
	"github.com/pnwamk/cryptol/pkg/codec"
	"github.com/pnwamk/cryptol/pkg/interceptor"
	"github.com/pnwamk/cryptol/pkg/server/eval"
)

type serverOptions struct {
	codecName string
	logger    interceptor.Logger
	base      *eval.Env
}

func defaultServerOptions() *serverOptions {
	return &serverOptions{
		codecName: codec.JSONCodecName,
		logger:    nopLogger{},
		base:      eval.Prelude(),
	}
}

type Option func(*serverOptions)

func WithCodec(name string) Option {
	return func(o *serverOptions) {
		o.codecName = name
	}
}

func WithLogger(logger interceptor.Logger) Option {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBaseEnv replaces the builtin environment modules are loaded on top of.
func WithBaseEnv(env *eval.Env) Option {
	return func(o *serverOptions) {
		if env != nil {
			o.base = env
		}
	}
}
