package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pnwamk/cryptol/pkg/protocol"
	"github.com/pnwamk/cryptol/pkg/server/eval"
	"github.com/pnwamk/cryptol/pkg/value"
)

var unitAnswer = mustEncodeUnit()

func mustEncodeUnit() json.RawMessage {
	raw, err := value.Encode(value.Unit{})
	if err != nil {
		panic(err)
	}
	return raw
}

func (s *Server) handleChangeDirectory(ctx context.Context, params json.RawMessage) (json.RawMessage, *protocol.Error) {
	var p protocol.ChangeDirectoryParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, protocol.NewErrorf(protocol.CodeInvalidParams, "change directory: %v", err)
	}

	if perr := s.validateState(p.State); perr != nil {
		return nil, perr
	}

	info, err := os.Stat(p.Path)
	if err != nil || !info.IsDir() {
		return nil, protocol.NewErrorf(protocol.CodeDirNotFound, "no such directory %q", p.Path)
	}

	s.mu.Lock()
	s.workdir = p.Path
	s.mu.Unlock()

	return unitAnswer, nil
}

func (s *Server) handleLoadFile(ctx context.Context, params json.RawMessage) (json.RawMessage, *protocol.Error) {
	var p protocol.LoadFileParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, protocol.NewErrorf(protocol.CodeInvalidParams, "load file: %v", err)
	}

	if perr := s.validateState(p.State); perr != nil {
		return nil, perr
	}

	path := p.File
	if !filepath.IsAbs(path) {
		s.mu.Lock()
		path = filepath.Join(s.workdir, path)
		s.mu.Unlock()
	}

	env, err := eval.LoadModule(path, s.opts.base)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, protocol.NewErrorf(protocol.CodeFileNotFound, "no such file %q", p.File)
		default:
			return nil, protocol.NewErrorf(protocol.CodeParseError, "load %q: %v", p.File, err)
		}
	}

	s.mu.Lock()
	s.env = env
	s.mu.Unlock()

	return unitAnswer, nil
}

func (s *Server) handleEvaluate(ctx context.Context, params json.RawMessage) (json.RawMessage, *protocol.Error) {
	var p protocol.EvaluateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, protocol.NewErrorf(protocol.CodeInvalidParams, "evaluate expression: %v", err)
	}

	if perr := s.validateState(p.State); perr != nil {
		return nil, perr
	}

	env, perr := s.loadedEnv()
	if perr != nil {
		return nil, perr
	}

	v, err := env.EvalString(p.Expression)
	if err != nil {
		return nil, mapEvalError(err)
	}

	return encodeAnswer(v)
}

func (s *Server) handleCall(ctx context.Context, params json.RawMessage) (json.RawMessage, *protocol.Error) {
	var p protocol.CallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, protocol.NewErrorf(protocol.CodeInvalidParams, "call: %v", err)
	}

	if perr := s.validateState(p.State); perr != nil {
		return nil, perr
	}

	env, perr := s.loadedEnv()
	if perr != nil {
		return nil, perr
	}

	args := make([]value.Value, len(p.Arguments))
	for i, raw := range p.Arguments {
		v, err := value.Decode(raw)
		if err != nil {
			return nil, protocol.NewErrorf(protocol.CodeInvalidParams, "argument %d: %v", i, err)
		}
		args[i] = v
	}

	v, err := env.Call(p.Function, args)
	if err != nil {
		return nil, mapEvalError(err)
	}

	return encodeAnswer(v)
}

func (s *Server) loadedEnv() (*eval.Env, *protocol.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return nil, protocol.NewError(protocol.CodeModuleNotLoaded, "no module loaded")
	}
	return s.env, nil
}

func encodeAnswer(v value.Value) (json.RawMessage, *protocol.Error) {
	raw, err := value.Encode(v)
	if err != nil {
		return nil, protocol.NewErrorf(protocol.CodeInternal, "encode answer: %v", err)
	}
	return raw, nil
}

func mapEvalError(err error) *protocol.Error {
	switch {
	case errors.Is(err, eval.ErrUndefined):
		return protocol.NewErrorf(protocol.CodeUndefinedIdentifier, "%v", err)
	case errors.Is(err, eval.ErrMalformed):
		return protocol.NewErrorf(protocol.CodeMalformedExpression, "%v", err)
	case errors.Is(err, eval.ErrArity):
		return protocol.NewErrorf(protocol.CodeArityMismatch, "%v", err)
	case errors.Is(err, eval.ErrWidth):
		return protocol.NewErrorf(protocol.CodeWidthMismatch, "%v", err)
	case errors.Is(err, eval.ErrType):
		return protocol.NewErrorf(protocol.CodeTypeMismatch, "%v", err)
	default:
		return protocol.NewErrorf(protocol.CodeInternal, "%v", err)
	}
}
