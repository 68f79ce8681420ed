package client

import (
	"errors"
	"fmt"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

// Sentinel errors the protocol's failure codes unmap to. All are wrapped
// with the server's message, so errors.Is works and the detail survives.
var (
	ErrConnectionClosed = errors.New("client: connection closed")

	ErrDirNotFound         = errors.New("client: no such directory")
	ErrFileNotFound        = errors.New("client: no such file")
	ErrModuleNotLoaded     = errors.New("client: no module loaded")
	ErrUndefinedIdentifier = errors.New("client: undefined identifier")
	ErrMalformedExpression = errors.New("client: malformed expression")
	ErrArityMismatch       = errors.New("client: arity mismatch")
	ErrTypeMismatch        = errors.New("client: type mismatch")
	ErrWidthMismatch       = errors.New("client: width mismatch")
	ErrInvalidState        = errors.New("client: invalid state token")
)

func unmapError(perr *protocol.Error) error {
	switch perr.Code {
	case protocol.CodeDirNotFound:
		return wrap(ErrDirNotFound, perr)
	case protocol.CodeFileNotFound:
		return wrap(ErrFileNotFound, perr)
	case protocol.CodeModuleNotLoaded:
		return wrap(ErrModuleNotLoaded, perr)
	case protocol.CodeUndefinedIdentifier:
		return wrap(ErrUndefinedIdentifier, perr)
	case protocol.CodeMalformedExpression:
		return wrap(ErrMalformedExpression, perr)
	case protocol.CodeArityMismatch:
		return wrap(ErrArityMismatch, perr)
	case protocol.CodeTypeMismatch:
		return wrap(ErrTypeMismatch, perr)
	case protocol.CodeWidthMismatch:
		return wrap(ErrWidthMismatch, perr)
	case protocol.CodeInvalidState:
		return wrap(ErrInvalidState, perr)
	default:
		return fmt.Errorf("client: remote error %w", perr)
	}
}

func wrap(sentinel error, perr *protocol.Error) error {
	return fmt.Errorf("%w: %s", sentinel, perr.Message)
}
