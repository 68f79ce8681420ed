package protocol

import "fmt"

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// JSON-RPC standard codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Evaluation-specific codes. Positive so they cannot collide with the
// standard block.
const (
	CodeDirNotFound         = 20010
	CodeFileNotFound        = 20020
	CodeModuleNotLoaded     = 20030
	CodeUndefinedIdentifier = 20040
	CodeMalformedExpression = 20050
	CodeArityMismatch       = 20060
	CodeTypeMismatch        = 20070
	CodeWidthMismatch       = 20080
	CodeInvalidState        = 20090
)

func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewErrorf(code int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}
