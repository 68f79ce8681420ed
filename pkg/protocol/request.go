package protocol

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Version is the JSON-RPC protocol version spoken on the wire.
const Version = "2.0"

// InitialState is the state token a fresh connection presents before the
// server has minted one.
const InitialState = "0"

// Method names understood by the evaluation server.
const (
	MethodChangeDirectory    = "change directory"
	MethodLoadFile           = "load file"
	MethodEvaluateExpression = "evaluate expression"
	MethodCall               = "call"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

var requestIDCounter uint64

// NewRequest builds a request with a fresh ID. The caller is responsible for
// having threaded the state token into params.
func NewRequest(method string, params any) (*Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params for %q: %w", method, err)
	}

	return &Request{
		JSONRPC: Version,
		ID:      nextRequestID(),
		Method:  method,
		Params:  raw,
	}, nil
}

func nextRequestID() uint64 {
	return atomic.AddUint64(&requestIDCounter, 1)
}

func (r *Request) String() string {
	return fmt.Sprintf("Request{ID=%d, Method=%q}", r.ID, r.Method)
}

// Parameter shapes for the four evaluation methods. State carries the token
// from the previous response.

type ChangeDirectoryParams struct {
	State string `json:"state"`
	Path  string `json:"path"`
}

type LoadFileParams struct {
	State string `json:"state"`
	File  string `json:"file"`
}

type EvaluateParams struct {
	State      string `json:"state"`
	Expression string `json:"expression"`
}

type CallParams struct {
	State     string            `json:"state"`
	Function  string            `json:"function"`
	Arguments []json.RawMessage `json:"arguments"`
}
