package protocol

import (
	"encoding/json"
	"fmt"
)

type Response struct {
	JSONRPC string  `json:"jsonrpc"`
	ID      uint64  `json:"id"`
	Result  *Result `json:"result,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}

// Result carries the answer payload plus the state token the next request
// must present.
type Result struct {
	State  string          `json:"state"`
	Answer json.RawMessage `json:"answer"`
}

func NewSuccessResponse(requestID uint64, state string, answer json.RawMessage) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      requestID,
		Result: &Result{
			State:  state,
			Answer: answer,
		},
	}
}

func NewErrorResponse(requestID uint64, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      requestID,
		Error:   err,
	}
}

func (r *Response) IsError() bool {
	return r.Error != nil
}

func (r *Response) GetError() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

func (r *Response) String() string {
	if r.IsError() {
		return fmt.Sprintf("Response{ID=%d, Error=%s}", r.ID, r.Error)
	}
	return fmt.Sprintf("Response{ID=%d, State=%s}", r.ID, r.Result.State)
}
