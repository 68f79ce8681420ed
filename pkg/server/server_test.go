package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

type harness struct {
	t     *testing.T
	srv   *Server
	state string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:     t,
		srv:   NewServer(),
		state: protocol.InitialState,
	}
}

// roundTrip sends one request through HandleFrame and threads the state
// token like a client would.
func (h *harness) roundTrip(method string, params any) *protocol.Response {
	h.t.Helper()

	req, err := protocol.NewRequest(method, params)
	require.NoError(h.t, err)

	frame, err := json.Marshal(req)
	require.NoError(h.t, err)

	respFrame, err := h.srv.HandleFrame(context.Background(), frame)
	require.NoError(h.t, err)

	var resp protocol.Response
	require.NoError(h.t, json.Unmarshal(respFrame, &resp))
	require.Equal(h.t, req.ID, resp.ID)

	if resp.Result != nil {
		h.state = resp.Result.State
	}
	return &resp
}

func (h *harness) loadModule(dir string) {
	h.t.Helper()

	resp := h.roundTrip(protocol.MethodChangeDirectory, protocol.ChangeDirectoryParams{State: h.state, Path: dir})
	require.False(h.t, resp.IsError(), "change directory: %v", resp.Error)

	resp = h.roundTrip(protocol.MethodLoadFile, protocol.LoadFileParams{State: h.state, File: "Mod.cry"})
	require.False(h.t, resp.IsError(), "load file: %v", resp.Error)
}

func writeTestModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	contents := "module Mod where\n\nx : [8]\nx = 0x2a\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Mod.cry"), []byte(contents), 0o644))
	return dir
}

func TestMalformedFrame(t *testing.T) {
	srv := NewServer()

	respFrame, err := srv.HandleFrame(context.Background(), []byte("not json"))
	require.NoError(t, err)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(respFrame, &resp))
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeParseError, resp.Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	h := newHarness(t)

	resp := h.roundTrip("no such method", map[string]string{"state": h.state})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeMethodNotFound, resp.Error.Code)
}

func TestWrongProtocolVersion(t *testing.T) {
	srv := NewServer()

	frame := []byte(`{"jsonrpc":"1.0","id":1,"method":"call","params":{}}`)
	respFrame, err := srv.HandleFrame(context.Background(), frame)
	require.NoError(t, err)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(respFrame, &resp))
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeInvalidRequest, resp.Error.Code)
}

func TestStaleStateRejected(t *testing.T) {
	h := newHarness(t)
	dir := writeTestModule(t)
	h.loadModule(dir)

	resp := h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: protocol.InitialState, Expression: "x"})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeInvalidState, resp.Error.Code)

	// the real token still works
	resp = h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: h.state, Expression: "x"})
	assert.False(t, resp.IsError())
}

func TestEvaluateFlow(t *testing.T) {
	h := newHarness(t)
	dir := writeTestModule(t)
	h.loadModule(dir)

	resp := h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: h.state, Expression: "x"})
	require.False(t, resp.IsError(), "%v", resp.Error)
	assert.JSONEq(t,
		`{"expression":"bits","encoding":"hex","data":"2a","width":8}`,
		string(resp.Result.Answer))
}

func TestEvaluateBeforeLoad(t *testing.T) {
	h := newHarness(t)

	resp := h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: h.state, Expression: "x"})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeModuleNotLoaded, resp.Error.Code)
}

func TestChangeDirectoryMissing(t *testing.T) {
	h := newHarness(t)

	resp := h.roundTrip(protocol.MethodChangeDirectory,
		protocol.ChangeDirectoryParams{State: h.state, Path: filepath.Join(t.TempDir(), "missing")})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeDirNotFound, resp.Error.Code)
}

func TestLoadFileMissing(t *testing.T) {
	h := newHarness(t)

	resp := h.roundTrip(protocol.MethodChangeDirectory,
		protocol.ChangeDirectoryParams{State: h.state, Path: t.TempDir()})
	require.False(t, resp.IsError())

	resp = h.roundTrip(protocol.MethodLoadFile,
		protocol.LoadFileParams{State: h.state, File: "Nope.cry"})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeFileNotFound, resp.Error.Code)
}

func TestCallWidthMismatch(t *testing.T) {
	h := newHarness(t)
	dir := writeTestModule(t)
	h.loadModule(dir)

	args := []json.RawMessage{
		json.RawMessage(`{"expression":"bits","encoding":"hex","data":"01","width":8}`),
		json.RawMessage(`{"expression":"bits","encoding":"hex","data":"001","width":9}`),
	}
	resp := h.roundTrip(protocol.MethodCall,
		protocol.CallParams{State: h.state, Function: "add", Arguments: args})
	require.True(t, resp.IsError())
	assert.Equal(t, protocol.CodeWidthMismatch, resp.Error.Code)
}

func TestErrorDoesNotAdvanceState(t *testing.T) {
	h := newHarness(t)
	dir := writeTestModule(t)
	h.loadModule(dir)

	before := h.state
	resp := h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: h.state, Expression: "nonesuch"})
	require.True(t, resp.IsError())
	assert.Equal(t, before, h.state)

	resp = h.roundTrip(protocol.MethodEvaluateExpression,
		protocol.EvaluateParams{State: h.state, Expression: "x"})
	assert.False(t, resp.IsError())
}
