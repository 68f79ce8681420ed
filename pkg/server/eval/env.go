// Package eval is the reference evaluation engine behind the server: an
// environment of named values and builtin functions, a small expression
// grammar, and a module-file loader. It implements just enough of the
// evaluation contract to exercise a client; a production server brings its
// own full language.
package eval

import (
	"errors"
	"fmt"

	"github.com/pnwamk/cryptol/pkg/value"
)

var (
	ErrUndefined = errors.New("eval: undefined identifier")
	ErrMalformed = errors.New("eval: malformed expression")
	ErrArity     = errors.New("eval: arity mismatch")
	ErrType      = errors.New("eval: type mismatch")
	ErrWidth     = errors.New("eval: width mismatch")
)

// Function is a named builtin with a fixed arity. Width and type rules are
// the function's own business; it reports ErrType/ErrWidth-wrapped errors.
type Function struct {
	Name  string
	Arity int
	Apply func(args []value.Value) (value.Value, error)
}

// Env maps names (possibly qualified, e.g. "Id::id") to values and
// functions. Value and function namespaces are shared: a name is one or the
// other.
type Env struct {
	vals map[string]value.Value
	funs map[string]Function
}

func NewEnv() *Env {
	return &Env{
		vals: make(map[string]value.Value),
		funs: make(map[string]Function),
	}
}

// Clone is a shallow copy; bindings added to the clone do not leak back.
func (e *Env) Clone() *Env {
	out := NewEnv()
	for k, v := range e.vals {
		out.vals[k] = v
	}
	for k, f := range e.funs {
		out.funs[k] = f
	}
	return out
}

func (e *Env) Define(name string, v value.Value) error {
	if e.isBound(name) {
		return fmt.Errorf("eval: %q already defined", name)
	}
	e.vals[name] = v
	return nil
}

func (e *Env) DefineFun(f Function) error {
	if f.Apply == nil {
		return fmt.Errorf("eval: function %q has no body", f.Name)
	}
	if e.isBound(f.Name) {
		return fmt.Errorf("eval: %q already defined", f.Name)
	}
	e.funs[f.Name] = f
	return nil
}

func (e *Env) LookupVal(name string) (value.Value, bool) {
	v, ok := e.vals[name]
	return v, ok
}

func (e *Env) LookupFun(name string) (Function, bool) {
	f, ok := e.funs[name]
	return f, ok
}

func (e *Env) isBound(name string) bool {
	if _, ok := e.vals[name]; ok {
		return true
	}
	_, ok := e.funs[name]
	return ok
}

// Call applies the named function to already-evaluated arguments. This is
// the path the protocol's "call" method takes; no expression parsing is
// involved.
func (e *Env) Call(name string, args []value.Value) (value.Value, error) {
	fun, ok := e.funs[name]
	if !ok {
		if _, isVal := e.vals[name]; isVal {
			return nil, fmt.Errorf("%w: %q is a value, not a function", ErrType, name)
		}
		return nil, fmt.Errorf("%w: %q", ErrUndefined, name)
	}

	if len(args) != fun.Arity {
		return nil, fmt.Errorf("%w: %q takes %d arguments, got %d", ErrArity, name, fun.Arity, len(args))
	}

	return fun.Apply(args)
}
