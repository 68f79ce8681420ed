package eval

import (
	"fmt"
	"math/big"

	"github.com/pnwamk/cryptol/pkg/bitvector"
	"github.com/pnwamk/cryptol/pkg/value"
)

// Eval evaluates an expression against the environment.
func (e *Env) Eval(expr Expr) (value.Value, error) {
	switch ex := expr.(type) {
	case Ident:
		if v, ok := e.vals[ex.Name]; ok {
			return v, nil
		}
		if fun, ok := e.funs[ex.Name]; ok {
			if fun.Arity == 0 {
				return fun.Apply(nil)
			}
			return nil, fmt.Errorf("%w: %q is a %d-argument function, not a value", ErrType, ex.Name, fun.Arity)
		}
		return nil, fmt.Errorf("%w: %q", ErrUndefined, ex.Name)

	case Lit:
		if ex.HasWidth {
			bv, err := bitvector.NewBig(ex.Width, ex.Value)
			if err != nil {
				return nil, err
			}
			return value.Word{BitVector: bv}, nil
		}
		return value.Integer{Int: new(big.Int).Set(ex.Value)}, nil

	case Annot:
		return e.evalAnnot(ex)

	case Apply:
		return e.evalApply(ex)

	default:
		return nil, fmt.Errorf("%w: unknown expression form %T", ErrMalformed, expr)
	}
}

// EvalString parses and evaluates in one step.
func (e *Env) EvalString(input string) (value.Value, error) {
	expr, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return e.Eval(expr)
}

func (e *Env) evalAnnot(ex Annot) (value.Value, error) {
	inner, err := e.Eval(ex.Expr)
	if err != nil {
		return nil, err
	}

	switch v := inner.(type) {
	case value.Integer:
		if v.Int.Sign() >= 0 && v.Int.BitLen() > ex.Width {
			return nil, fmt.Errorf("%w: %s does not fit in [%d]", ErrWidth, v.Int, ex.Width)
		}
		bv, err := bitvector.NewBig(ex.Width, v.Int)
		if err != nil {
			return nil, err
		}
		return value.Word{BitVector: bv}, nil

	case value.Word:
		if v.BigInt().BitLen() > ex.Width {
			return nil, fmt.Errorf("%w: [%d] value does not fit in [%d]", ErrWidth, v.Width(), ex.Width)
		}
		bv, err := bitvector.NewBig(ex.Width, v.BigInt())
		if err != nil {
			return nil, err
		}
		return value.Word{BitVector: bv}, nil

	default:
		return nil, fmt.Errorf("%w: cannot annotate %T with a width", ErrType, inner)
	}
}

func (e *Env) evalApply(ex Apply) (value.Value, error) {
	ident, ok := ex.Fun.(Ident)
	if !ok {
		return nil, fmt.Errorf("%w: only named functions can be applied", ErrMalformed)
	}

	args := make([]value.Value, len(ex.Args))
	for i, argExpr := range ex.Args {
		v, err := e.Eval(argExpr)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	return e.Call(ident.Name, args)
}
