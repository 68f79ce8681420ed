package eval

import (
	"fmt"
	"math/big"

	"github.com/pnwamk/cryptol/pkg/bitvector"
	"github.com/pnwamk/cryptol/pkg/value"
)

// Prelude is the builtin environment the reference server loads modules on
// top of: width-preserving modular addition, the identity function from the
// Id module, and the fives involution.
func Prelude() *Env {
	env := NewEnv()

	// Errors here can only be duplicate names, which would be a
	// programming error in this function.
	mustDefine := func(f Function) {
		if err := env.DefineFun(f); err != nil {
			panic(err)
		}
	}

	mustDefine(Function{
		Name:  "add",
		Arity: 2,
		Apply: builtinAdd,
	})

	mustDefine(Function{
		Name:  "Id::id",
		Arity: 1,
		Apply: func(args []value.Value) (value.Value, error) {
			return args[0], nil
		},
	})

	mustDefine(Function{
		Name:  "fives",
		Arity: 1,
		Apply: builtinFives,
	})

	return env
}

func builtinAdd(args []value.Value) (value.Value, error) {
	a, ok := args[0].(value.Word)
	if !ok {
		return nil, fmt.Errorf("%w: add expects bit vectors, got %T", ErrType, args[0])
	}
	b, ok := args[1].(value.Word)
	if !ok {
		return nil, fmt.Errorf("%w: add expects bit vectors, got %T", ErrType, args[1])
	}

	sum, err := a.BitVector.Add(b.BitVector)
	if err != nil {
		return nil, fmt.Errorf("%w: add: [%d] vs [%d]", ErrWidth, a.Width(), b.Width())
	}

	return value.Word{BitVector: sum}, nil
}

// builtinFives XORs each word with 0b101, elementwise over sequences.
// Applying it twice is the identity, which is the property the round-trip
// tests lean on.
func builtinFives(args []value.Value) (value.Value, error) {
	return fivesValue(args[0])
}

var fivesMask = big.NewInt(0b101)

func fivesValue(v value.Value) (value.Value, error) {
	switch val := v.(type) {
	case value.Word:
		if val.Width() < 3 {
			return nil, fmt.Errorf("%w: fives needs at least 3 bits, got [%d]", ErrWidth, val.Width())
		}
		flipped, err := bitvector.NewBig(val.Width(), new(big.Int).Xor(val.BigInt(), fivesMask))
		if err != nil {
			return nil, err
		}
		return value.Word{BitVector: flipped}, nil

	case value.Seq:
		out := make(value.Seq, len(val))
		for i, elem := range val {
			mapped, err := fivesValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = mapped
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: fives expects bit vectors or sequences, got %T", ErrType, v)
	}
}
