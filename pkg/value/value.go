// Package value models the results and arguments of remote evaluation:
// single bits, fixed-width words, unbounded integers, sequences, tuples and
// unit, together with their tagged JSON wire forms.
package value

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/pnwamk/cryptol/pkg/bitvector"
)

var (
	// ErrWidthRequired is returned when a bare integer is offered as a call
	// argument. Widths are never guessed; callers must wrap integers in a
	// bitvector with an explicit width.
	ErrWidthRequired = errors.New("value: integer argument needs an explicit width")

	ErrUnsupportedArgument = errors.New("value: unsupported argument type")
)

type Value interface {
	fmt.Stringer
	isValue()
}

// Bit is a single boolean bit.
type Bit bool

// Word is a fixed-width bit vector.
type Word struct {
	bitvector.BitVector
}

// Integer is an unbounded integer.
type Integer struct {
	Int *big.Int
}

// Seq is a homogeneous sequence of values.
type Seq []Value

// Tuple is a fixed-shape product of values.
type Tuple []Value

// Unit is the zero-field value.
type Unit struct{}

func (Bit) isValue()     {}
func (Word) isValue()    {}
func (Integer) isValue() {}
func (Seq) isValue()     {}
func (Tuple) isValue()   {}
func (Unit) isValue()    {}

func (b Bit) String() string {
	if b {
		return "True"
	}
	return "False"
}

func (i Integer) String() string {
	if i.Int == nil {
		return "0"
	}
	return i.Int.String()
}

func (s Seq) String() string   { return bracketed("[", "]", s) }
func (t Tuple) String() string { return bracketed("(", ")", t) }
func (Unit) String() string    { return "()" }

func bracketed(open, end string, vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return open + strings.Join(parts, ", ") + end
}

// NewWord is shorthand for a Word of the given width and value.
func NewWord(width int, v uint64) (Word, error) {
	bv, err := bitvector.New(width, v)
	if err != nil {
		return Word{}, err
	}
	return Word{bv}, nil
}

// Equal is structural equality. Words compare width-sensitively.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Bit:
		bv, ok := b.(Bit)
		return ok && av == bv
	case Word:
		bv, ok := b.(Word)
		return ok && av.BitVector.Equal(bv.BitVector)
	case Integer:
		bv, ok := b.(Integer)
		return ok && av.Int != nil && bv.Int != nil && av.Int.Cmp(bv.Int) == 0
	case Seq:
		bv, ok := b.(Seq)
		return ok && elementsEqual(av, bv)
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && elementsEqual(av, bv)
	case Unit:
		_, ok := b.(Unit)
		return ok
	default:
		return false
	}
}

func elementsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Coerce lifts a Go value into a Value for use as a call argument. Accepted:
// Value, bitvector.BitVector, []bitvector.BitVector, []byte (8 bits per
// byte, big-endian), bool, []Value. Bare integers are rejected with
// ErrWidthRequired.
func Coerce(arg any) (Value, error) {
	switch a := arg.(type) {
	case Value:
		return a, nil
	case bitvector.BitVector:
		return Word{a}, nil
	case []bitvector.BitVector:
		out := make(Seq, len(a))
		for i, bv := range a {
			out[i] = Word{bv}
		}
		return out, nil
	case []byte:
		return Word{bitvector.FromBytes(a)}, nil
	case bool:
		return Bit(a), nil
	case []Value:
		return Seq(a), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil, fmt.Errorf("%w: got %T", ErrWidthRequired, arg)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedArgument, arg)
	}
}
