// Package bitvector implements fixed-width unsigned bit vectors with
// wraparound arithmetic. A vector is a width in bits plus a value in
// [0, 2^width); all arithmetic reduces modulo 2^width. Widths are arbitrary,
// so values are big.Int backed rather than machine words.
package bitvector

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidWidth  = errors.New("bitvector: width must be non-negative")
	ErrWidthMismatch = errors.New("bitvector: operand widths differ")
)

type BitVector struct {
	width int
	value *big.Int
}

// New builds a width-bit vector from v, reducing modulo 2^width.
func New(width int, v uint64) (BitVector, error) {
	return NewBig(width, new(big.Int).SetUint64(v))
}

// NewBig builds a width-bit vector from v, reducing modulo 2^width. Negative
// values wrap the way two's complement does.
func NewBig(width int, v *big.Int) (BitVector, error) {
	if width < 0 {
		return BitVector{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	reduced := new(big.Int).Mod(v, modulus(width))
	return BitVector{width: width, value: reduced}, nil
}

// FromBytes interprets b as a big-endian unsigned integer of width 8*len(b).
func FromBytes(b []byte) BitVector {
	return BitVector{
		width: 8 * len(b),
		value: new(big.Int).SetBytes(b),
	}
}

// FromHex interprets s (optionally "0x"-prefixed) as big-endian hex digits,
// 4 bits per digit.
func FromHex(s string) (BitVector, error) {
	digits := strings.TrimPrefix(s, "0x")
	if digits == "" {
		return BitVector{}, fmt.Errorf("bitvector: empty hex string")
	}

	padded := digits
	if len(padded)%2 != 0 {
		padded = "0" + padded
	}

	raw, err := hex.DecodeString(padded)
	if err != nil {
		return BitVector{}, fmt.Errorf("bitvector: invalid hex %q: %w", s, err)
	}

	return BitVector{
		width: 4 * len(digits),
		value: new(big.Int).SetBytes(raw),
	}, nil
}

// Zero is the all-zeros vector of the given width.
func Zero(width int) BitVector {
	return BitVector{width: width, value: new(big.Int)}
}

func (v BitVector) Width() int {
	return v.width
}

// Uint64 truncates to the low 64 bits.
func (v BitVector) Uint64() uint64 {
	if v.value == nil {
		return 0
	}
	return v.value.Uint64()
}

// BigInt returns a copy of the value; mutating it does not affect v.
func (v BitVector) BigInt() *big.Int {
	if v.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.value)
}

// Bytes renders the value big-endian, zero-padded to ceil(width/8) bytes.
func (v BitVector) Bytes() []byte {
	n := (v.width + 7) / 8
	out := make([]byte, n)
	if v.value != nil {
		v.value.FillBytes(out)
	}
	return out
}

// Hex renders the value as ceil(width/4) lowercase hex digits, no prefix.
func (v BitVector) Hex() string {
	digits := (v.width + 3) / 4
	if digits == 0 {
		return ""
	}
	val := v.value
	if val == nil {
		val = new(big.Int)
	}
	return fmt.Sprintf("%0*x", digits, val)
}

// Add is wraparound addition: the result has the common width and value
// (a + b) mod 2^width. Operands of different widths are an error.
func (v BitVector) Add(other BitVector) (BitVector, error) {
	if v.width != other.width {
		return BitVector{}, fmt.Errorf("%w: %d vs %d", ErrWidthMismatch, v.width, other.width)
	}

	sum := new(big.Int).Add(v.bigOrZero(), other.bigOrZero())
	sum.Mod(sum, modulus(v.width))

	return BitVector{width: v.width, value: sum}, nil
}

// Equal is true only when both width and value match. An 8-bit 0x01 is not
// equal to a 9-bit 0x01.
func (v BitVector) Equal(other BitVector) bool {
	return v.width == other.width && v.bigOrZero().Cmp(other.bigOrZero()) == 0
}

func (v BitVector) String() string {
	return fmt.Sprintf("[%d]0x%s", v.width, v.Hex())
}

func (v BitVector) bigOrZero() *big.Int {
	if v.value == nil {
		return new(big.Int)
	}
	return v.value
}

func modulus(width int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(width))
}
