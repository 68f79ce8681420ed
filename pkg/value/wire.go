package value

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/pnwamk/cryptol/pkg/bitvector"
)

// Wire forms. Bits and unbounded integers travel as JSON booleans and
// numbers; everything else is a tagged object:
//
//	{"expression":"bits","encoding":"hex","data":"ff","width":8}
//	{"expression":"sequence","data":[...]}
//	{"expression":"tuple","data":[...]}
//	{"expression":"unit"}

const (
	tagBits     = "bits"
	tagSequence = "sequence"
	tagTuple    = "tuple"
	tagUnit     = "unit"

	encodingHex = "hex"
)

type wireExpr struct {
	Expression string          `json:"expression"`
	Encoding   string          `json:"encoding,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Width      *int            `json:"width,omitempty"`
}

// Encode renders v in its wire form.
func Encode(v Value) (json.RawMessage, error) {
	switch val := v.(type) {
	case Bit:
		return json.Marshal(bool(val))

	case Integer:
		if val.Int == nil {
			return json.RawMessage("0"), nil
		}
		return json.RawMessage(val.Int.String()), nil

	case Word:
		width := val.Width()
		data, err := json.Marshal(val.Hex())
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireExpr{
			Expression: tagBits,
			Encoding:   encodingHex,
			Data:       data,
			Width:      &width,
		})

	case Seq:
		return encodeElements(tagSequence, val)

	case Tuple:
		return encodeElements(tagTuple, val)

	case Unit:
		return json.Marshal(wireExpr{Expression: tagUnit})

	default:
		return nil, fmt.Errorf("value: cannot encode %T", v)
	}
}

func encodeElements(tag string, vs []Value) (json.RawMessage, error) {
	elems := make([]json.RawMessage, len(vs))
	for i, v := range vs {
		raw, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = raw
	}

	data, err := json.Marshal(elems)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireExpr{Expression: tag, Data: data})
}

// Decode parses a wire form back into a Value. Unknown tags are rejected.
func Decode(raw json.RawMessage) (Value, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("value: malformed wire value: %w", err)
	}

	switch p := probe.(type) {
	case bool:
		return Bit(p), nil

	case float64:
		// Re-parse through big.Int to keep full precision.
		i := new(big.Int)
		if _, ok := i.SetString(string(raw), 10); !ok {
			return nil, fmt.Errorf("value: non-integral number %s", raw)
		}
		return Integer{Int: i}, nil

	case map[string]any:
		var expr wireExpr
		if err := json.Unmarshal(raw, &expr); err != nil {
			return nil, fmt.Errorf("value: malformed wire expression: %w", err)
		}
		return decodeExpr(expr)

	default:
		return nil, fmt.Errorf("value: unsupported wire value %s", raw)
	}
}

func decodeExpr(expr wireExpr) (Value, error) {
	switch expr.Expression {
	case tagBits:
		if expr.Encoding != encodingHex {
			return nil, fmt.Errorf("value: unsupported bits encoding %q", expr.Encoding)
		}
		if expr.Width == nil {
			return nil, fmt.Errorf("value: bits value missing width")
		}

		var digits string
		if err := json.Unmarshal(expr.Data, &digits); err != nil {
			return nil, fmt.Errorf("value: bits data: %w", err)
		}

		bv, err := bitvector.FromHex(digits)
		if err != nil {
			return nil, err
		}
		// Hex digit count fixes the width only up to a multiple of 4;
		// the width field is authoritative.
		bv, err = bitvector.NewBig(*expr.Width, bv.BigInt())
		if err != nil {
			return nil, err
		}
		return Word{bv}, nil

	case tagSequence:
		elems, err := decodeElements(expr.Data)
		if err != nil {
			return nil, err
		}
		return Seq(elems), nil

	case tagTuple:
		elems, err := decodeElements(expr.Data)
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil

	case tagUnit:
		return Unit{}, nil

	default:
		return nil, fmt.Errorf("value: unknown wire expression tag %q", expr.Expression)
	}
}

func decodeElements(data json.RawMessage) ([]Value, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("value: malformed element list: %w", err)
	}

	out := make([]Value, len(raws))
	for i, raw := range raws {
		v, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
