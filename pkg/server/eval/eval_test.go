package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwamk/cryptol/pkg/value"
)

func word(t *testing.T, width int, v uint64) value.Word {
	t.Helper()
	w, err := value.NewWord(width, v)
	require.NoError(t, err)
	return w
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		in   string
		want Expr
	}{
		{"x", Ident{Name: "x"}},
		{"Id::id", Ident{Name: "Id::id"}},
		{"Id::id x", Apply{Fun: Ident{Name: "Id::id"}, Args: []Expr{Ident{Name: "x"}}}},
		{"add a b", Apply{Fun: Ident{Name: "add"}, Args: []Expr{Ident{Name: "a"}, Ident{Name: "b"}}}},
		{"(x)", Ident{Name: "x"}},
	}

	for _, tc := range tests {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "  ", "(x", "x)", "0x", "x : [", "x : [8", "x : []", "?", "x : 8"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

func TestEvalLiterals(t *testing.T) {
	env := NewEnv()

	v, err := env.EvalString("0xff")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, word(t, 8, 0xff)))

	v, err = env.EvalString("0b101")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, word(t, 3, 5)))

	v, err = env.EvalString("42")
	require.NoError(t, err)
	_, isInt := v.(value.Integer)
	assert.True(t, isInt)

	v, err = env.EvalString("42 : [9]")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, word(t, 9, 42)))
}

func TestEvalAnnotationWidthCheck(t *testing.T) {
	env := NewEnv()

	_, err := env.EvalString("0xff : [4]")
	assert.ErrorIs(t, err, ErrWidth)

	v, err := env.EvalString("0xf : [8]")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, word(t, 8, 0xf)))
}

func TestEvalUndefined(t *testing.T) {
	env := NewEnv()

	_, err := env.EvalString("nope")
	assert.ErrorIs(t, err, ErrUndefined)

	_, err = env.EvalString("nope 0xff")
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestCallArityAndType(t *testing.T) {
	env := Prelude()

	_, err := env.Call("add", []value.Value{word(t, 8, 1)})
	assert.ErrorIs(t, err, ErrArity)

	_, err = env.Call("add", []value.Value{word(t, 8, 1), value.Bit(true)})
	assert.ErrorIs(t, err, ErrType)

	_, err = env.Call("add", []value.Value{word(t, 8, 1), word(t, 9, 1)})
	assert.ErrorIs(t, err, ErrWidth)

	_, err = env.Call("missing", nil)
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestPreludeAdd(t *testing.T) {
	env := Prelude()

	v, err := env.Call("add", []value.Value{word(t, 8, 0xff), word(t, 8, 0x03)})
	require.NoError(t, err)
	assert.True(t, value.Equal(v, word(t, 8, 0x02)))
}

func TestPreludeFivesInvolution(t *testing.T) {
	env := Prelude()

	seq := value.Seq{word(t, 5, 0), word(t, 5, 1), word(t, 5, 2)}

	once, err := env.Call("fives", []value.Value{seq})
	require.NoError(t, err)
	assert.False(t, value.Equal(once, seq))

	twice, err := env.Call("fives", []value.Value{once})
	require.NoError(t, err)
	assert.True(t, value.Equal(twice, seq))

	_, err = env.Call("fives", []value.Value{word(t, 2, 1)})
	assert.ErrorIs(t, err, ErrWidth)
}

func TestPreludeId(t *testing.T) {
	env := Prelude()

	in := value.Word{BitVector: word(t, 8, 0xff).BitVector}
	out, err := env.Call("Id::id", []value.Value{in})
	require.NoError(t, err)
	assert.True(t, value.Equal(in, out))
}
