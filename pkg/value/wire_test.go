package value

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwamk/cryptol/pkg/bitvector"
)

func mustWord(t *testing.T, width int, v uint64) Word {
	t.Helper()
	w, err := NewWord(width, v)
	require.NoError(t, err)
	return w
}

func TestEncodeWord(t *testing.T) {
	raw, err := Encode(mustWord(t, 8, 0xff))
	require.NoError(t, err)
	assert.JSONEq(t, `{"expression":"bits","encoding":"hex","data":"ff","width":8}`, string(raw))

	raw, err = Encode(mustWord(t, 9, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"expression":"bits","encoding":"hex","data":"002","width":9}`, string(raw))
}

func TestDecodeWordWidthAuthoritative(t *testing.T) {
	v, err := Decode(json.RawMessage(`{"expression":"bits","encoding":"hex","data":"002","width":9}`))
	require.NoError(t, err)

	w, ok := v.(Word)
	require.True(t, ok)
	assert.Equal(t, 9, w.Width())
	assert.Equal(t, uint64(2), w.Uint64())
}

func TestRoundTripCompound(t *testing.T) {
	in := Tuple{
		Bit(true),
		Seq{mustWord(t, 5, 0), mustWord(t, 5, 1), mustWord(t, 5, 2)},
		Unit{},
		Integer{Int: big.NewInt(12345678901234567)},
	}

	raw, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, Equal(in, out), "got %s", out)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"expression":"lambda"}`))
	assert.Error(t, err)

	_, err = Decode(json.RawMessage(`{"expression":"bits","encoding":"base64","data":"ff","width":8}`))
	assert.Error(t, err)

	_, err = Decode(json.RawMessage(`"just a string"`))
	assert.Error(t, err)
}

func TestEqualWidthSensitive(t *testing.T) {
	assert.True(t, Equal(mustWord(t, 8, 1), mustWord(t, 8, 1)))
	assert.False(t, Equal(mustWord(t, 8, 1), mustWord(t, 9, 1)))
	assert.False(t, Equal(mustWord(t, 8, 1), Bit(true)))
	assert.True(t, Equal(Seq{Bit(false)}, Seq{Bit(false)}))
	assert.False(t, Equal(Seq{Bit(false)}, Tuple{Bit(false)}))
}

func TestCoerce(t *testing.T) {
	v, err := Coerce([]byte{0xff})
	require.NoError(t, err)
	assert.True(t, Equal(v, mustWord(t, 8, 0xff)))

	bv, err := bitvector.New(9, 300)
	require.NoError(t, err)
	v, err = Coerce(bv)
	require.NoError(t, err)
	assert.Equal(t, 9, v.(Word).Width())

	v, err = Coerce([]bitvector.BitVector{bv, bv})
	require.NoError(t, err)
	assert.Len(t, v.(Seq), 2)

	v, err = Coerce(true)
	require.NoError(t, err)
	assert.Equal(t, Bit(true), v)

	_, err = Coerce(42)
	assert.ErrorIs(t, err, ErrWidthRequired)

	_, err = Coerce("ff")
	assert.ErrorIs(t, err, ErrUnsupportedArgument)
}
