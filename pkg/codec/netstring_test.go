package codec

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetstringRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	payloads := [][]byte{
		[]byte(`{"id":1}`),
		{},
		[]byte("payload with , and : inside"),
	}

	for _, p := range payloads {
		require.NoError(t, WriteNetstring(&buf, p))
	}

	r := bufio.NewReader(&buf)
	for _, want := range payloads {
		got, err := ReadNetstring(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ReadNetstring(r)
	assert.Equal(t, io.EOF, err)
}

func TestNetstringWireForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetstring(&buf, []byte("hello")))
	assert.Equal(t, "5:hello,", buf.String())
}

func TestNetstringBadInput(t *testing.T) {
	// non-numeric length, truncated payload, wrong terminator, negative
	// length, absurd length
	cases := []string{
		"abc:xx,",
		"5:hell",
		"5:hello;",
		"-1:,",
		"999999999999999999:x,",
	}

	for _, in := range cases {
		_, err := ReadNetstring(bufio.NewReader(bytes.NewBufferString(in)))
		assert.Error(t, err, "input %q", in)
	}
}

func TestGzipCompressorRoundTrip(t *testing.T) {
	c := GetCompressor(CompressGzip)
	require.NotNil(t, c)

	in := bytes.Repeat([]byte("abcd"), 1000)
	compressed, err := c.Compress(in)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(in))

	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSONGzipRegistered(t *testing.T) {
	cc := Get(JSONGzipCodecName)
	require.NotNil(t, cc)
	assert.Equal(t, JSONGzipCodecName, cc.Name())

	data, err := cc.Encode(map[string]string{"a": "hi"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, cc.Decode(data, &out))
	assert.Equal(t, "hi", out["a"])
}

func TestCompressedCodec(t *testing.T) {
	cc := NewCompressedCodec(Get(JSONCodecName), GetCompressor(CompressGzip))
	assert.Equal(t, "json+gzip", cc.Name())

	type msg struct {
		A string `json:"a"`
	}

	data, err := cc.Encode(msg{A: "hi"})
	require.NoError(t, err)

	var out msg
	require.NoError(t, cc.Decode(data, &out))
	assert.Equal(t, "hi", out.A)
}
