package stdio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cabal new-exec --verbose=0 cryptol-remote-api", []string{"cabal", "new-exec", "--verbose=0", "cryptol-remote-api"}},
		{"server", []string{"server"}},
		{`server --flag "a b"`, []string{"server", "--flag", "a b"}},
		{`server 'single quoted'`, []string{"server", "single quoted"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
	}

	for _, tc := range tests {
		got, err := splitCommand(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSplitCommandUnterminatedQuote(t *testing.T) {
	_, err := splitCommand(`server "oops`)
	assert.Error(t, err)
}

// A Recv that times out must not lose or reorder frames: the reader loop
// holds the frame for the next Recv instead of leaving a stray goroutine
// racing on the stream.
func TestRecvTimeoutKeepsFrameOrder(t *testing.T) {
	tr, err := New("sh -c 'sleep 0.3; printf 2:aa,2:bb,'")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))
	t.Cleanup(func() { _ = tr.Close() })

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = tr.Recv(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	frame, err := tr.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("aa"), frame)

	frame, err = tr.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), frame)
}

func TestRecvAfterStreamEnd(t *testing.T) {
	tr, err := New("sh -c 'printf 2:aa,'")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))
	t.Cleanup(func() { _ = tr.Close() })

	frame, err := tr.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("aa"), frame)

	_, err = tr.Recv(ctx)
	assert.Error(t, err)
}

func TestNewRejectsEmptyCommand(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("   ")
	assert.Error(t, err)
}
