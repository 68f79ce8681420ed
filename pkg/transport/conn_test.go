package transport

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnTransportRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	ta := NewConnTransport(a)
	tb := NewConnTransport(b)

	ctx := context.Background()
	require.NoError(t, ta.Start(ctx))
	require.NoError(t, tb.Start(ctx))

	go func() {
		frame, err := tb.Recv(ctx)
		if err != nil {
			return
		}
		_ = tb.Send(ctx, append([]byte("echo "), frame...))
	}()

	require.NoError(t, ta.Send(ctx, []byte("ping")))

	frame, err := ta.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("echo ping"), frame)

	require.NoError(t, ta.Close())
	require.NoError(t, tb.Close())
}

func TestConnTransportClosed(t *testing.T) {
	a, _ := net.Pipe()
	tr := NewConnTransport(a)

	require.NoError(t, tr.Close())

	err := tr.Send(context.Background(), []byte("x"))
	assert.Error(t, err)

	_, err = tr.Recv(context.Background())
	assert.Error(t, err)

	assert.Error(t, tr.Start(context.Background()))
	assert.NoError(t, tr.Close())
}
