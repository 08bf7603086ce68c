package relay

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatctl/pkg/types"
)

// pair starts a listener on a random port and returns both connected ends.
func pair(t *testing.T, opts ...Option) (*Conn, *Conn) {
	t.Helper()
	srv, err := Listen("127.0.0.1:0", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	accepted := make(chan *Conn, 1)
	errs := make(chan error, 1)
	go func() {
		c, err := srv.Accept()
		if err != nil {
			errs <- err
			return
		}
		accepted <- c
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cli, err := Dial(ctx, srv.Addr().String(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })

	select {
	case c := <-accepted:
		t.Cleanup(func() { c.Close() })
		return c, cli
	case err := <-errs:
		t.Fatalf("accept: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("accept timed out")
	}
	return nil, nil
}

func TestRoundTripBothDirections(t *testing.T) {
	srvConn, cliConn := pair(t)

	require.NoError(t, cliConn.Send([]byte("ping")))
	got, err := srvConn.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)

	require.NoError(t, srvConn.Send([]byte("pong")))
	got, err = cliConn.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), got)
}

func TestPrefixSizes(t *testing.T) {
	for _, size := range []int{1, 2, 4, 8} {
		t.Run(string(rune('0'+size)), func(t *testing.T) {
			srvConn, cliConn := pair(t, WithPrefixSize(size))
			payload := bytes.Repeat([]byte("x"), 200)
			require.NoError(t, cliConn.Send(payload))
			got, err := srvConn.Recv()
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestPrefixOverflowRejected(t *testing.T) {
	srvConn, cliConn := pair(t, WithPrefixSize(1))
	_ = srvConn
	err := cliConn.Send(bytes.Repeat([]byte("x"), 256))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestMaxFrameSizeOnSend(t *testing.T) {
	_, cliConn := pair(t, WithMaxFrameSize(8))
	err := cliConn.Send([]byte("123456789"))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestMaxFrameSizeOnRecv(t *testing.T) {
	// Sender allows large frames, receiver does not: the receiver must refuse
	// before allocating the payload.
	srv, err := Listen("127.0.0.1:0", WithMaxFrameSize(8))
	require.NoError(t, err)
	defer srv.Close()

	accepted := make(chan *Conn, 1)
	go func() {
		c, err := srv.Accept()
		if err == nil {
			accepted <- c
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cli, err := Dial(ctx, srv.Addr().String())
	require.NoError(t, err)
	defer cli.Close()
	require.NoError(t, cli.Send(bytes.Repeat([]byte("x"), 100)))

	srvConn := <-accepted
	defer srvConn.Close()
	_, err = srvConn.Recv()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestJSONRoundTrip(t *testing.T) {
	srvConn, cliConn := pair(t)
	req := types.ChatRequest{
		Model:       "m1",
		Messages:    []types.Message{{Role: types.RoleUser, Content: "hello"}},
		Temperature: 0.7,
		TopP:        0.8,
		MaxTokens:   200,
	}
	require.NoError(t, cliConn.SendJSON(req))
	var got types.ChatRequest
	require.NoError(t, srvConn.RecvJSON(&got))
	assert.Equal(t, req, got)
}

func TestRecvAfterPeerClose(t *testing.T) {
	srvConn, cliConn := pair(t)
	require.NoError(t, cliConn.Close())
	_, err := srvConn.Recv()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFrameTooLarge))
}

func TestRecvDeadline(t *testing.T) {
	srvConn, _ := pair(t)
	require.NoError(t, srvConn.SetDeadline(time.Now().Add(50*time.Millisecond)))
	start := time.Now()
	_, err := srvConn.Recv()
	require.Error(t, err)
	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBadOptions(t *testing.T) {
	if _, err := Listen("127.0.0.1:0", WithPrefixSize(0)); err == nil {
		t.Fatalf("expected prefix size error")
	}
	if _, err := Dial(context.Background(), "127.0.0.1:1", WithPrefixSize(9)); err == nil {
		t.Fatalf("expected prefix size error")
	}
}
