package writer

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgrisBRC/jedis/internal/resp"
	"github.com/IgrisBRC/jedis/internal/store"
)

// erroringConn always fails Write, to exercise Egress's drop-on-error
// path without needing a real closed socket race.
type erroringConn struct {
	net.Conn
	closed bool
}

func (c *erroringConn) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }
func (c *erroringConn) Close() error                 { c.closed = true; return nil }

func TestEgressWelcomeThenDeliverWritesBytes(t *testing.T) {
	decrees := make(chan store.Decree, 8)
	disconnects := make(chan uint64, 8)
	e := New(decrees, disconnects, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	client, server := net.Pipe()
	defer client.Close()

	decrees <- store.Welcome(1, server)
	decrees <- store.Deliver(1, resp.SimpleString("PONG"))

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", line)
}

func TestEgressDeliverToUnknownTokenIsNoOp(t *testing.T) {
	decrees := make(chan store.Decree, 8)
	disconnects := make(chan uint64, 8)
	e := New(decrees, disconnects, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	decrees <- store.Deliver(99, resp.SimpleString("OK"))

	select {
	case <-disconnects:
		t.Fatal("unexpected disconnect for a token that was never welcomed")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestEgressWriteFailureDropsAndReportsDisconnect(t *testing.T) {
	decrees := make(chan store.Decree, 8)
	disconnects := make(chan uint64, 8)
	e := New(decrees, disconnects, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	conn := &erroringConn{}
	decrees <- store.Welcome(7, conn)
	decrees <- store.Deliver(7, resp.SimpleString("PONG"))

	select {
	case token := <-disconnects:
		assert.Equal(t, uint64(7), token)
	case <-time.After(time.Second):
		t.Fatal("expected a disconnect notification after a failed write")
	}
	assert.True(t, conn.closed)
}

type spyObserver struct {
	bytesWritten uint64
}

func (s *spyObserver) ObserveBytesWritten(n uint64) { s.bytesWritten += n }

func TestEgressObservesBytesWritten(t *testing.T) {
	decrees := make(chan store.Decree, 8)
	disconnects := make(chan uint64, 8)
	spy := &spyObserver{}
	e := New(decrees, disconnects, nil)
	e.WithObserver(spy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	client, server := net.Pipe()
	defer client.Close()

	decrees <- store.Welcome(1, server)
	decrees <- store.Deliver(1, resp.SimpleString("PONG"))

	reader := bufio.NewReader(client)
	_, err := reader.ReadString('\n')
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return spy.bytesWritten == uint64(len(resp.Encode(resp.SimpleString("PONG"))))
	}, time.Second, time.Millisecond)
}

func TestEgressGoodbyeDropsConnection(t *testing.T) {
	decrees := make(chan store.Decree, 8)
	disconnects := make(chan uint64, 8)
	e := New(decrees, disconnects, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	client, server := net.Pipe()
	defer client.Close()

	decrees <- store.Welcome(3, server)
	decrees <- store.Goodbye(3)

	select {
	case token := <-disconnects:
		assert.Equal(t, uint64(3), token)
	case <-time.After(time.Second):
		t.Fatal("expected a disconnect notification after Goodbye")
	}
}
