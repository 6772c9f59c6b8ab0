package command

import (
	"context"
	"testing"
	"time"

	"github.com/IgrisBRC/jedis/internal/resp"
	"github.com/IgrisBRC/jedis/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrant(t *testing.T) (*Grant, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	temple := store.NewTemple("test", nil)
	temple.Start(ctx)
	return New(temple), cancel
}

func terms(strs ...string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

func TestDispatchCommandAndConfigFastPath(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 2)
	g.Dispatch(1, terms("COMMAND"), replies, time.Now())
	g.Dispatch(1, terms("CONFIG", "GET", "maxmemory"), replies, time.Now())

	d1 := <-replies
	d2 := <-replies
	assert.Equal(t, resp.SimpleString("OK"), d1.Response)
	assert.Equal(t, resp.SimpleString("OK"), d2.Response)
}

func TestDispatchUnknownCommand(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 1)
	g.Dispatch(1, terms("BOGUS"), replies, time.Now())
	d := <-replies
	assert.Equal(t, resp.KindError, d.Response.Kind)
}

func TestDispatchArityError(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 1)
	g.Dispatch(1, terms("GET"), replies, time.Now())
	d := <-replies
	assert.Equal(t, resp.KindError, d.Response.Kind)
}

func TestDispatchSetAndGetRoundTrip(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 2)
	g.Dispatch(1, terms("SET", "k", "hello"), replies, time.Now())
	g.Dispatch(1, terms("GET", "k"), replies, time.Now())

	setReply := <-replies
	getReply := <-replies
	require.Equal(t, resp.SimpleString("OK"), setReply.Response)
	assert.Equal(t, resp.BulkString([]byte("hello")), getReply.Response)
}

func TestDispatchSetWithBadExpire(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 1)
	g.Dispatch(1, terms("SET", "k", "v", "EX", "notanumber"), replies, time.Now())
	d := <-replies
	assert.Equal(t, resp.KindError, d.Response.Kind)
}

func TestDispatchPing(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 1)
	g.Dispatch(1, terms("PING"), replies, time.Now())
	d := <-replies
	assert.Equal(t, resp.SimpleString("PONG"), d.Response)
}

type spyObserver struct {
	calls int
	last  bool
}

func (s *spyObserver) ObserveCommand(latencyNs uint64, success bool) {
	s.calls++
	s.last = success
}

func TestDispatchObservesCommandsBothImmediateAndViaTemple(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()
	spy := &spyObserver{}
	g.WithObserver(spy)

	replies := make(chan store.Decree, 2)
	g.Dispatch(1, terms("BOGUS"), replies, time.Now())
	<-replies
	assert.Equal(t, 1, spy.calls)
	assert.False(t, spy.last)

	g.Dispatch(1, terms("PING"), replies, time.Now())
	<-replies
	assert.Equal(t, 2, spy.calls)
	assert.True(t, spy.last)
}

func TestDispatchLpushScenario(t *testing.T) {
	g, cancel := newTestGrant(t)
	defer cancel()

	replies := make(chan store.Decree, 2)
	g.Dispatch(1, terms("LPUSH", "L", "a", "b"), replies, time.Now())
	g.Dispatch(1, terms("LRANGE", "L", "0", "-1"), replies, time.Now())

	<-replies
	r := <-replies
	require.Equal(t, resp.KindArray, r.Response.Kind)
	assert.Equal(t, []resp.Reply{resp.BulkString([]byte("b")), resp.BulkString([]byte("a"))}, r.Response.Array)
}
