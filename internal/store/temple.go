package store

import (
	"context"
	"net"
	"time"

	"github.com/IgrisBRC/jedis/internal/logging"
	"github.com/IgrisBRC/jedis/internal/resp"
)

// DecreeKind tags a Decree's payload.
type DecreeKind int

const (
	DecreeWelcome DecreeKind = iota
	DecreeDeliver
	DecreeGoodbye
)

// Decree is the writer-bound message: a Welcome handing a freshly
// accepted connection's write half to Egress, a Deliver carrying one
// command's reply back to its connection, or a Goodbye announcing that
// the reactor has seen the read half close (EOF or a protocol error)
// so Egress should drop its write half too. Unifying both teardown
// causes — a failed write and a closed read half — behind the single
// Goodbye/disconnect-channel path keeps exactly one place (Egress)
// responsible for deciding a connection is finished and telling G so.
type Decree struct {
	Kind     DecreeKind
	Token    uint64
	Conn     net.Conn
	Response resp.Reply
}

func Welcome(token uint64, conn net.Conn) Decree {
	return Decree{Kind: DecreeWelcome, Token: token, Conn: conn}
}

func Deliver(token uint64, r resp.Reply) Decree {
	return Decree{Kind: DecreeDeliver, Token: token, Response: r}
}

func Goodbye(token uint64) Decree {
	return Decree{Kind: DecreeGoodbye, Token: token}
}

// Wish is a store-bound request: a unit of work Temple performs
// against Soul exactly once, in FIFO order with every other Wish.
// Exec captures the parsed command's arguments as a closure built by
// Grant (internal/command) — Temple itself knows nothing about RESP
// command names.
type Wish struct {
	Token   uint64
	Now     time.Time
	ReplyTo chan<- Decree
	Exec    func(s *Soul, now time.Time) resp.Reply
}

// Temple is the single-owner store actor: one goroutine, one inbox,
// exactly one Decree emitted per Wish consumed. Grounded on the
// teacher's queue.Runner.ioLoop shape (a single goroutine, pinned to
// its own loop, driven by a cancellable context, owning all mutable
// state) translated from a block-I/O completion loop to a command
// dispatch loop.
type Temple struct {
	name   string
	soul   *Soul
	inbox  chan Wish
	logger *logging.Logger
}

// NewTemple returns a Temple ready to Start. name is used only in log
// lines, mirroring the original's named-instance convention.
func NewTemple(name string, logger *logging.Logger) *Temple {
	if logger == nil {
		logger = logging.Default()
	}
	return &Temple{
		name:   name,
		soul:   NewSoul(),
		inbox:  make(chan Wish, 256),
		logger: logger,
	}
}

// Submit enqueues a Wish. It blocks if the inbox is momentarily full;
// queues are unbounded in principle (spec.md §5) but a bounded Go
// channel with backpressure is the idiomatic approximation and simply
// slows the submitting worker rather than ever dropping a Wish.
func (t *Temple) Submit(w Wish) {
	t.inbox <- w
}

// Start runs the actor loop until ctx is cancelled. The actor never
// panics on user input — every Soul method above converts misuse into
// a typed Reply rather than panicking, so the only way this loop ever
// stops Temple's own goroutine is cancellation.
func (t *Temple) Start(ctx context.Context) {
	go t.run(ctx)
}

func (t *Temple) run(ctx context.Context) {
	t.logger.Info("temple started", "name", t.name)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("temple stopping", "name", t.name)
			return
		case w := <-t.inbox:
			r := w.Exec(t.soul, w.Now)
			decree := Deliver(w.Token, r)
			select {
			case w.ReplyTo <- decree:
			case <-ctx.Done():
				t.logger.Debug("reply dropped, temple stopping", "name", t.name, "token", w.Token)
				return
			}
		}
	}
}
