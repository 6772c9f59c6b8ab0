// Package writer implements Egress (Component H): the single
// goroutine that owns every connection's write half and serializes all
// outbound bytes for that connection, so two Decrees for the same
// token can never interleave on the wire.
package writer

import (
	"context"
	"net"

	"github.com/IgrisBRC/jedis/internal/logging"
	"github.com/IgrisBRC/jedis/internal/resp"
	"github.com/IgrisBRC/jedis/internal/store"
)

// Observer receives one notification per write attempt, carrying the
// byte count that write reported, whether it succeeded or not. Package-
// local and narrow for the same reason reactor.Observer and
// command.Observer are: jedis.MetricsObserver satisfies it
// structurally without either package importing the other.
type Observer interface {
	ObserveBytesWritten(n uint64)
}

type noopObserver struct{}

func (noopObserver) ObserveBytesWritten(uint64) {}

// Egress drains the shared Decree channel and writes to whichever
// connection each Decree names. Grounded on the original's egress()
// loop: one mpsc receiver, one HashMap<Token, TcpStream> of write
// halves, Welcome inserts, Deliver encodes-and-writes, and any write
// failure (or an explicit Goodbye from the reactor) removes the write
// half and republishes the token on a channel the reactor drains on
// its next tick.
type Egress struct {
	decrees     <-chan store.Decree
	disconnects chan<- uint64
	logger      *logging.Logger
	obs         Observer

	conns map[uint64]net.Conn
}

// New returns an Egress ready to Run. decrees is the single shared
// channel every connection's replies and the reactor's Welcome/Goodbye
// messages arrive on; disconnects is the channel this Egress publishes
// tokens on once their write half is gone, for the reactor to drain.
func New(decrees <-chan store.Decree, disconnects chan<- uint64, logger *logging.Logger) *Egress {
	if logger == nil {
		logger = logging.Default()
	}
	return &Egress{
		decrees:     decrees,
		disconnects: disconnects,
		logger:      logger,
		obs:         noopObserver{},
		conns:       make(map[uint64]net.Conn),
	}
}

// WithObserver attaches obs to e, replacing the no-op default.
func (e *Egress) WithObserver(obs Observer) *Egress {
	if obs != nil {
		e.obs = obs
	}
	return e
}

// Run drains decrees until ctx is cancelled, at which point every
// remaining write half is closed.
func (e *Egress) Run(ctx context.Context) {
	e.logger.Info("egress started")
	defer e.closeAll()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("egress stopping")
			return
		case d := <-e.decrees:
			e.handle(d)
		}
	}
}

func (e *Egress) handle(d store.Decree) {
	switch d.Kind {
	case store.DecreeWelcome:
		e.conns[d.Token] = d.Conn

	case store.DecreeDeliver:
		conn, ok := e.conns[d.Token]
		if !ok {
			// The reactor already tore this connection down; drop the
			// reply rather than chase a write half that no longer
			// exists.
			return
		}
		n, err := conn.Write(resp.Encode(d.Response))
		e.obs.ObserveBytesWritten(uint64(n))
		if err != nil {
			e.drop(d.Token, conn)
		}

	case store.DecreeGoodbye:
		conn, ok := e.conns[d.Token]
		if !ok {
			return
		}
		e.drop(d.Token, conn)
	}
}

// drop closes a write half, forgets it, and tells the reactor the
// token is finished so it can release the read side and its epoll
// registration.
func (e *Egress) drop(token uint64, conn net.Conn) {
	conn.Close()
	delete(e.conns, token)
	e.disconnects <- token
}

func (e *Egress) closeAll() {
	for token, conn := range e.conns {
		conn.Close()
		delete(e.conns, token)
	}
}
