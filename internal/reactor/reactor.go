package reactor

import (
	"context"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/IgrisBRC/jedis/internal/command"
	"github.com/IgrisBRC/jedis/internal/config"
	"github.com/IgrisBRC/jedis/internal/logging"
	"github.com/IgrisBRC/jedis/internal/respstream"
	"github.com/IgrisBRC/jedis/internal/store"
	"github.com/IgrisBRC/jedis/internal/worker"
)

// listenerToken is the epoll token reserved for the listening socket;
// every accepted connection gets a token starting at 1.
const listenerToken uint64 = 0

// Observer receives one notification per accepted or torn-down
// connection. Package-local and narrow for the same reason
// command.Observer is: jedis.MetricsObserver satisfies it
// structurally without either package importing the other.
type Observer interface {
	ObserveConnection()
	ObserveDisconnect()
	ObserveBytesRead(n uint64)
}

type noopObserver struct{}

func (noopObserver) ObserveConnection()      {}
func (noopObserver) ObserveDisconnect()      {}
func (noopObserver) ObserveBytesRead(uint64) {}

// connState is what the reactor keeps about a live connection for the
// lifetime of that connection — as opposed to its parser, which is
// checked out to whichever Angel currently holds the lease.
type connState struct {
	fd         int
	token      uint64
	remoteAddr string
	logger     *logging.Logger
}

// returnedConn is how a worker hands a connection's parser state back
// to the reactor once its read-parse-dispatch pass has drained the
// socket to EWOULDBLOCK, or reports that the connection ended.
type returnedConn struct {
	token  uint64
	parser *respstream.Parser
	closed bool
}

// Reactor is Component G: the single goroutine owning the listening
// socket, the epoll instance, and the map of live connections. Grounded
// on the original's reactor main loop (codedump.rs's event loop
// draining the worker-return and egress-disconnect mpsc channels once
// per poll tick) and structurally on the teacher's queue.Runner, which
// is likewise a single loop alternating between draining control
// channels and waiting on a kernel completion/readiness primitive.
type Reactor struct {
	poller      Poller
	listenFd    int
	grant       *command.Grant
	choir       *worker.Choir
	decrees     chan<- store.Decree
	returns     chan returnedConn
	disconnects <-chan uint64
	logger      *logging.Logger
	timeout     time.Duration
	obs         Observer

	conns       map[uint64]*connState
	liveParsers map[uint64]*respstream.Parser
	nextToken   uint64
}

// New binds and listens on cfg.BindAddr and wires a Reactor ready to
// Run. decrees is the single shared channel to Egress; disconnects is
// the channel Egress publishes tokens on once it has dropped a write
// half (spec.md §4.8).
func New(cfg config.Config, grant *command.Grant, choir *worker.Choir, decrees chan<- store.Decree, disconnects <-chan uint64, logger *logging.Logger) (*Reactor, error) {
	if logger == nil {
		logger = logging.Default()
	}
	poller, err := NewEpollPoller()
	if err != nil {
		return nil, err
	}
	listenFd, err := listenTCP(cfg.BindAddr)
	if err != nil {
		poller.Close()
		return nil, err
	}
	// The listener fd only ever needs read readiness (a pending
	// connection to accept(2)); see acceptLoop's registration for why a
	// connection's read half never needs write readiness either.
	if err := poller.Add(listenFd, listenerToken, false); err != nil {
		poller.Close()
		unix.Close(listenFd)
		return nil, err
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = config.DefaultPollTimeout
	}
	return &Reactor{
		poller:      poller,
		listenFd:    listenFd,
		grant:       grant,
		choir:       choir,
		decrees:     decrees,
		returns:     make(chan returnedConn, 256),
		disconnects: disconnects,
		logger:      logger,
		timeout:     timeout,
		obs:         noopObserver{},
		conns:       make(map[uint64]*connState),
		liveParsers: make(map[uint64]*respstream.Parser),
		nextToken:   1,
	}, nil
}

// WithObserver attaches obs to r, replacing the no-op default.
func (r *Reactor) WithObserver(obs Observer) *Reactor {
	if obs != nil {
		r.obs = obs
	}
	return r
}

// listenTCP builds the raw nonblocking listening socket by hand
// instead of going through net.Listen: the reactor registers this fd
// with its own epoll instance, and Go's runtime netpoller and an
// explicit epoll instance cannot both own the same fd's readiness
// without racing each other.
func listenTCP(addr string) (int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	var sa unix.SockaddrInet4
	sa.Port = tcpAddr.Port
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, config.MaxPendingConnections); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Addr returns the address the listener actually bound to, useful when
// BindAddr requested an ephemeral port (":0") such as in tests.
func (r *Reactor) Addr() string {
	sa, err := unix.Getsockname(r.listenFd)
	if err != nil {
		return ""
	}
	return remoteAddrOf(sa)
}

// Run drives the per-tick loop of spec.md §4.7 until ctx is cancelled.
func (r *Reactor) Run(ctx context.Context) error {
	r.logger.Info("reactor started")
	defer r.teardown()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reactor stopping")
			return nil
		default:
		}

		r.drainReturns()
		r.drainDisconnects()

		events, err := r.poller.Wait(r.timeout)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if ev.Token == listenerToken {
				r.acceptLoop()
				continue
			}
			r.handleReadable(ev.Token)
		}
	}
}

func (r *Reactor) teardown() {
	for _, cs := range r.conns {
		unix.Close(cs.fd)
	}
	r.poller.Close()
	unix.Close(r.listenFd)
}

func (r *Reactor) drainReturns() {
	for {
		select {
		case rc := <-r.returns:
			if rc.closed {
				continue
			}
			if _, stillOpen := r.conns[rc.token]; stillOpen {
				r.liveParsers[rc.token] = rc.parser
			}
		default:
			return
		}
	}
}

func (r *Reactor) drainDisconnects() {
	for {
		select {
		case token := <-r.disconnects:
			r.closeConn(token)
		default:
			return
		}
	}
}

func (r *Reactor) closeConn(token uint64) {
	cs, ok := r.conns[token]
	if !ok {
		return
	}
	r.poller.Remove(cs.fd)
	unix.Close(cs.fd)
	delete(r.conns, token)
	delete(r.liveParsers, token)
	cs.logger.Info("connection closed")
	r.obs.ObserveDisconnect()
}

// acceptLoop drains the listener's accept queue until it would block,
// the standard edge-triggered-safe (and here, belt-and-suspenders for
// level-triggered too) pattern for a nonblocking accept(2) loop.
func (r *Reactor) acceptLoop() {
	for {
		connFd, sa, err := unix.Accept4(r.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			r.logger.Warn("accept failed", "err", err)
			return
		}

		dupFd, err := unix.Dup(connFd)
		if err != nil {
			r.logger.Warn("dup failed", "err", err)
			unix.Close(connFd)
			continue
		}
		writeConn, err := net.FileConn(os.NewFile(uintptr(dupFd), "jedis-conn"))
		if err != nil {
			r.logger.Warn("failed to wrap write half", "err", err)
			unix.Close(connFd)
			unix.Close(dupFd)
			continue
		}

		token := r.nextToken
		r.nextToken++
		connLogger := r.logger.WithToken(token)

		// Only read readiness is registered here: the read half (connFd)
		// is never written to, since writeConn — a dup of the same
		// socket, owned by Egress — is the only fd this process ever
		// writes on for this connection. Mirroring EPOLLOUT onto connFd
		// as spec.md's single-fd design calls for would be dead
		// configuration in this two-fd split, since nothing ever selects
		// on connFd's writability.
		if err := r.poller.Add(connFd, token, false); err != nil {
			connLogger.Warn("epoll add failed", "err", err)
			unix.Close(connFd)
			writeConn.Close()
			continue
		}

		r.conns[token] = &connState{fd: connFd, token: token, remoteAddr: remoteAddrOf(sa), logger: connLogger}
		r.liveParsers[token] = respstream.New()
		r.obs.ObserveConnection()
		connLogger.Info("connection accepted", "remote", remoteAddrOf(sa))
		r.decrees <- store.Welcome(token, writeConn)
	}
}

func remoteAddrOf(sa unix.Sockaddr) string {
	if v4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := net.IP(v4.Addr[:])
		return net.JoinHostPort(ip.String(), itoa(v4.Port))
	}
	return "unknown"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// handleReadable hands the connection's parser off to Choir if it is
// currently eligible (not already leased to an in-flight worker task).
// A readiness event for a connection mid-lease is simply a no-op:
// level-triggered epoll will report it again on the next tick once the
// worker returns the parser and the socket still has unread bytes.
func (r *Reactor) handleReadable(token uint64) {
	parser, ok := r.liveParsers[token]
	if !ok {
		return
	}
	cs, ok := r.conns[token]
	if !ok {
		return
	}
	delete(r.liveParsers, token)
	fd := cs.fd
	connLogger := cs.logger
	r.choir.Sing(func() { r.workerPass(token, fd, parser, connLogger) })
}

// workerPass is the closure Choir runs: it reads and parses until the
// socket would block, dispatching every complete command it decodes
// along the way, then reports the parser (and the connection's fate)
// back to the reactor over the return channel (spec.md §4.6).
func (r *Reactor) workerPass(token uint64, fd int, parser *respstream.Parser, connLogger *logging.Logger) {
	buf := worker.GetBuffer(config.DefaultReadBufferSize)
	defer worker.PutBuffer(buf)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				r.returns <- returnedConn{token: token, parser: parser}
				return
			}
			connLogger.Debug("read failed", "err", err)
			r.finishConn(token, parser)
			return
		}
		if n == 0 {
			r.finishConn(token, parser)
			return
		}
		r.obs.ObserveBytesRead(uint64(n))

		cmds, perr := parser.Feed(buf[:n])
		now := time.Now()
		for _, cmd := range cmds {
			r.grant.Dispatch(token, cmd, r.decrees, now)
		}
		if perr != nil {
			r.finishConn(token, parser)
			return
		}
	}
}

func (r *Reactor) finishConn(token uint64, parser *respstream.Parser) {
	r.returns <- returnedConn{token: token, parser: parser, closed: true}
	r.decrees <- store.Goodbye(token)
}
