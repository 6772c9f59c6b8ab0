package config

import "time"

// Network and pipeline tuning constants.
//
// PollTimeout governs how promptly the reactor notices cross-thread
// control messages (the return channel from Choir and the disconnect
// channel from Egress) rather than client-visible latency — readiness
// events themselves wake the poll immediately regardless of this
// timeout. 10ms keeps that responsiveness high without spinning the
// reactor goroutine.
const (
	// DefaultBindAddr is the address the listener binds by default.
	DefaultBindAddr = "127.0.0.1:6379"

	// DefaultWorkerCount is Choir's default size. spec.md §4.6
	// recommends 4-8; the original's reactor construction used 5 and
	// 6 across its revisions, so 6 is kept as the idiomatic middle.
	DefaultWorkerCount = 6

	// DefaultPollTimeout is how long the reactor's epoll wait blocks
	// per tick before re-checking its control channels.
	DefaultPollTimeout = 10 * time.Millisecond

	// DefaultReadBufferSize is the size of the buffer a worker draws
	// from the pool for one read-parse pass.
	DefaultReadBufferSize = 4 * 1024

	// MaxPendingConnections is the backlog passed to listen(2).
	MaxPendingConnections = 1024
)
