// Package config holds the server's runtime tuning knobs and their
// defaults, in the spirit of the teacher's zero-value-free
// DefaultParams/DefaultConfig constructors.
package config

import (
	"time"

	"github.com/IgrisBRC/jedis/internal/logging"
)

// Config is the full set of knobs the server needs at startup.
type Config struct {
	BindAddr    string
	WorkerCount int
	PollTimeout time.Duration
	LogLevel    logging.LogLevel
}

// Default returns the out-of-the-box configuration: loopback-only on
// the RESP-conventional port, a small worker pool, and the ~10ms
// reactor poll timeout spec.md §4.7 calls for.
func Default() Config {
	return Config{
		BindAddr:    DefaultBindAddr,
		WorkerCount: DefaultWorkerCount,
		PollTimeout: DefaultPollTimeout,
		LogLevel:    logging.LevelInfo,
	}
}
