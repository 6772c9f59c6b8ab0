// Command jedis-server runs a standalone jedis instance.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/IgrisBRC/jedis"
	"github.com/IgrisBRC/jedis/internal/logging"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:6379", "address to bind and listen on")
		workers = flag.Int("workers", 6, "number of command-dispatch workers")
		verbose = flag.Bool("v", false, "verbose (debug-level) logging")
	)
	flag.Parse()

	logLevel := logging.LevelInfo
	if *verbose {
		logLevel = logging.LevelDebug
	}

	cfg := jedis.DefaultConfig()
	cfg.BindAddr = *addr
	cfg.WorkerCount = *workers
	cfg.LogLevel = logLevel

	logConfig := logging.DefaultConfig()
	logConfig.Level = logLevel
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	server, err := jedis.New(cfg)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	logger.Info("jedis listening", "addr", server.Addr())
	fmt.Printf("jedis listening on %s\n", server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGUSR1:
			dumpMetrics(logger, server)
		default:
			logger.Info("received signal, shutting down", "signal", sig)
			if err := server.Shutdown(); err != nil {
				logger.Error("error during shutdown", "err", err)
				os.Exit(1)
			}
			return
		}
	}
}

func dumpMetrics(logger *logging.Logger, server *jedis.Server) {
	snap := server.Metrics().Snapshot()
	logger.Info("metrics snapshot",
		"connections_live", snap.ConnectionsLive,
		"connections_accepted", snap.ConnectionsAccepted,
		"commands_processed", snap.CommandsProcessed,
		"command_errors", snap.CommandErrors,
		"avg_latency_ns", snap.AvgLatencyNs,
		"p99_latency_ns", snap.LatencyP99Ns,
		"commands_per_second", snap.CommandsPerSecond,
	)
}
