package jedis

import (
	"github.com/IgrisBRC/jedis/internal/config"
	"github.com/IgrisBRC/jedis/internal/logging"
	"github.com/IgrisBRC/jedis/internal/serverctl"
)

// Server is the top-level handle to a running instance: construct one
// with New, then Shutdown it when done. Grounded on the teacher's
// Device/CreateAndServe/StopAndDelete shape, collapsed to a single
// type since this server has no equivalent of a block device's
// on-disk path to expose beyond its listen address.
type Server struct {
	ctrl    *serverctl.Controller
	metrics *Metrics
}

// Config re-exports internal/config.Config so callers never need to
// import an internal package to configure a Server.
type Config = config.Config

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() Config {
	return config.Default()
}

// New builds and starts a Server listening on cfg.BindAddr. It does
// not block; call Wait to block until Shutdown (or an internal error)
// stops it.
func New(cfg Config) (*Server, error) {
	logConfig := logging.DefaultConfig()
	logConfig.Level = cfg.LogLevel
	logger := logging.NewLogger(logConfig)

	metrics := NewMetrics()
	ctrl, err := serverctl.New(cfg, logger, NewMetricsObserver(metrics))
	if err != nil {
		return nil, WrapError("jedis.New", err)
	}

	return &Server{
		ctrl:    ctrl,
		metrics: metrics,
	}, nil
}

// Addr returns the address the server actually bound to.
func (s *Server) Addr() string {
	return s.ctrl.Addr()
}

// Metrics returns the server's metrics instance.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Wait blocks until the server's reactor loop exits.
func (s *Server) Wait() {
	s.ctrl.Wait()
}

// Shutdown stops the server, waiting for the pipeline to drain in
// dependency order (spec.md §5).
func (s *Server) Shutdown() error {
	return s.ctrl.Close()
}
