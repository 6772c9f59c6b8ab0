// Package serverctl owns the startup and shutdown order of the four
// running subsystems (Temple, Choir, Reactor, Egress), the one piece
// of lifecycle bookkeeping that doesn't belong inside any single
// subsystem. Grounded on the teacher's internal/ctrl.Controller:
// NewController opens one resource and wires what depends on it,
// Close tears everything down in reverse order, and callers never see
// the subsystems' own constructors directly.
package serverctl

import (
	"context"

	"github.com/IgrisBRC/jedis/internal/command"
	"github.com/IgrisBRC/jedis/internal/config"
	"github.com/IgrisBRC/jedis/internal/logging"
	"github.com/IgrisBRC/jedis/internal/reactor"
	"github.com/IgrisBRC/jedis/internal/store"
	"github.com/IgrisBRC/jedis/internal/worker"
	"github.com/IgrisBRC/jedis/internal/writer"
)

// Controller owns the full running pipeline: Temple (D), Choir (F),
// Reactor (G), and Egress (H), plus the channels wiring them together.
type Controller struct {
	cfg    config.Config
	logger *logging.Logger

	temple *store.Temple
	choir  *worker.Choir
	egress *writer.Egress
	re     *reactor.Reactor

	cancel context.CancelFunc
	done   chan struct{}
}

// Observer is satisfied structurally by jedis.MetricsObserver; passing
// nil wires in a no-op at command.Grant, reactor.Reactor, and
// writer.Egress alike.
type Observer interface {
	command.Observer
	reactor.Observer
	writer.Observer
}

// New builds and starts the pipeline but does not block; call Wait (or
// just let Close tear it down later) from the caller's own goroutine.
// obs may be nil.
func New(cfg config.Config, logger *logging.Logger, obs Observer) (*Controller, error) {
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	temple := store.NewTemple("soul", logger)
	temple.Start(ctx)

	grant := command.New(temple)
	if obs != nil {
		grant.WithObserver(obs)
	}
	choir := worker.New(cfg.WorkerCount, logger)

	decrees := make(chan store.Decree, 1024)
	disconnects := make(chan uint64, 1024)

	egress := writer.New(decrees, disconnects, logger)
	if obs != nil {
		egress.WithObserver(obs)
	}

	re, err := reactor.New(cfg, grant, choir, decrees, disconnects, logger)
	if err != nil {
		cancel()
		choir.Shutdown()
		return nil, err
	}
	if obs != nil {
		re.WithObserver(obs)
	}

	c := &Controller{
		cfg:    cfg,
		logger: logger,
		temple: temple,
		choir:  choir,
		egress: egress,
		re:     re,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go egress.Run(ctx)
	go func() {
		defer close(c.done)
		if err := re.Run(ctx); err != nil {
			logger.Error("reactor exited with error", "err", err)
		}
	}()

	logger.Info("server started", "addr", re.Addr())
	return c, nil
}

// Addr returns the bound listen address.
func (c *Controller) Addr() string { return c.re.Addr() }

// Wait blocks until the reactor loop returns (normally only once Close
// has cancelled its context).
func (c *Controller) Wait() {
	<-c.done
}

// Close stops the reactor, drains in-flight worker tasks, and stops
// the store actor and Egress, in that order: the reactor must stop
// producing new work for Choir before Choir is asked to drain, and the
// store actor should keep accepting Wishes until every Angel has
// finished running its last one.
func (c *Controller) Close() error {
	c.cancel()
	<-c.done
	c.choir.Shutdown()
	c.logger.Info("server stopped")
	return nil
}
