// Package worker implements Choir, the fixed-size pool of goroutines
// that run one read-parse-dispatch pass per connection readiness
// event, and the pooled read-buffer allocator those passes draw from.
package worker

import (
	"sync"

	"github.com/IgrisBRC/jedis/internal/logging"
)

// Choir is a fixed-size pool of goroutines ("Angels" in the original
// this is grounded on) sharing a single task channel. Tasks do not
// queue: Sing blocks the caller until an Angel is free to take one.
type Choir struct {
	tasks  chan func()
	wg     sync.WaitGroup
	logger *logging.Logger
}

// New spawns size goroutines, each pulling closures off a shared
// channel until it is closed. Grounded on the original's Choir/Angel
// (a Vec<Angel> sharing an Arc<Mutex<Receiver<Song>>>); Go's channels
// make the shared-receiver mutex unnecessary — every goroutine reads
// from the same unbuffered channel directly.
func New(size int, logger *logging.Logger) *Choir {
	if logger == nil {
		logger = logging.Default()
	}
	if size < 1 {
		size = 1
	}
	c := &Choir{
		tasks:  make(chan func()),
		logger: logger,
	}
	c.wg.Add(size)
	for i := 0; i < size; i++ {
		go c.angel(i)
	}
	return c
}

func (c *Choir) angel(id int) {
	defer c.wg.Done()
	for task := range c.tasks {
		c.runTask(id, task)
	}
}

// runTask contains a panicking task to this one Angel: the pool logs
// and loses the one task rather than taking down every worker with it
// (spec.md §4.10 — a worker panic must not propagate past the pool).
func (c *Choir) runTask(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("angel recovered from panic", "angel", id, "panic", r)
		}
	}()
	task()
}

// Sing submits one task. It blocks until an Angel picks it up, which
// is the natural backpressure mechanism bounding concurrent parsing
// work (spec.md §5).
func (c *Choir) Sing(task func()) {
	c.tasks <- task
}

// Shutdown closes the task channel and waits for every Angel to
// finish its current task and return, mirroring the original's
// drop-sender-then-join-all Drop implementation.
func (c *Choir) Shutdown() {
	close(c.tasks)
	c.wg.Wait()
}
