package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChoirRunsSubmittedTasks(t *testing.T) {
	c := New(4, nil)
	defer c.Shutdown()

	var count int64
	const n = 100
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		c.Sing(func() {
			atomic.AddInt64(&count, 1)
			done <- struct{}{}
		})
	}
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task completion")
		}
	}
	assert.Equal(t, int64(n), atomic.LoadInt64(&count))
}

func TestChoirSurvivesPanickingTask(t *testing.T) {
	c := New(2, nil)
	defer c.Shutdown()

	done := make(chan struct{}, 1)
	c.Sing(func() { panic("boom") })
	c.Sing(func() { done <- struct{}{} })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not survive a panicking task")
	}
}

func TestChoirShutdownWaitsForInFlightTasks(t *testing.T) {
	c := New(1, nil)
	var finished int32
	c.Sing(func() {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	c.Shutdown()
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}
