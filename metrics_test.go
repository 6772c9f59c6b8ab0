package jedis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordCommand(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordCommand(5_000, true)
	m.RecordCommand(50_000, false)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.ConnectionsAccepted)
	assert.Equal(t, uint64(1), snap.ConnectionsLive)
	assert.Equal(t, uint64(2), snap.CommandsProcessed)
	assert.Equal(t, uint64(1), snap.CommandErrors)
	assert.InDelta(t, 50.0, snap.ErrorRate, 0.01)
}

func TestMetricsConnectionLifecycle(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordConnection()
	m.RecordDisconnect()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.ConnectionsAccepted)
	assert.Equal(t, uint64(1), snap.ConnectionsClosed)
	assert.Equal(t, uint64(1), snap.ConnectionsLive)
}

func TestMetricsLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand(500, true)      // under 1us bucket
	m.RecordCommand(5_000_000, true) // under 10ms bucket

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.LatencyHistogram[0])
	assert.GreaterOrEqual(t, snap.LatencyHistogram[4], uint64(1))
}

func TestMetricsObserverDelegatesToMetrics(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveConnection()
	obs.ObserveCommand(1_000, true)
	obs.ObserveBytesRead(128)
	obs.ObserveBytesWritten(64)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.ConnectionsAccepted)
	assert.Equal(t, uint64(1), snap.CommandsProcessed)
	assert.Equal(t, uint64(128), snap.BytesRead)
	assert.Equal(t, uint64(64), snap.BytesWritten)
}

func TestNoOpObserverDoesNothing(t *testing.T) {
	var obs Observer = NoOpObserver{}
	assert.NotPanics(t, func() {
		obs.ObserveConnection()
		obs.ObserveDisconnect()
		obs.ObserveCommand(1, true)
		obs.ObserveBytesRead(1)
		obs.ObserveBytesWritten(1)
	})
}
