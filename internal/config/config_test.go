package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultBindAddr, c.BindAddr)
	assert.Equal(t, DefaultWorkerCount, c.WorkerCount)
	assert.Equal(t, DefaultPollTimeout, c.PollTimeout)
}
