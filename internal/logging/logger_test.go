package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	assert.Equal(t, LevelInfo, logger.core.level)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("also should not appear")
	assert.Empty(t, buf.String())

	logger.Warn("connection dropped", "token", 7)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "connection dropped")
	assert.Contains(t, buf.String(), "token=7")
}

func TestLoggerArgFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("wish processed", "cmd", "INCR", "token", 3)
	output := buf.String()
	assert.Contains(t, output, "cmd=INCR")
	assert.Contains(t, output, "token=3")
}

func TestLoggerPrintfVariants(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Errorf("store actor failed: %v", "boom")
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "store actor failed: boom")
}

func TestLoggerWithTokenTagsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Output: &buf})
	conn := logger.WithToken(42)

	conn.Info("connection accepted")
	assert.Contains(t, buf.String(), "token=42")
	assert.Contains(t, buf.String(), "connection accepted")

	buf.Reset()
	logger.Info("server started")
	assert.NotContains(t, buf.String(), "token=")
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	assert.Contains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	Info("info message")
	assert.Contains(t, buf.String(), "info message")

	buf.Reset()
	Warn("warning message")
	assert.Contains(t, buf.String(), "warning message")

	buf.Reset()
	Error("error message")
	assert.Contains(t, buf.String(), "error message")
}
