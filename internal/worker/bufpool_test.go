package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBufferSizeBuckets(t *testing.T) {
	tests := []struct {
		name        string
		requestSize uint32
		expectCap   int
	}{
		{"4KB bucket - exact", 4 * 1024, 4 * 1024},
		{"4KB bucket - smaller", 1 * 1024, 4 * 1024},
		{"16KB bucket - exact", 16 * 1024, 16 * 1024},
		{"16KB bucket - smaller", 10 * 1024, 16 * 1024},
		{"64KB bucket - exact", 64 * 1024, 64 * 1024},
		{"256KB bucket - exact", 256 * 1024, 256 * 1024},
		{"256KB bucket - smaller", 200 * 1024, 256 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetBuffer(tt.requestSize)
			assert.Len(t, buf, int(tt.requestSize))
			assert.Equal(t, tt.expectCap, cap(buf))
			PutBuffer(buf)
		})
	}
}

func TestPutBufferNonStandardCap(t *testing.T) {
	buf := make([]byte, 100*1024)
	assert.NotPanics(t, func() { PutBuffer(buf) })
}

func BenchmarkGetBuffer4KB(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer(4 * 1024)
		PutBuffer(buf)
	}
}
