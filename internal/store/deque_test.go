package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func b(s string) []byte { return []byte(s) }

func TestDequePushFrontOrder(t *testing.T) {
	d := NewDeque()
	d.PushFront(b("a"))
	d.PushFront(b("b"))
	assert.Equal(t, [][]byte{b("b"), b("a")}, d.toSlice())
}

func TestDequePushBackOrder(t *testing.T) {
	d := NewDeque()
	d.PushBack(b("a"))
	d.PushBack(b("b"))
	assert.Equal(t, [][]byte{b("a"), b("b")}, d.toSlice())
}

func TestDequePopFrontBack(t *testing.T) {
	d := NewDeque()
	d.PushBack(b("a"))
	d.PushBack(b("b"))
	d.PushBack(b("c"))

	v, ok := d.PopFront()
	assert.True(t, ok)
	assert.Equal(t, b("a"), v)

	v, ok = d.PopBack()
	assert.True(t, ok)
	assert.Equal(t, b("c"), v)

	assert.Equal(t, 1, d.Len())
}

func TestDequeGetSetOutOfRange(t *testing.T) {
	d := NewDeque()
	d.PushBack(b("a"))
	_, ok := d.Get(5)
	assert.False(t, ok)
	assert.False(t, d.Set(5, b("x")))
	assert.True(t, d.Set(0, b("x")))
	v, _ := d.Get(0)
	assert.Equal(t, b("x"), v)
}

func TestDequeGrowsPastInitialCapacity(t *testing.T) {
	d := NewDeque()
	for i := 0; i < 100; i++ {
		d.PushBack(b("x"))
	}
	assert.Equal(t, 100, d.Len())
	for i := 0; i < 100; i++ {
		v, ok := d.Get(i)
		assert.True(t, ok)
		assert.Equal(t, b("x"), v)
	}
}

func TestDequeRemoveMatchesPositiveCount(t *testing.T) {
	d := NewDeque()
	for _, s := range []string{"a", "x", "a", "x", "a"} {
		d.PushBack(b(s))
	}
	removed := d.RemoveMatches(b("a"), 2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, [][]byte{b("x"), b("x"), b("a")}, d.toSlice())
}

func TestDequeRemoveMatchesNegativeCount(t *testing.T) {
	d := NewDeque()
	for _, s := range []string{"a", "x", "a", "x", "a"} {
		d.PushBack(b(s))
	}
	removed := d.RemoveMatches(b("a"), -2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, [][]byte{b("a"), b("x"), b("x")}, d.toSlice())
}

func TestDequeRemoveMatchesZeroCount(t *testing.T) {
	d := NewDeque()
	for _, s := range []string{"a", "x", "a", "x", "a"} {
		d.PushBack(b(s))
	}
	removed := d.RemoveMatches(b("a"), 0)
	assert.Equal(t, 3, removed)
	assert.Equal(t, [][]byte{b("x"), b("x")}, d.toSlice())
}
