package store

import "bytes"

// Deque is a double-ended, indexable sequence of byte-strings backed
// by a growable ring buffer. Neither container/list (no O(1) indexed
// access, needed by LINDEX/LRANGE/LSET) nor a plain append-only slice
// (O(n) front pushes, needed by LPUSH) fits list commands on their
// own; this type gives O(1) amortized push/pop at both ends and O(1)
// indexed access.
type Deque struct {
	buf   [][]byte
	head  int
	count int
}

// NewDeque returns an empty deque with a small initial capacity.
func NewDeque() *Deque {
	return &Deque{buf: make([][]byte, 8)}
}

func (d *Deque) Len() int { return d.count }

func (d *Deque) slot(i int) int { return (d.head + i) % len(d.buf) }

func (d *Deque) grow() {
	newCap := len(d.buf) * 2
	if newCap == 0 {
		newCap = 8
	}
	nb := make([][]byte, newCap)
	for i := 0; i < d.count; i++ {
		nb[i] = d.buf[d.slot(i)]
	}
	d.buf = nb
	d.head = 0
}

func (d *Deque) ensureCap() {
	if d.count == len(d.buf) {
		d.grow()
	}
}

// PushFront makes v the new element at index 0.
func (d *Deque) PushFront(v []byte) {
	d.ensureCap()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.count++
}

// PushBack makes v the new last element.
func (d *Deque) PushBack(v []byte) {
	d.ensureCap()
	d.buf[d.slot(d.count)] = v
	d.count++
}

// PopFront removes and returns the first element, if any.
func (d *Deque) PopFront() ([]byte, bool) {
	if d.count == 0 {
		return nil, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return v, true
}

// PopBack removes and returns the last element, if any.
func (d *Deque) PopBack() ([]byte, bool) {
	if d.count == 0 {
		return nil, false
	}
	last := d.slot(d.count - 1)
	v := d.buf[last]
	d.buf[last] = nil
	d.count--
	return v, true
}

// Get returns the i-th element (0-based from the front).
func (d *Deque) Get(i int) ([]byte, bool) {
	if i < 0 || i >= d.count {
		return nil, false
	}
	return d.buf[d.slot(i)], true
}

// Set overwrites the i-th element, reporting whether i was in range.
func (d *Deque) Set(i int, v []byte) bool {
	if i < 0 || i >= d.count {
		return false
	}
	d.buf[d.slot(i)] = v
	return true
}

// Slice returns a copy of the elements in [start, end], both 0-based
// and assumed already clamped to valid bounds by the caller.
func (d *Deque) Slice(start, end int) [][]byte {
	if d.count == 0 || start > end {
		return [][]byte{}
	}
	out := make([][]byte, 0, end-start+1)
	for i := start; i <= end; i++ {
		v, ok := d.Get(i)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func (d *Deque) toSlice() [][]byte {
	out := make([][]byte, d.count)
	for i := 0; i < d.count; i++ {
		out[i], _ = d.Get(i)
	}
	return out
}

func (d *Deque) rebuildFrom(items [][]byte) {
	capacity := 8
	for capacity < len(items) {
		capacity *= 2
	}
	d.buf = make([][]byte, capacity)
	d.head = 0
	d.count = 0
	for _, v := range items {
		d.PushBack(v)
	}
}

// RemoveMatches implements LREM's three-way count semantics: count>0
// removes the first |count| matches scanning head to tail, count<0
// removes the last |count| matches scanning tail to head, count==0
// removes every match. Returns the number of elements removed.
func (d *Deque) RemoveMatches(elem []byte, count int) int {
	all := d.toSlice()
	kept := make([][]byte, 0, len(all))
	removed := 0

	switch {
	case count == 0:
		for _, v := range all {
			if bytes.Equal(v, elem) {
				removed++
				continue
			}
			kept = append(kept, v)
		}
	case count > 0:
		remaining := count
		for _, v := range all {
			if remaining > 0 && bytes.Equal(v, elem) {
				remaining--
				removed++
				continue
			}
			kept = append(kept, v)
		}
	default:
		remaining := -count
		drop := make([]bool, len(all))
		for i := len(all) - 1; i >= 0; i-- {
			if remaining > 0 && bytes.Equal(all[i], elem) {
				remaining--
				removed++
				drop[i] = true
			}
		}
		for i, v := range all {
			if !drop[i] {
				kept = append(kept, v)
			}
		}
	}

	d.rebuildFrom(kept)
	return removed
}
