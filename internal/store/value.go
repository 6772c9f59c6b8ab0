package store

import "time"

// Kind tags the variant a Value currently holds. A live entry's kind
// never changes except by DEL + re-SET/LPUSH/etc — there is no
// promotion between kinds (invariant I3 in the specification this
// package implements).
type Kind int

const (
	KindString Kind = iota
	KindList
	KindHash
	KindSet
)

// Value is the tagged union Soul stores per key: a byte-string, an
// ordered double-ended sequence of byte-strings, a field->byte-string
// map, or a set of byte-strings.
type Value struct {
	Kind Kind
	Str  []byte
	List *Deque
	Hash map[string][]byte
	Set  map[string]struct{}
}

func newStringValue(b []byte) Value { return Value{Kind: KindString, Str: b} }
func newListValue() Value           { return Value{Kind: KindList, List: NewDeque()} }
func newHashValue() Value           { return Value{Kind: KindHash, Hash: make(map[string][]byte)} }
func newSetValue() Value            { return Value{Kind: KindSet, Set: make(map[string]struct{})} }

// Entry pairs a Value with its optional absolute expiration instant.
type Entry struct {
	Value     Value
	ExpiresAt time.Time
	HasExpiry bool
}

// expired reports whether the entry's expiry is at or before now —
// the "<=" in invariant I2.
func (e Entry) expired(now time.Time) bool {
	return e.HasExpiry && !e.ExpiresAt.After(now)
}
