// Package resp implements the RESP (REdis Serialization Protocol) wire
// codec: ASCII integer parsing on the way in, reply encoding on the way
// out. Neither side depends on net or any connection state — both are
// pure functions over byte slices.
package resp

import "errors"

// ErrEmpty, ErrSyntax and ErrOverflow are returned by the integer
// parsers below. They are deliberately coarse — callers that need to
// surface a protocol error or a usage error to the client wrap these
// with more context rather than branch on them.
var (
	ErrEmpty    = errors.New("resp: empty integer")
	ErrSyntax   = errors.New("resp: invalid integer syntax")
	ErrOverflow = errors.New("resp: integer overflow")
)

// ParseInt64 parses a base-10 signed 64-bit integer from ASCII bytes.
// No whitespace is tolerated; an optional leading '-' is the only
// allowed non-digit byte, and it must be followed by at least one
// digit.
func ParseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrEmpty
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(b) {
		return 0, ErrSyntax
	}
	var v uint64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, ErrSyntax
		}
		d := uint64(c - '0')
		if v > (maxUint64-d)/10 {
			return 0, ErrOverflow
		}
		v = v*10 + d
	}
	if neg {
		const minMagnitude = uint64(int64Max) + 1
		if v > minMagnitude {
			return 0, ErrOverflow
		}
		if v == minMagnitude {
			return int64Min, nil
		}
		return -int64(v), nil
	}
	if v > uint64(int64Max) {
		return 0, ErrOverflow
	}
	return int64(v), nil
}

// ParseInt32 parses a base-10 signed 32-bit integer, same rules as
// ParseInt64, with narrower overflow bounds.
func ParseInt32(b []byte) (int32, error) {
	v, err := ParseInt64(b)
	if err != nil {
		return 0, err
	}
	if v < int64(int32Min) || v > int64(int32Max) {
		return 0, ErrOverflow
	}
	return int32(v), nil
}

// ParseUint64 parses a base-10 unsigned 64-bit integer. A leading '-'
// is a syntax error, not a valid representation of a negative number.
func ParseUint64(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, ErrEmpty
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrSyntax
		}
		d := uint64(c - '0')
		if v > (maxUint64-d)/10 {
			return 0, ErrOverflow
		}
		v = v*10 + d
	}
	return v, nil
}

// ParseSize parses a base-10 non-negative integer used for bulk-string
// lengths and array term counts, returning it as an int. A negative
// value is never a valid RESP length in this codec's use (unlike real
// Redis, which uses -1 for null arrays/bulk strings at a layer above
// this parser); callers that need to recognize "-1" check for the
// leading byte themselves before calling ParseSize.
func ParseSize(b []byte) (int, error) {
	v, err := ParseUint64(b)
	if err != nil {
		return 0, err
	}
	if v > uint64(maxInt) {
		return 0, ErrOverflow
	}
	return int(v), nil
}

const (
	maxUint64 = ^uint64(0)
	int64Max  = int64(1<<63 - 1)
	int64Min  = -int64Max - 1
	int32Max  = int32(1<<31 - 1)
	int32Min  = -int32Max - 1
	maxInt    = int(^uint(0) >> 1)
)
