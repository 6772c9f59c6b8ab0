package store

import (
	"strconv"
	"time"

	"github.com/IgrisBRC/jedis/internal/resp"
)

// Soul is the in-memory key -> entry map. It is never touched outside
// the Temple actor goroutine that owns it (invariant I5); nothing in
// this file takes a lock because nothing needs one.
type Soul struct {
	data map[string]Entry
}

// NewSoul returns an empty datastore.
func NewSoul() *Soul {
	return &Soul{data: make(map[string]Entry)}
}

var (
	wrongType    = resp.Error("WRONGTYPE Operation against a key holding the wrong kind of value")
	notInteger   = resp.Error("value is not an integer or out of range")
	outOfRange   = resp.Error("index out of range")
)

// lookup returns the live entry for key, deleting it first if it has
// expired — the single realisation of lazy expiry (I2) that every
// command below routes through.
func (s *Soul) lookup(key string, now time.Time) (Entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return Entry{}, false
	}
	if e.expired(now) {
		delete(s.data, key)
		return Entry{}, false
	}
	return e, true
}

// GET
func (s *Soul) Get(key []byte, now time.Time) resp.Reply {
	e, ok := s.lookup(string(key), now)
	if !ok {
		return resp.NullBulkString()
	}
	if e.Value.Kind != KindString {
		return wrongType
	}
	return resp.BulkString(e.Value.Str)
}

// SET key val [EX secs]
func (s *Soul) Set(key, val []byte, exSeconds *int64, now time.Time) resp.Reply {
	k := string(key)
	entry := Entry{Value: newStringValue(append([]byte(nil), val...))}
	if exSeconds != nil {
		entry.HasExpiry = true
		entry.ExpiresAt = now.Add(time.Duration(*exSeconds) * time.Second)
	}
	s.data[k] = entry
	return resp.SimpleString("OK")
}

// DEL key...
func (s *Soul) Del(keys [][]byte, now time.Time) resp.Reply {
	var n int64
	for _, key := range keys {
		if _, ok := s.lookup(string(key), now); ok {
			delete(s.data, string(key))
			n++
		}
	}
	return resp.Integer(n)
}

// EXISTS key...
func (s *Soul) Exists(keys [][]byte, now time.Time) resp.Reply {
	var n int64
	for _, key := range keys {
		if _, ok := s.lookup(string(key), now); ok {
			n++
		}
	}
	return resp.Integer(n)
}

// APPEND key val
func (s *Soul) Append(key, val []byte, now time.Time) resp.Reply {
	k := string(key)
	e, ok := s.lookup(k, now)
	if !ok {
		e = Entry{Value: newStringValue(nil)}
	} else if e.Value.Kind != KindString {
		return wrongType
	}
	e.Value.Str = append(e.Value.Str, val...)
	s.data[k] = e
	return resp.Integer(int64(len(e.Value.Str)))
}

func (s *Soul) incrDecr(key []byte, delta int64, now time.Time) resp.Reply {
	k := string(key)
	existing, ok := s.lookup(k, now)
	var cur int64
	if ok {
		if existing.Value.Kind != KindString {
			return wrongType
		}
		v, err := resp.ParseInt64(existing.Value.Str)
		if err != nil {
			return notInteger
		}
		cur = v
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return notInteger
	}
	updated := Entry{Value: newStringValue([]byte(strconv.FormatInt(next, 10)))}
	if ok {
		updated.HasExpiry = existing.HasExpiry
		updated.ExpiresAt = existing.ExpiresAt
	}
	s.data[k] = updated
	return resp.Integer(next)
}

// INCR key
func (s *Soul) Incr(key []byte, now time.Time) resp.Reply { return s.incrDecr(key, 1, now) }

// DECR key
func (s *Soul) Decr(key []byte, now time.Time) resp.Reply { return s.incrDecr(key, -1, now) }

// STRLEN key
func (s *Soul) Strlen(key []byte, now time.Time) resp.Reply {
	e, ok := s.lookup(string(key), now)
	if !ok {
		return resp.Integer(0)
	}
	if e.Value.Kind != KindString {
		return wrongType
	}
	return resp.Integer(int64(len(e.Value.Str)))
}

// EXPIRE key secs
func (s *Soul) Expire(key []byte, secs int64, now time.Time) resp.Reply {
	k := string(key)
	e, ok := s.lookup(k, now)
	if !ok {
		return resp.Integer(0)
	}
	e.HasExpiry = true
	e.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	s.data[k] = e
	return resp.Integer(1)
}

func (s *Soul) hashFor(key []byte, now time.Time, createIfMissing bool) (Entry, bool, resp.Reply) {
	k := string(key)
	e, ok := s.lookup(k, now)
	if !ok {
		if !createIfMissing {
			return Entry{}, false, nil
		}
		e = Entry{Value: newHashValue()}
		return e, true, nil
	}
	if e.Value.Kind != KindHash {
		return Entry{}, false, wrongType
	}
	return e, true, nil
}

// HSET key (field val)+
func (s *Soul) HSet(key []byte, fieldVals [][]byte, now time.Time) resp.Reply {
	e, _, errReply := s.hashFor(key, now, true)
	if errReply != nil {
		return errReply
	}
	var inserted int64
	for i := 0; i+1 < len(fieldVals); i += 2 {
		field := string(fieldVals[i])
		if _, existed := e.Value.Hash[field]; !existed {
			inserted++
		}
		e.Value.Hash[field] = append([]byte(nil), fieldVals[i+1]...)
	}
	s.data[string(key)] = e
	return resp.Integer(inserted)
}

// HGET key field
func (s *Soul) HGet(key, field []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.hashFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.NullBulkString()
	}
	v, present := e.Value.Hash[string(field)]
	if !present {
		return resp.NullBulkString()
	}
	return resp.BulkString(v)
}

// HMGET key field+
func (s *Soul) HMGet(key []byte, fields [][]byte, now time.Time) resp.Reply {
	e, ok, errReply := s.hashFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.NullArray()
	}
	out := make([]resp.Reply, len(fields))
	for i, f := range fields {
		if v, present := e.Value.Hash[string(f)]; present {
			out[i] = resp.BulkString(v)
		} else {
			out[i] = resp.NullBulkString()
		}
	}
	return resp.Array(out)
}

// HDEL key field+
func (s *Soul) HDel(key []byte, fields [][]byte, now time.Time) resp.Reply {
	e, ok, errReply := s.hashFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Integer(0)
	}
	var n int64
	for _, f := range fields {
		if _, present := e.Value.Hash[string(f)]; present {
			delete(e.Value.Hash, string(f))
			n++
		}
	}
	if len(e.Value.Hash) == 0 {
		delete(s.data, string(key))
	} else {
		s.data[string(key)] = e
	}
	return resp.Integer(n)
}

// HEXISTS key field
func (s *Soul) HExists(key, field []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.hashFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Integer(0)
	}
	if _, present := e.Value.Hash[string(field)]; present {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

// HLEN key
func (s *Soul) HLen(key []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.hashFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(len(e.Value.Hash)))
}

func (s *Soul) listFor(key []byte, now time.Time, createIfMissing bool) (Entry, bool, resp.Reply) {
	k := string(key)
	e, ok := s.lookup(k, now)
	if !ok {
		if !createIfMissing {
			return Entry{}, false, nil
		}
		e = Entry{Value: newListValue()}
		return e, true, nil
	}
	if e.Value.Kind != KindList {
		return Entry{}, false, wrongType
	}
	return e, true, nil
}

// LPUSH key elem+ — each argument, taken left to right, is pushed to
// the front, so the last-processed (rightmost) argument ends up
// closest to the front. See DESIGN.md for the scenario this locks in.
func (s *Soul) LPush(key []byte, elems [][]byte, now time.Time) resp.Reply {
	e, _, errReply := s.listFor(key, now, true)
	if errReply != nil {
		return errReply
	}
	for _, el := range elems {
		e.Value.List.PushFront(append([]byte(nil), el...))
	}
	s.data[string(key)] = e
	return resp.Integer(int64(e.Value.List.Len()))
}

// RPUSH key elem+
func (s *Soul) RPush(key []byte, elems [][]byte, now time.Time) resp.Reply {
	e, _, errReply := s.listFor(key, now, true)
	if errReply != nil {
		return errReply
	}
	for _, el := range elems {
		e.Value.List.PushBack(append([]byte(nil), el...))
	}
	s.data[string(key)] = e
	return resp.Integer(int64(e.Value.List.Len()))
}

func (s *Soul) popN(key []byte, now time.Time, count *int64, front bool) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		if count == nil {
			return resp.NullBulkString()
		}
		return resp.NullArray()
	}

	pop := func() ([]byte, bool) {
		if front {
			return e.Value.List.PopFront()
		}
		return e.Value.List.PopBack()
	}

	var reply resp.Reply
	if count == nil {
		v, popped := pop()
		if !popped {
			reply = resp.NullBulkString()
		} else {
			reply = resp.BulkString(v)
		}
	} else {
		n := *count
		items := make([]resp.Reply, 0, n)
		for i := int64(0); i < n; i++ {
			v, popped := pop()
			if !popped {
				break
			}
			items = append(items, resp.BulkString(v))
		}
		reply = resp.Array(items)
	}

	if e.Value.List.Len() == 0 {
		delete(s.data, string(key))
	} else {
		s.data[string(key)] = e
	}
	return reply
}

// LPOP key [count]
func (s *Soul) LPop(key []byte, count *int64, now time.Time) resp.Reply {
	return s.popN(key, now, count, true)
}

// RPOP key [count]
func (s *Soul) RPop(key []byte, count *int64, now time.Time) resp.Reply {
	return s.popN(key, now, count, false)
}

// LLEN key
func (s *Soul) LLen(key []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(e.Value.List.Len()))
}

// normalizeRange clamps a possibly-negative [start, end] pair against
// a sequence of the given length, per spec.md's LRANGE rule: negative
// indices count from the end, start clamps to 0, end clamps to the
// last valid index.
func normalizeRange(start, end int64, length int) (int, int, bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += int64(length)
	}
	if end < 0 {
		end += int64(length)
	}
	if start < 0 {
		start = 0
	}
	if end > int64(length-1) {
		end = int64(length - 1)
	}
	if start > end || start >= int64(length) {
		return 0, 0, false
	}
	return int(start), int(end), true
}

// LRANGE key start end
func (s *Soul) LRange(key []byte, start, end int64, now time.Time) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Array(nil)
	}
	lo, hi, nonEmpty := normalizeRange(start, end, e.Value.List.Len())
	if !nonEmpty {
		return resp.Array(nil)
	}
	items := e.Value.List.Slice(lo, hi)
	out := make([]resp.Reply, len(items))
	for i, v := range items {
		out[i] = resp.BulkString(v)
	}
	return resp.Array(out)
}

// LINDEX key idx
func (s *Soul) LIndex(key []byte, idx int64, now time.Time) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.NullBulkString()
	}
	n := e.Value.List.Len()
	if idx < 0 {
		idx += int64(n)
	}
	if idx < 0 || idx >= int64(n) {
		return resp.NullBulkString()
	}
	v, _ := e.Value.List.Get(int(idx))
	return resp.BulkString(v)
}

// LSET key idx elem
func (s *Soul) LSet(key []byte, idx int64, elem []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return outOfRange
	}
	n := e.Value.List.Len()
	if idx < 0 {
		idx += int64(n)
	}
	if idx < 0 || idx >= int64(n) {
		return outOfRange
	}
	e.Value.List.Set(int(idx), append([]byte(nil), elem...))
	s.data[string(key)] = e
	return resp.SimpleString("OK")
}

// LREM key count elem
func (s *Soul) LRem(key []byte, count int64, elem []byte, now time.Time) resp.Reply {
	e, ok, errReply := s.listFor(key, now, false)
	if errReply != nil {
		return errReply
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := e.Value.List.RemoveMatches(elem, int(count))
	if e.Value.List.Len() == 0 {
		delete(s.data, string(key))
	} else {
		s.data[string(key)] = e
	}
	return resp.Integer(int64(removed))
}

// Ping is part of Soul's command table (spec.md §4.3) and, like every
// other command, is routed through the Temple actor rather than
// fast-pathed — unlike COMMAND/CONFIG, which never touch Soul at all.
func (s *Soul) Ping() resp.Reply {
	return resp.SimpleString("PONG")
}
