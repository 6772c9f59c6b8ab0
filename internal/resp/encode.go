package resp

import "strconv"

// Kind tags a Reply's wire representation.
type Kind int

const (
	KindSimpleString Kind = iota
	KindInteger
	KindBulkString
	KindNullBulkString
	KindArray
	KindNullArray
	KindError
)

// Reply is a single RESP value destined for the wire. Construct one
// with the matching helper (SimpleString, Integer, BulkString, …)
// rather than the struct literal directly.
type Reply struct {
	Kind  Kind
	Str   string // simple-string payload, or error message (without the leading "-ERR ")
	Int   int64
	Bulk  []byte
	Array []Reply
}

func SimpleString(s string) Reply { return Reply{Kind: KindSimpleString, Str: s} }
func Integer(n int64) Reply       { return Reply{Kind: KindInteger, Int: n} }
func BulkString(b []byte) Reply   { return Reply{Kind: KindBulkString, Bulk: b} }
func NullBulkString() Reply       { return Reply{Kind: KindNullBulkString} }
func Array(items []Reply) Reply   { return Reply{Kind: KindArray, Array: items} }
func NullArray() Reply            { return Reply{Kind: KindNullArray} }

// Error builds an error reply. msg is written verbatim after "-ERR ".
func Error(msg string) Reply { return Reply{Kind: KindError, Str: msg} }

// Encode renders a Reply as RESP wire bytes.
func Encode(r Reply) []byte {
	buf := make([]byte, 0, 32)
	return appendReply(buf, r)
}

func appendReply(buf []byte, r Reply) []byte {
	switch r.Kind {
	case KindSimpleString:
		buf = append(buf, '+')
		buf = append(buf, r.Str...)
		return append(buf, '\r', '\n')
	case KindInteger:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, r.Int, 10)
		return append(buf, '\r', '\n')
	case KindBulkString:
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(r.Bulk)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, r.Bulk...)
		return append(buf, '\r', '\n')
	case KindNullBulkString:
		return append(buf, '$', '-', '1', '\r', '\n')
	case KindArray:
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(r.Array)), 10)
		buf = append(buf, '\r', '\n')
		for _, item := range r.Array {
			buf = appendReply(buf, item)
		}
		return buf
	case KindNullArray:
		return append(buf, '*', '-', '1', '\r', '\n')
	case KindError:
		buf = append(buf, '-', 'E', 'R', 'R', ' ')
		buf = append(buf, r.Str...)
		return append(buf, '\r', '\n')
	default:
		return append(buf, '-', 'E', 'R', 'R', ' ', 'i', 'n', 't', 'e', 'r', 'n', 'a', 'l', '\r', '\n')
	}
}
