// Package jedis is a RESP-speaking in-memory key/value server: an
// epoll-driven reactor (internal/reactor) hands parsed commands to a
// worker pool (internal/worker), which dispatches them
// (internal/command) as Wishes to a single-owner store actor
// (internal/store); replies flow back out through a dedicated writer
// goroutine (internal/writer).
package jedis

import (
	"errors"
	"fmt"
)

// Kind categorizes a *Error the way the teacher's UblkErrorCode
// categorizes a device error, trading ublk's kernel-facing categories
// (device busy, kernel unsupported, ...) for the ones a RESP server's
// own request path can actually produce.
type Kind string

const (
	KindProtocol   Kind = "protocol error"
	KindDisconnect Kind = "client disconnected"
	KindArity      Kind = "wrong number of arguments"
	KindUsage      Kind = "invalid argument"
	KindUnknown    Kind = "unknown command"
	KindInternal   Kind = "internal error"
)

// Error is a structured server error with enough context to log
// usefully and enough structure for callers to branch on with
// errors.As, grounded on the teacher's errors.go *Error type (Op/Code/
// Inner), trimmed of the device/queue/errno fields that had no
// equivalent here.
type Error struct {
	Op    string // operation that failed, e.g. "dispatch", "parse"
	Token uint64 // connection token, 0 if not applicable
	Kind  Kind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		if e.Token != 0 {
			return fmt.Sprintf("jedis: %s: %s (token=%d)", e.Op, msg, e.Token)
		}
		return fmt.Sprintf("jedis: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("jedis: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// NewError constructs a structured error of the given kind.
func NewError(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// NewConnError is NewError with a connection token attached, for
// errors raised while servicing one particular client.
func NewConnError(op string, token uint64, kind Kind, msg string) *Error {
	return &Error{Op: op, Token: token, Kind: kind, Msg: msg}
}

// WrapError wraps inner under op, preserving Kind/Token if inner is
// already a *Error.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ie, ok := inner.(*Error); ok {
		return &Error{Op: op, Token: ie.Token, Kind: ie.Kind, Msg: ie.Msg, Inner: ie.Inner}
	}
	return &Error{Op: op, Kind: KindInternal, Msg: inner.Error(), Inner: inner}
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
