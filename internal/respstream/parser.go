// Package respstream implements the resumable per-connection RESP
// request parser: a state machine that consumes arbitrary byte
// fragments from a nonblocking socket read and emits complete commands
// (arrays of bulk strings) as they become available, suspending
// cleanly whenever a read ends mid-command.
package respstream

import (
	"bytes"
	"errors"

	"github.com/IgrisBRC/jedis/internal/resp"
)

// Phase is the parser's state, named to mirror the five-state table
// this package implements: an idle scan for the next array marker, the
// term-count header, the per-term bulk-string marker and length, and
// the bulk-string body itself.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingTermCount
	PhaseGraspingMarker
	PhaseAwaitingBulkStringLength
	PhaseAwaitingBulkString
)

// ErrProtocol marks a non-recoverable framing violation; the
// connection that produced it must be closed.
var ErrProtocol = errors.New("respstream: protocol error")

// Parser holds one connection's resumable parse state. It is not
// safe for concurrent use — the reactor's lease discipline guarantees
// at most one worker ever touches a given Parser at a time.
type Parser struct {
	backlog       []byte
	terms         [][]byte
	expectedTerms int
	phase         Phase
	bulkLen       int
}

// New returns a fresh parser in the Idle phase.
func New() *Parser {
	return &Parser{phase: PhaseIdle}
}

// Feed appends newly read bytes to the backlog and advances the state
// machine as far as it will go, returning every command (a slice of
// byte-string terms) completed along the way. On a protocol error the
// commands successfully completed before the error are still returned,
// together with ErrProtocol; the caller must treat the connection as
// closed regardless of how many commands came back.
func (p *Parser) Feed(data []byte) ([][][]byte, error) {
	p.backlog = append(p.backlog, data...)

	var commands [][][]byte
	for {
		advanced, command, err := p.step()
		if err != nil {
			return commands, err
		}
		if command != nil {
			commands = append(commands, command)
		}
		if !advanced {
			return commands, nil
		}
	}
}

// step attempts one state transition. It returns advanced=false when
// the backlog does not yet hold enough bytes to make progress, in
// which case the caller should stop and wait for more data.
func (p *Parser) step() (advanced bool, command [][]byte, err error) {
	switch p.phase {
	case PhaseIdle:
		if len(p.backlog) == 0 {
			return false, nil, nil
		}
		b := p.backlog[0]
		p.backlog = p.backlog[1:]
		if b == '*' {
			p.phase = PhaseAwaitingTermCount
		}
		return true, nil, nil

	case PhaseAwaitingTermCount:
		idx := bytes.Index(p.backlog, crlf)
		if idx < 0 {
			return false, nil, nil
		}
		n, perr := resp.ParseSize(p.backlog[:idx])
		p.backlog = p.backlog[idx+2:]
		if perr != nil || n == 0 {
			return false, nil, ErrProtocol
		}
		p.expectedTerms = n
		p.terms = make([][]byte, 0, n)
		p.phase = PhaseGraspingMarker
		return true, nil, nil

	case PhaseGraspingMarker:
		if len(p.backlog) == 0 {
			return false, nil, nil
		}
		b := p.backlog[0]
		if b != '$' {
			return false, nil, ErrProtocol
		}
		p.backlog = p.backlog[1:]
		p.phase = PhaseAwaitingBulkStringLength
		return true, nil, nil

	case PhaseAwaitingBulkStringLength:
		idx := bytes.Index(p.backlog, crlf)
		if idx < 0 {
			return false, nil, nil
		}
		l, perr := resp.ParseSize(p.backlog[:idx])
		p.backlog = p.backlog[idx+2:]
		if perr != nil {
			return false, nil, ErrProtocol
		}
		p.bulkLen = l
		p.phase = PhaseAwaitingBulkString
		return true, nil, nil

	case PhaseAwaitingBulkString:
		need := p.bulkLen + 2
		if len(p.backlog) < need {
			return false, nil, nil
		}
		if p.backlog[p.bulkLen] != '\r' || p.backlog[p.bulkLen+1] != '\n' {
			return false, nil, ErrProtocol
		}
		term := make([]byte, p.bulkLen)
		copy(term, p.backlog[:p.bulkLen])
		p.backlog = p.backlog[need:]
		p.terms = append(p.terms, term)

		if len(p.terms) == p.expectedTerms {
			done := p.terms
			p.terms = nil
			p.phase = PhaseIdle
			return true, done, nil
		}
		p.phase = PhaseGraspingMarker
		return true, nil, nil
	}
	return false, nil, nil
}

var crlf = []byte{'\r', '\n'}
