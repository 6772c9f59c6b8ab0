// Package command implements Grant, the dispatcher that turns a
// parsed RESP command (a slice of byte-string terms) into a Wish
// submitted to the store actor, or — for arity failures, unknown
// commands, and the COMMAND/CONFIG stubs — a Decree delivered
// directly without ever touching the store.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/IgrisBRC/jedis/internal/resp"
	"github.com/IgrisBRC/jedis/internal/store"
)

// Observer receives one notification per command Dispatch resolves,
// whether the reply came from Temple or was delivered immediately. A
// narrow, package-local interface rather than an import of the root
// package's Observer: jedis.MetricsObserver satisfies this
// structurally, with no import cycle back through serverctl.
type Observer interface {
	ObserveCommand(latencyNs uint64, success bool)
}

type noopObserver struct{}

func (noopObserver) ObserveCommand(uint64, bool) {}

// Grant dispatches parsed commands against one Temple.
type Grant struct {
	temple *store.Temple
	obs    Observer
}

// New returns a Grant bound to temple.
func New(temple *store.Temple) *Grant {
	return &Grant{temple: temple, obs: noopObserver{}}
}

// WithObserver attaches obs to g, replacing the no-op default, and
// returns g for chaining at construction time.
func (g *Grant) WithObserver(obs Observer) *Grant {
	if obs != nil {
		g.obs = obs
	}
	return g
}

// Dispatch handles one complete command parsed off the wire. token and
// replyTo identify the connection and its Egress-bound reply channel;
// now is the admission timestamp captured by the caller, propagated to
// the store so every expiry comparison inside this command is
// deterministic relative to when the command was accepted.
func (g *Grant) Dispatch(token uint64, terms [][]byte, replyTo chan<- store.Decree, now time.Time) {
	name := strings.ToUpper(string(terms[0]))
	args := terms[1:]

	// COMMAND/CONFIG never touch the store (spec.md §4.5).
	if name == "COMMAND" || name == "CONFIG" {
		g.obs.ObserveCommand(0, true)
		replyTo <- store.Deliver(token, resp.SimpleString("OK"))
		return
	}

	exec, immediate, ok := build(name, args)
	if !ok {
		g.obs.ObserveCommand(0, false)
		replyTo <- store.Deliver(token, resp.Error(fmt.Sprintf("unknown command '%s'", terms[0])))
		return
	}
	if immediate != nil {
		g.obs.ObserveCommand(0, false)
		replyTo <- store.Deliver(token, *immediate)
		return
	}

	g.temple.Submit(store.Wish{
		Token:   token,
		Now:     now,
		ReplyTo: replyTo,
		Exec:    g.timed(exec),
	})
}

// timed wraps exec so its wall-clock execution time inside Temple is
// reported to the observer alongside whether it produced an error
// reply, without Temple itself needing to know anything about metrics.
func (g *Grant) timed(exec execFn) execFn {
	return func(s *store.Soul, now time.Time) resp.Reply {
		start := time.Now()
		r := exec(s, now)
		g.obs.ObserveCommand(uint64(time.Since(start).Nanoseconds()), r.Kind != resp.KindError)
		return r
	}
}

type execFn = func(s *store.Soul, now time.Time) resp.Reply

func arityError(name string) resp.Reply {
	return resp.Error(fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// build returns, for a known command name: an Exec closure to submit
// to the store (exec != nil), OR an immediate reply that never
// touches the store (immediate != nil, for arity/usage failures
// detected before dispatch), OR ok=false if the name is unrecognized.
func build(name string, args [][]byte) (exec execFn, immediate *resp.Reply, ok bool) {
	reply := func(r resp.Reply) (execFn, *resp.Reply, bool) { return nil, &r, true }
	run := func(f execFn) (execFn, *resp.Reply, bool) { return f, nil, true }

	switch name {
	case "PING":
		if len(args) != 0 {
			return reply(arityError(name))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Ping() })

	case "GET":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Get(key, now) })

	case "SET":
		if len(args) != 2 && len(args) != 4 {
			return reply(arityError(name))
		}
		key, val := args[0], args[1]
		var exSeconds *int64
		if len(args) == 4 {
			if !strings.EqualFold(string(args[2]), "EX") {
				return reply(resp.Error("syntax error"))
			}
			secs, err := resp.ParseInt64(args[3])
			if err != nil || secs <= 0 {
				return reply(resp.Error("invalid expire time in 'set' command"))
			}
			exSeconds = &secs
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply {
			return s.Set(key, val, exSeconds, now)
		})

	case "DEL":
		if len(args) < 1 {
			return reply(arityError(name))
		}
		keys := args
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Del(keys, now) })

	case "EXISTS":
		if len(args) < 1 {
			return reply(arityError(name))
		}
		keys := args
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Exists(keys, now) })

	case "APPEND":
		if len(args) != 2 {
			return reply(arityError(name))
		}
		key, val := args[0], args[1]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Append(key, val, now) })

	case "INCR":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Incr(key, now) })

	case "DECR":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Decr(key, now) })

	case "STRLEN":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Strlen(key, now) })

	case "EXPIRE":
		if len(args) != 2 {
			return reply(arityError(name))
		}
		key := args[0]
		secs, err := resp.ParseInt64(args[1])
		if err != nil {
			return reply(resp.Error("value is not an integer or out of range"))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.Expire(key, secs, now) })

	case "HSET":
		if len(args) < 3 || (len(args)-1)%2 != 0 {
			return reply(arityError(name))
		}
		key, pairs := args[0], args[1:]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HSet(key, pairs, now) })

	case "HGET":
		if len(args) != 2 {
			return reply(arityError(name))
		}
		key, field := args[0], args[1]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HGet(key, field, now) })

	case "HMGET":
		if len(args) < 2 {
			return reply(arityError(name))
		}
		key, fields := args[0], args[1:]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HMGet(key, fields, now) })

	case "HDEL":
		if len(args) < 2 {
			return reply(arityError(name))
		}
		key, fields := args[0], args[1:]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HDel(key, fields, now) })

	case "HEXISTS":
		if len(args) != 2 {
			return reply(arityError(name))
		}
		key, field := args[0], args[1]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HExists(key, field, now) })

	case "HLEN":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.HLen(key, now) })

	case "LPUSH":
		if len(args) < 2 {
			return reply(arityError(name))
		}
		key, elems := args[0], args[1:]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LPush(key, elems, now) })

	case "RPUSH":
		if len(args) < 2 {
			return reply(arityError(name))
		}
		key, elems := args[0], args[1:]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.RPush(key, elems, now) })

	case "LPOP", "RPOP":
		if len(args) < 1 || len(args) > 2 {
			return reply(arityError(name))
		}
		key := args[0]
		var count *int64
		if len(args) == 2 {
			n, err := resp.ParseInt64(args[1])
			if err != nil || n < 0 {
				return reply(resp.Error("value is not an integer or out of range"))
			}
			count = &n
		}
		if name == "LPOP" {
			return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LPop(key, count, now) })
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.RPop(key, count, now) })

	case "LLEN":
		if len(args) != 1 {
			return reply(arityError(name))
		}
		key := args[0]
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LLen(key, now) })

	case "LRANGE":
		if len(args) != 3 {
			return reply(arityError(name))
		}
		key := args[0]
		start, err1 := resp.ParseInt64(args[1])
		end, err2 := resp.ParseInt64(args[2])
		if err1 != nil || err2 != nil {
			return reply(resp.Error("value is not an integer or out of range"))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LRange(key, start, end, now) })

	case "LINDEX":
		if len(args) != 2 {
			return reply(arityError(name))
		}
		key := args[0]
		idx, err := resp.ParseInt64(args[1])
		if err != nil {
			return reply(resp.Error("value is not an integer or out of range"))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LIndex(key, idx, now) })

	case "LSET":
		if len(args) != 3 {
			return reply(arityError(name))
		}
		key, elem := args[0], args[2]
		idx, err := resp.ParseInt64(args[1])
		if err != nil {
			return reply(resp.Error("value is not an integer or out of range"))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LSet(key, idx, elem, now) })

	case "LREM":
		if len(args) != 3 {
			return reply(arityError(name))
		}
		key, elem := args[0], args[2]
		count, err := resp.ParseInt64(args[1])
		if err != nil {
			return reply(resp.Error("value is not an integer or out of range"))
		}
		return run(func(s *store.Soul, now time.Time) resp.Reply { return s.LRem(key, count, elem, now) })
	}

	return nil, nil, false
}
