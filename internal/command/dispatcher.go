// Package command implements the Command Dispatcher component (spec
// §4.5): RESP array decoding is assumed to already have happened (redcon
// hands us [][]byte argument vectors), so this package owns uppercasing,
// transaction queueing, routing to the store/engines, and reply
// encoding via the reply package.
package command

import (
	"bytes"
	"strings"

	"github.com/edirooss/redisd/internal/pubsub"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/txn"
	"go.uber.org/zap"
)

// ConnState is one connection's dispatcher-visible state: its
// transaction bookkeeping, its pub/sub subscription (lazily created on
// first SUBSCRIBE/PSUBSCRIBE), and small client-metadata fields CLIENT
// SETNAME/GETNAME round-trip.
type ConnState struct {
	ID         string
	Txn        *txn.State
	Sub        *pubsub.Subscription
	ClientName string
}

// NewConnState constructs a fresh per-connection state.
func NewConnState(id string) *ConnState {
	return &ConnState{ID: id, Txn: txn.NewState()}
}

// Dispatcher wires the Value Store, Transaction Manager, and Pub/Sub
// Registry into one request handler. One Dispatcher is shared by every
// connection; all per-connection state lives in ConnState.
type Dispatcher struct {
	Store  *store.Store
	Txn    *txn.Manager
	PubSub *pubsub.Registry
	Log    *zap.Logger
}

// New constructs a Dispatcher over the given components.
func New(st *store.Store, tm *txn.Manager, ps *pubsub.Registry, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Store: st, Txn: tm, PubSub: ps, Log: log.Named("dispatch")}
}

// controlCommands bypass MULTI's queueing entirely — they manage
// transaction state itself rather than being subject to it (spec §4.2,
// §4.5).
var controlCommands = map[string]bool{
	"MULTI":   true,
	"EXEC":    true,
	"DISCARD": true,
	"WATCH":   true,
	"UNWATCH": true,
}

// upperASCII returns an uppercased copy using byte-wise ASCII case folding only
// (spec §4.5: "upper-cased byte-wise in ASCII"), not strings.ToUpper's
// locale-aware Unicode folding.
func upperASCII(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// ParseInline splits an inline-protocol command line on single spaces,
// discarding empty tokens, into bulk-string-equivalent arguments (spec
// §4.5).
func ParseInline(line []byte) [][]byte {
	fields := bytes.Fields(line)
	return fields
}

// Execute runs one decoded command for connection cs, writing its reply
// to w. args[0] is the command name; args[1:] are its arguments.
func (d *Dispatcher) Execute(w reply.Writer, cs *ConnState, args [][]byte) {
	if len(args) == 0 {
		w.WriteError("ERR empty command")
		return
	}
	name := upperASCII(args[0])
	rest := args[1:]

	if cs.Txn.InTransaction && !controlCommands[name] {
		cs.Txn.Enqueue(append([][]byte{args[0]}, rest...))
		w.WriteString("QUEUED")
		return
	}

	d.dispatch(w, cs, name, rest)
}

// executeQueued replays one previously queued raw command during EXEC,
// using the same dispatch table as a live command (spec §4.2: queued
// commands are replayed unparsed).
func (d *Dispatcher) executeQueued(w reply.Writer, cs *ConnState, raw txn.RawCommand) {
	if len(raw) == 0 {
		w.WriteError("ERR empty command")
		return
	}
	d.dispatch(w, cs, upperASCII(raw[0]), raw[1:])
}

// dispatch routes name to its handler, recovering from any handler panic
// into the spec §7 catch-all reply rather than taking the connection
// down.
func (d *Dispatcher) dispatch(w reply.Writer, cs *ConnState, name string, args [][]byte) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error("handler panic", zap.String("cmd", name), zap.Any("recover", r))
			reply.Internal(w)
		}
	}()

	switch {
	case isStreamCommand(name):
		d.dispatchStream(w, cs, name, args)
		return
	case strings.HasPrefix(name, "BF."):
		d.dispatchBloom(w, name, args)
		return
	case strings.HasPrefix(name, "CF."):
		d.dispatchCuckoo(w, name, args)
		return
	case strings.HasPrefix(name, "TDIGEST."):
		d.dispatchTDigest(w, name, args)
		return
	case strings.HasPrefix(name, "TOPK."):
		d.dispatchTopK(w, name, args)
		return
	case strings.HasPrefix(name, "TS."):
		d.dispatchTimeSeries(w, name, args)
		return
	case strings.HasPrefix(name, "JSON."):
		d.dispatchJSON(w, name, args)
		return
	}

	switch name {
	// Generic / connection
	case "PING":
		cmdPing(w, args)
	case "ECHO":
		cmdEcho(w, args)
	case "SELECT":
		cmdSelect(w, args)
	case "INFO":
		cmdInfo(w, d, args)
	case "CONFIG":
		cmdConfig(w, args)
	case "CLIENT":
		cmdClient(w, cs, args)
	case "COMMAND":
		cmdCommand(w, args)
	case "READONLY", "READWRITE":
		reply.OK(w)
	case "TYPE":
		cmdType(w, d, args)
	case "OBJECT":
		cmdObject(w, d, args)
	case "DBSIZE":
		w.WriteInt(d.Store.DBSize())
	case "FLUSHALL", "FLUSHDB":
		d.Store.FlushAll()
		reply.OK(w)
	case "RESET":
		cmdReset(w, d, cs)
	case "KEYS":
		cmdKeys(w, d, args)
	case "DEL", "UNLINK":
		cmdDel(w, d, args)
	case "EXISTS":
		cmdExists(w, d, args)
	case "EXPIRE":
		cmdExpire(w, d, args)
	case "PEXPIRE":
		cmdPExpire(w, d, args)
	case "PERSIST":
		cmdPersist(w, d, args)
	case "TTL":
		cmdTTL(w, d, args)
	case "PTTL":
		cmdPTTL(w, d, args)

	// Strings
	case "GET":
		cmdGet(w, d, args)
	case "SET":
		cmdSet(w, d, args)
	case "MGET":
		cmdMGet(w, d, args)
	case "MSET":
		cmdMSet(w, d, args)
	case "INCR":
		cmdIncrBy(w, d, args, "INCR", 1)
	case "DECR":
		cmdIncrBy(w, d, args, "DECR", -1)
	case "INCRBY":
		cmdIncrByArg(w, d, args, "INCRBY", 1)
	case "DECRBY":
		cmdIncrByArg(w, d, args, "DECRBY", -1)

	// Bitmaps
	case "GETBIT":
		cmdGetBit(w, d, args)
	case "SETBIT":
		cmdSetBit(w, d, args)
	case "BITCOUNT":
		cmdBitCount(w, d, args)
	case "BITOP":
		cmdBitOp(w, d, args)
	case "BITPOS":
		cmdBitPos(w, d, args)
	case "BITFIELD":
		cmdBitField(w, d, args)

	// Hash
	case "HSET":
		cmdHSet(w, d, args)
	case "HGET":
		cmdHGet(w, d, args)
	case "HDEL":
		cmdHDel(w, d, args)
	case "HGETALL":
		cmdHGetAll(w, d, args)
	case "HLEN":
		cmdHLen(w, d, args)

	// List
	case "LPUSH":
		cmdPush(w, d, args, "LPUSH", true)
	case "RPUSH":
		cmdPush(w, d, args, "RPUSH", false)
	case "LPOP":
		cmdPop(w, d, args, "LPOP", true)
	case "RPOP":
		cmdPop(w, d, args, "RPOP", false)
	case "LRANGE":
		cmdLRange(w, d, args)
	case "LLEN":
		cmdLLen(w, d, args)
	case "LINDEX":
		cmdLIndex(w, d, args)
	case "LSET":
		cmdLSet(w, d, args)
	case "LTRIM":
		cmdLTrim(w, d, args)

	// Set
	case "SADD":
		cmdSAdd(w, d, args)
	case "SREM":
		cmdSRem(w, d, args)
	case "SMEMBERS":
		cmdSMembers(w, d, args)
	case "SCARD":
		cmdSCard(w, d, args)

	// Sorted set
	case "ZADD":
		cmdZAdd(w, d, args)
	case "ZREM":
		cmdZRem(w, d, args)
	case "ZRANGE":
		cmdZRange(w, d, args)
	case "ZCARD":
		cmdZCard(w, d, args)
	case "ZSCORE":
		cmdZScore(w, d, args)
	case "ZRANGEBYSCORE":
		cmdZRangeByScore(w, d, args)
	case "ZINCRBY":
		cmdZIncrBy(w, d, args)
	case "ZCOUNT":
		cmdZCount(w, d, args)
	case "ZRANK":
		cmdZRank(w, d, args, false)
	case "ZREVRANK":
		cmdZRank(w, d, args, true)
	case "ZREMRANGEBYSCORE":
		cmdZRemRangeByScore(w, d, args)

	// Pub/Sub
	case "PUBLISH":
		cmdPublish(w, d, args)
	case "SUBSCRIBE":
		cmdSubscribe(w, d, cs, args)
	case "UNSUBSCRIBE":
		cmdUnsubscribe(w, d, cs, args)
	case "PSUBSCRIBE":
		cmdPSubscribe(w, d, cs, args)
	case "PUNSUBSCRIBE":
		cmdPUnsubscribe(w, d, cs, args)

	// Transactions
	case "MULTI":
		cmdMulti(w, cs)
	case "EXEC":
		d.cmdExec(w, cs)
	case "DISCARD":
		cmdDiscard(w, cs)
	case "WATCH":
		d.cmdWatch(w, cs, args)
	case "UNWATCH":
		cmdUnwatch(w, d, cs)

	// Opaque pass-through families handled above by prefix, plus PF*
	// which has no "." separator.
	case "PFADD", "PFCOUNT", "PFMERGE":
		d.dispatchHLL(w, name, args)
	case "VSET", "VGET", "VDIM", "VDEL", "VSIM", "VSEARCH":
		d.dispatchVector(w, name, args)

	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func isStreamCommand(name string) bool {
	switch name {
	case "XADD", "XDEL", "XLEN", "XTRIM", "XREAD", "XRANGE", "XREVRANGE",
		"XSETID", "XGROUP", "XREADGROUP", "XACK", "XPENDING", "XCLAIM", "XINFO":
		return true
	}
	return false
}
