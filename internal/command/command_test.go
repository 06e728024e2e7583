package command

import (
	"fmt"
	"testing"

	"github.com/edirooss/redisd/internal/pubsub"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/txn"
)

// fakeWriter is a minimal in-memory reply.Writer recording each call in
// order, so a test can assert on the exact reply shape without a real
// redcon connection (same approach as internal/reply's own fakeWriter).
type fakeWriter struct {
	ops []string
}

func (f *fakeWriter) WriteError(msg string)       { f.ops = append(f.ops, "err:"+msg) }
func (f *fakeWriter) WriteString(msg string)      { f.ops = append(f.ops, "str:"+msg) }
func (f *fakeWriter) WriteBulk(bulk []byte)       { f.ops = append(f.ops, "bulk:"+string(bulk)) }
func (f *fakeWriter) WriteBulkString(bulk string) { f.ops = append(f.ops, "bulk:"+bulk) }
func (f *fakeWriter) WriteInt(num int)            { f.ops = append(f.ops, fmt.Sprintf("int:%d", num)) }
func (f *fakeWriter) WriteInt64(num int64)        { f.ops = append(f.ops, fmt.Sprintf("int:%d", num)) }
func (f *fakeWriter) WriteArray(count int)        { f.ops = append(f.ops, fmt.Sprintf("array:%d", count)) }
func (f *fakeWriter) WriteNull()                  { f.ops = append(f.ops, "null") }

func (f *fakeWriter) last() string {
	if len(f.ops) == 0 {
		return ""
	}
	return f.ops[len(f.ops)-1]
}

func newTestDispatcher() *Dispatcher {
	tm := txn.NewManager()
	st := store.New(tm)
	ps := pubsub.New()
	return New(st, tm, ps, nil)
}

func bargs(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func TestPing(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("PING"))
	if w.last() != "str:PONG" {
		t.Fatalf("want PONG, got %v", w.ops)
	}
}

func TestSetGet(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("SET", "k", "v"))
	if w.last() != "str:OK" {
		t.Fatalf("want OK, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("GET", "k"))
	if w.last() != "bulk:v" {
		t.Fatalf("want bulk:v, got %v", w.ops)
	}
}

func TestGetMissingKeyIsNull(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("GET", "missing"))
	if w.last() != "null" {
		t.Fatalf("want null, got %v", w.ops)
	}
}

func TestHashRoundTrip(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("HSET", "h", "f", "v"))
	if w.last() != "int:1" {
		t.Fatalf("want 1 new field, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("HGET", "h", "f"))
	if w.last() != "bulk:v" {
		t.Fatalf("want bulk:v, got %v", w.ops)
	}
}

func TestListPushRange(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("RPUSH", "l", "a", "b", "c"))
	if w.last() != "int:3" {
		t.Fatalf("want len 3, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("LRANGE", "l", "0", "-1"))
	if w.ops[0] != "array:3" {
		t.Fatalf("want array:3, got %v", w.ops)
	}
}

func TestSetMembers(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("SADD", "s", "a", "b"))
	if w.last() != "int:2" {
		t.Fatalf("want 2 added, got %v", w.ops)
	}
}

func TestZAddScore(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("ZADD", "z", "1.5", "m"))
	if w.last() != "int:1" {
		t.Fatalf("want 1 added, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("ZSCORE", "z", "m"))
	if w.last() != "bulk:1.5" {
		t.Fatalf("want bulk:1.5, got %v", w.ops)
	}
}

func TestWrongTypeError(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("SET", "k", "v"))
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("LPUSH", "k", "x"))
	if w.last() != "err:WRONGTYPE Operation against a key holding the wrong kind of value" {
		t.Fatalf("want WRONGTYPE error, got %v", w.ops)
	}
}

func TestMultiExecQueuesAndReplays(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("MULTI"))
	if w.last() != "str:OK" {
		t.Fatalf("want OK, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("SET", "k", "v"))
	if w.last() != "str:QUEUED" {
		t.Fatalf("want QUEUED, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("EXEC"))
	if w.ops[0] != "array:1" || w.ops[1] != "str:OK" {
		t.Fatalf("want [array:1 OK], got %v", w.ops)
	}
}

func TestWatchAbortsExec(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("WATCH", "k"))
	d.Txn.NotifyKeyModified("k")
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("MULTI"))
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("SET", "k", "v"))
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("EXEC"))
	if w.last() != "array:-1" {
		t.Fatalf("want null array after aborted WATCH, got %v", w.ops)
	}
}

func TestPublishToSubscriber(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("sub1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("SUBSCRIBE", "ch"))
	if w.ops[0] != "array:3" || w.ops[1] != "bulk:subscribe" {
		t.Fatalf("want subscribe ack, got %v", w.ops)
	}

	pub := &fakeWriter{}
	pubCS := NewConnState("pub1")
	d.Execute(pub, pubCS, bargs("PUBLISH", "ch", "hello"))
	if pub.last() != "int:1" {
		t.Fatalf("want 1 subscriber reached, got %v", pub.ops)
	}

	select {
	case msg := <-cs.Sub.Out():
		if msg.Channel != "ch" || string(msg.Payload) != "hello" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	default:
		t.Fatal("want a queued message for the subscriber")
	}
}

func TestStreamAddLenRange(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("XADD", "st", "*", "field", "value"))
	if w.last() == "" || w.last()[:5] != "bulk:" {
		t.Fatalf("want a bulk id reply, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("XLEN", "st"))
	if w.last() != "int:1" {
		t.Fatalf("want len 1, got %v", w.ops)
	}
}

func TestProbabilisticPFAddCount(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("PFADD", "hll", "a", "b", "c"))
	if w.last() != "int:1" {
		t.Fatalf("want 1 (changed), got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("PFCOUNT", "hll"))
	if w.last() != "int:3" {
		t.Fatalf("want approx count 3, got %v", w.ops)
	}
}

func TestJSONSetGet(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("JSON.SET", "doc", "$", `{"a":1}`))
	if w.last() != "str:OK" {
		t.Fatalf("want OK, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("JSON.GET", "doc"))
	if w.last() != `bulk:{"a":1}` {
		t.Fatalf("want the stored document back, got %v", w.ops)
	}
}

func TestTimeSeriesAddGet(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("TS.ADD", "ts", "1000", "42.5"))
	if w.last() != "int:1000" {
		t.Fatalf("want timestamp echoed back, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("TS.GET", "ts"))
	if w.ops[0] != "array:2" {
		t.Fatalf("want a 2-element sample, got %v", w.ops)
	}
}

func TestVectorSetSim(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("VSET", "vecs", "id1", "VALUES", "1", "0"))
	if w.last() != "str:OK" {
		t.Fatalf("want OK, got %v", w.ops)
	}
	w = &fakeWriter{}
	d.Execute(w, cs, bargs("VSIM", "vecs", "COUNT", "1", "VALUES", "1", "0"))
	if w.ops[0] != "array:2" {
		t.Fatalf("want one id/score pair, got %v", w.ops)
	}
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	cs := NewConnState("c1")
	w := &fakeWriter{}
	d.Execute(w, cs, bargs("NOTACOMMAND"))
	if w.last() != "err:ERR unknown command 'NOTACOMMAND'" {
		t.Fatalf("want unknown command error, got %v", w.ops)
	}
}
