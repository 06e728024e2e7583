package store

import (
	"testing"

	"github.com/edirooss/redisd/internal/cmderr"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New(nil)
	ok, err := s.Set("k", []byte("v"), SetOpts{})
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	v, exists, err := s.Get("k")
	if err != nil || !exists || string(v) != "v" {
		t.Fatalf("Get: v=%q exists=%v err=%v", v, exists, err)
	}
}

func TestSetConditionNX(t *testing.T) {
	s := New(nil)
	ok, _ := s.Set("k", []byte("v1"), SetOpts{Cond: CondOnlyIfAbsent})
	if !ok {
		t.Fatal("want first NX SET to succeed")
	}
	ok, _ = s.Set("k", []byte("v2"), SetOpts{Cond: CondOnlyIfAbsent})
	if ok {
		t.Fatal("want second NX SET to fail, key already exists")
	}
	v, _, _ := s.Get("k")
	if string(v) != "v1" {
		t.Fatalf("want value unchanged by blocked NX SET, got %q", v)
	}
}

func TestWrongTypeGuard(t *testing.T) {
	s := New(nil)
	if _, err := s.HSet("k", map[string][]byte{"f": []byte("v")}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if _, _, err := s.Get("k"); err != cmderr.WrongType {
		t.Fatalf("want WRONGTYPE reading a hash as a string, got %v", err)
	}
}

func TestDelRemovesKeys(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("a", []byte("1"), SetOpts{})
	_, _ = s.Set("b", []byte("2"), SetOpts{})
	n := s.Del([]string{"a", "b", "missing"})
	if n != 2 {
		t.Fatalf("want 2 deleted, got %d", n)
	}
	if s.Exists([]string{"a", "b"}) != 0 {
		t.Fatal("want both keys gone")
	}
}

func TestExpireAndTTL(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("k", []byte("v"), SetOpts{})
	if !s.Expire("k", 100) {
		t.Fatal("want EXPIRE to succeed on existing key")
	}
	ttl := s.TTL("k")
	if ttl <= 0 || ttl > 100 {
		t.Fatalf("want TTL in (0,100], got %d", ttl)
	}
}

func TestPersistClearsTTL(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("k", []byte("v"), SetOpts{})
	s.Expire("k", 100)
	if !s.Persist("k") {
		t.Fatal("want PERSIST to succeed on a key with a TTL")
	}
	if s.TTL("k") != -1 {
		t.Fatalf("want TTL -1 after PERSIST, got %d", s.TTL("k"))
	}
}

func TestExpiredKeyIsGone(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("k", []byte("v"), SetOpts{})
	s.Expire("k", -1) // already in the past
	if _, exists, _ := s.Get("k"); exists {
		t.Fatal("want expired key to read as absent")
	}
}

func TestTypeReportsTag(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("str", []byte("v"), SetOpts{})
	_, _ = s.SAdd("set", [][]byte{[]byte("m")})
	if tag, _ := s.Type("str"); tag != "string" {
		t.Fatalf("want string, got %s", tag)
	}
	if tag, _ := s.Type("set"); tag != "set" {
		t.Fatalf("want set, got %s", tag)
	}
}

func TestFlushAllClearsEverything(t *testing.T) {
	s := New(nil)
	_, _ = s.Set("a", []byte("1"), SetOpts{})
	_, _ = s.Set("b", []byte("2"), SetOpts{})
	s.FlushAll()
	if s.DBSize() != 0 {
		t.Fatalf("want empty keyspace after FLUSHALL, got %d", s.DBSize())
	}
}

func TestListPushPopOrdering(t *testing.T) {
	s := New(nil)
	_, _ = s.RPush("l", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	v, ok, err := s.LPop("l")
	if err != nil || !ok || string(v) != "a" {
		t.Fatalf("want LPOP a, got v=%q ok=%v err=%v", v, ok, err)
	}
	rng, err := s.LRange("l", 0, -1)
	if err != nil || len(rng) != 2 || string(rng[0]) != "b" || string(rng[1]) != "c" {
		t.Fatalf("unexpected remaining list: %v, err=%v", rng, err)
	}
}

func TestZAddAndRangeOrdersByScore(t *testing.T) {
	s := New(nil)
	_, _ = s.ZAdd("z", map[string]float64{"a": 3, "b": 1, "c": 2})
	rng, err := s.ZRange("z", 0, -1)
	if err != nil || len(rng) != 3 {
		t.Fatalf("ZRange: %v, err=%v", rng, err)
	}
	if rng[0].Member != "b" || rng[1].Member != "c" || rng[2].Member != "a" {
		t.Fatalf("want score-ascending b,c,a; got %+v", rng)
	}
}

func TestBitSetAndCount(t *testing.T) {
	s := New(nil)
	if _, err := s.SetBit("bm", 7, 1); err != nil {
		t.Fatalf("SetBit: %v", err)
	}
	v, err := s.GetBit("bm", 7)
	if err != nil || v != 1 {
		t.Fatalf("GetBit: v=%d err=%v", v, err)
	}
	cnt, err := s.BitCount("bm", false, 0, 0)
	if err != nil || cnt != 1 {
		t.Fatalf("BitCount: cnt=%d err=%v", cnt, err)
	}
}

func TestWatchNotifierFiresOnMutation(t *testing.T) {
	notified := make([]string, 0, 4)
	s := New(notifierFunc(func(key string) { notified = append(notified, key) }))
	_, _ = s.Set("k", []byte("v"), SetOpts{})
	if len(notified) != 1 || notified[0] != "k" {
		t.Fatalf("want one notification for k, got %v", notified)
	}
}

type notifierFunc func(key string)

func (f notifierFunc) NotifyKeyModified(key string) { f(key) }
