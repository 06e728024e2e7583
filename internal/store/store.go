// Package store implements the Value Store component (spec §4.1): a
// concurrency-safe map from byte-string keys to typed values with per-key
// TTL, the WRONGTYPE guard, and the typed call surface for every data
// family. It is the single authority for key state; every other engine
// (streams, probabilistic structures, vectors, time series, JSON) stores its
// payload through the generic engine-slot API here so that key creation,
// deletion, TTL, and the WATCH notification hook stay uniform across types.
package store

import (
	"sync"
	"time"
)

// Notifier receives a callback for every key touched by a mutating command,
// so the Transaction Manager (spec §4.2) can flip WATCH invalidation flags.
type Notifier interface {
	NotifyKeyModified(key string)
}

type noopNotifier struct{}

func (noopNotifier) NotifyKeyModified(string) {}

// Now returns the current time; a package-level var so tests can stub it.
var Now = time.Now

func nowMs() int64 { return Now().UnixMilli() }

// Store is the process-wide keyspace. A single RWMutex serializes writers
// and lets concurrent readers proceed; the spec only requires per-key
// linearizability, not cross-key atomicity outside MULTI/EXEC, so one lock
// is both correct and simplest (spec §9 Design Notes).
type Store struct {
	mu       sync.RWMutex
	data     map[string]*object
	notifier Notifier
}

// New constructs an empty Store. Pass a Notifier to wire WATCH invalidation;
// nil installs a no-op (useful for engine unit tests run in isolation).
func New(notifier Notifier) *Store {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Store{data: make(map[string]*object), notifier: notifier}
}

func (s *Store) notify(key string) { s.notifier.NotifyKeyModified(key) }

// lookupLocked returns the live object for key, or nil if it is absent or
// its TTL has passed. Caller must hold at least a read lock. An expired
// object is not removed here; expireIfNeeded does that before the lock is
// taken.
func (s *Store) lookupLocked(key string) *object {
	o, ok := s.data[key]
	if !ok {
		return nil
	}
	if o.expired(nowMs()) {
		return nil
	}
	return o
}

// expireIfNeeded removes key from the map if its TTL has passed. Call with
// no lock held; it takes its own write lock only when deletion is needed.
func (s *Store) expireIfNeeded(key string) {
	s.mu.RLock()
	o, ok := s.data[key]
	expired := ok && o.expired(nowMs())
	s.mu.RUnlock()
	if !expired {
		return
	}
	s.mu.Lock()
	if o2, ok := s.data[key]; ok && o2 == o && o2.expired(nowMs()) {
		delete(s.data, key)
	}
	s.mu.Unlock()
}

// deleteIfEmptyLocked removes key from the map when its container value is
// now empty, per spec §3 Invariants ("deleting the last element ... removes
// the key"). Caller holds the write lock.
func (s *Store) deleteIfEmptyLocked(key string, o *object) {
	empty := false
	switch o.tag {
	case TagList:
		empty = o.list == nil || o.list.len() == 0
	case TagHash:
		empty = len(o.hash) == 0
	case TagSet:
		empty = len(o.set) == 0
	case TagSortedSet:
		empty = o.zset == nil || len(o.zset.byMember) == 0
	}
	if empty {
		delete(s.data, key)
	}
}

// Del removes keys, returning the count actually present and removed.
func (s *Store) Del(keys []string) int {
	for _, k := range keys {
		s.expireIfNeeded(k)
	}
	s.mu.Lock()
	n := 0
	for _, k := range keys {
		if o, ok := s.data[k]; ok && !o.expired(nowMs()) {
			delete(s.data, k)
			n++
		}
	}
	s.mu.Unlock()
	for _, k := range keys {
		s.notify(k)
	}
	return n
}

// Exists returns the total number of keys present, counting duplicates.
func (s *Store) Exists(keys []string) int {
	n := 0
	for _, k := range keys {
		s.expireIfNeeded(k)
		s.mu.RLock()
		if o := s.lookupLocked(k); o != nil {
			n++
		}
		s.mu.RUnlock()
	}
	return n
}

// Type returns the type tag name for key, or "" if absent.
func (s *Store) Type(key string) (string, bool) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return "", false
	}
	return o.tag.String(), true
}

// Encoding returns a Redis-flavored OBJECT ENCODING string for key.
func (s *Store) Encoding(key string) (string, bool) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return "", false
	}
	switch o.tag {
	case TagString:
		if looksInt(o.str) {
			return "int", true
		}
		return "raw", true
	case TagList:
		return "listpack", true
	case TagHash:
		return "listpack", true
	case TagSet:
		return "hashtable", true
	case TagSortedSet:
		return "skiplist", true
	case TagStream:
		return "stream", true
	default:
		return "raw", true
	}
}

func looksInt(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	i := 0
	if b[0] == '-' {
		i = 1
	}
	if i == len(b) {
		return false
	}
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return false
		}
	}
	return true
}

// DBSize returns the number of live (non-expired) keys.
func (s *Store) DBSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := nowMs()
	for _, o := range s.data {
		if !o.expired(now) {
			n++
		}
	}
	return n
}

// FlushAll drops every key.
func (s *Store) FlushAll() {
	s.mu.Lock()
	s.data = make(map[string]*object)
	s.mu.Unlock()
}

// Keys returns all live keys for which match reports true (every live key
// when match is nil).
func (s *Store) Keys(match func(string) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := nowMs()
	out := make([]string, 0, len(s.data))
	for k, o := range s.data {
		if o.expired(now) {
			continue
		}
		if match == nil || match(k) {
			out = append(out, k)
		}
	}
	return out
}

// Expire sets key's TTL to now+seconds (or now+ms for PExpire). Returns
// false if key does not exist.
func (s *Store) Expire(key string, seconds int64) bool { return s.PExpire(key, seconds*1000) }

func (s *Store) PExpire(key string, ms int64) bool {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return false
	}
	o.expireAt = nowMs() + ms
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return true
}

// Persist clears key's TTL, reporting whether a TTL was actually removed.
func (s *Store) Persist(key string) bool {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil || o.expireAt == 0 {
		s.mu.Unlock()
		return false
	}
	o.expireAt = 0
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return true
}

// TTL returns seconds remaining (-2 absent, -1 no TTL).
func (s *Store) TTL(key string) int64 {
	ms := s.PTTL(key)
	if ms < 0 {
		return ms
	}
	// Round up to whole seconds, matching Redis's ceil behavior.
	return (ms + 999) / 1000
}

// PTTL returns milliseconds remaining (-2 absent, -1 no TTL).
func (s *Store) PTTL(key string) int64 {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return -2
	}
	if o.expireAt == 0 {
		return -1
	}
	left := o.expireAt - nowMs()
	if left < 0 {
		return 0
	}
	return left
}
