package store

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
)

// Condition is the optional existence precondition for SET.
type Condition int

const (
	CondNone Condition = iota
	CondOnlyIfAbsent
	CondOnlyIfPresent
)

// getStringLocked fetches key's object and string bytes, enforcing
// WRONGTYPE. Returns (nil, nil, false, nil) when absent and
// (nil, nil, false, err) on type mismatch.
func (s *Store) getStringLocked(key string) (*object, []byte, bool, error) {
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil, false, nil
	}
	if o.tag != TagString {
		return nil, nil, false, cmderr.WrongType
	}
	return o, o.str, true, nil
}

// Get returns key's string value.
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, v, ok, err := s.getStringLocked(key)
	if !ok || err != nil {
		return nil, ok, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// GetMany returns values for keys in order; missing/wrong-type entries are
// nil (MGET never errors per-key).
func (s *Store) GetMany(keys []string) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, ok, err := s.Get(k)
		if ok && err == nil {
			out[i] = v
		}
	}
	return out
}

// SetOpts bundles SET's optional TTL and existence condition.
type SetOpts struct {
	TTLMillis int64 // 0 = no explicit TTL given
	KeepTTL   bool
	Cond      Condition
}

// Set stores bytes under key, honoring the existence condition and TTL
// rules from spec §4.1: success discards the prior TTL unless a new one is
// supplied or KEEPTTL is set. Returns ok=false when the condition blocked
// the write (no mutation occurs in that case).
func (s *Store) Set(key string, val []byte, opts SetOpts) (ok bool, err error) {
	s.expireIfNeeded(key)
	s.mu.Lock()

	existing := s.lookupLocked(key)
	if existing != nil && opts.Cond == CondOnlyIfAbsent {
		s.mu.Unlock()
		return false, nil
	}
	if existing == nil && opts.Cond == CondOnlyIfPresent {
		s.mu.Unlock()
		return false, nil
	}

	buf := make([]byte, len(val))
	copy(buf, val)

	var expireAt int64
	switch {
	case opts.TTLMillis > 0:
		expireAt = nowMs() + opts.TTLMillis
	case opts.KeepTTL && existing != nil:
		expireAt = existing.expireAt
	default:
		expireAt = 0
	}

	s.data[key] = &object{tag: TagString, str: buf, expireAt: expireAt, version: 1}
	s.mu.Unlock()
	s.notify(key)
	return true, nil
}

// SetMany writes every key=value pair. Per spec §9, MSET is best-effort
// per-key, not atomic across keys.
func (s *Store) SetMany(pairs map[string][]byte) {
	for k, v := range pairs {
		_, _ = s.Set(k, v, SetOpts{})
	}
}

// IncrBy parses the stored bytes as a base-10 int64, adds delta, and writes
// the result back, preserving any existing TTL. A missing key behaves as 0.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()

	o := s.lookupLocked(key)
	var cur int64
	if o != nil {
		if o.tag != TagString {
			s.mu.Unlock()
			return 0, cmderr.WrongType
		}
		n, err := strconv.ParseInt(string(o.str), 10, 64)
		if err != nil {
			s.mu.Unlock()
			return 0, cmderr.NotInteger
		}
		cur = n
	}

	// Overflow check before committing.
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		s.mu.Unlock()
		return 0, cmderr.NotInteger
	}

	buf := []byte(strconv.FormatInt(next, 10))
	if o != nil {
		o.str = buf
		o.version++
	} else {
		s.data[key] = &object{tag: TagString, str: buf, version: 1}
	}
	s.mu.Unlock()
	s.notify(key)
	return next, nil
}
