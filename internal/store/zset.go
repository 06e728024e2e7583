package store

import (
	"math"

	"github.com/tidwall/btree"

	"github.com/edirooss/redisd/internal/cmderr"
)

// zentry is one sorted-set member/score pair, ordered ascending by (score,
// member-bytes) per spec §3.
type zentry struct {
	member string
	score  float64
}

func zless(a, b zentry) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// zsetValue keeps a rank-ordered btree.BTreeG alongside a byMember index for
// O(1) ZSCORE lookups; grounded on the pack's tidwall/btree usage (an
// ordered-scan, rank-capable structure the standard library has no
// equivalent for).
type zsetValue struct {
	tree     *btree.BTreeG[zentry]
	byMember map[string]float64
}

func newZSetValue() *zsetValue {
	return &zsetValue{tree: btree.NewBTreeG(zless), byMember: make(map[string]float64)}
}

func (z *zsetValue) set(member string, score float64) (isNew bool) {
	if old, ok := z.byMember[member]; ok {
		z.tree.Delete(zentry{member: member, score: old})
		z.byMember[member] = score
		z.tree.Set(zentry{member: member, score: score})
		return false
	}
	z.byMember[member] = score
	z.tree.Set(zentry{member: member, score: score})
	return true
}

func (z *zsetValue) remove(member string) bool {
	score, ok := z.byMember[member]
	if !ok {
		return false
	}
	delete(z.byMember, member)
	z.tree.Delete(zentry{member: member, score: score})
	return true
}

func (s *Store) getZSetLocked(key string, create bool) (*object, error) {
	o := s.lookupLocked(key)
	if o == nil {
		if !create {
			return nil, nil
		}
		o = &object{tag: TagSortedSet, zset: newZSetValue(), version: 1}
		s.data[key] = o
		return o, nil
	}
	if o.tag != TagSortedSet {
		return nil, cmderr.WrongType
	}
	return o, nil
}

// ZAdd upserts member/score pairs, returning the count newly added (score
// updates on existing members do not count, per spec §4.1).
func (s *Store) ZAdd(key string, entries map[string]float64) (int, error) {
	for _, sc := range entries {
		if math.IsNaN(sc) {
			return 0, cmderr.NotFloat
		}
	}
	s.expireIfNeeded(key)
	s.mu.Lock()
	o, err := s.getZSetLocked(key, true)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	n := 0
	for m, sc := range entries {
		if o.zset.set(m, sc) {
			n++
		}
	}
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return n, nil
}

// ZRem removes members, returning the count actually removed.
func (s *Store) ZRem(key string, members []string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return 0, nil
	}
	if o.tag != TagSortedSet {
		s.mu.Unlock()
		return 0, cmderr.WrongType
	}
	n := 0
	for _, m := range members {
		if o.zset.remove(m) {
			n++
		}
	}
	if n > 0 {
		o.version++
		s.deleteIfEmptyLocked(key, o)
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify(key)
	}
	return n, nil
}

// ZEntry is one returned (member, score) pair.
type ZEntry struct {
	Member string
	Score  float64
}

// ZRange returns entries in ascending rank order over [start,stop]
// (inclusive, negative indexes from the end).
func (s *Store) ZRange(key string, start, stop int64) ([]ZEntry, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil
	}
	if o.tag != TagSortedSet {
		return nil, cmderr.WrongType
	}
	n := o.zset.tree.Len()
	lo, hi := listIndexRange(start, stop, n)
	if hi < lo {
		return []ZEntry{}, nil
	}
	out := make([]ZEntry, 0, hi-lo+1)
	i := 0
	o.zset.tree.Scan(func(e zentry) bool {
		if i >= lo && i <= hi {
			out = append(out, ZEntry{Member: e.member, Score: e.score})
		}
		i++
		return i <= hi
	})
	return out, nil
}

// ZCard reports the set's cardinality.
func (s *Store) ZCard(key string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagSortedSet {
		return 0, cmderr.WrongType
	}
	return o.zset.tree.Len(), nil
}

// ZScore returns member's score.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, false, nil
	}
	if o.tag != TagSortedSet {
		return 0, false, cmderr.WrongType
	}
	sc, ok := o.zset.byMember[member]
	return sc, ok, nil
}

// ZIncrBy adds delta to member's score (creating it at delta if absent) and
// returns the new score.
func (s *Store) ZIncrBy(key string, delta float64, member string) (float64, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o, err := s.getZSetLocked(key, true)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	cur := o.zset.byMember[member]
	next := cur + delta
	if math.IsNaN(next) {
		s.mu.Unlock()
		return 0, cmderr.NotFloat
	}
	o.zset.set(member, next)
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return next, nil
}

// ZRank returns member's 0-based ascending rank.
func (s *Store) ZRank(key, member string) (int, bool, error) {
	return s.zrank(key, member, false)
}

// ZRevRank returns member's 0-based descending rank.
func (s *Store) ZRevRank(key, member string) (int, bool, error) {
	return s.zrank(key, member, true)
}

func (s *Store) zrank(key, member string, rev bool) (int, bool, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, false, nil
	}
	if o.tag != TagSortedSet {
		return 0, false, cmderr.WrongType
	}
	sc, ok := o.zset.byMember[member]
	if !ok {
		return 0, false, nil
	}
	rank := 0
	found := false
	o.zset.tree.Scan(func(e zentry) bool {
		if e.member == member && e.score == sc {
			found = true
			return false
		}
		rank++
		return true
	})
	if !found {
		return 0, false, nil
	}
	if rev {
		return o.zset.tree.Len() - 1 - rank, true, nil
	}
	return rank, true, nil
}

// ZRangeByScore returns members with min<=score<=max in ascending order.
func (s *Store) ZRangeByScore(key string, min, max float64) ([]ZEntry, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil
	}
	if o.tag != TagSortedSet {
		return nil, cmderr.WrongType
	}
	out := []ZEntry{}
	o.zset.tree.Scan(func(e zentry) bool {
		if e.score >= min && e.score <= max {
			out = append(out, ZEntry{Member: e.member, Score: e.score})
		}
		return true
	})
	return out, nil
}

// ZCount counts members with min<=score<=max.
func (s *Store) ZCount(key string, min, max float64) (int, error) {
	entries, err := s.ZRangeByScore(key, min, max)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ZRemRangeByScore removes members with min<=score<=max, returning the
// count removed.
func (s *Store) ZRemRangeByScore(key string, min, max float64) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return 0, nil
	}
	if o.tag != TagSortedSet {
		s.mu.Unlock()
		return 0, cmderr.WrongType
	}
	var toRemove []string
	o.zset.tree.Scan(func(e zentry) bool {
		if e.score >= min && e.score <= max {
			toRemove = append(toRemove, e.member)
		}
		return true
	})
	for _, m := range toRemove {
		o.zset.remove(m)
	}
	if len(toRemove) > 0 {
		o.version++
		s.deleteIfEmptyLocked(key, o)
	}
	s.mu.Unlock()
	if len(toRemove) > 0 {
		s.notify(key)
	}
	return len(toRemove), nil
}
