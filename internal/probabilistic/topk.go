package probabilistic

import "sort"

// topKCounter is one tracked item's approximate count, plus the
// Space-Saving algorithm's error bound for that estimate.
type topKCounter struct {
	item  string
	count uint64
	err   uint64
}

// TopK backs the TOPK.* family with the classic Space-Saving algorithm: a
// fixed-size table of counters, where a new item evicts the
// currently-smallest counter and inherits its count (bounding the error by
// that counter's own count). No pack library implements a frequency
// sketch, so this is hand-rolled directly from the well-known algorithm
// rather than from any particular repo's code.
type TopK struct {
	k        int
	counters map[string]*topKCounter
}

// NewTopK constructs a tracker retaining the k heaviest items seen
// (TOPK.RESERVE).
func NewTopK(k int) *TopK {
	if k <= 0 {
		k = 1
	}
	return &TopK{k: k, counters: make(map[string]*topKCounter, k)}
}

// Add records one occurrence of item, returning the item evicted to make
// room for it (empty string if none, i.e. item already tracked or the
// table wasn't full), matching TOPK.ADD's "dropped item" reply slot.
func (t *TopK) Add(item string) string {
	if c, ok := t.counters[item]; ok {
		c.count++
		return ""
	}
	if len(t.counters) < t.k {
		t.counters[item] = &topKCounter{item: item, count: 1}
		return ""
	}

	var min *topKCounter
	for _, c := range t.counters {
		if min == nil || c.count < min.count {
			min = c
		}
	}
	dropped := min.item
	delete(t.counters, dropped)
	t.counters[item] = &topKCounter{item: item, count: min.count + 1, err: min.count}
	return dropped
}

// Query reports whether item is currently among the tracked top-k
// (TOPK.QUERY).
func (t *TopK) Query(item string) bool {
	_, ok := t.counters[item]
	return ok
}

// Count returns item's approximate count, or 0 if untracked (TOPK.COUNT).
func (t *TopK) Count(item string) uint64 {
	if c, ok := t.counters[item]; ok {
		return c.count
	}
	return 0
}

// List returns tracked items ordered by descending count (TOPK.LIST).
func (t *TopK) List() []string {
	cs := make([]*topKCounter, 0, len(t.counters))
	for _, c := range t.counters {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].count != cs[j].count {
			return cs[i].count > cs[j].count
		}
		return cs[i].item < cs[j].item
	})
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.item
	}
	return out
}

// K reports the tracker's configured capacity (TOPK.INFO).
func (t *TopK) K() int { return t.k }
