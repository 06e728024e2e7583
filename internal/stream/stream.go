package stream

import (
	"sort"
	"sync"
	"time"
)

// Field is one ordered name/value pair attached to an entry.
type Field struct {
	Name  string
	Value []byte
}

// Entry is one appended stream record.
type Entry struct {
	ID     ID
	Fields []Field
}

// PELEntry is a Pending Entries List record: an entry delivered to a
// consumer but not yet acknowledged.
type PELEntry struct {
	ID          ID
	Consumer    string
	DeliveredAt int64 // unix ms
	DeliveryCnt int64
}

// Consumer is one named reader within a group.
type Consumer struct {
	Name    string
	Pending map[ID]struct{}
}

// Group is a consumer group: its delivery cursor, named consumers, and the
// shared pending-entries table.
type Group struct {
	Name            string
	LastDelivered   ID
	Consumers       map[string]*Consumer
	Pending         map[ID]*PELEntry
}

func newGroup(name string, start ID) *Group {
	return &Group{Name: name, LastDelivered: start, Consumers: make(map[string]*Consumer), Pending: make(map[ID]*PELEntry)}
}

// ConsumerIdleMillis returns now-maxDeliveryTime across consumer's pending
// entries (looked up via the group's shared Pending table), or 0 if it has
// none.
func (g *Group) ConsumerIdleMillis(consumer string, nowMs int64) int64 {
	c, ok := g.Consumers[consumer]
	if !ok || len(c.Pending) == 0 {
		return 0
	}
	var maxDelivered int64
	for id := range c.Pending {
		if pe, ok := g.Pending[id]; ok && pe.DeliveredAt > maxDelivered {
			maxDelivered = pe.DeliveredAt
		}
	}
	if maxDelivered == 0 {
		return 0
	}
	return nowMs - maxDelivered
}

func (g *Group) consumer(name string) *Consumer {
	c, ok := g.Consumers[name]
	if !ok {
		c = &Consumer{Name: name, Pending: make(map[ID]struct{})}
		g.Consumers[name] = c
	}
	return c
}

// Stream is one key's append-only entry log plus its consumer groups. The
// entry log is a sorted slice: streams in this spec's scope are bounded by
// XTRIM/XDEL and do not need a log-structured backing store, so a slice
// with binary-search range scans is the simplest correct structure (no
// pack library targets this shape; grounded on the pack's from-scratch
// reimplementations' plain in-memory entry lists, e.g.
// evanstukalov-redis-in-go's store.Store stream map).
type Stream struct {
	mu        sync.Mutex
	entries   []Entry
	lastID    ID
	maxSeenID ID // not read or written; SetID validates against the newest entry
	groups    map[string]*Group
}

// New creates an empty stream.
func New() *Stream {
	return &Stream{groups: make(map[string]*Group)}
}

// LastID returns the stream's last generated id.
func (st *Stream) LastID() ID {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastID
}

// Len returns the number of entries currently in the stream.
func (st *Stream) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// Empty reports whether the stream holds no entries; consumer groups are
// not counted. An emptied stream key still exists unless explicitly DEL'd,
// matching Redis — streams are the one container type spec §3 does NOT
// list under "deleting the last element removes the key".
func (st *Stream) Empty() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries) == 0
}

// NextID computes the id XADD should assign for "*": max(now, last.Ms),
// with the sequence bumped when the millisecond collides with last.
func (st *Stream) NextID(nowMs int64) ID {
	st.mu.Lock()
	defer st.mu.Unlock()
	ms := uint64(nowMs)
	if ms < st.lastID.Ms {
		ms = st.lastID.Ms
	}
	seq := uint64(0)
	if ms == st.lastID.Ms {
		seq = st.lastID.Seq + 1
	}
	return ID{Ms: ms, Seq: seq}
}

// Append validates id > lastID (and, implicitly, id > 0-0 since lastID
// starts at the zero value) and appends the entry, advancing lastID.
func (st *Stream) Append(id ID, fields []Field) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.lastID.Less(id) {
		return errInvalidID
	}
	st.entries = append(st.entries, Entry{ID: id, Fields: fields})
	st.lastID = id
	return nil
}

var errInvalidID = &idError{"ERR The ID specified in XADD is equal or smaller than the target stream top item"}

type idError struct{ msg string }

func (e *idError) Error() string { return e.msg }

// SetID forces the stream's last-generated id (XSETID), which must be >=
// any id currently present.
func (st *Stream) SetID(id ID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.entries) > 0 {
		last := st.entries[len(st.entries)-1].ID
		if id.Less(last) {
			return errInvalidID
		}
	}
	st.lastID = id
	return nil
}

// findIdx returns the index of the first entry with ID >= id.
func (st *Stream) findIdx(id ID) int {
	return sort.Search(len(st.entries), func(i int) bool {
		return !st.entries[i].ID.Less(id)
	})
}

// Range returns entries with start<=id<=end in ascending order, capped at
// count entries if count > 0.
func (st *Stream) Range(start, end ID, count int) []Entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	lo := st.findIdx(start)
	var out []Entry
	for i := lo; i < len(st.entries); i++ {
		if end.Less(st.entries[i].ID) {
			break
		}
		out = append(out, st.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// RevRange returns entries with start<=id<=end in descending order, capped
// at count entries if count > 0.
func (st *Stream) RevRange(start, end ID, count int) []Entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	hi := st.findIdx(end)
	if hi == len(st.entries) || end.Less(st.entries[hi].ID) {
		hi--
	}
	var out []Entry
	for i := hi; i >= 0; i-- {
		if st.entries[i].ID.Less(start) {
			break
		}
		out = append(out, st.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// Del removes the given ids, returning the count actually removed.
func (st *Stream) Del(ids []ID) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	want := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	kept := st.entries[:0]
	for _, e := range st.entries {
		if _, drop := want[e.ID]; drop {
			n++
			continue
		}
		kept = append(kept, e)
	}
	st.entries = kept
	return n
}

// TrimMaxLen removes the oldest entries until at most n remain.
func (st *Stream) TrimMaxLen(n int) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.entries) <= n {
		return 0
	}
	removed := len(st.entries) - n
	st.entries = append([]Entry(nil), st.entries[removed:]...)
	return removed
}

// TrimMinID removes entries with id < minID.
func (st *Stream) TrimMinID(minID ID) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	idx := st.findIdx(minID)
	removed := idx
	st.entries = append([]Entry(nil), st.entries[idx:]...)
	return removed
}

// entryByID returns the entry with the given id, if still present.
func (st *Stream) entryByID(id ID) (Entry, bool) {
	idx := st.findIdx(id)
	if idx < len(st.entries) && st.entries[idx].ID.Equal(id) {
		return st.entries[idx], true
	}
	return Entry{}, false
}

func nowMillis() int64 { return time.Now().UnixMilli() }
