package stream

import "errors"

var (
	ErrNoGroup   = errors.New("NOGROUP No such consumer group")
	ErrBusyGroup = errors.New("BUSYGROUP Consumer Group name already exists")
	ErrInvalidID = errInvalidID
)

// GroupCreate creates a new consumer group starting its delivery cursor at
// start (spec §4.4: "$" resolves to the stream's current last id, "-" to
// 0-0, or an explicit id — callers resolve "$"/"-" to a concrete ID before
// calling this).
func (st *Stream) GroupCreate(name string, start ID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.groups[name]; exists {
		return ErrBusyGroup
	}
	st.groups[name] = newGroup(name, start)
	return nil
}

func (st *Stream) Group(name string) (*Group, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[name]
	return g, ok
}

// GroupNames returns all consumer group names, for XINFO GROUPS.
func (st *Stream) GroupNames() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.groups))
	for n := range st.groups {
		out = append(out, n)
	}
	return out
}

// GroupDestroy removes a consumer group entirely, returning whether it
// existed.
func (st *Stream) GroupDestroy(name string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.groups[name]; !ok {
		return false
	}
	delete(st.groups, name)
	return true
}

// GroupSetID updates a group's last-delivered cursor (XGROUP SETID).
func (st *Stream) GroupSetID(name string, id ID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[name]
	if !ok {
		return ErrNoGroup
	}
	g.LastDelivered = id
	return nil
}

// GroupDelConsumer removes a consumer from a group, deleting its pending
// entries from the group's PEL, and returns the number of pending entries
// that consumer held.
func (st *Stream) GroupDelConsumer(groupName, consumerName string) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return 0, ErrNoGroup
	}
	c, ok := g.Consumers[consumerName]
	if !ok {
		return 0, nil
	}
	n := len(c.Pending)
	for id := range c.Pending {
		delete(g.Pending, id)
	}
	delete(g.Consumers, consumerName)
	return n, nil
}

// ReadGroupNew delivers up to count entries with id > group's
// LastDelivered to consumer, advancing the cursor and inserting PEL
// entries (spec §4.4, id=">").
func (st *Stream) ReadGroupNew(groupName, consumerName string, count int, nowMs int64) ([]Entry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return nil, ErrNoGroup
	}
	start := ID{Ms: g.LastDelivered.Ms, Seq: g.LastDelivered.Seq + 1}
	if g.LastDelivered.Seq == ^uint64(0) {
		start = ID{Ms: g.LastDelivered.Ms + 1, Seq: 0}
	}
	lo := st.findIdx(start)
	c := g.consumer(consumerName)
	var out []Entry
	for i := lo; i < len(st.entries); i++ {
		e := st.entries[i]
		out = append(out, e)
		g.LastDelivered = e.ID
		g.Pending[e.ID] = &PELEntry{ID: e.ID, Consumer: consumerName, DeliveredAt: nowMs, DeliveryCnt: 1}
		c.Pending[e.ID] = struct{}{}
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

// ReadGroupHistory returns the consumer's own pending entries with id >=
// from (the replay path; spec §4.4, explicit id). Delivery stats are left
// untouched.
func (st *Stream) ReadGroupHistory(groupName, consumerName string, from ID, count int) ([]Entry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return nil, ErrNoGroup
	}
	c, ok := g.Consumers[consumerName]
	if !ok {
		return nil, nil
	}
	var ids []ID
	for id := range c.Pending {
		if from.LessEq(id) {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	var out []Entry
	for _, id := range ids {
		if e, found := st.entryByID(id); found {
			out = append(out, e)
		} else {
			out = append(out, Entry{ID: id})
		}
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

func sortIDs(ids []ID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Ack removes ids from the group's PEL and their owning consumers' sets,
// returning the count actually removed.
func (st *Stream) Ack(groupName string, ids []ID) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return 0, ErrNoGroup
	}
	n := 0
	for _, id := range ids {
		pe, ok := g.Pending[id]
		if !ok {
			continue
		}
		if c, ok := g.Consumers[pe.Consumer]; ok {
			delete(c.Pending, id)
		}
		delete(g.Pending, id)
		n++
	}
	return n, nil
}

// PendingSummary is XPENDING's no-range reply payload.
type PendingSummary struct {
	Total    int
	MinID    ID
	MaxID    ID
	ByConsumer map[string]int
}

// PendingSummary computes the summary-form XPENDING reply.
func (st *Stream) PendingSummary(groupName string) (PendingSummary, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return PendingSummary{}, ErrNoGroup
	}
	sum := PendingSummary{ByConsumer: make(map[string]int)}
	first := true
	for id, pe := range g.Pending {
		sum.Total++
		sum.ByConsumer[pe.Consumer]++
		if first || id.Less(sum.MinID) {
			sum.MinID = id
		}
		if first || sum.MaxID.Less(id) {
			sum.MaxID = id
		}
		first = false
	}
	return sum, nil
}

// PendingExtended is one row of XPENDING's extended form.
type PendingExtended struct {
	ID          ID
	Consumer    string
	IdleMs      int64
	DeliveryCnt int64
}

// PendingRange computes the extended-form XPENDING reply, filtered by
// range, optional consumer, and optional minimum idle time.
func (st *Stream) PendingRange(groupName string, start, end ID, count int, consumer string, minIdleMs int64, nowMs int64) ([]PendingExtended, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return nil, ErrNoGroup
	}
	var ids []ID
	for id, pe := range g.Pending {
		if consumer != "" && pe.Consumer != consumer {
			continue
		}
		if !(start.LessEq(id) && id.LessEq(end)) {
			continue
		}
		if minIdleMs > 0 && nowMs-pe.DeliveredAt < minIdleMs {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	out := make([]PendingExtended, 0, len(ids))
	for _, id := range ids {
		pe := g.Pending[id]
		out = append(out, PendingExtended{ID: id, Consumer: pe.Consumer, IdleMs: nowMs - pe.DeliveredAt, DeliveryCnt: pe.DeliveryCnt})
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

// ClaimResult is one XCLAIM outcome.
type ClaimResult struct {
	ID     ID
	Fields []Field
	Exists bool
}

// Claim transfers ownership of eligible pending ids to targetConsumer. An
// id is eligible when present in the PEL with idle >= minIdleMs; if absent
// and force is set, it is adopted provided the entry still exists in the
// stream.
func (st *Stream) Claim(groupName, targetConsumer string, minIdleMs int64, ids []ID, force bool, overrideDeliveredAt *int64, overrideDeliveryCnt *int64, nowMs int64) ([]ClaimResult, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, ok := st.groups[groupName]
	if !ok {
		return nil, ErrNoGroup
	}
	var out []ClaimResult
	for _, id := range ids {
		pe, exists := g.Pending[id]
		if exists {
			if nowMs-pe.DeliveredAt < minIdleMs {
				continue
			}
			if oldC, ok := g.Consumers[pe.Consumer]; ok {
				delete(oldC.Pending, id)
			}
		} else {
			if !force {
				continue
			}
			if _, found := st.entryByID(id); !found {
				continue
			}
			pe = &PELEntry{ID: id}
			g.Pending[id] = pe
		}
		pe.Consumer = targetConsumer
		if overrideDeliveredAt != nil {
			pe.DeliveredAt = *overrideDeliveredAt
		} else {
			pe.DeliveredAt = nowMs
		}
		if overrideDeliveryCnt != nil {
			pe.DeliveryCnt = *overrideDeliveryCnt
		} else {
			pe.DeliveryCnt++
		}
		g.consumer(targetConsumer).Pending[id] = struct{}{}

		entry, found := st.entryByID(id)
		if found {
			out = append(out, ClaimResult{ID: id, Fields: entry.Fields, Exists: true})
		} else {
			out = append(out, ClaimResult{ID: id, Exists: false})
		}
	}
	return out, nil
}
