package stream

import "testing"

func TestAppendAssignsAndAdvancesLastID(t *testing.T) {
	st := New()
	id := st.NextID(1000)
	if err := st.Append(id, []Field{{Name: "f", Value: []byte("v")}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if st.LastID() != id {
		t.Fatalf("want lastID %v, got %v", id, st.LastID())
	}
	if st.Len() != 1 {
		t.Fatalf("want len 1, got %d", st.Len())
	}
}

func TestNextIDBumpsSeqOnSameMillisecond(t *testing.T) {
	st := New()
	a := st.NextID(1000)
	_ = st.Append(a, nil)
	b := st.NextID(1000)
	if b.Ms != a.Ms || b.Seq != a.Seq+1 {
		t.Fatalf("want seq bump on same ms, got a=%v b=%v", a, b)
	}
}

func TestAppendRejectsNonIncreasingID(t *testing.T) {
	st := New()
	_ = st.Append(ID{Ms: 5, Seq: 0}, nil)
	if err := st.Append(ID{Ms: 5, Seq: 0}, nil); err != errInvalidID {
		t.Fatalf("want errInvalidID, got %v", err)
	}
	if err := st.Append(ID{Ms: 4, Seq: 9}, nil); err != errInvalidID {
		t.Fatalf("want errInvalidID for smaller id, got %v", err)
	}
}

func TestRangeIsInclusiveAscending(t *testing.T) {
	st := New()
	for i := uint64(1); i <= 5; i++ {
		_ = st.Append(ID{Ms: i}, nil)
	}
	out := st.Range(ID{Ms: 2}, ID{Ms: 4}, 0)
	if len(out) != 3 || out[0].ID.Ms != 2 || out[2].ID.Ms != 4 {
		t.Fatalf("unexpected range result: %+v", out)
	}
}

func TestRevRangeIsDescending(t *testing.T) {
	st := New()
	for i := uint64(1); i <= 3; i++ {
		_ = st.Append(ID{Ms: i}, nil)
	}
	out := st.RevRange(MinID, MaxID, 0)
	if len(out) != 3 || out[0].ID.Ms != 3 || out[2].ID.Ms != 1 {
		t.Fatalf("unexpected revrange order: %+v", out)
	}
}

func TestTrimMaxLenKeepsNewest(t *testing.T) {
	st := New()
	for i := uint64(1); i <= 5; i++ {
		_ = st.Append(ID{Ms: i}, nil)
	}
	removed := st.TrimMaxLen(2)
	if removed != 3 || st.Len() != 2 {
		t.Fatalf("want 3 removed, 2 remaining; got removed=%d len=%d", removed, st.Len())
	}
	out := st.Range(MinID, MaxID, 0)
	if out[0].ID.Ms != 4 || out[1].ID.Ms != 5 {
		t.Fatalf("want newest two entries kept, got %+v", out)
	}
}

func TestTrimMinIDRemovesOlder(t *testing.T) {
	st := New()
	for i := uint64(1); i <= 5; i++ {
		_ = st.Append(ID{Ms: i}, nil)
	}
	removed := st.TrimMinID(ID{Ms: 3})
	if removed != 2 || st.Len() != 3 {
		t.Fatalf("want 2 removed, 3 remaining; got removed=%d len=%d", removed, st.Len())
	}
}

func TestDelRemovesExactIDs(t *testing.T) {
	st := New()
	ids := make([]ID, 0, 3)
	for i := uint64(1); i <= 3; i++ {
		id := ID{Ms: i}
		ids = append(ids, id)
		_ = st.Append(id, nil)
	}
	n := st.Del([]ID{ids[1]})
	if n != 1 || st.Len() != 2 {
		t.Fatalf("want 1 removed, 2 remaining; got n=%d len=%d", n, st.Len())
	}
}

func TestGroupReadAckRoundTrip(t *testing.T) {
	st := New()
	a := ID{Ms: 1}
	b := ID{Ms: 2}
	_ = st.Append(a, []Field{{Name: "k", Value: []byte("1")}})
	_ = st.Append(b, []Field{{Name: "k", Value: []byte("2")}})

	if err := st.GroupCreate("g", MinID); err != nil {
		t.Fatalf("GroupCreate: %v", err)
	}
	if err := st.GroupCreate("g", MinID); err != ErrBusyGroup {
		t.Fatalf("want ErrBusyGroup on duplicate create, got %v", err)
	}

	entries, err := st.ReadGroupNew("g", "c1", 0, 1000)
	if err != nil {
		t.Fatalf("ReadGroupNew: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 delivered entries, got %d", len(entries))
	}

	sum, err := st.PendingSummary("g")
	if err != nil {
		t.Fatalf("PendingSummary: %v", err)
	}
	if sum.Total != 2 {
		t.Fatalf("want 2 pending, got %d", sum.Total)
	}

	n, err := st.Ack("g", []ID{a})
	if err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 acked, got %d", n)
	}

	sum, _ = st.PendingSummary("g")
	if sum.Total != 1 {
		t.Fatalf("want 1 still pending after ack, got %d", sum.Total)
	}
}

func TestClaimTransfersOwnership(t *testing.T) {
	st := New()
	a := ID{Ms: 1}
	_ = st.Append(a, []Field{{Name: "k", Value: []byte("v")}})
	_ = st.GroupCreate("g", MinID)
	_, _ = st.ReadGroupNew("g", "c1", 0, 1000)

	results, err := st.Claim("g", "c2", 0, []ID{a}, false, nil, nil, 5000)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if len(results) != 1 || !results[0].Exists {
		t.Fatalf("want claimed entry to exist, got %+v", results)
	}

	g, _ := st.Group("g")
	if _, owned := g.Consumers["c2"].Pending[a]; !owned {
		t.Fatal("want c2 to now own the pending entry")
	}
	if _, owned := g.Consumers["c1"].Pending[a]; owned {
		t.Fatal("want c1 to no longer own the pending entry")
	}
}

func TestGroupDelConsumerReleasesPending(t *testing.T) {
	st := New()
	_ = st.Append(ID{Ms: 1}, nil)
	_ = st.GroupCreate("g", MinID)
	_, _ = st.ReadGroupNew("g", "c1", 0, 1000)

	n, err := st.GroupDelConsumer("g", "c1")
	if err != nil {
		t.Fatalf("GroupDelConsumer: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 pending entry released, got %d", n)
	}
	g, _ := st.Group("g")
	if _, ok := g.Consumers["c1"]; ok {
		t.Fatal("want consumer removed from group")
	}
}
