package txn

import "testing"

func TestMultiRejectsNesting(t *testing.T) {
	st := NewState()
	if err := st.Multi(); err != nil {
		t.Fatalf("first MULTI: %v", err)
	}
	if err := st.Multi(); err != ErrNestedMulti {
		t.Fatalf("want ErrNestedMulti, got %v", err)
	}
}

func TestEnqueueAccumulatesQueue(t *testing.T) {
	st := NewState()
	_ = st.Multi()
	st.Enqueue(RawCommand{[]byte("SET"), []byte("k"), []byte("v")})
	st.Enqueue(RawCommand{[]byte("GET"), []byte("k")})
	if len(st.Queue) != 2 {
		t.Fatalf("want 2 queued commands, got %d", len(st.Queue))
	}
}

func TestDiscardClearsTransactionState(t *testing.T) {
	st := NewState()
	_ = st.Multi()
	st.Enqueue(RawCommand{[]byte("PING")})
	st.Discard()
	if st.InTransaction || len(st.Queue) != 0 {
		t.Fatalf("discard left state dirty: %+v", st)
	}
}

func TestWatchAbortsOnNotify(t *testing.T) {
	m := NewManager()
	st := NewState()
	m.Watch(st, "k")
	if st.Aborted() {
		t.Fatal("should not be aborted before any notification")
	}
	m.NotifyKeyModified("k")
	if !st.Aborted() {
		t.Fatal("want aborted after NotifyKeyModified on a watched key")
	}
}

func TestNotifyUnrelatedKeyDoesNotAbort(t *testing.T) {
	m := NewManager()
	st := NewState()
	m.Watch(st, "k1")
	m.NotifyKeyModified("k2")
	if st.Aborted() {
		t.Fatal("unrelated key notification should not abort")
	}
}

func TestUnwatchStopsFutureNotifications(t *testing.T) {
	m := NewManager()
	st := NewState()
	m.Watch(st, "k")
	m.Unwatch(st)
	m.NotifyKeyModified("k")
	if st.Aborted() {
		t.Fatal("notification after Unwatch should not abort")
	}
}

func TestMultipleConnectionsWatchingSameKeyAllAbort(t *testing.T) {
	m := NewManager()
	a, b := NewState(), NewState()
	m.Watch(a, "shared")
	m.Watch(b, "shared")
	m.NotifyKeyModified("shared")
	if !a.Aborted() || !b.Aborted() {
		t.Fatal("want both connections aborted")
	}
}

func TestDisconnectClearsWatchSet(t *testing.T) {
	m := NewManager()
	st := NewState()
	m.Watch(st, "k")
	m.Disconnect(st)
	if len(st.watched) != 0 {
		t.Fatalf("want empty watch set after Disconnect, got %v", st.watched)
	}
}
