// Package txn implements the Transaction Manager component (spec §4.2):
// per-connection queued command buffers, WATCH fingerprints, and the
// global invalidation broadcast every mutating store call triggers.
package txn

import (
	"sync"
	"sync/atomic"
)

// RawCommand is one decoded-but-unexecuted command argument array, queued
// verbatim during MULTI and replayed unparsed at EXEC time.
type RawCommand [][]byte

// State is one connection's transaction bookkeeping (spec §3).
type State struct {
	InTransaction bool
	Queue         []RawCommand
	aborted       atomic.Bool

	watched map[string]struct{}
}

// Aborted reports whether any watched key has been modified since WATCH.
// Safe to call concurrently with NotifyKeyModified from other connections'
// goroutines.
func (st *State) Aborted() bool { return st.aborted.Load() }

// Manager is the process-wide singleton binding connections' watch sets to
// the keys they watch, so a single mutation notification can sweep every
// affected connection's State.
//
// The spec's Open Question on WATCH fingerprints (computed from the key
// string alone, making the check inert) is resolved here by not
// fingerprinting at all: invalidation is driven entirely by the
// NotifyKeyModified broadcast below, which is the authoritative path the
// spec already requires regardless of the fingerprint's behavior.
type Manager struct {
	mu   sync.Mutex
	byKey map[string]map[*State]struct{}
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{byKey: make(map[string]map[*State]struct{})}
}

// NewState constructs a fresh per-connection transaction state.
func NewState() *State {
	return &State{watched: make(map[string]struct{})}
}

// Multi begins a transaction on st, clearing any previously queued
// commands. Returns an error if a transaction is already open.
func (st *State) Multi() error {
	if st.InTransaction {
		return ErrNestedMulti
	}
	st.InTransaction = true
	st.Queue = nil
	return nil
}

// Enqueue appends a raw command to st's queue; call only while
// st.InTransaction is true and the command is not a control command.
func (st *State) Enqueue(cmd RawCommand) {
	st.Queue = append(st.Queue, cmd)
}

// Discard clears st's transaction state entirely.
func (st *State) Discard() {
	st.InTransaction = false
	st.Queue = nil
	st.aborted.Store(false)
}

// Watch records key in st's watch set and registers st with the manager so
// a future mutation notification can find it.
func (m *Manager) Watch(st *State, key string) {
	st.watched[key] = struct{}{}
	m.mu.Lock()
	conns, ok := m.byKey[key]
	if !ok {
		conns = make(map[*State]struct{})
		m.byKey[key] = conns
	}
	conns[st] = struct{}{}
	m.mu.Unlock()
}

// Unwatch clears st's watch set unconditionally and deregisters it from
// the manager.
func (m *Manager) Unwatch(st *State) {
	st.aborted.Store(false)
	if len(st.watched) == 0 {
		return
	}
	m.mu.Lock()
	for key := range st.watched {
		if conns, ok := m.byKey[key]; ok {
			delete(conns, st)
			if len(conns) == 0 {
				delete(m.byKey, key)
			}
		}
	}
	m.mu.Unlock()
	st.watched = make(map[string]struct{})
}

// Disconnect must be called when a connection closes, so its watches don't
// leak in the manager's index.
func (m *Manager) Disconnect(st *State) { m.Unwatch(st) }

// NotifyKeyModified flips Aborted on every connection watching key. It
// implements store.Notifier.
func (m *Manager) NotifyKeyModified(key string) {
	m.mu.Lock()
	conns := m.byKey[key]
	m.mu.Unlock()
	for st := range conns {
		st.aborted.Store(true)
	}
}

// ErrNestedMulti is returned by Multi when a transaction is already open.
var ErrNestedMulti = &txnError{"ERR MULTI calls can not be nested"}

// ErrWatchInsideMulti is returned when WATCH is attempted inside MULTI.
var ErrWatchInsideMulti = &txnError{"ERR WATCH inside MULTI is not allowed"}

// ErrExecWithoutMulti is returned when EXEC is called with no open
// transaction.
var ErrExecWithoutMulti = &txnError{"ERR EXEC without MULTI"}

// ErrDiscardWithoutMulti is returned when DISCARD is called with no open
// transaction.
var ErrDiscardWithoutMulti = &txnError{"ERR DISCARD without MULTI"}

type txnError struct{ msg string }

func (e *txnError) Error() string { return e.msg }
