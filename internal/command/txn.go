package command

import (
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/txn"
)

func cmdMulti(w reply.Writer, cs *ConnState) {
	if err := cs.Txn.Multi(); err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func cmdDiscard(w reply.Writer, cs *ConnState) {
	if !cs.Txn.InTransaction {
		reply.Err(w, txn.ErrDiscardWithoutMulti)
		return
	}
	cs.Txn.Discard()
	reply.OK(w)
}

// cmdExec replays cs's queued commands (spec §4.2): if any watched key was
// modified since WATCH, the whole transaction is discarded and EXEC
// returns the null array; otherwise every queued command runs in order
// with transaction-queueing off, and their replies are collected into one
// array reply.
func (d *Dispatcher) cmdExec(w reply.Writer, cs *ConnState) {
	if !cs.Txn.InTransaction {
		reply.Err(w, txn.ErrExecWithoutMulti)
		return
	}
	queue := cs.Txn.Queue
	aborted := cs.Txn.Aborted()
	d.Txn.Unwatch(cs.Txn)
	cs.Txn.Discard()

	if aborted {
		reply.NullArray(w)
		return
	}

	w.WriteArray(len(queue))
	for _, raw := range queue {
		d.executeQueued(w, cs, raw)
	}
}

// cmdWatch records keys in cs's watch set; an error if already in a
// transaction (spec §4.2).
func (d *Dispatcher) cmdWatch(w reply.Writer, cs *ConnState, args [][]byte) {
	if len(args) < 1 {
		w.WriteError("ERR wrong number of arguments for 'watch' command")
		return
	}
	if cs.Txn.InTransaction {
		reply.Err(w, txn.ErrWatchInsideMulti)
		return
	}
	for _, a := range args {
		d.Txn.Watch(cs.Txn, string(a))
	}
	reply.OK(w)
}

func cmdUnwatch(w reply.Writer, d *Dispatcher, cs *ConnState) {
	d.Txn.Unwatch(cs.Txn)
	reply.OK(w)
}
