package command

import (
	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
)

func cmdSAdd(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("sadd").Error())
		return
	}
	n, err := d.Store.SAdd(string(args[0]), args[1:])
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdSRem(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("srem").Error())
		return
	}
	n, err := d.Store.SRem(string(args[0]), args[1:])
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdSMembers(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("smembers").Error())
		return
	}
	members, err := d.Store.SMembers(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(members))
	reply.BulkStrings(w, members)
}

func cmdSCard(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("scard").Error())
		return
	}
	n, err := d.Store.SCard(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}
