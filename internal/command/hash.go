package command

import (
	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
)

func cmdHSet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 3 || len(args)%2 != 1 {
		w.WriteError(cmderr.Arity("hset").Error())
		return
	}
	fields := make(map[string][]byte, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		fields[string(args[i])] = args[i+1]
	}
	n, err := d.Store.HSet(string(args[0]), fields)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdHGet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("hget").Error())
		return
	}
	v, _, err := d.Store.HGet(string(args[0]), string(args[1]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.BulkOrNull(w, v)
}

func cmdHDel(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("hdel").Error())
		return
	}
	n, err := d.Store.HDel(string(args[0]), toStrings(args[1:]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdHGetAll(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("hgetall").Error())
		return
	}
	fields, values, err := d.Store.HGetAll(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(fields) * 2)
	for i := range fields {
		w.WriteBulkString(fields[i])
		w.WriteBulk(values[i])
	}
}

func cmdHLen(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("hlen").Error())
		return
	}
	n, err := d.Store.HLen(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}
