package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
)

func cmdPush(w reply.Writer, d *Dispatcher, args [][]byte, cmd string, front bool) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	var n int
	var err error
	if front {
		n, err = d.Store.LPush(string(args[0]), args[1:])
	} else {
		n, err = d.Store.RPush(string(args[0]), args[1:])
	}
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdPop(w reply.Writer, d *Dispatcher, args [][]byte, cmd string, front bool) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	var v []byte
	var ok bool
	var err error
	if front {
		v, ok, err = d.Store.LPop(string(args[0]))
	} else {
		v, ok, err = d.Store.RPop(string(args[0]))
	}
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulk(v)
}

func parseRangeIndexes(a, b []byte) (int64, int64, bool) {
	start, err1 := strconv.ParseInt(string(a), 10, 64)
	stop, err2 := strconv.ParseInt(string(b), 10, 64)
	return start, stop, err1 == nil && err2 == nil
}

func cmdLRange(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("lrange").Error())
		return
	}
	start, stop, ok := parseRangeIndexes(args[1], args[2])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	vals, err := d.Store.LRange(string(args[0]), start, stop)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(vals))
	reply.BulkStrings(w, vals)
}

func cmdLLen(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("llen").Error())
		return
	}
	n, err := d.Store.LLen(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdLIndex(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("lindex").Error())
		return
	}
	idx, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	v, ok, err := d.Store.LIndex(string(args[0]), idx)
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulk(v)
}

func cmdLSet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("lset").Error())
		return
	}
	idx, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	if err := d.Store.LSet(string(args[0]), idx, args[2]); err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func cmdLTrim(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("ltrim").Error())
		return
	}
	start, stop, ok := parseRangeIndexes(args[1], args[2])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	if err := d.Store.LTrim(string(args[0]), start, stop); err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}
