package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
)

func cmdGet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("get").Error())
		return
	}
	v, _, err := d.Store.Get(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.BulkOrNull(w, v)
}

func cmdMGet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("mget").Error())
		return
	}
	vals := d.Store.GetMany(toStrings(args))
	w.WriteArray(len(vals))
	reply.BulkStrings(w, vals)
}

func cmdMSet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) == 0 || len(args)%2 != 0 {
		w.WriteError(cmderr.Arity("mset").Error())
		return
	}
	pairs := make(map[string][]byte, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}
	d.Store.SetMany(pairs)
	reply.OK(w)
}

// cmdSet parses SET key value [NX|XX] [EX seconds|PX ms] [KEEPTTL].
func cmdSet(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("set").Error())
		return
	}
	key, val := string(args[0]), args[1]
	opts := store.SetOpts{}

	for i := 2; i < len(args); i++ {
		switch upperASCII(args[i]) {
		case "NX":
			opts.Cond = store.CondOnlyIfAbsent
		case "XX":
			opts.Cond = store.CondOnlyIfPresent
		case "KEEPTTL":
			opts.KeepTTL = true
		case "EX", "PX":
			isMs := upperASCII(args[i]) == "PX"
			i++
			if i >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			n, err := strconv.ParseInt(string(args[i]), 10, 64)
			if err != nil || n <= 0 {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			if isMs {
				opts.TTLMillis = n
			} else {
				opts.TTLMillis = n * 1000
			}
		default:
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
	}

	ok, err := d.Store.Set(key, val, opts)
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	reply.OK(w)
}

func cmdIncrBy(w reply.Writer, d *Dispatcher, args [][]byte, cmd string, sign int64) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	n, err := d.Store.IncrBy(string(args[0]), sign)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt64(n)
}

func cmdIncrByArg(w reply.Writer, d *Dispatcher, args [][]byte, cmd string, sign int64) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	delta, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	n, err := d.Store.IncrBy(string(args[0]), sign*delta)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt64(n)
}
