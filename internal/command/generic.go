package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/pkg/glob"
)

func cmdPing(w reply.Writer, args [][]byte) {
	if len(args) == 0 {
		w.WriteString("PONG")
		return
	}
	w.WriteBulk(args[0])
}

func cmdEcho(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("echo").Error())
		return
	}
	w.WriteBulk(args[0])
}

func cmdSelect(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("select").Error())
		return
	}
	if string(args[0]) != "0" {
		w.WriteError("ERR DB index is out of range")
		return
	}
	reply.OK(w)
}

func cmdInfo(w reply.Writer, d *Dispatcher, _ [][]byte) {
	w.WriteBulkString("# Server\r\nredisd_mode:standalone\r\n# Keyspace\r\ndb0:keys=" +
		strconv.Itoa(d.Store.DBSize()) + "\r\n")
}

func cmdConfig(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("config").Error())
		return
	}
	sub := upperASCII(args[0])
	if sub != "GET" {
		reply.OK(w)
		return
	}
	// A minimal map including "timeout"=0 for "*" or "timeout" (spec §4.5
	// Compatibility niceties); any other pattern gets an empty map.
	pattern := "*"
	if len(args) >= 2 {
		pattern = string(args[1])
	}
	if pattern == "*" || pattern == "timeout" {
		w.WriteArray(2)
		w.WriteBulkString("timeout")
		w.WriteBulkString("0")
		return
	}
	w.WriteArray(0)
}

func cmdClient(w reply.Writer, cs *ConnState, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("client").Error())
		return
	}
	switch upperASCII(args[0]) {
	case "SETNAME":
		if len(args) != 2 {
			w.WriteError(cmderr.Arity("client|setname").Error())
			return
		}
		cs.ClientName = string(args[1])
		reply.OK(w)
	case "GETNAME":
		w.WriteBulkString(cs.ClientName)
	case "SETINFO":
		reply.OK(w)
	case "ID":
		w.WriteBulkString(cs.ID)
	default:
		reply.OK(w)
	}
}

func cmdCommand(w reply.Writer, args [][]byte) {
	if len(args) == 0 {
		w.WriteArray(0)
		return
	}
	switch upperASCII(args[0]) {
	case "COUNT":
		w.WriteInt(0)
	default:
		w.WriteArray(0)
	}
}

func cmdType(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("type").Error())
		return
	}
	t, ok := d.Store.Type(string(args[0]))
	if !ok {
		w.WriteString("none")
		return
	}
	w.WriteString(t)
}

func cmdObject(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 || upperASCII(args[0]) != "ENCODING" {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	enc, ok := d.Store.Encoding(string(args[1]))
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulkString(enc)
}

func cmdReset(w reply.Writer, d *Dispatcher, cs *ConnState) {
	if cs.Sub != nil {
		d.PubSub.Disconnect(cs.Sub)
		cs.Sub = nil
	}
	d.Txn.Unwatch(cs.Txn)
	cs.Txn.Discard()
	cs.ClientName = ""
	w.WriteString("RESET")
}

func cmdKeys(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("keys").Error())
		return
	}
	pattern := string(args[0])
	keys := d.Store.Keys(func(k string) bool { return glob.Match(pattern, k) })
	w.WriteArray(len(keys))
	for _, k := range keys {
		w.WriteBulkString(k)
	}
}

func cmdDel(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("del").Error())
		return
	}
	w.WriteInt(d.Store.Del(toStrings(args)))
}

func cmdExists(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("exists").Error())
		return
	}
	w.WriteInt(d.Store.Exists(toStrings(args)))
}

func cmdExpire(w reply.Writer, d *Dispatcher, args [][]byte) {
	n, ok := parseExpireArgs(w, args, "expire")
	if !ok {
		return
	}
	writeBoolInt(w, d.Store.Expire(string(args[0]), n))
}

func cmdPExpire(w reply.Writer, d *Dispatcher, args [][]byte) {
	n, ok := parseExpireArgs(w, args, "pexpire")
	if !ok {
		return
	}
	writeBoolInt(w, d.Store.PExpire(string(args[0]), n))
}

func parseExpireArgs(w reply.Writer, args [][]byte, cmd string) (int64, bool) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return 0, false
	}
	n, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return 0, false
	}
	return n, true
}

func cmdPersist(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("persist").Error())
		return
	}
	writeBoolInt(w, d.Store.Persist(string(args[0])))
}

func cmdTTL(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("ttl").Error())
		return
	}
	w.WriteInt64(d.Store.TTL(string(args[0])))
}

func cmdPTTL(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("pttl").Error())
		return
	}
	w.WriteInt64(d.Store.PTTL(string(args[0])))
}

func writeBoolInt(w reply.Writer, b bool) {
	if b {
		w.WriteInt(1)
	} else {
		w.WriteInt(0)
	}
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

// writeSubAck builds a subscribe/unsubscribe acknowledgement in the shape spec
// §4.3 requires: [action, name_or_null, total_subscription_count].
func writeSubAck(w reply.Writer, action string, name *string, count int) {
	w.WriteArray(3)
	w.WriteBulkString(action)
	if name == nil {
		w.WriteNull()
	} else {
		w.WriteBulkString(*name)
	}
	w.WriteInt(count)
}
