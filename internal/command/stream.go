package command

import (
	"strconv"
	"time"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/stream"
)

// errNoSuchStream mirrors Redis's "stream key must already exist" message
// for XGROUP/XSETID/XREADGROUP/XINFO against a missing key.
var errNoSuchStream = cmderr.New(cmderr.KindNoStream, "ERR no such key")

func getStream(d *Dispatcher, key string) (*stream.Stream, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagStream)
	if err != nil || !ok {
		return nil, ok, err
	}
	return blob.(*stream.Stream), true, nil
}

// mutateStream runs fn against key's stream, creating one first when create
// is set and the key is absent; fn's error (if any) aborts the mutation
// without bumping the key's version.
func mutateStream(d *Dispatcher, key string, create bool, fn func(st *stream.Stream) error) error {
	return d.Store.MutateBlob(key, store.TagStream, func(existing any, exists bool) (any, bool, error) {
		var st *stream.Stream
		if exists {
			st = existing.(*stream.Stream)
		} else if create {
			st = stream.New()
		} else {
			return nil, false, errNoSuchStream
		}
		if err := fn(st); err != nil {
			return nil, false, err
		}
		return st, true, nil
	})
}

func writeStreamID(w reply.Writer, id stream.ID) { w.WriteBulkString(id.String()) }

// writeStreamEntry writes one [id, fields] pair; fields is nil for a
// tombstoned entry still referenced in a PEL (spec §4.4).
func writeStreamEntry(w reply.Writer, e stream.Entry) {
	w.WriteArray(2)
	writeStreamID(w, e.ID)
	if e.Fields == nil {
		w.WriteNull()
		return
	}
	w.WriteArray(len(e.Fields) * 2)
	for _, f := range e.Fields {
		w.WriteBulkString(f.Name)
		w.WriteBulk(f.Value)
	}
}

func writeStreamEntries(w reply.Writer, entries []stream.Entry) {
	w.WriteArray(len(entries))
	for _, e := range entries {
		writeStreamEntry(w, e)
	}
}

func nextAfter(id stream.ID) stream.ID {
	if id.Seq == ^uint64(0) {
		return stream.ID{Ms: id.Ms + 1, Seq: 0}
	}
	return stream.ID{Ms: id.Ms, Seq: id.Seq + 1}
}

// dispatchStream routes every X* command (spec §4.4).
func (d *Dispatcher) dispatchStream(w reply.Writer, cs *ConnState, name string, args [][]byte) {
	switch name {
	case "XADD":
		d.cmdXAdd(w, args)
	case "XDEL":
		d.cmdXDel(w, args)
	case "XLEN":
		d.cmdXLen(w, args)
	case "XTRIM":
		d.cmdXTrim(w, args)
	case "XRANGE":
		d.cmdXRange(w, args, false)
	case "XREVRANGE":
		d.cmdXRange(w, args, true)
	case "XSETID":
		d.cmdXSetID(w, args)
	case "XGROUP":
		d.cmdXGroup(w, args)
	case "XREAD":
		d.cmdXRead(w, args)
	case "XREADGROUP":
		d.cmdXReadGroup(w, args)
	case "XACK":
		d.cmdXAck(w, args)
	case "XPENDING":
		d.cmdXPending(w, args)
	case "XCLAIM":
		d.cmdXClaim(w, args)
	case "XINFO":
		d.cmdXInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

// cmdXAdd parses XADD key [NOMKSTREAM] [MAXLEN|MINID [~|=] threshold [LIMIT
// count]] id field value [field value ...].
func (d *Dispatcher) cmdXAdd(w reply.Writer, args [][]byte) {
	if len(args) < 4 {
		w.WriteError(cmderr.Arity("xadd").Error())
		return
	}
	key := string(args[0])
	i := 1
	noMk := false
	if upperASCII(args[i]) == "NOMKSTREAM" {
		noMk = true
		i++
	}
	var trimKind string
	var trimThreshold string
	if i < len(args) {
		switch upperASCII(args[i]) {
		case "MAXLEN", "MINID":
			trimKind = upperASCII(args[i])
			i++
			if i < len(args) && (args[i][0] == '~' || args[i][0] == '=') {
				i++
			}
			if i >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			trimThreshold = string(args[i])
			i++
			if i+1 < len(args) && upperASCII(args[i]) == "LIMIT" {
				i += 2
			}
		}
	}
	if i >= len(args) {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	idToken := string(args[i])
	i++
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		w.WriteError(cmderr.Arity("xadd").Error())
		return
	}
	fields := make([]stream.Field, 0, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		fields = append(fields, stream.Field{Name: string(rest[j]), Value: rest[j+1]})
	}

	if noMk {
		if _, ok, err := getStream(d, key); err != nil {
			reply.Err(w, err)
			return
		} else if !ok {
			w.WriteNull()
			return
		}
	}

	// Every argument that can still fail to parse is resolved up front, so
	// the mutation below (which Stream can't roll back once Append runs)
	// never aborts partway through.
	var explicitID *stream.ID
	if idToken != "*" {
		id, err := stream.ParseExplicitID(idToken)
		if err != nil {
			w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
			return
		}
		explicitID = &id
	}
	var maxLen int
	var minID stream.ID
	switch trimKind {
	case "MAXLEN":
		n, err := strconv.Atoi(trimThreshold)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		maxLen = n
	case "MINID":
		id, err := stream.ParseExplicitID(trimThreshold)
		if err != nil {
			w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
			return
		}
		minID = id
	}

	var assigned stream.ID
	err := mutateStream(d, key, true, func(st *stream.Stream) error {
		id := explicitID
		var resolved stream.ID
		if id == nil {
			resolved = st.NextID(time.Now().UnixMilli())
		} else {
			resolved = *id
		}
		if err := st.Append(resolved, fields); err != nil {
			return err
		}
		assigned = resolved
		switch trimKind {
		case "MAXLEN":
			st.TrimMaxLen(maxLen)
		case "MINID":
			st.TrimMinID(minID)
		}
		return nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeStreamID(w, assigned)
}

func (d *Dispatcher) cmdXDel(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("xdel").Error())
		return
	}
	ids := make([]stream.ID, 0, len(args)-1)
	for _, a := range args[1:] {
		id, err := stream.ParseExplicitID(string(a))
		if err != nil {
			w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
			return
		}
		ids = append(ids, id)
	}
	n := 0
	_, ok, err := getStream(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if ok {
		err = mutateStream(d, string(args[0]), false, func(st *stream.Stream) error {
			n = st.Del(ids)
			return nil
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
	}
	w.WriteInt(n)
}

func (d *Dispatcher) cmdXLen(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("xlen").Error())
		return
	}
	st, ok, err := getStream(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteInt(0)
		return
	}
	w.WriteInt(st.Len())
}

// cmdXTrim parses XTRIM key MAXLEN|MINID [~|=] threshold.
func (d *Dispatcher) cmdXTrim(w reply.Writer, args [][]byte) {
	if len(args) < 3 {
		w.WriteError(cmderr.Arity("xtrim").Error())
		return
	}
	kind := upperASCII(args[1])
	if kind != "MAXLEN" && kind != "MINID" {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	i := 2
	if i < len(args) && (args[i][0] == '~' || args[i][0] == '=') {
		i++
	}
	if i >= len(args) {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	threshold := string(args[i])
	n := 0
	_, ok, err := getStream(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if ok {
		err = mutateStream(d, string(args[0]), false, func(st *stream.Stream) error {
			switch kind {
			case "MAXLEN":
				c, err := strconv.Atoi(threshold)
				if err != nil {
					return cmderr.NotInteger
				}
				n = st.TrimMaxLen(c)
			case "MINID":
				minID, err := stream.ParseExplicitID(threshold)
				if err != nil {
					return cmderr.Invalid("ERR Invalid stream ID specified as stream command argument")
				}
				n = st.TrimMinID(minID)
			}
			return nil
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
	}
	w.WriteInt(n)
}

// cmdXRange parses XRANGE/XREVRANGE key start end [COUNT n].
func (d *Dispatcher) cmdXRange(w reply.Writer, args [][]byte, rev bool) {
	cmd := "xrange"
	if rev {
		cmd = "xrevrange"
	}
	if len(args) != 3 && len(args) != 5 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	startTok, endTok := string(args[1]), string(args[2])
	if rev {
		startTok, endTok = string(args[2]), string(args[1])
	}
	count := 0
	if len(args) == 5 {
		if upperASCII(args[3]) != "COUNT" {
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
		c, err := strconv.Atoi(string(args[4]))
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		count = c
	}
	start, err := stream.ParseID(startTok, 0)
	if err != nil {
		w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
		return
	}
	end, err := stream.ParseID(endTok, ^uint64(0))
	if err != nil {
		w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
		return
	}
	st, ok, lerr := getStream(d, string(args[0]))
	if lerr != nil {
		reply.Err(w, lerr)
		return
	}
	if !ok {
		w.WriteArray(0)
		return
	}
	var entries []stream.Entry
	if rev {
		entries = st.RevRange(start, end, count)
	} else {
		entries = st.Range(start, end, count)
	}
	writeStreamEntries(w, entries)
}

func (d *Dispatcher) cmdXSetID(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("xsetid").Error())
		return
	}
	id, err := stream.ParseExplicitID(string(args[1]))
	if err != nil {
		w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
		return
	}
	err = mutateStream(d, string(args[0]), false, func(st *stream.Stream) error {
		return st.SetID(id)
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

// resolveGroupStart resolves XGROUP CREATE/SETID's id token: "$" means the
// stream's current last id, "-" the beginning of the stream.
func resolveGroupStart(st *stream.Stream, token string) (stream.ID, error) {
	if token == "$" {
		return st.LastID(), nil
	}
	return stream.ParseID(token, 0)
}

// cmdXGroup routes XGROUP CREATE/SETID/DESTROY/DELCONSUMER.
func (d *Dispatcher) cmdXGroup(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("xgroup").Error())
		return
	}
	switch upperASCII(args[0]) {
	case "CREATE":
		if len(args) < 4 {
			w.WriteError(cmderr.Arity("xgroup").Error())
			return
		}
		key, group, idToken := string(args[1]), string(args[2]), string(args[3])
		mkstream := len(args) >= 5 && upperASCII(args[4]) == "MKSTREAM"
		err := mutateStream(d, key, mkstream, func(st *stream.Stream) error {
			start, err := resolveGroupStart(st, idToken)
			if err != nil {
				return cmderr.Invalid("ERR Invalid stream ID specified as stream command argument")
			}
			return st.GroupCreate(group, start)
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
		reply.OK(w)

	case "SETID":
		if len(args) != 4 {
			w.WriteError(cmderr.Arity("xgroup").Error())
			return
		}
		key, group, idToken := string(args[1]), string(args[2]), string(args[3])
		err := mutateStream(d, key, false, func(st *stream.Stream) error {
			start, err := resolveGroupStart(st, idToken)
			if err != nil {
				return cmderr.Invalid("ERR Invalid stream ID specified as stream command argument")
			}
			return st.GroupSetID(group, start)
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
		reply.OK(w)

	case "DESTROY":
		if len(args) != 3 {
			w.WriteError(cmderr.Arity("xgroup").Error())
			return
		}
		destroyed := false
		err := mutateStream(d, string(args[1]), false, func(st *stream.Stream) error {
			destroyed = st.GroupDestroy(string(args[2]))
			return nil
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
		writeBoolInt(w, destroyed)

	case "DELCONSUMER":
		if len(args) != 4 {
			w.WriteError(cmderr.Arity("xgroup").Error())
			return
		}
		var n int
		err := mutateStream(d, string(args[1]), false, func(st *stream.Stream) error {
			got, err := st.GroupDelConsumer(string(args[2]), string(args[3]))
			n = got
			return err
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
		w.WriteInt(n)

	default:
		w.WriteError(cmderr.SyntaxErr.Error())
	}
}

// parseReadOpts parses the shared COUNT/BLOCK/NOACK prefix of
// XREAD/XREADGROUP up to (not including) the STREAMS keyword. NOACK is only
// meaningful for XREADGROUP; XREAD never emits it but accepting it here
// keeps one parser for both.
func parseReadOpts(args [][]byte, start int) (count int, blockMs int, noAck bool, streamsIdx int, ok bool) {
	blockMs = -1
	i := start
	for i < len(args) {
		switch upperASCII(args[i]) {
		case "COUNT":
			if i+1 >= len(args) {
				return 0, -1, false, 0, false
			}
			c, err := strconv.Atoi(string(args[i+1]))
			if err != nil {
				return 0, -1, false, 0, false
			}
			count = c
			i += 2
		case "BLOCK":
			if i+1 >= len(args) {
				return 0, -1, false, 0, false
			}
			b, err := strconv.Atoi(string(args[i+1]))
			if err != nil {
				return 0, -1, false, 0, false
			}
			blockMs = b
			i += 2
		case "NOACK":
			noAck = true
			i++
		case "STREAMS":
			return count, blockMs, noAck, i + 1, true
		default:
			return 0, -1, false, 0, false
		}
	}
	return 0, -1, false, 0, false
}

// blockOnce sleeps once for the requested BLOCK duration (spec §4.4
// resolves BLOCK's live-wakeup semantics down to a single retry-after-sleep
// instead of a wakeup channel, since this dispatcher has no per-key
// blocking-reader registry). A BLOCK 0 ("block forever") is capped at 1s so
// a connection can't wedge a handler goroutine indefinitely.
func blockOnce(blockMs int) {
	d := time.Duration(blockMs) * time.Millisecond
	if blockMs <= 0 {
		d = time.Second
	}
	time.Sleep(d)
}

func (d *Dispatcher) cmdXRead(w reply.Writer, args [][]byte) {
	count, blockMs, _, idx, ok := parseReadOpts(args, 0)
	if !ok {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	rest := args[idx:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	n := len(rest) / 2
	keys := rest[:n]
	idToks := rest[n:]

	froms := make([]stream.ID, n)
	for i, tok := range idToks {
		if string(tok) == "$" {
			st, ok, err := getStream(d, string(keys[i]))
			if err != nil {
				reply.Err(w, err)
				return
			}
			if ok {
				froms[i] = st.LastID()
			}
			continue
		}
		id, err := stream.ParseID(string(tok), 0)
		if err != nil {
			w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
			return
		}
		froms[i] = id
	}

	read := func() ([]string, [][]stream.Entry) {
		var rkeys []string
		var rentries [][]stream.Entry
		for i, key := range keys {
			st, ok, _ := getStream(d, string(key))
			if !ok {
				continue
			}
			entries := st.Range(nextAfter(froms[i]), stream.MaxID, count)
			if len(entries) > 0 {
				rkeys = append(rkeys, string(key))
				rentries = append(rentries, entries)
			}
		}
		return rkeys, rentries
	}

	rkeys, rentries := read()
	if len(rkeys) == 0 && blockMs >= 0 {
		blockOnce(blockMs)
		rkeys, rentries = read()
	}
	if len(rkeys) == 0 {
		reply.NullArray(w)
		return
	}
	w.WriteArray(len(rkeys))
	for i, key := range rkeys {
		w.WriteArray(2)
		w.WriteBulkString(key)
		writeStreamEntries(w, rentries[i])
	}
}

func (d *Dispatcher) cmdXReadGroup(w reply.Writer, args [][]byte) {
	if len(args) < 4 || upperASCII(args[0]) != "GROUP" {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	group, consumer := string(args[1]), string(args[2])
	count, blockMs, noAck, idx, ok := parseReadOpts(args, 3)
	if !ok {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	rest := args[idx:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	n := len(rest) / 2
	keys := rest[:n]
	idToks := rest[n:]

	read := func() ([]string, [][]stream.Entry, error) {
		var rkeys []string
		var rentries [][]stream.Entry
		for i, key := range keys {
			st, ok, err := getStream(d, string(key))
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				return nil, nil, errNoSuchStream
			}
			var entries []stream.Entry
			var rerr error
			if string(idToks[i]) == ">" {
				err = mutateStream(d, string(key), false, func(st *stream.Stream) error {
					entries, rerr = st.ReadGroupNew(group, consumer, count, time.Now().UnixMilli())
					if rerr != nil {
						return rerr
					}
					if noAck && len(entries) > 0 {
						ids := make([]stream.ID, len(entries))
						for j, e := range entries {
							ids[j] = e.ID
						}
						_, _ = st.Ack(group, ids)
					}
					return nil
				})
			} else {
				from, perr := stream.ParseID(string(idToks[i]), 0)
				if perr != nil {
					return nil, nil, cmderr.Invalid("ERR Invalid stream ID specified as stream command argument")
				}
				entries, err = st.ReadGroupHistory(group, consumer, from, count)
			}
			if err != nil {
				return nil, nil, err
			}
			if len(entries) > 0 {
				rkeys = append(rkeys, string(key))
				rentries = append(rentries, entries)
			}
		}
		return rkeys, rentries, nil
	}

	rkeys, rentries, err := read()
	if err != nil {
		reply.Err(w, err)
		return
	}
	if len(rkeys) == 0 && blockMs >= 0 {
		blockOnce(blockMs)
		rkeys, rentries, err = read()
		if err != nil {
			reply.Err(w, err)
			return
		}
	}
	if len(rkeys) == 0 {
		reply.NullArray(w)
		return
	}
	w.WriteArray(len(rkeys))
	for i, key := range rkeys {
		w.WriteArray(2)
		w.WriteBulkString(key)
		writeStreamEntries(w, rentries[i])
	}
}

func (d *Dispatcher) cmdXAck(w reply.Writer, args [][]byte) {
	if len(args) < 3 {
		w.WriteError(cmderr.Arity("xack").Error())
		return
	}
	ids := make([]stream.ID, 0, len(args)-2)
	for _, a := range args[2:] {
		id, err := stream.ParseExplicitID(string(a))
		if err != nil {
			w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
			return
		}
		ids = append(ids, id)
	}
	var n int
	err := mutateStream(d, string(args[0]), false, func(st *stream.Stream) error {
		got, err := st.Ack(string(args[1]), ids)
		n = got
		return err
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

// cmdXPending handles both XPENDING key group (summary) and XPENDING key
// group [IDLE ms] start end count [consumer] (extended).
func (d *Dispatcher) cmdXPending(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("xpending").Error())
		return
	}
	key, group := string(args[0]), string(args[1])
	st, ok, err := getStream(d, key)
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, stream.ErrNoGroup)
		return
	}

	if len(args) == 2 {
		sum, err := st.PendingSummary(group)
		if err != nil {
			reply.Err(w, err)
			return
		}
		if sum.Total == 0 {
			w.WriteArray(4)
			w.WriteInt(0)
			w.WriteNull()
			w.WriteNull()
			w.WriteNull()
			return
		}
		w.WriteArray(4)
		w.WriteInt(sum.Total)
		writeStreamID(w, sum.MinID)
		writeStreamID(w, sum.MaxID)
		w.WriteArray(len(sum.ByConsumer))
		for name, cnt := range sum.ByConsumer {
			w.WriteArray(2)
			w.WriteBulkString(name)
			w.WriteBulkString(strconv.Itoa(cnt))
		}
		return
	}

	i := 2
	var minIdleMs int64
	if upperASCII(args[i]) == "IDLE" {
		v, err := strconv.ParseInt(string(args[i+1]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		minIdleMs = v
		i += 2
	}
	if i+2 >= len(args) {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	start, err := stream.ParseID(string(args[i]), 0)
	if err != nil {
		w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
		return
	}
	end, err := stream.ParseID(string(args[i+1]), ^uint64(0))
	if err != nil {
		w.WriteError(cmderr.Invalid("ERR Invalid stream ID specified as stream command argument").Error())
		return
	}
	count, err := strconv.Atoi(string(args[i+2]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	consumer := ""
	if i+3 < len(args) {
		consumer = string(args[i+3])
	}
	rows, err := st.PendingRange(group, start, end, count, consumer, minIdleMs, time.Now().UnixMilli())
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(rows))
	for _, r := range rows {
		w.WriteArray(4)
		writeStreamID(w, r.ID)
		w.WriteBulkString(r.Consumer)
		w.WriteInt64(r.IdleMs)
		w.WriteInt64(r.DeliveryCnt)
	}
}

// cmdXClaim parses XCLAIM key group consumer min-idle-time id [id ...]
// [IDLE ms] [TIME ms] [RETRYCOUNT n] [FORCE] [JUSTID].
func (d *Dispatcher) cmdXClaim(w reply.Writer, args [][]byte) {
	if len(args) < 5 {
		w.WriteError(cmderr.Arity("xclaim").Error())
		return
	}
	key, group, consumer := string(args[0]), string(args[1]), string(args[2])
	minIdleMs, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	i := 4
	var ids []stream.ID
	for i < len(args) {
		id, perr := stream.ParseExplicitID(string(args[i]))
		if perr != nil {
			break
		}
		ids = append(ids, id)
		i++
	}
	if len(ids) == 0 {
		w.WriteError(cmderr.Arity("xclaim").Error())
		return
	}
	force := false
	justID := false
	var overrideDeliveredAt *int64
	var overrideDeliveryCnt *int64
	for i < len(args) {
		switch upperASCII(args[i]) {
		case "FORCE":
			force = true
			i++
		case "JUSTID":
			justID = true
			i++
		case "IDLE":
			v, perr := strconv.ParseInt(string(args[i+1]), 10, 64)
			if perr != nil {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			at := time.Now().UnixMilli() - v
			overrideDeliveredAt = &at
			i += 2
		case "TIME":
			v, perr := strconv.ParseInt(string(args[i+1]), 10, 64)
			if perr != nil {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			overrideDeliveredAt = &v
			i += 2
		case "RETRYCOUNT":
			v, perr := strconv.ParseInt(string(args[i+1]), 10, 64)
			if perr != nil {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			overrideDeliveryCnt = &v
			i += 2
		case "LASTID":
			i += 2
		default:
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
	}

	var results []stream.ClaimResult
	err = mutateStream(d, key, false, func(st *stream.Stream) error {
		got, cerr := st.Claim(group, consumer, minIdleMs, ids, force, overrideDeliveredAt, overrideDeliveryCnt, time.Now().UnixMilli())
		results = got
		return cerr
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	if justID {
		w.WriteArray(len(results))
		for _, r := range results {
			writeStreamID(w, r.ID)
		}
		return
	}
	live := make([]stream.Entry, 0, len(results))
	for _, r := range results {
		if r.Exists {
			live = append(live, stream.Entry{ID: r.ID, Fields: r.Fields})
		}
	}
	writeStreamEntries(w, live)
}

// cmdXInfo routes XINFO STREAM/GROUPS/CONSUMERS.
func (d *Dispatcher) cmdXInfo(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("xinfo").Error())
		return
	}
	key := string(args[1])
	st, ok, err := getStream(d, key)
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, errNoSuchStream)
		return
	}

	switch upperASCII(args[0]) {
	case "STREAM":
		info := st.Info()
		w.WriteArray(8)
		w.WriteBulkString("length")
		w.WriteInt(info.Length)
		w.WriteBulkString("last-generated-id")
		writeStreamID(w, info.LastGeneratedID)
		w.WriteBulkString("groups")
		w.WriteInt(info.Groups)
		w.WriteBulkString("first-entry")
		if info.FirstEntry != nil {
			writeStreamEntry(w, *info.FirstEntry)
		} else {
			w.WriteNull()
		}

	case "GROUPS":
		groups := st.GroupsInfo()
		w.WriteArray(len(groups))
		for _, g := range groups {
			w.WriteArray(8)
			w.WriteBulkString("name")
			w.WriteBulkString(g.Name)
			w.WriteBulkString("consumers")
			w.WriteInt(g.Consumers)
			w.WriteBulkString("pending")
			w.WriteInt(g.Pending)
			w.WriteBulkString("last-delivered-id")
			writeStreamID(w, g.LastDeliveredID)
		}

	case "CONSUMERS":
		if len(args) != 3 {
			w.WriteError(cmderr.Arity("xinfo").Error())
			return
		}
		consumers, err := st.ConsumersInfo(string(args[2]), time.Now().UnixMilli())
		if err != nil {
			reply.Err(w, err)
			return
		}
		w.WriteArray(len(consumers))
		for _, c := range consumers {
			w.WriteArray(6)
			w.WriteBulkString("name")
			w.WriteBulkString(c.Name)
			w.WriteBulkString("pending")
			w.WriteInt(c.Pending)
			w.WriteBulkString("idle")
			w.WriteInt64(c.IdleMs)
		}

	default:
		w.WriteError(cmderr.SyntaxErr.Error())
	}
}
