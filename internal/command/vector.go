package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/vectorengine"
)

func loadVectorStore(d *Dispatcher, key string) (*vectorengine.Store, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagVector)
	if err != nil || !ok {
		return nil, ok, err
	}
	return blob.(*vectorengine.Store), true, nil
}

func parseFloats(toks [][]byte) ([]float64, error) {
	out := make([]float64, len(toks))
	for i, t := range toks {
		v, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, cmderr.NotFloat
		}
		out[i] = v
	}
	return out, nil
}

// splitVectorValues splits a VSET tail (the arguments after id) into its
// VALUES vector and optional ATTRS field/value pairs:
// VALUES v1 v2 ... [ATTRS f1 v1 ...].
func splitVectorValues(args [][]byte) (values [][]byte, attrPairs [][]byte, ok bool) {
	if len(args) < 1 || upperASCII(args[0]) != "VALUES" {
		return nil, nil, false
	}
	rest := args[1:]
	for i, a := range rest {
		if upperASCII(a) == "ATTRS" {
			return rest[:i], rest[i+1:], true
		}
	}
	return rest, nil, true
}

func (d *Dispatcher) dispatchVector(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "VSET":
		d.cmdVSet(w, args)
	case "VGET":
		d.cmdVGet(w, args)
	case "VDIM":
		d.cmdVDim(w, args)
	case "VDEL":
		d.cmdVDel(w, args)
	case "VSIM":
		d.cmdVSim(w, args)
	case "VSEARCH":
		d.cmdVSearch(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

// cmdVSet parses VSET key id VALUES v1 v2 ... [ATTRS f1 val1 [f2 val2 ...]].
func (d *Dispatcher) cmdVSet(w reply.Writer, args [][]byte) {
	if len(args) < 4 {
		w.WriteError(cmderr.Arity("vset").Error())
		return
	}
	id := string(args[1])
	values, attrToks, ok := splitVectorValues(args[2:])
	if !ok || len(values) == 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	vec, err := parseFloats(values)
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	if len(attrToks)%2 != 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	var attrs map[string]string
	if len(attrToks) > 0 {
		attrs = make(map[string]string, len(attrToks)/2)
		for i := 0; i < len(attrToks); i += 2 {
			attrs[string(attrToks[i])] = string(attrToks[i+1])
		}
	}

	err = d.Store.MutateBlob(string(args[0]), store.TagVector, func(existing any, exists bool) (any, bool, error) {
		var vs *vectorengine.Store
		if exists {
			var ok bool
			vs, ok = existing.(*vectorengine.Store)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			vs = vectorengine.New()
		}
		if serr := vs.Set(id, vec, attrs); serr != nil {
			return nil, false, cmderr.Invalid(serr.Error())
		}
		return vs, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func (d *Dispatcher) cmdVGet(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("vget").Error())
		return
	}
	vs, ok, err := loadVectorStore(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	vec, attrs, ok := vs.Get(string(args[1]))
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteArray(2)
	w.WriteArray(len(vec))
	for _, v := range vec {
		w.WriteBulkString(reply.FormatScoreG17(v))
	}
	w.WriteArray(len(attrs) * 2)
	for k, v := range attrs {
		w.WriteBulkString(k)
		w.WriteBulkString(v)
	}
}

func (d *Dispatcher) cmdVDim(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("vdim").Error())
		return
	}
	vs, ok, err := loadVectorStore(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteInt(0)
		return
	}
	w.WriteInt(vs.Dim())
}

func (d *Dispatcher) cmdVDel(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("vdel").Error())
		return
	}
	var removed bool
	err := d.Store.MutateBlob(string(args[0]), store.TagVector, func(existing any, exists bool) (any, bool, error) {
		if !exists {
			return nil, false, nil
		}
		vs, ok := existing.(*vectorengine.Store)
		if !ok {
			return nil, false, cmderr.WrongType
		}
		removed = vs.Del(string(args[1]))
		return vs, removed, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	if removed {
		d.Store.DeleteBlobIfEmpty(string(args[0]), func(blob any) bool {
			vs, ok := blob.(*vectorengine.Store)
			return ok && vs.Len() == 0
		})
	}
	writeBoolInt(w, removed)
}

func writeScored(w reply.Writer, results []vectorengine.Scored) {
	w.WriteArray(len(results) * 2)
	for _, r := range results {
		w.WriteBulkString(r.ID)
		w.WriteBulkString(reply.FormatScoreG17(r.Score))
	}
}

// cmdVSim parses VSIM key COUNT n VALUES v1 v2 ....
func (d *Dispatcher) cmdVSim(w reply.Writer, args [][]byte) {
	if len(args) < 4 || upperASCII(args[1]) != "COUNT" {
		w.WriteError(cmderr.Arity("vsim").Error())
		return
	}
	count, err := strconv.Atoi(string(args[2]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	values, _, ok := splitVectorValues(args[3:])
	if !ok || len(values) == 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	query, perr := parseFloats(values)
	if perr != nil {
		w.WriteError(perr.Error())
		return
	}
	vs, ok, lerr := loadVectorStore(d, string(args[0]))
	if lerr != nil {
		reply.Err(w, lerr)
		return
	}
	if !ok {
		w.WriteArray(0)
		return
	}
	writeScored(w, vs.Sim(query, count))
}

// cmdVSearch parses VSEARCH key COUNT n VALUES v1 v2 ... [FILTER f1 val1 ...].
func (d *Dispatcher) cmdVSearch(w reply.Writer, args [][]byte) {
	if len(args) < 4 || upperASCII(args[1]) != "COUNT" {
		w.WriteError(cmderr.Arity("vsearch").Error())
		return
	}
	count, err := strconv.Atoi(string(args[2]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	tail := args[3:]
	if len(tail) < 1 || upperASCII(tail[0]) != "VALUES" {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	tail = tail[1:]
	var values, filterToks [][]byte
	split := len(tail)
	for i, a := range tail {
		if upperASCII(a) == "FILTER" {
			split = i
			filterToks = tail[i+1:]
			break
		}
	}
	values = tail[:split]
	if len(values) == 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	query, perr := parseFloats(values)
	if perr != nil {
		w.WriteError(perr.Error())
		return
	}
	if len(filterToks)%2 != 0 {
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	want := make(map[string]string, len(filterToks)/2)
	for i := 0; i < len(filterToks); i += 2 {
		want[string(filterToks[i])] = string(filterToks[i+1])
	}

	vs, ok, lerr := loadVectorStore(d, string(args[0]))
	if lerr != nil {
		reply.Err(w, lerr)
		return
	}
	if !ok {
		w.WriteArray(0)
		return
	}
	var filter func(id string, attrs map[string]string) bool
	if len(want) > 0 {
		filter = func(_ string, attrs map[string]string) bool {
			for k, v := range want {
				if attrs[k] != v {
					return false
				}
			}
			return true
		}
	}
	writeScored(w, vs.Search(query, count, filter))
}
