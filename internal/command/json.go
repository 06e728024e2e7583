package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/jsondoc"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
)

func loadDoc(d *Dispatcher, key string) (*jsondoc.Doc, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagJSON)
	if err != nil || !ok {
		return nil, ok, err
	}
	return blob.(*jsondoc.Doc), true, nil
}

// jsonPath defaults a JSON.* command's optional path argument to the root
// ("$", gjson/sjson's whole-document path).
func jsonPath(args [][]byte, idx int) string {
	if idx < len(args) {
		return string(args[idx])
	}
	return "$"
}

func (d *Dispatcher) dispatchJSON(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "JSON.SET":
		d.cmdJSONSet(w, args)
	case "JSON.GET":
		d.cmdJSONGet(w, args)
	case "JSON.DEL", "JSON.FORGET":
		d.cmdJSONDel(w, args)
	case "JSON.TYPE":
		d.cmdJSONType(w, args)
	case "JSON.ARRAPPEND":
		d.cmdJSONArrAppend(w, args)
	case "JSON.ARRLEN":
		d.cmdJSONArrLen(w, args)
	case "JSON.NUMINCRBY":
		d.cmdJSONNumIncrBy(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

// cmdJSONSet parses JSON.SET key path value.
func (d *Dispatcher) cmdJSONSet(w reply.Writer, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("json.set").Error())
		return
	}
	path := string(args[1])
	value := string(args[2])
	err := d.Store.MutateBlob(string(args[0]), store.TagJSON, func(existing any, exists bool) (any, bool, error) {
		if !exists && (path == "$" || path == ".") {
			doc, derr := jsondoc.New(value)
			if derr != nil {
				return nil, false, cmderr.Invalid("ERR " + derr.Error())
			}
			return doc, true, nil
		}
		if !exists {
			return nil, false, cmderr.Invalid("ERR new objects must be created at the root")
		}
		doc, ok := existing.(*jsondoc.Doc)
		if !ok {
			return nil, false, cmderr.WrongType
		}
		if err := doc.Set(path, value); err != nil {
			return nil, false, cmderr.Invalid("ERR " + err.Error())
		}
		return doc, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func (d *Dispatcher) cmdJSONGet(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("json.get").Error())
		return
	}
	doc, ok, err := loadDoc(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	path := jsonPath(args, 1)
	if path == "$" || path == "." {
		w.WriteBulkString(doc.Raw())
		return
	}
	v, ok := doc.Get(path)
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulkString(v)
}

func (d *Dispatcher) cmdJSONDel(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("json.del").Error())
		return
	}
	path := jsonPath(args, 1)
	var removed bool
	err := d.Store.MutateBlob(string(args[0]), store.TagJSON, func(existing any, exists bool) (any, bool, error) {
		if !exists {
			return nil, false, nil
		}
		doc, ok := existing.(*jsondoc.Doc)
		if !ok {
			return nil, false, cmderr.WrongType
		}
		got, derr := doc.Del(path)
		if derr != nil {
			return nil, false, cmderr.Invalid("ERR " + derr.Error())
		}
		removed = got
		return doc, got, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	if removed {
		d.Store.DeleteBlobIfEmpty(string(args[0]), func(blob any) bool {
			doc, ok := blob.(*jsondoc.Doc)
			return ok && (doc.Raw() == "" || doc.Raw() == "null")
		})
	}
	writeBoolInt(w, removed)
}

func (d *Dispatcher) cmdJSONType(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("json.type").Error())
		return
	}
	doc, ok, err := loadDoc(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	t, ok := doc.Type(jsonPath(args, 1))
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulkString(t)
}

// cmdJSONArrAppend parses JSON.ARRAPPEND key path value.
func (d *Dispatcher) cmdJSONArrAppend(w reply.Writer, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("json.arrappend").Error())
		return
	}
	path, value := string(args[1]), string(args[2])
	var n int
	err := d.Store.MutateBlob(string(args[0]), store.TagJSON, func(existing any, exists bool) (any, bool, error) {
		if !exists {
			return nil, false, cmderr.Invalid("ERR " + jsondoc.ErrNotFound.Error())
		}
		doc, ok := existing.(*jsondoc.Doc)
		if !ok {
			return nil, false, cmderr.WrongType
		}
		got, aerr := doc.ArrAppend(path, value)
		if aerr != nil {
			return nil, false, cmderr.Invalid("ERR " + aerr.Error())
		}
		n = got
		return doc, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func (d *Dispatcher) cmdJSONArrLen(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("json.arrlen").Error())
		return
	}
	doc, ok, err := loadDoc(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	n, err := doc.ArrLen(jsonPath(args, 1))
	if err != nil {
		w.WriteNull()
		return
	}
	w.WriteInt(n)
}

// cmdJSONNumIncrBy parses JSON.NUMINCRBY key path delta.
func (d *Dispatcher) cmdJSONNumIncrBy(w reply.Writer, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("json.numincrby").Error())
		return
	}
	path := string(args[1])
	delta, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		w.WriteError(cmderr.NotFloat.Error())
		return
	}
	var result float64
	err = d.Store.MutateBlob(string(args[0]), store.TagJSON, func(existing any, exists bool) (any, bool, error) {
		if !exists {
			return nil, false, cmderr.Invalid("ERR " + jsondoc.ErrNotFound.Error())
		}
		doc, ok := existing.(*jsondoc.Doc)
		if !ok {
			return nil, false, cmderr.WrongType
		}
		got, nerr := doc.NumIncrBy(path, delta)
		if nerr != nil {
			return nil, false, cmderr.Invalid("ERR " + nerr.Error())
		}
		result = got
		return doc, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteBulkString(reply.FormatScoreG17(result))
}
