package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/probabilistic"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
)

const (
	defaultBloomCapacity  = 1000
	defaultBloomErrorRate = 0.01
	defaultCuckooCapacity = 1000
	defaultTopK           = 10
)

// --- HyperLogLog (PFADD/PFCOUNT/PFMERGE) ---

func loadHLL(d *Dispatcher, key string) (*probabilistic.HLL, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagProbabilistic)
	if err != nil || !ok {
		return nil, ok, err
	}
	h, ok := blob.(*probabilistic.HLL)
	if !ok {
		return nil, false, cmderr.WrongType
	}
	return h, true, nil
}

func (d *Dispatcher) dispatchHLL(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "PFADD":
		d.cmdPFAdd(w, args)
	case "PFCOUNT":
		d.cmdPFCount(w, args)
	case "PFMERGE":
		d.cmdPFMerge(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) cmdPFAdd(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("pfadd").Error())
		return
	}
	changed := false
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var h *probabilistic.HLL
		if exists {
			var ok bool
			h, ok = existing.(*probabilistic.HLL)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			h = probabilistic.NewHLL()
			changed = true
		}
		for _, a := range args[1:] {
			if h.Add(a) {
				changed = true
			}
		}
		return h, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeBoolInt(w, changed)
}

func (d *Dispatcher) cmdPFCount(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("pfcount").Error())
		return
	}
	merged := probabilistic.NewHLL()
	found := false
	for _, a := range args {
		h, ok, err := loadHLL(d, string(a))
		if err != nil {
			reply.Err(w, err)
			return
		}
		if ok {
			merged.Merge(h)
			found = true
		}
	}
	if !found {
		w.WriteInt(0)
		return
	}
	w.WriteInt64(int64(merged.Count()))
}

func (d *Dispatcher) cmdPFMerge(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("pfmerge").Error())
		return
	}
	srcs := make([]*probabilistic.HLL, 0, len(args)-1)
	for _, a := range args[1:] {
		h, ok, err := loadHLL(d, string(a))
		if err != nil {
			reply.Err(w, err)
			return
		}
		if ok {
			srcs = append(srcs, h)
		}
	}
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var h *probabilistic.HLL
		if exists {
			var ok bool
			h, ok = existing.(*probabilistic.HLL)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			h = probabilistic.NewHLL()
		}
		for _, src := range srcs {
			h.Merge(src)
		}
		return h, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

// --- Bloom filter (BF.*) ---

func loadBloom(d *Dispatcher, key string) (*probabilistic.Bloom, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagProbabilistic)
	if err != nil || !ok {
		return nil, ok, err
	}
	b, ok := blob.(*probabilistic.Bloom)
	if !ok {
		return nil, false, cmderr.WrongType
	}
	return b, true, nil
}

func (d *Dispatcher) dispatchBloom(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "BF.RESERVE":
		d.cmdBFReserve(w, args)
	case "BF.ADD":
		d.cmdBFAdd(w, args)
	case "BF.EXISTS":
		d.cmdBFExists(w, args)
	case "BF.INFO":
		d.cmdBFInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) cmdBFReserve(w reply.Writer, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("bf.reserve").Error())
		return
	}
	errRate, err := strconv.ParseFloat(string(args[1]), 64)
	if err != nil {
		w.WriteError(cmderr.NotFloat.Error())
		return
	}
	capacity, err := strconv.Atoi(string(args[2]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	d.Store.StoreBlob(string(args[0]), store.TagProbabilistic, probabilistic.NewBloom(uint(capacity), errRate))
	reply.OK(w)
}

func (d *Dispatcher) cmdBFAdd(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("bf.add").Error())
		return
	}
	var added bool
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var b *probabilistic.Bloom
		if exists {
			var ok bool
			b, ok = existing.(*probabilistic.Bloom)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			b = probabilistic.NewBloom(defaultBloomCapacity, defaultBloomErrorRate)
		}
		added = b.Add(args[1])
		return b, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeBoolInt(w, added)
}

func (d *Dispatcher) cmdBFExists(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("bf.exists").Error())
		return
	}
	b, ok, err := loadBloom(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteInt(0)
		return
	}
	writeBoolInt(w, b.Exists(args[1]))
}

func (d *Dispatcher) cmdBFInfo(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("bf.info").Error())
		return
	}
	b, ok, err := loadBloom(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, cmderr.NotFound)
		return
	}
	w.WriteArray(4)
	w.WriteBulkString("capacity")
	w.WriteInt(int(b.Capacity()))
	w.WriteBulkString("error-rate")
	w.WriteBulkString(reply.FormatScore(b.ErrorRate()))
}

// --- Cuckoo filter (CF.*) ---

func loadCuckoo(d *Dispatcher, key string) (*probabilistic.Cuckoo, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagProbabilistic)
	if err != nil || !ok {
		return nil, ok, err
	}
	c, ok := blob.(*probabilistic.Cuckoo)
	if !ok {
		return nil, false, cmderr.WrongType
	}
	return c, true, nil
}

func (d *Dispatcher) dispatchCuckoo(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "CF.RESERVE":
		d.cmdCFReserve(w, args)
	case "CF.ADD":
		d.cmdCFAdd(w, args, false)
	case "CF.ADDNX":
		d.cmdCFAdd(w, args, true)
	case "CF.EXISTS":
		d.cmdCFExists(w, args)
	case "CF.DEL":
		d.cmdCFDel(w, args)
	case "CF.INFO":
		d.cmdCFInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) cmdCFReserve(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("cf.reserve").Error())
		return
	}
	capacity, err := strconv.Atoi(string(args[1]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	d.Store.StoreBlob(string(args[0]), store.TagProbabilistic, probabilistic.NewCuckoo(uint(capacity)))
	reply.OK(w)
}

func (d *Dispatcher) cmdCFAdd(w reply.Writer, args [][]byte, nx bool) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("cf.add").Error())
		return
	}
	var added bool
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var c *probabilistic.Cuckoo
		if exists {
			var ok bool
			c, ok = existing.(*probabilistic.Cuckoo)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			c = probabilistic.NewCuckoo(defaultCuckooCapacity)
		}
		if nx {
			added = c.Add(args[1])
		} else {
			added = c.AddAllowDup(args[1])
		}
		return c, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeBoolInt(w, added)
}

func (d *Dispatcher) cmdCFExists(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("cf.exists").Error())
		return
	}
	c, ok, err := loadCuckoo(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteInt(0)
		return
	}
	writeBoolInt(w, c.Exists(args[1]))
}

func (d *Dispatcher) cmdCFDel(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("cf.del").Error())
		return
	}
	c, ok, err := loadCuckoo(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteInt(0)
		return
	}
	writeBoolInt(w, c.Del(args[1]))
}

func (d *Dispatcher) cmdCFInfo(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("cf.info").Error())
		return
	}
	c, ok, err := loadCuckoo(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, cmderr.NotFound)
		return
	}
	w.WriteArray(4)
	w.WriteBulkString("capacity")
	w.WriteInt(int(c.Capacity()))
	w.WriteBulkString("size")
	w.WriteInt(int(c.Count()))
}

// --- t-digest (TDIGEST.*) ---

func loadTDigest(d *Dispatcher, key string) (*probabilistic.TDigest, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagProbabilistic)
	if err != nil || !ok {
		return nil, ok, err
	}
	t, ok := blob.(*probabilistic.TDigest)
	if !ok {
		return nil, false, cmderr.WrongType
	}
	return t, true, nil
}

func (d *Dispatcher) dispatchTDigest(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "TDIGEST.CREATE":
		d.cmdTDigestCreate(w, args)
	case "TDIGEST.ADD":
		d.cmdTDigestAdd(w, args)
	case "TDIGEST.QUANTILE":
		d.cmdTDigestQuantile(w, args)
	case "TDIGEST.MERGE":
		d.cmdTDigestMerge(w, args)
	case "TDIGEST.MIN":
		d.cmdTDigestMinMax(w, args, false)
	case "TDIGEST.MAX":
		d.cmdTDigestMinMax(w, args, true)
	case "TDIGEST.INFO":
		d.cmdTDigestInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) cmdTDigestCreate(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("tdigest.create").Error())
		return
	}
	compression := 0.0
	if len(args) >= 3 && upperASCII(args[1]) == "COMPRESSION" {
		c, err := strconv.ParseFloat(string(args[2]), 64)
		if err != nil {
			w.WriteError(cmderr.NotFloat.Error())
			return
		}
		compression = c
	}
	td, err := probabilistic.NewTDigest(compression)
	if err != nil {
		reply.Internal(w)
		return
	}
	d.Store.StoreBlob(string(args[0]), store.TagProbabilistic, td)
	reply.OK(w)
}

func (d *Dispatcher) cmdTDigestAdd(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("tdigest.add").Error())
		return
	}
	values := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(string(a), 64)
		if err != nil {
			w.WriteError(cmderr.NotFloat.Error())
			return
		}
		values = append(values, v)
	}
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var t *probabilistic.TDigest
		if exists {
			var ok bool
			t, ok = existing.(*probabilistic.TDigest)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			var cerr error
			t, cerr = probabilistic.NewTDigest(0)
			if cerr != nil {
				return nil, false, cerr
			}
		}
		for _, v := range values {
			if aerr := t.Add(v); aerr != nil {
				return nil, false, aerr
			}
		}
		return t, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func (d *Dispatcher) cmdTDigestQuantile(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("tdigest.quantile").Error())
		return
	}
	t, ok, err := loadTDigest(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(args) - 1)
	for _, a := range args[1:] {
		q, perr := strconv.ParseFloat(string(a), 64)
		if perr != nil {
			w.WriteError(cmderr.NotFloat.Error())
			return
		}
		if !ok {
			w.WriteBulkString(reply.FormatScoreG17(0))
			continue
		}
		w.WriteBulkString(reply.FormatScoreG17(t.Quantile(q)))
	}
}

func (d *Dispatcher) cmdTDigestMerge(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("tdigest.merge").Error())
		return
	}
	srcs := make([]*probabilistic.TDigest, 0, len(args)-1)
	for _, a := range args[1:] {
		t, ok, err := loadTDigest(d, string(a))
		if err != nil {
			reply.Err(w, err)
			return
		}
		if ok {
			srcs = append(srcs, t)
		}
	}
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var t *probabilistic.TDigest
		if exists {
			var ok bool
			t, ok = existing.(*probabilistic.TDigest)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			var cerr error
			t, cerr = probabilistic.NewTDigest(0)
			if cerr != nil {
				return nil, false, cerr
			}
		}
		for _, src := range srcs {
			if merr := t.Merge(src); merr != nil {
				return nil, false, merr
			}
		}
		return t, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	reply.OK(w)
}

func (d *Dispatcher) cmdTDigestMinMax(w reply.Writer, args [][]byte, max bool) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("tdigest.min").Error())
		return
	}
	t, ok, err := loadTDigest(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	if max {
		w.WriteBulkString(reply.FormatScoreG17(t.Max()))
		return
	}
	w.WriteBulkString(reply.FormatScoreG17(t.Min()))
}

func (d *Dispatcher) cmdTDigestInfo(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("tdigest.info").Error())
		return
	}
	t, ok, err := loadTDigest(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, cmderr.NotFound)
		return
	}
	w.WriteArray(2)
	w.WriteBulkString("observations")
	w.WriteInt64(int64(t.Count()))
}

// --- TopK (TOPK.*) ---

func loadTopK(d *Dispatcher, key string) (*probabilistic.TopK, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagProbabilistic)
	if err != nil || !ok {
		return nil, ok, err
	}
	t, ok := blob.(*probabilistic.TopK)
	if !ok {
		return nil, false, cmderr.WrongType
	}
	return t, true, nil
}

func (d *Dispatcher) dispatchTopK(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "TOPK.RESERVE":
		d.cmdTopKReserve(w, args)
	case "TOPK.ADD":
		d.cmdTopKAdd(w, args)
	case "TOPK.QUERY":
		d.cmdTopKQuery(w, args)
	case "TOPK.COUNT":
		d.cmdTopKCount(w, args)
	case "TOPK.LIST":
		d.cmdTopKList(w, args)
	case "TOPK.INFO":
		d.cmdTopKInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) cmdTopKReserve(w reply.Writer, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("topk.reserve").Error())
		return
	}
	k, err := strconv.Atoi(string(args[1]))
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	d.Store.StoreBlob(string(args[0]), store.TagProbabilistic, probabilistic.NewTopK(k))
	reply.OK(w)
}

func (d *Dispatcher) cmdTopKAdd(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("topk.add").Error())
		return
	}
	dropped := make([]string, len(args)-1)
	err := d.Store.MutateBlob(string(args[0]), store.TagProbabilistic, func(existing any, exists bool) (any, bool, error) {
		var t *probabilistic.TopK
		if exists {
			var ok bool
			t, ok = existing.(*probabilistic.TopK)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			t = probabilistic.NewTopK(defaultTopK)
		}
		for i, a := range args[1:] {
			dropped[i] = t.Add(string(a))
		}
		return t, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(dropped))
	for _, name := range dropped {
		if name == "" {
			w.WriteNull()
			continue
		}
		w.WriteBulkString(name)
	}
}

func (d *Dispatcher) cmdTopKQuery(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("topk.query").Error())
		return
	}
	t, ok, err := loadTopK(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(args) - 1)
	for _, a := range args[1:] {
		writeBoolInt(w, ok && t.Query(string(a)))
	}
}

func (d *Dispatcher) cmdTopKCount(w reply.Writer, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("topk.count").Error())
		return
	}
	t, ok, err := loadTopK(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(args) - 1)
	for _, a := range args[1:] {
		if !ok {
			w.WriteInt64(0)
			continue
		}
		w.WriteInt64(int64(t.Count(string(a))))
	}
}

func (d *Dispatcher) cmdTopKList(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("topk.list").Error())
		return
	}
	t, ok, err := loadTopK(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteArray(0)
		return
	}
	items := t.List()
	w.WriteArray(len(items))
	reply.BulkStrings(w, stringsToBytes(items))
}

func (d *Dispatcher) cmdTopKInfo(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("topk.info").Error())
		return
	}
	t, ok, err := loadTopK(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, cmderr.NotFound)
		return
	}
	w.WriteArray(2)
	w.WriteBulkString("k")
	w.WriteInt(t.K())
}

func stringsToBytes(items []string) [][]byte {
	out := make([][]byte, len(items))
	for i, s := range items {
		out[i] = []byte(s)
	}
	return out
}
