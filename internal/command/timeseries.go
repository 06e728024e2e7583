package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/timeseries"
)

func loadSeries(d *Dispatcher, key string) (*timeseries.Series, bool, error) {
	blob, ok, err := d.Store.LoadBlob(key, store.TagTimeSeries)
	if err != nil || !ok {
		return nil, ok, err
	}
	return blob.(*timeseries.Series), true, nil
}

func (d *Dispatcher) dispatchTimeSeries(w reply.Writer, name string, args [][]byte) {
	switch name {
	case "TS.CREATE":
		d.cmdTSCreate(w, args)
	case "TS.ADD":
		d.cmdTSAdd(w, args)
	case "TS.INCRBY":
		d.cmdTSIncrBy(w, args, 1)
	case "TS.DECRBY":
		d.cmdTSIncrBy(w, args, -1)
	case "TS.GET":
		d.cmdTSGet(w, args)
	case "TS.RANGE":
		d.cmdTSRange(w, args, false)
	case "TS.REVRANGE":
		d.cmdTSRange(w, args, true)
	case "TS.MRANGE":
		d.cmdTSMRange(w, args)
	case "TS.DEL":
		d.cmdTSDel(w, args)
	case "TS.INFO":
		d.cmdTSInfo(w, args)
	default:
		w.WriteError("ERR unknown command '" + name + "'")
	}
}

// parseLabels parses a trailing "LABELS k1 v1 k2 v2 ..." clause, if present.
func parseLabels(args [][]byte, from int) map[string]string {
	if from >= len(args) || upperASCII(args[from]) != "LABELS" {
		return nil
	}
	toks := args[from+1:]
	labels := make(map[string]string, len(toks)/2)
	for i := 0; i+1 < len(toks); i += 2 {
		labels[string(toks[i])] = string(toks[i+1])
	}
	return labels
}

// cmdTSCreate parses TS.CREATE key [RETENTION ms] [LABELS k1 v1 ...].
func (d *Dispatcher) cmdTSCreate(w reply.Writer, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("ts.create").Error())
		return
	}
	i := 1
	var retention int64
	if i+1 < len(args) && upperASCII(args[i]) == "RETENTION" {
		v, err := strconv.ParseInt(string(args[i+1]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		retention = v
		i += 2
	}
	labels := parseLabels(args, i)
	d.Store.StoreBlob(string(args[0]), store.TagTimeSeries, timeseries.New(labels, retention))
	reply.OK(w)
}

func (d *Dispatcher) cmdTSAdd(w reply.Writer, args [][]byte) {
	if len(args) < 3 {
		w.WriteError(cmderr.Arity("ts.add").Error())
		return
	}
	ts, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	val, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		w.WriteError(cmderr.NotFloat.Error())
		return
	}
	labels := parseLabels(args, 3)
	err = d.Store.MutateBlob(string(args[0]), store.TagTimeSeries, func(existing any, exists bool) (any, bool, error) {
		var s *timeseries.Series
		if exists {
			var ok bool
			s, ok = existing.(*timeseries.Series)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			s = timeseries.New(labels, 0)
		}
		s.Add(ts, val)
		return s, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt64(ts)
}

func (d *Dispatcher) cmdTSIncrBy(w reply.Writer, args [][]byte, sign float64) {
	cmd := "ts.incrby"
	if sign < 0 {
		cmd = "ts.decrby"
	}
	if len(args) < 2 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	delta, err := strconv.ParseFloat(string(args[1]), 64)
	if err != nil {
		w.WriteError(cmderr.NotFloat.Error())
		return
	}
	ts := time.Now().UnixMilli()
	if len(args) >= 4 && upperASCII(args[2]) == "TIMESTAMP" {
		v, perr := strconv.ParseInt(string(args[3]), 10, 64)
		if perr != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		ts = v
	}
	var result float64
	err = d.Store.MutateBlob(string(args[0]), store.TagTimeSeries, func(existing any, exists bool) (any, bool, error) {
		var s *timeseries.Series
		if exists {
			var ok bool
			s, ok = existing.(*timeseries.Series)
			if !ok {
				return nil, false, cmderr.WrongType
			}
		} else {
			s = timeseries.New(nil, 0)
		}
		result = s.IncrBy(ts, sign*delta)
		return s, true, nil
	})
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteBulkString(reply.FormatScoreG17(result))
}

func (d *Dispatcher) cmdTSGet(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("ts.get").Error())
		return
	}
	s, ok, err := loadSeries(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	sample, ok := s.Last()
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteArray(2)
	w.WriteInt64(sample.Timestamp)
	w.WriteBulkString(reply.FormatScoreG17(sample.Value))
}

func writeSamples(w reply.Writer, samples []timeseries.Sample) {
	w.WriteArray(len(samples))
	for _, s := range samples {
		w.WriteArray(2)
		w.WriteInt64(s.Timestamp)
		w.WriteBulkString(reply.FormatScoreG17(s.Value))
	}
}

func (d *Dispatcher) cmdTSRange(w reply.Writer, args [][]byte, rev bool) {
	cmd := "ts.range"
	if rev {
		cmd = "ts.revrange"
	}
	if len(args) != 3 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	from, to, ok := parseRangeIndexes(args[1], args[2])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	s, ok, err := loadSeries(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteArray(0)
		return
	}
	if rev {
		writeSamples(w, s.RevRange(from, to))
	} else {
		writeSamples(w, s.Range(from, to))
	}
}

// cmdTSMRange parses TS.MRANGE from to FILTER label=value [label=value ...],
// scanning every key tagged as a time series for a label match (spec §4.4's
// multi-series query, scoped to exact-match label filters).
func (d *Dispatcher) cmdTSMRange(w reply.Writer, args [][]byte) {
	if len(args) < 4 || upperASCII(args[2]) != "FILTER" {
		w.WriteError(cmderr.Arity("ts.mrange").Error())
		return
	}
	from, to, ok := parseRangeIndexes(args[0], args[1])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	want := make(map[string]string, len(args)-3)
	for _, tok := range args[3:] {
		parts := strings.SplitN(string(tok), "=", 2)
		if len(parts) != 2 {
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
		want[parts[0]] = parts[1]
	}

	keys := d.Store.Keys(func(k string) bool {
		t, ok := d.Store.Type(k)
		return ok && t == "timeseries"
	})
	var matched []string
	for _, k := range keys {
		s, ok, err := loadSeries(d, k)
		if err != nil || !ok {
			continue
		}
		match := true
		for lk, lv := range want {
			if s.Labels[lk] != lv {
				match = false
				break
			}
		}
		if match {
			matched = append(matched, k)
		}
	}

	w.WriteArray(len(matched))
	for _, k := range matched {
		s, _, _ := loadSeries(d, k)
		w.WriteArray(2)
		w.WriteBulkString(k)
		writeSamples(w, s.Range(from, to))
	}
}

func (d *Dispatcher) cmdTSDel(w reply.Writer, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("ts.del").Error())
		return
	}
	from, to, ok := parseRangeIndexes(args[1], args[2])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	var n int
	_, exists, err := loadSeries(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if exists {
		err = d.Store.MutateBlob(string(args[0]), store.TagTimeSeries, func(existing any, ok bool) (any, bool, error) {
			s := existing.(*timeseries.Series)
			n = s.Del(from, to)
			return s, n > 0, nil
		})
		if err != nil {
			reply.Err(w, err)
			return
		}
	}
	w.WriteInt(n)
}

func (d *Dispatcher) cmdTSInfo(w reply.Writer, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("ts.info").Error())
		return
	}
	s, ok, err := loadSeries(d, string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		reply.Err(w, cmderr.NotFound)
		return
	}
	w.WriteArray(6)
	w.WriteBulkString("totalSamples")
	w.WriteInt(s.Len())
	w.WriteBulkString("retentionTime")
	w.WriteInt64(s.RetentionMs)
	w.WriteBulkString("labels")
	w.WriteArray(len(s.Labels) * 2)
	for k, v := range s.Labels {
		w.WriteBulkString(k)
		w.WriteBulkString(v)
	}
}
