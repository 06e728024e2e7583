package command

import (
	"math"
	"strconv"
	"strings"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
)

// parseScore parses a ZADD/ZINCRBY score, rejecting NaN (spec §4.1).
func parseScore(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, cmderr.NotFloat
	}
	return f, nil
}

// parseScoreBound parses a ZRANGEBYSCORE/ZCOUNT/ZREMRANGEBYSCORE bound,
// accepting "-inf"/"+inf" (spec §4.1).
func parseScoreBound(b []byte) (float64, error) {
	switch strings.ToLower(string(b)) {
	case "-inf":
		return math.Inf(-1), nil
	case "+inf", "inf":
		return math.Inf(1), nil
	}
	return parseScore(b)
}

func cmdZAdd(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 3 || len(args)%2 != 1 {
		w.WriteError(cmderr.Arity("zadd").Error())
		return
	}
	entries := make(map[string]float64, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		sc, err := parseScore(args[i])
		if err != nil {
			w.WriteError(err.Error())
			return
		}
		entries[string(args[i+1])] = sc
	}
	n, err := d.Store.ZAdd(string(args[0]), entries)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdZRem(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 {
		w.WriteError(cmderr.Arity("zrem").Error())
		return
	}
	n, err := d.Store.ZRem(string(args[0]), toStrings(args[1:]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func writeZEntries(w reply.Writer, entries []store.ZEntry, withScores bool) {
	n := len(entries)
	if withScores {
		n *= 2
	}
	w.WriteArray(n)
	for _, e := range entries {
		w.WriteBulkString(e.Member)
		if withScores {
			w.WriteBulkString(reply.FormatScore(e.Score))
		}
	}
}

// cmdZRange parses ZRANGE key start stop [WITHSCORES].
func cmdZRange(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 && len(args) != 4 {
		w.WriteError(cmderr.Arity("zrange").Error())
		return
	}
	start, stop, ok := parseRangeIndexes(args[1], args[2])
	if !ok {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	withScores := false
	if len(args) == 4 {
		if upperASCII(args[3]) != "WITHSCORES" {
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
		withScores = true
	}
	entries, err := d.Store.ZRange(string(args[0]), start, stop)
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeZEntries(w, entries, withScores)
}

func cmdZCard(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 {
		w.WriteError(cmderr.Arity("zcard").Error())
		return
	}
	n, err := d.Store.ZCard(string(args[0]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdZScore(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("zscore").Error())
		return
	}
	sc, ok, err := d.Store.ZScore(string(args[0]), string(args[1]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteBulkString(reply.FormatScoreG17(sc))
}

// cmdZRangeByScore parses ZRANGEBYSCORE key min max [WITHSCORES].
func cmdZRangeByScore(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 && len(args) != 4 {
		w.WriteError(cmderr.Arity("zrangebyscore").Error())
		return
	}
	min, err := parseScoreBound(args[1])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	max, err := parseScoreBound(args[2])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	withScores := false
	if len(args) == 4 {
		if upperASCII(args[3]) != "WITHSCORES" {
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
		withScores = true
	}
	entries, err := d.Store.ZRangeByScore(string(args[0]), min, max)
	if err != nil {
		reply.Err(w, err)
		return
	}
	writeZEntries(w, entries, withScores)
}

func cmdZIncrBy(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("zincrby").Error())
		return
	}
	delta, err := parseScore(args[1])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	sc, err := d.Store.ZIncrBy(string(args[0]), delta, string(args[2]))
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteBulkString(reply.FormatScoreG17(sc))
}

func cmdZCount(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("zcount").Error())
		return
	}
	min, err := parseScoreBound(args[1])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	max, err := parseScoreBound(args[2])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	n, err := d.Store.ZCount(string(args[0]), min, max)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdZRank(w reply.Writer, d *Dispatcher, args [][]byte, rev bool) {
	cmd := "zrank"
	if rev {
		cmd = "zrevrank"
	}
	if len(args) != 2 {
		w.WriteError(cmderr.Arity(cmd).Error())
		return
	}
	var rank int
	var ok bool
	var err error
	if rev {
		rank, ok, err = d.Store.ZRevRank(string(args[0]), string(args[1]))
	} else {
		rank, ok, err = d.Store.ZRank(string(args[0]), string(args[1]))
	}
	if err != nil {
		reply.Err(w, err)
		return
	}
	if !ok {
		w.WriteNull()
		return
	}
	w.WriteInt(rank)
}

func cmdZRemRangeByScore(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("zremrangebyscore").Error())
		return
	}
	min, err := parseScoreBound(args[1])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	max, err := parseScoreBound(args[2])
	if err != nil {
		w.WriteError(err.Error())
		return
	}
	n, err := d.Store.ZRemRangeByScore(string(args[0]), min, max)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}
