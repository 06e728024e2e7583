package command

import (
	"strconv"

	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/reply"
	"github.com/edirooss/redisd/internal/store"
)

func cmdGetBit(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("getbit").Error())
		return
	}
	off, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil || off < 0 {
		w.WriteError(cmderr.NotInteger.Error())
		return
	}
	bit, err := d.Store.GetBit(string(args[0]), off)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(bit)
}

func cmdSetBit(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 3 {
		w.WriteError(cmderr.Arity("setbit").Error())
		return
	}
	off, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil || off < 0 || off > store.MaxBitOffset {
		w.WriteError(cmderr.Invalid("ERR bit offset is not an integer or out of range").Error())
		return
	}
	bit, err := strconv.Atoi(string(args[2]))
	if err != nil || (bit != 0 && bit != 1) {
		w.WriteError(cmderr.Invalid("ERR bit is not an integer or out of range").Error())
		return
	}
	prev, err := d.Store.SetBit(string(args[0]), off, bit)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(prev)
}

// cmdBitCount parses BITCOUNT key [start end].
func cmdBitCount(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 1 && len(args) != 3 {
		w.WriteError(cmderr.Arity("bitcount").Error())
		return
	}
	hasRange := len(args) == 3
	var start, end int64
	if hasRange {
		var err error
		start, err = strconv.ParseInt(string(args[1]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
		end, err = strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
	}
	n, err := d.Store.BitCount(string(args[0]), hasRange, start, end)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

func cmdBitOp(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 3 {
		w.WriteError(cmderr.Arity("bitop").Error())
		return
	}
	var op store.BitOp
	switch upperASCII(args[0]) {
	case "AND":
		op = store.BitOpAnd
	case "OR":
		op = store.BitOpOr
	case "XOR":
		op = store.BitOpXor
	case "NOT":
		op = store.BitOpNot
	default:
		w.WriteError(cmderr.SyntaxErr.Error())
		return
	}
	dst := string(args[1])
	sources := toStrings(args[2:])
	if op == store.BitOpNot && len(sources) != 1 {
		w.WriteError("ERR BITOP NOT must be called with a single source key")
		return
	}
	n, err := d.Store.BitOpApply(op, dst, sources)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt(n)
}

// cmdBitPos parses BITPOS key bit [start [end [BYTE|BIT]]].
func cmdBitPos(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 2 || len(args) > 5 {
		w.WriteError(cmderr.Arity("bitpos").Error())
		return
	}
	target, err := strconv.Atoi(string(args[1]))
	if err != nil || (target != 0 && target != 1) {
		w.WriteError(cmderr.Invalid("ERR the bit argument must be 1 or 0").Error())
		return
	}
	var hasStart, hasEnd bool
	var start, end int64
	unit := store.BitPosByte
	if len(args) >= 3 {
		hasStart = true
		start, err = strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
	}
	if len(args) >= 4 {
		hasEnd = true
		end, err = strconv.ParseInt(string(args[3]), 10, 64)
		if err != nil {
			w.WriteError(cmderr.NotInteger.Error())
			return
		}
	}
	if len(args) == 5 {
		switch upperASCII(args[4]) {
		case "BYTE":
			unit = store.BitPosByte
		case "BIT":
			unit = store.BitPosBit
		default:
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
	} else if len(args) == 4 {
		// BYTE/BIT unit requires an explicit end per Redis syntax; default byte.
	}
	pos, err := d.Store.BitPos(string(args[0]), target, hasStart, hasEnd, start, end, unit)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteInt64(pos)
}

// cmdBitField parses BITFIELD key [GET type offset|SET type offset value|
// INCRBY type offset increment|OVERFLOW WRAP|SAT|FAIL]...
func cmdBitField(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("bitfield").Error())
		return
	}
	key := string(args[0])
	var ops []store.BitFieldOp
	overflow := store.OverflowWrap

	i := 1
	for i < len(args) {
		switch upperASCII(args[i]) {
		case "OVERFLOW":
			if i+1 >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			switch upperASCII(args[i+1]) {
			case "WRAP":
				overflow = store.OverflowWrap
			case "SAT":
				overflow = store.OverflowSat
			case "FAIL":
				overflow = store.OverflowFail
			default:
				w.WriteError("ERR Invalid OVERFLOW type specified")
				return
			}
			i += 2
		case "GET":
			if i+2 >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			t, err := parseBitFieldType(args[i+1])
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			off, err := parseBitFieldOffset(args[i+2], t)
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			ops = append(ops, store.BitFieldOp{Kind: store.BFGet, Type: t, Offset: off})
			i += 3
		case "SET":
			if i+3 >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			t, err := parseBitFieldType(args[i+1])
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			off, err := parseBitFieldOffset(args[i+2], t)
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			val, err := strconv.ParseInt(string(args[i+3]), 10, 64)
			if err != nil {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			ops = append(ops, store.BitFieldOp{Kind: store.BFSet, Type: t, Offset: off, Value: val, Overflow: overflow})
			i += 4
		case "INCRBY":
			if i+3 >= len(args) {
				w.WriteError(cmderr.SyntaxErr.Error())
				return
			}
			t, err := parseBitFieldType(args[i+1])
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			off, err := parseBitFieldOffset(args[i+2], t)
			if err != nil {
				w.WriteError(err.Error())
				return
			}
			delta, err := strconv.ParseInt(string(args[i+3]), 10, 64)
			if err != nil {
				w.WriteError(cmderr.NotInteger.Error())
				return
			}
			ops = append(ops, store.BitFieldOp{Kind: store.BFIncrBy, Type: t, Offset: off, Value: delta, Overflow: overflow})
			i += 4
		default:
			w.WriteError(cmderr.SyntaxErr.Error())
			return
		}
	}

	results, err := d.Store.BitField(key, ops)
	if err != nil {
		reply.Err(w, err)
		return
	}
	w.WriteArray(len(results))
	for _, r := range results {
		if r.Null {
			w.WriteNull()
			continue
		}
		w.WriteInt64(r.Value)
	}
}

// parseBitFieldType parses "i<n>"/"u<n>" (spec §4.1).
func parseBitFieldType(b []byte) (store.BitFieldType, error) {
	if len(b) < 2 {
		return store.BitFieldType{}, cmderr.Invalid("ERR Invalid bitfield type")
	}
	signed := b[0] == 'i' || b[0] == 'I'
	unsigned := b[0] == 'u' || b[0] == 'U'
	if !signed && !unsigned {
		return store.BitFieldType{}, cmderr.Invalid("ERR Invalid bitfield type")
	}
	bits, err := strconv.Atoi(string(b[1:]))
	if err != nil || bits < 1 {
		return store.BitFieldType{}, cmderr.Invalid("ERR Invalid bitfield type")
	}
	if signed && bits > 64 {
		return store.BitFieldType{}, cmderr.Invalid("ERR Invalid bitfield type")
	}
	if unsigned && bits > 63 {
		return store.BitFieldType{}, cmderr.Invalid("ERR Invalid bitfield type")
	}
	return store.BitFieldType{Signed: signed, Bits: uint(bits)}, nil
}

// parseBitFieldOffset parses a plain bit offset or a "#<index>" offset,
// which multiplies by the field's width (spec §4.1), enforcing the
// §9 maximum bit-offset bound.
func parseBitFieldOffset(b []byte, t store.BitFieldType) (int64, error) {
	if len(b) > 0 && b[0] == '#' {
		idx, err := strconv.ParseInt(string(b[1:]), 10, 64)
		if err != nil || idx < 0 {
			return 0, cmderr.Invalid("ERR bit offset is not an integer or out of range")
		}
		off := idx * int64(t.Bits)
		if off > store.MaxBitOffset {
			return 0, cmderr.Invalid("ERR bit offset is not an integer or out of range")
		}
		return off, nil
	}
	off, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || off < 0 || off > store.MaxBitOffset {
		return 0, cmderr.Invalid("ERR bit offset is not an integer or out of range")
	}
	return off, nil
}
