// Package reply defines the narrow writer surface the Command Dispatcher
// replies through, plus the float-formatting rules spec §4.5 pins down
// (G for zrange WITHSCORES, G17 for zscore/zincrby/vector similarity).
// redcon.Conn satisfies Writer structurally, so the dispatcher never
// imports redcon directly — it stays testable against a fake writer.
package reply

import "strconv"

// Writer is the subset of redcon.Conn (and redcon.DetachedConn) the
// dispatcher needs to encode RESP replies.
type Writer interface {
	WriteError(msg string)
	WriteString(msg string)
	WriteBulk(bulk []byte)
	WriteBulkString(bulk string)
	WriteInt(num int)
	WriteInt64(num int64)
	WriteArray(count int)
	WriteNull()
}

// OK writes the simple string "+OK".
func OK(w Writer) { w.WriteString("OK") }

// Err writes err as a RESP error line. Every error type produced by the
// store/engine/txn layers already carries its full Redis-style prefix
// ("ERR ...", "WRONGTYPE ...", "NOGROUP ...", "BUSYGROUP ...") in its
// message, so no prefix is added here.
func Err(w Writer, err error) { w.WriteError(err.Error()) }

// Internal writes the catch-all reply for a handler failure not modeled
// as a typed command error (spec §7: "ERR internal server error").
func Internal(w Writer) { w.WriteError("ERR internal server error") }

// NullArray writes "*-1", the reply for EXEC after an aborted WATCH and
// for a few other "array that doesn't exist" cases.
func NullArray(w Writer) { w.WriteArray(-1) }

// BulkOrNull writes a bulk string, or a null bulk string if b is nil
// (GET-family "missing key" reply, spec §4.5).
func BulkOrNull(w Writer, b []byte) {
	if b == nil {
		w.WriteNull()
		return
	}
	w.WriteBulk(b)
}

// BulkStrings writes each byte slice as a bulk string inside an array the
// caller has already opened with WriteArray.
func BulkStrings(w Writer, items [][]byte) {
	for _, it := range items {
		BulkOrNull(w, it)
	}
}

// FormatScore renders f per spec §4.5: shortest round-trippable ('G')
// representation, used by ZRANGE/ZRANGEBYSCORE WITHSCORES.
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatScoreG17 renders f at 17 significant digits, used by
// ZSCORE/ZINCRBY and vector similarity replies (spec §4.5).
func FormatScoreG17(f float64) string {
	return strconv.FormatFloat(f, 'g', 17, 64)
}
