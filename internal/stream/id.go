// Package stream implements the Stream Engine component (spec §4.4):
// append-only per-key logs with monotonic ids, XRANGE scans, consumer
// groups, and pending-entries-list bookkeeping.
package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a stream entry identifier: (ms, seq), compared lexicographically.
type ID struct {
	Ms  uint64
	Seq uint64
}

func (id ID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

func (id ID) Equal(other ID) bool { return id.Ms == other.Ms && id.Seq == other.Seq }

func (id ID) LessEq(other ID) bool { return id.Less(other) || id.Equal(other) }

// MinID is the smallest possible id (0-0), corresponding to XRANGE's "-".
var MinID = ID{0, 0}

// MaxID is the largest representable id, corresponding to XRANGE's "+".
var MaxID = ID{Ms: ^uint64(0), Seq: ^uint64(0)}

// ParseID parses an explicit "ms-seq" or bare "ms" id token. seqDefault is
// used when no "-seq" suffix is present (0 for start bounds, MaxUint64 for
// end bounds in range scans).
func ParseID(s string, seqDefault uint64) (ID, error) {
	switch s {
	case "-":
		return MinID, nil
	case "+":
		return MaxID, nil
	}
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid stream id")
	}
	if len(parts) == 1 {
		return ID{Ms: ms, Seq: seqDefault}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid stream id")
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// ParseExplicitID parses a strict "ms-seq" or "ms" (seq defaults to 0) id
// used for XADD/XSETID explicit ids (no "-"/"+" shorthand allowed).
func ParseExplicitID(s string) (ID, error) {
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid stream id")
	}
	if len(parts) == 1 {
		return ID{Ms: ms, Seq: 0}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid stream id")
	}
	return ID{Ms: ms, Seq: seq}, nil
}
