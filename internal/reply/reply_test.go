package reply

import "testing"

// fakeWriter is a minimal in-memory reply.Writer used to assert what the
// dispatcher wrote without spinning up a real redcon connection.
type fakeWriter struct {
	ops []string
}

func (f *fakeWriter) WriteError(msg string)       { f.ops = append(f.ops, "err:"+msg) }
func (f *fakeWriter) WriteString(msg string)      { f.ops = append(f.ops, "str:"+msg) }
func (f *fakeWriter) WriteBulk(bulk []byte)        { f.ops = append(f.ops, "bulk:"+string(bulk)) }
func (f *fakeWriter) WriteBulkString(bulk string)  { f.ops = append(f.ops, "bulk:"+bulk) }
func (f *fakeWriter) WriteInt(num int)             { f.ops = append(f.ops, "int") }
func (f *fakeWriter) WriteInt64(num int64)         { f.ops = append(f.ops, "int64") }
func (f *fakeWriter) WriteArray(count int)         { f.ops = append(f.ops, "array") }
func (f *fakeWriter) WriteNull()                   { f.ops = append(f.ops, "null") }

func TestBulkOrNullWritesNullForNil(t *testing.T) {
	w := &fakeWriter{}
	BulkOrNull(w, nil)
	if w.ops[0] != "null" {
		t.Fatalf("want null, got %v", w.ops)
	}
}

func TestBulkOrNullWritesBulkForValue(t *testing.T) {
	w := &fakeWriter{}
	BulkOrNull(w, []byte("hi"))
	if w.ops[0] != "bulk:hi" {
		t.Fatalf("want bulk:hi, got %v", w.ops)
	}
}

func TestFormatScoreShortestRoundTrip(t *testing.T) {
	if got := FormatScore(1.5); got != "1.5" {
		t.Fatalf("want 1.5, got %s", got)
	}
}

func TestFormatScoreG17HasFullPrecision(t *testing.T) {
	got := FormatScoreG17(1.0 / 3.0)
	if len(got) < 17 {
		t.Fatalf("want >=17 significant chars, got %s", got)
	}
}
