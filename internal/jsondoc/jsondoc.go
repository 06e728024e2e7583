// Package jsondoc implements the JSON.* family: a document tree per key
// navigated and mutated with JSONPath-like paths, grounded on the pack's
// recurring `tidwall/gjson` + `tidwall/sjson` pairing (used together for
// exactly this read/write split: gjson for path queries, sjson for
// path-addressed mutation without a full unmarshal/marshal round trip).
package jsondoc

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrNotFound is returned by ArrAppend, ArrLen and NumIncrBy when path
// resolves to nothing or to a value of the wrong kind (not an array, not a
// number).
var ErrNotFound = errors.New("path does not exist")

// Doc is one key's JSON document, held as its canonical encoded form so
// gjson/sjson can operate on it directly without a Go-struct round trip.
type Doc struct {
	raw string
}

// New constructs a document from its initial JSON text (JSON.SET on an
// absent key with path "$" or ".").
func New(json string) (*Doc, error) {
	if !gjson.Valid(json) {
		return nil, errors.New("invalid JSON")
	}
	return &Doc{raw: json}, nil
}

// Raw returns the document's current encoded form (JSON.GET at the root).
func (d *Doc) Raw() string { return d.raw }

// Get resolves path (gjson dot/bracket syntax) to its JSON-encoded value
// (JSON.GET at an arbitrary path).
func (d *Doc) Get(path string) (string, bool) {
	r := gjson.Get(d.raw, path)
	if !r.Exists() {
		return "", false
	}
	return r.Raw, true
}

// Set writes value (JSON-encoded) at path, creating intermediate objects
// as needed (JSON.SET).
func (d *Doc) Set(path, value string) error {
	next, err := sjson.SetRaw(d.raw, path, value)
	if err != nil {
		return err
	}
	d.raw = next
	return nil
}

// Del removes the value at path, reporting whether it existed
// (JSON.DEL/JSON.FORGET).
func (d *Doc) Del(path string) (bool, error) {
	if !gjson.Get(d.raw, path).Exists() {
		return false, nil
	}
	next, err := sjson.Delete(d.raw, path)
	if err != nil {
		return false, err
	}
	d.raw = next
	return true, nil
}

// Type reports the JSON type name at path ("object", "array", "string",
// "number", "boolean", "null"), for JSON.TYPE.
func (d *Doc) Type(path string) (string, bool) {
	r := gjson.Get(d.raw, path)
	if !r.Exists() {
		return "", false
	}
	switch r.Type {
	case gjson.String:
		return "string", true
	case gjson.Number:
		return "number", true
	case gjson.True, gjson.False:
		return "boolean", true
	case gjson.Null:
		return "null", true
	default:
		if r.IsArray() {
			return "array", true
		}
		if r.IsObject() {
			return "object", true
		}
		return "unknown", true
	}
}

// ArrAppend appends value (JSON-encoded) to the array at path, returning
// the new array length (JSON.ARRAPPEND).
func (d *Doc) ArrAppend(path, value string) (int, error) {
	r := gjson.Get(d.raw, path)
	if !r.Exists() || !r.IsArray() {
		return 0, ErrNotFound
	}
	idx := len(r.Array())
	next, err := sjson.SetRaw(d.raw, path+"."+itoa(idx), value)
	if err != nil {
		return 0, err
	}
	d.raw = next
	return idx + 1, nil
}

// ArrLen reports the array length at path (JSON.ARRLEN).
func (d *Doc) ArrLen(path string) (int, error) {
	r := gjson.Get(d.raw, path)
	if !r.Exists() || !r.IsArray() {
		return 0, ErrNotFound
	}
	return len(r.Array()), nil
}

// NumIncrBy adds delta to the number at path, returning the new value
// (JSON.NUMINCRBY).
func (d *Doc) NumIncrBy(path string, delta float64) (float64, error) {
	r := gjson.Get(d.raw, path)
	if !r.Exists() || r.Type != gjson.Number {
		return 0, ErrNotFound
	}
	next := r.Num + delta
	if err := d.Set(path, strconv.FormatFloat(next, 'g', -1, 64)); err != nil {
		return 0, err
	}
	return next, nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
