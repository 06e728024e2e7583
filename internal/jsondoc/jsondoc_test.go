package jsondoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidJSON(t *testing.T) {
	_, err := New("{not json")
	require.Error(t, err)
}

func TestGetSetRoundTrip(t *testing.T) {
	d, err := New(`{"name":"redisd"}`)
	require.NoError(t, err)

	v, ok := d.Get("name")
	require.True(t, ok)
	require.Equal(t, `"redisd"`, v)

	require.NoError(t, d.Set("age", "7"))
	v, ok = d.Get("age")
	require.True(t, ok)
	require.Equal(t, "7", v)
}

func TestGetMissingPath(t *testing.T) {
	d, _ := New(`{}`)
	_, ok := d.Get("missing.nested")
	require.False(t, ok)
}

func TestDelReportsExistence(t *testing.T) {
	d, _ := New(`{"a":1,"b":2}`)
	ok, err := d.Del("a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = d.Del("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestType(t *testing.T) {
	d, _ := New(`{"s":"x","n":1,"b":true,"nil":null,"arr":[1,2],"obj":{}}`)
	cases := map[string]string{"s": "string", "n": "number", "b": "boolean", "nil": "null", "arr": "array", "obj": "object"}
	for path, want := range cases {
		got, ok := d.Type(path)
		require.True(t, ok, path)
		require.Equal(t, want, got, path)
	}
}

func TestArrAppendAndLen(t *testing.T) {
	d, _ := New(`{"items":[1,2]}`)
	n, err := d.ArrAppend("items", "3")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	l, err := d.ArrLen("items")
	require.NoError(t, err)
	require.Equal(t, 3, l)
}

func TestArrAppendOnNonArray(t *testing.T) {
	d, _ := New(`{"items":1}`)
	_, err := d.ArrAppend("items", "3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNumIncrBy(t *testing.T) {
	d, _ := New(`{"count":10}`)
	v, err := d.NumIncrBy("count", 5)
	require.NoError(t, err)
	require.Equal(t, 15.0, v)
}

func TestNumIncrByOnNonNumber(t *testing.T) {
	d, _ := New(`{"count":"x"}`)
	_, err := d.NumIncrBy("count", 5)
	require.ErrorIs(t, err, ErrNotFound)
}
