package store

import (
	"github.com/gammazero/deque"

	"github.com/edirooss/redisd/internal/cmderr"
)

// listValue wraps a gammazero/deque.Deque as the list's backing store: it
// gives O(1) push/pop at both ends and O(1) indexed access for LINDEX/LSET,
// which container/list's node-walking cannot.
type listValue struct {
	d deque.Deque
}

func (l *listValue) len() int { return l.d.Len() }

func newListValue() *listValue { return &listValue{} }

func (s *Store) getListLocked(key string, create bool) (*object, error) {
	o := s.lookupLocked(key)
	if o == nil {
		if !create {
			return nil, nil
		}
		o = &object{tag: TagList, list: newListValue(), version: 1}
		s.data[key] = o
		return o, nil
	}
	if o.tag != TagList {
		return nil, cmderr.WrongType
	}
	return o, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// LPush/RPush prepend/append values and return the new length.
func (s *Store) push(key string, values [][]byte, front bool) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o, err := s.getListLocked(key, true)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	for _, v := range values {
		buf := cloneBytes(v)
		if front {
			o.list.d.PushFront(buf)
		} else {
			o.list.d.PushBack(buf)
		}
	}
	o.version++
	n := o.list.len()
	s.mu.Unlock()
	s.notify(key)
	return n, nil
}

func (s *Store) LPush(key string, values [][]byte) (int, error) { return s.push(key, values, true) }
func (s *Store) RPush(key string, values [][]byte) (int, error) { return s.push(key, values, false) }

func (s *Store) pop(key string, front bool) ([]byte, bool, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return nil, false, nil
	}
	if o.tag != TagList {
		s.mu.Unlock()
		return nil, false, cmderr.WrongType
	}
	if o.list.len() == 0 {
		s.mu.Unlock()
		return nil, false, nil
	}
	var v []byte
	if front {
		v = o.list.d.PopFront().([]byte)
	} else {
		v = o.list.d.PopBack().([]byte)
	}
	o.version++
	s.deleteIfEmptyLocked(key, o)
	s.mu.Unlock()
	s.notify(key)
	return v, true, nil
}

func (s *Store) LPop(key string) ([]byte, bool, error) { return s.pop(key, true) }
func (s *Store) RPop(key string) ([]byte, bool, error) { return s.pop(key, false) }

// LLen reports the list's length.
func (s *Store) LLen(key string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagList {
		return 0, cmderr.WrongType
	}
	return o.list.len(), nil
}

// listIndexRange normalizes negative/clamped start,stop for LRANGE/LTRIM.
func listIndexRange(start, stop int64, length int) (int, int) {
	if start < 0 {
		start += int64(length)
	}
	if stop < 0 {
		stop += int64(length)
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(length) {
		stop = int64(length) - 1
	}
	if start > stop || length == 0 {
		return 0, -1
	}
	return int(start), int(stop)
}

// LRange returns the inclusive [start,stop] slice of key's list.
func (s *Store) LRange(key string, start, stop int64) ([][]byte, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil
	}
	if o.tag != TagList {
		return nil, cmderr.WrongType
	}
	lo, hi := listIndexRange(start, stop, o.list.len())
	if hi < lo {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, cloneBytes(o.list.d.At(i).([]byte)))
	}
	return out, nil
}

// LIndex returns the element at index (negative indexes from the end).
func (s *Store) LIndex(key string, index int64) ([]byte, bool, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, false, nil
	}
	if o.tag != TagList {
		return nil, false, cmderr.WrongType
	}
	n := o.list.len()
	i := index
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return nil, false, nil
	}
	return cloneBytes(o.list.d.At(int(i)).([]byte)), true, nil
}

// LSet replaces the element at index.
func (s *Store) LSet(key string, index int64, val []byte) error {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return cmderr.NotFound
	}
	if o.tag != TagList {
		s.mu.Unlock()
		return cmderr.WrongType
	}
	n := o.list.len()
	i := index
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		s.mu.Unlock()
		return cmderr.OutOfRange("ERR index out of range")
	}
	o.list.d.Set(int(i), cloneBytes(val))
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return nil
}

// LTrim keeps only the inclusive [start,stop] range, discarding the rest.
func (s *Store) LTrim(key string, start, stop int64) error {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return nil
	}
	if o.tag != TagList {
		s.mu.Unlock()
		return cmderr.WrongType
	}
	n := o.list.len()
	lo, hi := listIndexRange(start, stop, n)
	nl := newListValue()
	for i := lo; i <= hi; i++ {
		nl.d.PushBack(o.list.d.At(i))
	}
	o.list = nl
	o.version++
	s.deleteIfEmptyLocked(key, o)
	s.mu.Unlock()
	s.notify(key)
	return nil
}
