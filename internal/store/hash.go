package store

import "github.com/edirooss/redisd/internal/cmderr"

func (s *Store) getHashLocked(key string, create bool) (*object, error) {
	o := s.lookupLocked(key)
	if o == nil {
		if !create {
			return nil, nil
		}
		o = &object{tag: TagHash, hash: make(map[string][]byte), version: 1}
		s.data[key] = o
		return o, nil
	}
	if o.tag != TagHash {
		return nil, cmderr.WrongType
	}
	return o, nil
}

// HSet writes field=val pairs atomically at the single-key level and
// returns the count of fields that were newly created.
func (s *Store) HSet(key string, fields map[string][]byte) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o, err := s.getHashLocked(key, true)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	newCount := 0
	for f, v := range fields {
		if _, exists := o.hash[f]; !exists {
			newCount++
		}
		buf := make([]byte, len(v))
		copy(buf, v)
		o.hash[f] = buf
	}
	o.version++
	s.mu.Unlock()
	s.notify(key)
	return newCount, nil
}

// HGet returns field's value.
func (s *Store) HGet(key, field string) ([]byte, bool, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, false, nil
	}
	if o.tag != TagHash {
		return nil, false, cmderr.WrongType
	}
	v, ok := o.hash[field]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// HDel removes fields, returning the count actually removed. Deletes the
// key entirely once the hash becomes empty.
func (s *Store) HDel(key string, fields []string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return 0, nil
	}
	if o.tag != TagHash {
		s.mu.Unlock()
		return 0, cmderr.WrongType
	}
	n := 0
	for _, f := range fields {
		if _, ok := o.hash[f]; ok {
			delete(o.hash, f)
			n++
		}
	}
	if n > 0 {
		o.version++
		s.deleteIfEmptyLocked(key, o)
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify(key)
	}
	return n, nil
}

// HGetAll returns field/value pairs in no particular cross-call-stable
// order (spec §4.1 only requires insertion-order-within-a-call, which a Go
// map cannot promise; callers treat the result as a flat list).
func (s *Store) HGetAll(key string) ([]string, [][]byte, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil, nil
	}
	if o.tag != TagHash {
		return nil, nil, cmderr.WrongType
	}
	fields := make([]string, 0, len(o.hash))
	values := make([][]byte, 0, len(o.hash))
	for f, v := range o.hash {
		fields = append(fields, f)
		buf := make([]byte, len(v))
		copy(buf, v)
		values = append(values, buf)
	}
	return fields, values, nil
}

// HLen reports the number of fields in key's hash.
func (s *Store) HLen(key string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagHash {
		return 0, cmderr.WrongType
	}
	return len(o.hash), nil
}
