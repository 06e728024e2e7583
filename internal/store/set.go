package store

import "github.com/edirooss/redisd/internal/cmderr"

func (s *Store) getSetLocked(key string, create bool) (*object, error) {
	o := s.lookupLocked(key)
	if o == nil {
		if !create {
			return nil, nil
		}
		o = &object{tag: TagSet, set: make(map[string]struct{}), version: 1}
		s.data[key] = o
		return o, nil
	}
	if o.tag != TagSet {
		return nil, cmderr.WrongType
	}
	return o, nil
}

// SAdd adds members, returning the count newly added.
func (s *Store) SAdd(key string, members [][]byte) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o, err := s.getSetLocked(key, true)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	n := 0
	for _, m := range members {
		k := string(m)
		if _, ok := o.set[k]; !ok {
			o.set[k] = struct{}{}
			n++
		}
	}
	if n > 0 {
		o.version++
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify(key)
	}
	return n, nil
}

// SRem removes members, returning the count actually removed.
func (s *Store) SRem(key string, members [][]byte) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	if o == nil {
		s.mu.Unlock()
		return 0, nil
	}
	if o.tag != TagSet {
		s.mu.Unlock()
		return 0, cmderr.WrongType
	}
	n := 0
	for _, m := range members {
		k := string(m)
		if _, ok := o.set[k]; ok {
			delete(o.set, k)
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

// SMembers returns all members in no particular order.
func (s *Store) SMembers(key string) ([][]byte, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, nil
	}
	if o.tag != TagSet {
		return nil, cmderr.WrongType
	}
	out := make([][]byte, 0, len(o.set))
	for m := range o.set {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SCard reports the set's cardinality.
func (s *Store) SCard(key string) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagSet {
		return 0, cmderr.WrongType
	}
	return len(o.set), nil
}
