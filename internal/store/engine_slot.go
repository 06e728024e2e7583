package store

import "github.com/edirooss/redisd/internal/cmderr"

// EngineSlot is the generic key-registry API auxiliary engines (streams,
// probabilistic structures, vectors, time series, JSON documents) use to
// participate in the shared keyspace: type-tag discipline, TTL, and the
// WATCH notification hook stay centralized here instead of being
// reimplemented per engine.
//
// Each engine owns its own concrete payload type and type-asserts the
// blob it gets back; Store itself never inspects it.

// LoadBlob returns the blob stored under key if its tag matches want, along
// with whether the key exists at all.
func (s *Store) LoadBlob(key string, want Tag) (blob any, ok bool, err error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return nil, false, nil
	}
	if o.tag != want {
		return nil, false, cmderr.WrongType
	}
	return o.blob, true, nil
}

// StoreBlob creates or replaces the blob under key with the given tag,
// discarding any TTL exactly like a fresh SET would (callers that need to
// preserve TTL across a mutation should use MutateBlob instead).
func (s *Store) StoreBlob(key string, tag Tag, blob any) {
	s.mu.Lock()
	s.data[key] = &object{tag: tag, blob: blob, version: 1}
	s.mu.Unlock()
	s.notify(key)
}

// MutateBlob runs fn with the current blob for key (nil if absent/wrong
// type is reported via ok=false/err), letting the engine build the blob
// in-place or return a replacement; existing TTL is preserved.
func (s *Store) MutateBlob(key string, tag Tag, fn func(existing any, exists bool) (next any, mutated bool, err error)) error {
	s.expireIfNeeded(key)
	s.mu.Lock()
	o := s.lookupLocked(key)
	var existing any
	exists := false
	var expireAt int64
	if o != nil {
		if o.tag != tag {
			s.mu.Unlock()
			return cmderr.WrongType
		}
		existing = o.blob
		exists = true
		expireAt = o.expireAt
	}
	next, mutated, err := fn(existing, exists)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if mutated {
		if o != nil {
			o.blob = next
			o.version++
		} else {
			s.data[key] = &object{tag: tag, blob: next, expireAt: expireAt, version: 1}
		}
	}
	s.mu.Unlock()
	if mutated {
		s.notify(key)
	}
	return nil
}

// DeleteBlobIfEmpty removes key when pred(blob) reports it is now empty,
// matching the "deleting the last element removes the key" invariant for
// engines whose payload can become logically empty.
func (s *Store) DeleteBlobIfEmpty(key string, pred func(blob any) bool) {
	s.mu.Lock()
	o, ok := s.data[key]
	if ok && pred(o.blob) {
		delete(s.data, key)
	}
	s.mu.Unlock()
}
