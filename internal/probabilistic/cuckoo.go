package probabilistic

import cuckoofilter "github.com/seiflotfy/cuckoofilter"

// Cuckoo backs the CF.* family, grounded on the pack's
// `seiflotfy/cuckoofilter` requirement. Unlike Bloom, a cuckoo filter
// supports deletion, which is exactly why CF.DEL exists in the command
// surface and BF has no equivalent.
type Cuckoo struct {
	filter   *cuckoofilter.Filter
	capacity uint
}

// NewCuckoo sizes a filter for capacity items (CF.RESERVE).
func NewCuckoo(capacity uint) *Cuckoo {
	return &Cuckoo{filter: cuckoofilter.NewFilter(capacity), capacity: capacity}
}

// Add inserts item only if not already present, returning whether it was
// added (CF.ADDNX semantics; CF.ADD allows duplicates by calling Insert
// instead — see AddAllowDup).
func (c *Cuckoo) Add(item []byte) bool {
	return c.filter.InsertUnique(item)
}

// AddAllowDup inserts item unconditionally, backing CF.ADD.
func (c *Cuckoo) AddAllowDup(item []byte) bool {
	return c.filter.Insert(item)
}

// Exists reports whether item is (probably) present.
func (c *Cuckoo) Exists(item []byte) bool {
	return c.filter.Lookup(item)
}

// Del removes one occurrence of item, reporting whether it was present.
func (c *Cuckoo) Del(item []byte) bool {
	return c.filter.Delete(item)
}

// Count returns the number of items currently stored (CF.INFO).
func (c *Cuckoo) Count() uint {
	return c.filter.Count()
}

// Capacity reports the filter's configured capacity (CF.INFO).
func (c *Cuckoo) Capacity() uint { return c.capacity }
