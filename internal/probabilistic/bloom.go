package probabilistic

import "github.com/bits-and-blooms/bloom/v3"

// Bloom backs the BF.* family, grounded on the pack's recurring
// `bits-and-blooms/bloom` requirement (and its `bits-and-blooms/bitset`
// dependency, which the pack also lists directly).
type Bloom struct {
	filter    *bloom.BloomFilter
	capacity  uint
	errorRate float64
}

// NewBloom sizes a filter for capacity items at errorRate false-positive
// probability (BF.RESERVE).
func NewBloom(capacity uint, errorRate float64) *Bloom {
	return &Bloom{
		filter:    bloom.NewWithEstimates(capacity, errorRate),
		capacity:  capacity,
		errorRate: errorRate,
	}
}

// Add inserts item, returning whether it was not already (probably)
// present (BF.ADD's reply).
func (b *Bloom) Add(item []byte) bool {
	return !b.filter.TestAndAdd(item)
}

// Exists reports whether item is (probably) present, with no mutation
// (BF.EXISTS).
func (b *Bloom) Exists(item []byte) bool {
	return b.filter.Test(item)
}

// Capacity and ErrorRate report the parameters BF.INFO surfaces.
func (b *Bloom) Capacity() uint     { return b.capacity }
func (b *Bloom) ErrorRate() float64 { return b.errorRate }
