package probabilistic

import "github.com/caio/go-tdigest"

// defaultCompression is the t-digest's accuracy/size knob (TDIGEST.CREATE's
// optional COMPRESSION argument overrides it); 100 is the library's own
// documented default working point.
const defaultCompression = 100

// TDigest backs the TDIGEST.* family, grounded on the pack's
// `caio/go-tdigest` requirement.
type TDigest struct {
	td          *tdigest.TDigest
	compression float64
}

// NewTDigest constructs a digest at the given compression (TDIGEST.CREATE).
func NewTDigest(compression float64) (*TDigest, error) {
	if compression <= 0 {
		compression = defaultCompression
	}
	td, err := tdigest.New(tdigest.Compression(compression))
	if err != nil {
		return nil, err
	}
	return &TDigest{td: td, compression: compression}, nil
}

// Add records one observation (TDIGEST.ADD).
func (t *TDigest) Add(value float64) error {
	return t.td.Add(value)
}

// Quantile returns the estimated value at quantile q in [0,1]
// (TDIGEST.QUANTILE).
func (t *TDigest) Quantile(q float64) float64 {
	return t.td.Quantile(q)
}

// Count returns the number of observations recorded (TDIGEST.INFO).
func (t *TDigest) Count() uint64 {
	return uint64(t.td.Count())
}

// Merge folds src's observations into t (TDIGEST.MERGE).
func (t *TDigest) Merge(src *TDigest) error {
	return t.td.Merge(src.td)
}

// Min and Max report the digest's observed extremes, used by
// TDIGEST.MIN/TDIGEST.MAX.
func (t *TDigest) Min() float64 { return t.td.Min() }
func (t *TDigest) Max() float64 { return t.td.Max() }
