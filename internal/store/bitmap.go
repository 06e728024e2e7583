package store

import (
	"github.com/edirooss/redisd/internal/cmderr"
)

// GetBit returns the bit at bitOffset (big-endian within each byte: bit 0
// is the MSB of byte 0). A bit past the stored length is 0.
func (s *Store) GetBit(key string, bitOffset int64) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagString {
		return 0, cmderr.WrongType
	}
	return getBit(o.str, bitOffset), nil
}

func getBit(buf []byte, bitOffset int64) int {
	byteIdx := bitOffset / 8
	if byteIdx < 0 || int(byteIdx) >= len(buf) {
		return 0
	}
	bitIdx := uint(bitOffset % 8)
	return int((buf[byteIdx] >> (7 - bitIdx)) & 1)
}

func setBitInPlace(buf []byte, bitOffset int64, val int) []byte {
	byteIdx := bitOffset / 8
	need := int(byteIdx) + 1
	if len(buf) < need {
		grown := make([]byte, need)
		copy(grown, buf)
		buf = grown
	}
	bitIdx := uint(bitOffset % 8)
	mask := byte(1) << (7 - bitIdx)
	if val != 0 {
		buf[byteIdx] |= mask
	} else {
		buf[byteIdx] &^= mask
	}
	return buf
}

// SetBit sets bitOffset to bit (0 or 1), growing the string as needed, and
// returns the prior bit value. Preserves any existing TTL (spec §4.1).
func (s *Store) SetBit(key string, bitOffset int64, bit int) (int, error) {
	s.expireIfNeeded(key)
	s.mu.Lock()

	o := s.lookupLocked(key)
	var buf []byte
	if o != nil {
		if o.tag != TagString {
			s.mu.Unlock()
			return 0, cmderr.WrongType
		}
		buf = o.str
	}
	prev := getBit(buf, bitOffset)
	buf = setBitInPlace(buf, bitOffset, bit)

	if o != nil {
		o.str = buf
		o.version++
	} else {
		s.data[key] = &object{tag: TagString, str: buf, version: 1}
	}
	s.mu.Unlock()
	s.notify(key)
	return prev, nil
}

// ByteRange resolves Redis-style negative/clamped byte bounds against len.
func ByteRange(start, end int64, length int) (int, int) {
	if length == 0 {
		return 0, -1
	}
	if start < 0 {
		start += int64(length)
	}
	if end < 0 {
		end += int64(length)
	}
	if start < 0 {
		start = 0
	}
	if end >= int64(length) {
		end = int64(length) - 1
	}
	if start > end {
		return 0, -1
	}
	return int(start), int(end)
}

// BitCount counts set bits in key, optionally restricted to a byte range.
func (s *Store) BitCount(key string, hasRange bool, start, end int64) (int, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.lookupLocked(key)
	if o == nil {
		return 0, nil
	}
	if o.tag != TagString {
		return 0, cmderr.WrongType
	}
	buf := o.str
	lo, hi := 0, len(buf)-1
	if hasRange {
		lo, hi = ByteRange(start, end, len(buf))
	}
	if hi < lo {
		return 0, nil
	}
	n := 0
	for i := lo; i <= hi; i++ {
		n += popcount(buf[i])
	}
	return n, nil
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// BitOp is the AND/OR/XOR/NOT operator kind.
type BitOp int

const (
	BitOpAnd BitOp = iota
	BitOpOr
	BitOpXor
	BitOpNot
)

// BitOpApply computes dst = op(sources...), zero-extending shorter
// operands, and returns the resulting length. NOT requires exactly one
// source (validated by the caller/dispatcher).
func (s *Store) BitOpApply(op BitOp, dst string, sources []string) (int, error) {
	bufs := make([][]byte, len(sources))
	maxLen := 0
	for i, src := range sources {
		s.expireIfNeeded(src)
		s.mu.RLock()
		o := s.lookupLocked(src)
		if o != nil {
			if o.tag != TagString {
				s.mu.RUnlock()
				return 0, cmderr.WrongType
			}
			bufs[i] = append([]byte(nil), o.str...)
		}
		s.mu.RUnlock()
		if len(bufs[i]) > maxLen {
			maxLen = len(bufs[i])
		}
	}

	result := make([]byte, maxLen)
	switch op {
	case BitOpNot:
		if len(bufs) != 1 {
			return 0, cmderr.Invalid("ERR BITOP NOT must be called with a single source key")
		}
		for i := 0; i < maxLen; i++ {
			result[i] = ^byteAt(bufs[0], i)
		}
	case BitOpAnd:
		for i := 0; i < maxLen; i++ {
			v := byte(0xFF)
			for _, b := range bufs {
				v &= byteAt(b, i)
			}
			result[i] = v
		}
	case BitOpOr:
		for i := 0; i < maxLen; i++ {
			var v byte
			for _, b := range bufs {
				v |= byteAt(b, i)
			}
			result[i] = v
		}
	case BitOpXor:
		for i := 0; i < maxLen; i++ {
			var v byte
			for _, b := range bufs {
				v ^= byteAt(b, i)
			}
			result[i] = v
		}
	}

	if maxLen == 0 {
		s.Del([]string{dst})
		return 0, nil
	}
	_, _ = s.Set(dst, result, SetOpts{})
	return maxLen, nil
}

func byteAt(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}

// BitPosUnit selects whether start/end bounds for BITPOS are byte or bit
// offsets.
type BitPosUnit int

const (
	BitPosByte BitPosUnit = iota
	BitPosBit
)

// BitPos finds the first bit equal to target (0 or 1) within the optional
// [start,end] bound, honoring the boundary rules from spec §8: with no end
// bound, searching for 0 in an all-ones value returns the bit length;
// searching for 1 in an all-zero/empty value returns -1.
func (s *Store) BitPos(key string, target int, hasStart, hasEnd bool, start, end int64, unit BitPosUnit) (int64, error) {
	s.expireIfNeeded(key)
	s.mu.RLock()
	var buf []byte
	o := s.lookupLocked(key)
	if o != nil {
		if o.tag != TagString {
			s.mu.RUnlock()
			return 0, cmderr.WrongType
		}
		buf = append([]byte(nil), o.str...)
	}
	s.mu.RUnlock()

	totalBits := int64(len(buf)) * 8
	var loBit, hiBit int64
	if unit == BitPosBit {
		loBit, hiBit = start, end
		if !hasStart {
			loBit = 0
		}
		if !hasEnd {
			hiBit = totalBits - 1
		}
		if loBit < 0 {
			loBit += totalBits
		}
		if hiBit < 0 {
			hiBit += totalBits
		}
	} else {
		loByte, hiByte := 0, len(buf)-1
		if hasStart || hasEnd {
			loByte, hiByte = ByteRange(start, end, len(buf))
		}
		loBit = int64(loByte) * 8
		hiBit = int64(hiByte)*8 + 7
	}
	if loBit < 0 {
		loBit = 0
	}
	if hiBit >= totalBits {
		hiBit = totalBits - 1
	}
	if hiBit < loBit || totalBits == 0 {
		if target == 0 && !hasEnd && totalBits == 0 {
			return 0, nil
		}
		return -1, nil
	}

	for bit := loBit; bit <= hiBit; bit++ {
		if getBit(buf, bit) == target {
			return bit, nil
		}
	}
	if target == 0 && !hasEnd {
		return totalBits, nil
	}
	return -1, nil
}
