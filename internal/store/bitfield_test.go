package store

import "testing"

// TestBitFieldOverflowModes mirrors spec §8 example 2: SET i8 0 100 then
// three INCRBYs under WRAP/SAT/FAIL, expecting [0, -56, 127, nil].
func TestBitFieldOverflowModes(t *testing.T) {
	s := New(nil)
	i8 := BitFieldType{Signed: true, Bits: 8}
	ops := []BitFieldOp{
		{Kind: BFSet, Type: i8, Offset: 0, Value: 100, Overflow: OverflowWrap},
		{Kind: BFIncrBy, Type: i8, Offset: 0, Value: 100, Overflow: OverflowWrap},
		{Kind: BFIncrBy, Type: i8, Offset: 0, Value: 100, Overflow: OverflowSat},
		{Kind: BFIncrBy, Type: i8, Offset: 0, Value: 100, Overflow: OverflowFail},
	}
	results, err := s.BitField("k", ops)
	if err != nil {
		t.Fatalf("BitField: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("want 4 results, got %d", len(results))
	}
	if results[0].Null || results[0].Value != 0 {
		t.Fatalf("SET prev: want 0, got %+v", results[0])
	}
	if results[1].Null || results[1].Value != -56 {
		t.Fatalf("WRAP INCRBY: want -56, got %+v", results[1])
	}
	if results[2].Null || results[2].Value != 127 {
		t.Fatalf("SAT INCRBY: want 127, got %+v", results[2])
	}
	if !results[3].Null {
		t.Fatalf("FAIL INCRBY: want null reply, got %+v", results[3])
	}
}

// TestBitFieldSetHonorsOverflow covers the SET-specific boundary case from
// spec §8: "BITFIELD i8 SET at # overflow WRAP of 128 -> result -128; with
// SAT -> 127; with FAIL -> null reply". SET must respect the sticky
// OVERFLOW mode exactly like INCRBY does, not silently always WRAP.
func TestBitFieldSetHonorsOverflow(t *testing.T) {
	i8 := BitFieldType{Signed: true, Bits: 8}

	s := New(nil)
	if _, err := s.BitField("wrap", []BitFieldOp{
		{Kind: BFSet, Type: i8, Offset: 0, Value: 128, Overflow: OverflowWrap},
	}); err != nil {
		t.Fatalf("BitField WRAP: %v", err)
	}
	got, err := s.BitField("wrap", []BitFieldOp{{Kind: BFGet, Type: i8, Offset: 0}})
	if err != nil {
		t.Fatalf("BitField GET: %v", err)
	}
	if got[0].Value != -128 {
		t.Fatalf("SET WRAP of 128: want stored value -128, got %d", got[0].Value)
	}

	s = New(nil)
	if _, err := s.BitField("sat", []BitFieldOp{
		{Kind: BFSet, Type: i8, Offset: 0, Value: 128, Overflow: OverflowSat},
	}); err != nil {
		t.Fatalf("BitField SAT: %v", err)
	}
	got, err = s.BitField("sat", []BitFieldOp{{Kind: BFGet, Type: i8, Offset: 0}})
	if err != nil {
		t.Fatalf("BitField GET: %v", err)
	}
	if got[0].Value != 127 {
		t.Fatalf("SET SAT of 128: want stored value 127, got %d", got[0].Value)
	}

	s = New(nil)
	results, err := s.BitField("fail", []BitFieldOp{
		{Kind: BFSet, Type: i8, Offset: 0, Value: 128, Overflow: OverflowFail},
	})
	if err != nil {
		t.Fatalf("BitField FAIL: %v", err)
	}
	if !results[0].Null {
		t.Fatalf("SET FAIL of 128: want null reply, got %+v", results[0])
	}
	got, err = s.BitField("fail", []BitFieldOp{{Kind: BFGet, Type: i8, Offset: 0}})
	if err != nil {
		t.Fatalf("BitField GET: %v", err)
	}
	if got[0].Value != 0 {
		t.Fatalf("SET FAIL of 128: want no mutation (still 0), got %d", got[0].Value)
	}
}
