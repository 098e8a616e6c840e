// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "testing"

func checkSimplify(t *testing.T, c Constant, expected string) {
	t.Helper()
	s := c.QuickSimplify()
	if s.String() != expected {
		t.Errorf("got %s, expected %s", s, expected)
	}
}

func TestNumericFolding(t *testing.T) {
	checkSimplify(t, CompoundConstant{Op: Plus, L: Num(2), R: Num(3)}, "5")
	checkSimplify(t, CompoundConstant{Op: Minus, L: Num(2), R: Num(3)}, "$FF")
	checkSimplify(t, CompoundConstant{Op: Times, L: Num(20), R: Num(20)}, "$0190")
	checkSimplify(t, CompoundConstant{Op: Shl, L: Num(1), R: Num(10)}, "$0400")
	checkSimplify(t, CompoundConstant{Op: And, L: Num(0xfe), R: Num(0x37)}, "$36")
	checkSimplify(t, CompoundConstant{Op: Or, L: Num(0x40), R: Num(0x04)}, "$44")
	checkSimplify(t, CompoundConstant{Op: Exor, L: Num(0xff), R: Num(0x0f)}, "$F0")
}

func TestIdentityLaws(t *testing.T) {
	a := Addr("a")
	checkSimplify(t, CompoundConstant{Op: Plus, L: a, R: Num(0)}, "a")
	checkSimplify(t, CompoundConstant{Op: Plus, L: Num(0), R: a}, "a")
	checkSimplify(t, CompoundConstant{Op: Minus, L: a, R: Num(0)}, "a")
	checkSimplify(t, CompoundConstant{Op: Times, L: a, R: Num(1)}, "a")
	checkSimplify(t, CompoundConstant{Op: Times, L: a, R: Num(0)}, "0")
	checkSimplify(t, CompoundConstant{Op: Or, L: a, R: Num(0)}, "a")
	checkSimplify(t, CompoundConstant{Op: And, L: a, R: Num(0)}, "0")
	checkSimplify(t, CompoundConstant{Op: Shl, L: a, R: Num(0)}, "a")
}

func TestOffsetHoisting(t *testing.T) {
	a := Addr("buf")
	c := CompoundConstant{
		Op: Plus,
		L:  CompoundConstant{Op: Plus, L: a, R: Num(1)},
		R:  Num(2),
	}
	checkSimplify(t, c, "(buf + 3)")

	d := CompoundConstant{
		Op: Minus,
		L:  CompoundConstant{Op: Plus, L: a, R: Num(5)},
		R:  Num(5),
	}
	checkSimplify(t, d, "buf")

	e := CompoundConstant{
		Op: Plus,
		L:  CompoundConstant{Op: Minus, L: a, R: Num(7)},
		R:  Num(3),
	}
	checkSimplify(t, e, "(buf - 4)")
}

func TestByteReassembly(t *testing.T) {
	w := Addr("w")
	c := CompoundConstant{
		Op: Or,
		L:  CompoundConstant{Op: Shl, L: SubbyteConstant{Base: w, Index: 1}, R: Num(8)},
		R:  SubbyteConstant{Base: w, Index: 0},
	}
	checkSimplify(t, c, "w")
}

func TestSubwordRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 0xff, 0x100, 0x1234, 0xffff} {
		c := NumSized(v, 2)
		got, ok := Subword(c, 0).Eval(nil)
		if !ok || got != v {
			t.Errorf("subword(%04x) = %04x", v, got)
		}
	}
	w := Addr("w")
	if Subword(w, 0) != Constant(w) {
		t.Errorf("subword(hi(w):lo(w)) did not reassemble, got %s", Subword(w, 0))
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	cases := []Constant{
		Num(42),
		Addr("thing"),
		CompoundConstant{Op: Plus, L: Addr("a"), R: Num(3)},
		CompoundConstant{
			Op: Plus,
			L:  CompoundConstant{Op: Plus, L: Addr("a"), R: Num(1)},
			R:  Num(2),
		},
		SubbyteConstant{Base: Addr("a"), Index: 1},
		AssertByte{C: CompoundConstant{Op: Plus, L: Num(1), R: Num(1)}},
		CompoundConstant{Op: DecimalPlus, L: Num(0x19), R: Num(0x19)},
	}
	for _, c := range cases {
		once := c.QuickSimplify()
		twice := once.QuickSimplify()
		if once != twice {
			t.Errorf("simplify not idempotent for %s: %s != %s", c, once, twice)
		}
	}
}

func TestRelatednessSurvivesSimplify(t *testing.T) {
	c := CompoundConstant{
		Op: Plus,
		L:  CompoundConstant{Op: Plus, L: Addr("table"), R: Num(1)},
		R:  Num(2),
	}
	s := c.QuickSimplify()
	if !s.IsRelatedTo("table") {
		t.Error("simplification lost the memory address occurrence")
	}
	if s.IsRelatedTo("other") {
		t.Error("unrelated symbol reported related")
	}
}

func TestDecimalArithmetic(t *testing.T) {
	cases := []struct {
		op       ConstOp
		a, b, ex int64
	}{
		{DecimalPlus, 0x19, 0x19, 0x38},
		{DecimalPlus, 0x09, 0x01, 0x10},
		{DecimalMinus, 0x42, 0x09, 0x33},
		{DecimalTimes, 0x12, 0x05, 0x60},
		{DecimalShl, 0x26, 1, 0x52},
		{DecimalShr, 0x52, 1, 0x26},
	}
	for _, tc := range cases {
		got, ok := CompoundConstant{Op: tc.op, L: NumSized(tc.a, 1), R: Num(tc.b)}.Eval(nil)
		if !ok || got != tc.ex {
			t.Errorf("%02x %s %02x = %02x, expected %02x", tc.a, tc.op, tc.b, got, tc.ex)
		}
	}
}

func TestDecimalPlus9CarriesNinthBit(t *testing.T) {
	c := CompoundConstant{Op: DecimalPlus9, L: NumSized(0x99, 1), R: Num(0x01)}
	if c.Size() != 2 {
		t.Errorf("DecimalPlus9 size = %d, expected 2", c.Size())
	}
	got, _ := c.Eval(nil)
	if got != 0x100 {
		t.Errorf("99' +' 01' = %03x, expected 100", got)
	}
}

func TestAssertByteFolds(t *testing.T) {
	c := AssertByte{C: CompoundConstant{Op: Plus, L: Num(40), R: Num(2)}}
	s := c.QuickSimplify()
	n, ok := s.(NumericConstant)
	if !ok || n.Value != 42 || n.Sz != 1 {
		t.Errorf("expected byte 42, got %s", s)
	}
}

func TestSubbyteOfNumeric(t *testing.T) {
	if v, _ := Subbyte(NumSized(0x1234, 2), 0).Eval(nil); v != 0x34 {
		t.Errorf("lo = %02x", v)
	}
	if v, _ := Subbyte(NumSized(0x1234, 2), 1).Eval(nil); v != 0x12 {
		t.Errorf("hi = %02x", v)
	}
}

func TestEvalWithResolver(t *testing.T) {
	resolve := func(name string) (int64, bool) {
		if name == "target" {
			return 0xc000, true
		}
		return 0, false
	}
	c := AddC(Addr("target"), Num(1))
	v, ok := c.Eval(resolve)
	if !ok || v != 0xc001 {
		t.Errorf("eval = %04x, %v", v, ok)
	}
	if _, ok := c.Eval(nil); ok {
		t.Error("eval without resolver should fail")
	}
}

func TestNumericSizeInvariant(t *testing.T) {
	for _, v := range []int64{-128, -1, 0, 255} {
		if Num(v).Size() != 1 {
			t.Errorf("size of %d should be 1", v)
		}
	}
	if Num(256).Size() != 2 || Num(-129).Size() != 2 {
		t.Error("word-sized values misclassified")
	}
}
