// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "testing"

func TestLegalityTable(t *testing.T) {
	// Spot checks against the official matrix.
	legal := []struct {
		op   Opcode
		mode AddrMode
	}{
		{LDA, Immediate}, {LDA, IndexedY}, {STA, AbsoluteX},
		{STX, ZeroPageY}, {JMP, Indirect}, {BEQ, Relative},
		{INC, ZeroPage}, {ASL, Implied}, {LABEL, DoesNotExist},
	}
	for _, p := range legal {
		if !Legal(p.op, p.mode) {
			t.Errorf("%s %s should be legal", p.op, p.mode)
		}
	}

	illegal := []struct {
		op   Opcode
		mode AddrMode
	}{
		{STA, Immediate}, {STX, ZeroPageX}, {LDX, ZeroPageX},
		{JMP, ZeroPage}, {BEQ, Absolute}, {INX, ZeroPage},
		{LABEL, Implied}, {TXA, Absolute},
	}
	for _, p := range illegal {
		if Legal(p.op, p.mode) {
			t.Errorf("%s %s should be illegal", p.op, p.mode)
		}
	}
}

func TestEncodingArchGates(t *testing.T) {
	// STZ requires CMOS.
	if _, _, ok := Encoding(STZ, ZeroPage, NMOS, false); ok {
		t.Error("STZ should not encode on NMOS")
	}
	if enc, _, ok := Encoding(STZ, ZeroPage, CMOS, false); !ok || enc != 0x64 {
		t.Errorf("STZ zp on CMOS = %02x, %v", enc, ok)
	}

	// Undocumented opcodes need NMOS plus the illegals flag.
	if _, _, ok := Encoding(SBX, Immediate, NMOS, false); ok {
		t.Error("SBX should be gated behind the illegals flag")
	}
	if enc, _, ok := Encoding(SBX, Immediate, NMOS, true); !ok || enc != 0xcb {
		t.Errorf("SBX imm = %02x, %v", enc, ok)
	}
	if _, _, ok := Encoding(LAX, ZeroPage, CMOS, true); ok {
		t.Error("undocumented opcodes do not exist on CMOS")
	}

	// CMOS ops carry forward to the later architectures.
	if _, _, ok := Encoding(BRA, Relative, HuC6280, false); !ok {
		t.Error("BRA should encode on HuC6280")
	}
	// Architecture-specific extensions do not leak between families.
	if _, _, ok := Encoding(INW, ZeroPage, HuC6280, false); ok {
		t.Error("INW is 65CE02-only")
	}
	if _, _, ok := Encoding(CSH, Implied, CE02, false); ok {
		t.Error("CSH is HuC6280-only")
	}
}

func TestEncodingTableConsistent(t *testing.T) {
	// Every row's (op, mode) pair must be legal and must have a sensible
	// byte width and cycle count.
	for _, e := range encodings {
		if !Legal(e.op, e.mode) {
			t.Errorf("encoding row %s %s not in legality set", e.op, e.mode)
		}
		if e.cycles < 2 || e.cycles > 8 {
			t.Errorf("%s %s has suspicious cycle count %d", e.op, e.mode, e.cycles)
		}
		if n := Bytes(e.op, e.mode); n < 1 || n > 4 {
			t.Errorf("%s %s has suspicious size %d", e.op, e.mode, n)
		}
	}
}

func TestInsnPanicsOnIllegalPair(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for STA immediate")
		}
	}()
	Insn(STA, Immediate, Num(0))
}

func TestAbsSelectsZeroPage(t *testing.T) {
	l := Abs(LDA, Num(0x12))
	if l.Mode != ZeroPage {
		t.Errorf("LDA $12 mode = %s, expected ZeroPage", l.Mode)
	}
	l = Abs(LDA, NumSized(0x1234, 2))
	if l.Mode != Absolute {
		t.Errorf("LDA $1234 mode = %s, expected Absolute", l.Mode)
	}
	// Symbolic addresses cannot be proven zero-page.
	l = Abs(LDA, Addr("v"))
	if l.Mode != Absolute {
		t.Errorf("LDA v mode = %s, expected Absolute", l.Mode)
	}
	// JMP has no zero-page form.
	l = Abs(JMP, Num(0x12))
	if l.Mode != Absolute {
		t.Errorf("JMP $12 mode = %s, expected Absolute", l.Mode)
	}
}

func TestLabelLines(t *testing.T) {
	l := LabelLine(".xc_0001")
	if l.LabelName() != ".xc_0001" {
		t.Errorf("label name = %q", l.LabelName())
	}
	b := Rel(BNE, ".xc_0001")
	if !b.RefersToLabel(".xc_0001") {
		t.Error("branch should refer to its target")
	}
	if b.RefersToLabel(".other") {
		t.Error("branch refers to unrelated label")
	}
}
