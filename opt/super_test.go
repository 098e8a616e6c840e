// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"testing"

	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func TestSuperoptimizerShortensBlock(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.INX),
		ir.ImpliedInsn(ir.INX),
		ir.ImpliedInsn(ir.DEX),
		ir.ImpliedInsn(ir.RTS),
	}
	opts := prog.CompilationOptions{Arch: ir.NMOS, OptLevel: 9}
	out := Superoptimize(lines, opts, testCfg)
	checkLines(t, out, "INX", "RTS")
}

func TestSuperoptimizerPreservesSemantics(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.Abs(ir.LDA, ir.Addr("v")),
	}
	opts := prog.CompilationOptions{Arch: ir.NMOS, OptLevel: 9}
	out := Superoptimize(lines, opts, testCfg)

	for _, start := range superStates() {
		want := start.Clone()
		if !Execute(lines, want) {
			t.Fatal("original block not executable")
		}
		got := start.Clone()
		if !Execute(out, got) {
			t.Fatal("superoptimized block not executable")
		}
		if !got.Equal(want, false) {
			t.Fatalf("superoptimizer changed observable state")
		}
	}
	if cost(out, prog.MetricCycles) > cost(lines, prog.MetricCycles) {
		t.Errorf("superoptimizer raised the cost: %d > %d",
			cost(out, prog.MetricCycles), cost(lines, prog.MetricCycles))
	}
}

func TestStateBatteryIndependence(t *testing.T) {
	// The corner grid sets Y = A^X, C = A&1, N = X&0x80 and Z = (A==X).
	// The battery must also contain states breaking those relations, or a
	// candidate exploiting one of them could pass the equivalence check.
	decorrelated := false
	for _, s := range superStates() {
		if s.Y != s.A^s.X || s.C != (s.A&1 != 0) || s.N != (s.X&0x80 != 0) {
			decorrelated = true
			break
		}
	}
	if !decorrelated {
		t.Error("every start state ties Y and the flags to A and X")
	}
}

func TestBitImmediateLeavesNV(t *testing.T) {
	s := NewMachineState()
	s.A = 0x0f
	s.N, s.V = true, true
	if !Execute([]ir.AssemblyLine{ir.Imm(ir.BIT, ir.Num(0xc0))}, s) {
		t.Fatal("BIT immediate not executable")
	}
	if !s.N || !s.V {
		t.Error("BIT immediate changed N or V")
	}
	if !s.Z {
		t.Error("BIT immediate: Z not set from A & operand")
	}

	s = NewMachineState()
	s.A = 0x0f
	s.Mem["v"] = 0xc0
	if !Execute([]ir.AssemblyLine{ir.Abs(ir.BIT, ir.Addr("v"))}, s) {
		t.Fatal("BIT absolute not executable")
	}
	if !s.N || !s.V {
		t.Error("BIT absolute: N and V not copied from bits 7 and 6")
	}
}

func TestSuperoptimizerSkipsPinnedLines(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.INX).Pinned(),
		ir.ImpliedInsn(ir.DEX).Pinned(),
	}
	opts := prog.CompilationOptions{Arch: ir.NMOS, OptLevel: 9}
	out := Superoptimize(lines, opts, testCfg)
	if len(out) != 2 {
		t.Fatalf("pinned lines were rewritten: %d lines left", len(out))
	}
}
