// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"strings"
	"testing"

	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func checkLines(t *testing.T, got []ir.AssemblyLine, want ...string) {
	t.Helper()
	var rendered []string
	for _, l := range got {
		rendered = append(rendered, strings.TrimSpace(l.String()))
	}
	if len(rendered) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(rendered), len(want),
			strings.Join(rendered, "\n"))
	}
	for i := range want {
		if rendered[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, rendered[i], want[i])
		}
	}
}

var testCfg = Config{Metric: prog.MetricCycles}

func TestQuickRedundantPairs(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(5)),
		ir.Imm(ir.LDA, ir.Num(6)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, "LDA #$06", "STA v", "RTS")
}

func TestQuickStoreAfterLoad(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, "LDA v", "RTS")
}

func TestQuickLoadAfterStore(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, "STA v", "RTS")
}

func TestQuickKeepsIndexedMismatch(t *testing.T) {
	// STA v / LDA v,X touch different addresses; the operands unify but
	// the modes must not.
	lines := []ir.AssemblyLine{
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.Insn(ir.LDA, ir.AbsoluteX, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, "STA v", "LDA v,X", "RTS")
}

func TestQuickRedundantFlagOps(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.CLC),
		ir.ImpliedInsn(ir.CLC),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, "CLC", "RTS")
}

func TestQuickJumpToNextLine(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Insn(ir.JMP, ir.Absolute, ir.Addr(".l")),
		ir.LabelLine(".l"),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	checkLines(t, out, ".l:", "RTS")
}

func TestQuickRespectsPinnedLines(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(5)).Pinned(),
		ir.Imm(ir.LDA, ir.Num(6)).Pinned(),
		ir.ImpliedInsn(ir.RTS),
	}
	out := QuickPreset.Apply(lines, testCfg)
	if len(out) != 3 {
		t.Fatalf("pinned lines were consumed: %d lines left", len(out))
	}
}

func TestGoodTailCall(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Insn(ir.JSR, ir.Absolute, ir.Addr("helper")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := Good.Apply(lines, testCfg)
	checkLines(t, out, "JMP helper")
}

func TestGoodBranchOverJump(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.Rel(ir.BEQ, ".skip"),
		ir.Insn(ir.JMP, ir.Absolute, ir.Addr(".far")),
		ir.LabelLine(".skip"),
		ir.ImpliedInsn(ir.RTS),
	}
	out := Good.Apply(lines, testCfg)
	checkLines(t, out, "LDA v", "BNE .far", ".skip:", "RTS")
}

func TestGoodDecidedBranch(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Rel(ir.BEQ, ".never"), // Z is provably clear
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.LabelLine(".never"),
		ir.ImpliedInsn(ir.RTS),
	}
	out := Good.Apply(lines, testCfg)
	checkLines(t, out, "LDA #$01", "STA v", ".never:", "RTS")
}

func TestCmosStoreZero(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Abs(ir.STA, ir.Addr("w")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := CmosOptimizations.Apply(lines, testCfg)
	checkLines(t, out, "STZ v", "LDA #$01", "STA w", "RTS")
}

func TestCmosIncAccumulator(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.CLD),
		ir.ImpliedInsn(ir.CLC),
		ir.Imm(ir.ADC, ir.Num(1)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := CmosOptimizations.Apply(lines, testCfg)
	checkLines(t, out, "CLD", "INC", "STA v", "RTS")
}

func TestUndocumentedFusions(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.ImpliedInsn(ir.TAX),
		ir.Abs(ir.DEC, ir.Addr("w")),
		ir.Abs(ir.CMP, ir.Addr("w")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := UndocumentedOptimizations.Apply(lines, testCfg)
	checkLines(t, out, "LAX v", "DCP w", "RTS")
}

func TestHudsonClearRegister(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	out := HudsonOptimizations.Apply(lines, testCfg)
	checkLines(t, out, "CLA", "STA v", "RTS")
}

// Operational check: the optimized sequence must leave the same registers
// and memory as the original from every start state. Flags are exempt, as
// every exercised rule only rewrites them when they are dead at that point.
func checkSemanticsPreserved(t *testing.T, opts prog.CompilationOptions, lines []ir.AssemblyLine) {
	t.Helper()
	out := Optimize(lines, opts, testCfg)
	for _, start := range superStates() {
		wantEnd := start.Clone()
		if !Execute(lines, wantEnd) {
			t.Fatalf("original sequence not executable")
		}
		gotEnd := start.Clone()
		if !Execute(out, gotEnd) {
			t.Fatalf("optimized sequence not executable")
		}
		if !gotEnd.Equal(wantEnd, false) {
			t.Fatalf("state diverged from A=%02X X=%02X Y=%02X:\n  got  A=%02X X=%02X Y=%02X\n  want A=%02X X=%02X Y=%02X",
				start.A, start.X, start.Y,
				gotEnd.A, gotEnd.X, gotEnd.Y,
				wantEnd.A, wantEnd.X, wantEnd.Y)
		}
	}
}

func TestSemanticsPreserved(t *testing.T) {
	opts := prog.CompilationOptions{Arch: ir.NMOS, OptLevel: 2}
	sequences := [][]ir.AssemblyLine{
		{
			ir.Imm(ir.LDA, ir.Num(5)),
			ir.Imm(ir.LDA, ir.Num(9)),
			ir.Abs(ir.STA, ir.Addr("v")),
		},
		{
			ir.Abs(ir.STA, ir.Addr("v")),
			ir.Abs(ir.LDA, ir.Addr("v")),
		},
		{
			ir.Imm(ir.LDA, ir.Num(3)),
			ir.ImpliedInsn(ir.PHA),
			ir.Abs(ir.STX, ir.Addr("w")),
			ir.ImpliedInsn(ir.PLA),
		},
		{
			ir.ImpliedInsn(ir.INX),
			ir.ImpliedInsn(ir.DEX),
		},
		{
			ir.Imm(ir.LDA, ir.Num(0x0f)),
			ir.Imm(ir.AND, ir.Num(0xf0)),
			ir.Abs(ir.STA, ir.Addr("v")),
		},
		{
			ir.ImpliedInsn(ir.CLC),
			ir.Imm(ir.ADC, ir.Num(0)),
		},
		{
			ir.Abs(ir.LDA, ir.Addr("v")),
			ir.ImpliedInsn(ir.TAX),
			ir.ImpliedInsn(ir.TXA),
		},
	}
	for i, seq := range sequences {
		pinned := make([]ir.AssemblyLine, len(seq))
		copy(pinned, seq)
		t.Run(string(rune('a'+i)), func(t *testing.T) {
			checkSemanticsPreserved(t, opts, pinned)
		})
	}
}

func TestSemanticsPreservedWithIllegals(t *testing.T) {
	opts := prog.CompilationOptions{Arch: ir.NMOS, OptLevel: 2, Illegals: true}
	checkSemanticsPreserved(t, opts, []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.Abs(ir.LDX, ir.Addr("v")),
		ir.Abs(ir.DEC, ir.Addr("w")),
		ir.Abs(ir.CMP, ir.Addr("w")),
		ir.Abs(ir.STA, ir.Addr("u")),
	})
}
