// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow

import (
	"testing"

	"github.com/mfc-lang/mfc/ir"
)

func TestForwardKnownLoad(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(5)),
		ir.Abs(ir.STA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if b, ok := st[1].A.Known(); !ok || b != 5 {
		t.Errorf("before STA: A = %v, want $05", st[1].A)
	}
	if st[1].Z != FlagClear || st[1].N != FlagClear {
		t.Errorf("before STA: Z=%d N=%d, want both clear", st[1].Z, st[1].N)
	}
	if _, ok := st[0].A.Known(); ok {
		t.Errorf("entry state claims a known A: %v", st[0].A)
	}
}

func TestForwardTransferAlias(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.ImpliedInsn(ir.TAX),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if !st[2].X.IsSameAs(RegA) {
		t.Errorf("after TAX: X = %v, want =A", st[2].X)
	}
}

func TestForwardAliasInvalidation(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(9)),
		ir.ImpliedInsn(ir.TAX),
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	// X was a copy of a known A, so overwriting A materializes the copy.
	if b, ok := st[3].X.Known(); !ok || b != 9 {
		t.Errorf("after LDA v: X = %v, want $09", st[3].X)
	}
	if _, ok := st[3].A.Known(); ok {
		t.Errorf("after LDA v: A = %v, want unknown", st[3].A)
	}
}

func TestForwardJoinLosesDisagreement(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.Rel(ir.BEQ, ".else"),
		ir.Imm(ir.LDX, ir.Num(5)),
		ir.Insn(ir.JMP, ir.Absolute, ir.Addr(".done")),
		ir.LabelLine(".else"),
		ir.Imm(ir.LDX, ir.Num(7)),
		ir.LabelLine(".done"),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if _, ok := st[7].X.Known(); ok {
		t.Errorf("after join: X = %v, want unknown", st[7].X)
	}
	// Both loads left Z clear, so the join keeps that agreement.
	if st[7].Z != FlagClear {
		t.Errorf("after join: Z = %d, want clear", st[7].Z)
	}
}

func TestForwardBranchRefinement(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Abs(ir.LDA, ir.Addr("v")),
		ir.Rel(ir.BNE, ".nonzero"),
		ir.Abs(ir.STA, ir.Addr("w")), // fall-through: Z known set
		ir.LabelLine(".nonzero"),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if st[2].Z != FlagSet {
		t.Errorf("BNE fall-through: Z = %d, want set", st[2].Z)
	}
	// The label joins the taken edge (Z clear) with the fall-through flow
	// (Z set), so nothing is known there.
	if st[3].Z != FlagUnknown {
		t.Errorf("at .nonzero: Z = %d, want unknown", st[3].Z)
	}
}

func TestForwardLoopFixpoint(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDX, ir.Num(0)),
		ir.LabelLine(".loop"),
		ir.ImpliedInsn(ir.INX),
		ir.Imm(ir.CPX, ir.Num(10)),
		ir.Rel(ir.BNE, ".loop"),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	// The back edge feeds changing X values into the loop head.
	if _, ok := st[2].X.Known(); ok {
		t.Errorf("at loop body: X = %v, want unknown", st[2].X)
	}
	// After the loop exits, the comparison pinned Z... but BNE falls
	// through only when Z is set.
	if st[5].Z != FlagSet {
		t.Errorf("after loop: Z = %d, want set", st[5].Z)
	}
}

func TestForwardArithmeticFolding(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.CLD),
		ir.ImpliedInsn(ir.CLC),
		ir.Imm(ir.LDA, ir.Num(0x40)),
		ir.Imm(ir.ADC, ir.Num(0x50)),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if b, ok := st[4].A.Known(); !ok || b != 0x90 {
		t.Errorf("after ADC: A = %v, want $90", st[4].A)
	}
	if st[4].C != FlagClear {
		t.Errorf("after ADC: C = %d, want clear", st[4].C)
	}
	if st[4].V != FlagSet {
		t.Errorf("after ADC: V = %d, want set ($40+$50 overflows)", st[4].V)
	}
	if st[4].N != FlagSet {
		t.Errorf("after ADC: N = %d, want set", st[4].N)
	}
}

func TestForwardCallBarrier(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Insn(ir.JSR, ir.Absolute, ir.Addr("helper")),
		ir.ImpliedInsn(ir.RTS),
	}
	st := Analyze(lines)

	if _, ok := st[2].A.Known(); ok {
		t.Errorf("after JSR: A = %v, want unknown", st[2].A)
	}
}

func TestLivenessDeadFlags(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.CMP, ir.Num(5)),
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.ImpliedInsn(ir.RTS),
	}
	live := LivenessAnalysis(lines)

	// LDA rewrites A, N and Z before anything reads them, and nothing reads
	// the comparison's carry.
	if live[0].HasAny(LiveN | LiveZ | LiveC | LiveA) {
		t.Errorf("after CMP: live = %b, want A/N/Z/C dead", live[0])
	}
	if !live[1].Has(LiveA) {
		t.Errorf("after LDA: live = %b, want A live at exit", live[1])
	}
}

func TestLivenessBranchKeepsFlag(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.CMP, ir.Num(5)),
		ir.Rel(ir.BCS, ".skip"),
		ir.Imm(ir.LDA, ir.Num(0)),
		ir.LabelLine(".skip"),
		ir.ImpliedInsn(ir.RTS),
	}
	live := LivenessAnalysis(lines)

	if !live[0].Has(LiveC) {
		t.Errorf("after CMP: live = %b, want C live (BCS reads it)", live[0])
	}
	if live[1].Has(LiveC) {
		t.Errorf("after BCS: live = %b, want C dead", live[1])
	}
}

func TestLivenessIndexRegisterUse(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDY, ir.Num(0)),
		ir.Abs(ir.LDA, ir.Addr("src")),
		ir.Insn(ir.STA, ir.IndexedY, ir.Addr("ptr")),
		ir.ImpliedInsn(ir.RTS),
	}
	live := LivenessAnalysis(lines)

	// The (zp),Y store consumes Y through its addressing mode.
	if !live[0].Has(LiveY) {
		t.Errorf("after LDY: live = %b, want Y live", live[0])
	}
	if !live[1].Has(LiveA | LiveY) {
		t.Errorf("after LDA: live = %b, want A and Y live", live[1])
	}
}

func TestLivenessCallKeepsEverything(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Imm(ir.LDX, ir.Num(2)),
		ir.Insn(ir.JSR, ir.Absolute, ir.Addr("helper")),
		ir.ImpliedInsn(ir.RTS),
	}
	live := LivenessAnalysis(lines)

	if !live[1].Has(LiveA | LiveX) {
		t.Errorf("before call: live = %b, want A and X live", live[1])
	}
}

func TestLivenessLoop(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.Imm(ir.LDX, ir.Num(0)),
		ir.LabelLine(".loop"),
		ir.ImpliedInsn(ir.INX),
		ir.Imm(ir.CPX, ir.Num(10)),
		ir.Rel(ir.BNE, ".loop"),
		ir.ImpliedInsn(ir.RTS),
	}
	live := LivenessAnalysis(lines)

	// X flows around the back edge, so it stays live across the branch.
	if !live[4].Has(LiveX) {
		t.Errorf("after BNE: live = %b, want X live", live[4])
	}
	if !live[0].Has(LiveX) {
		t.Errorf("after LDX: live = %b, want X live", live[0])
	}
}
