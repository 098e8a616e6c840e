// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// The architecture-gated rule sets. The pipeline appends each only when the
// matching target option is enabled, so a rule never has to re-check the
// architecture itself.

// CmosOptimizations uses the 65C02 extensions: STZ, INC/DEC A, PHX/PHY.
var CmosOptimizations = Pass{Name: "cmos", Rules: cmosRules()}

func cmosRules() []Rule {
	return []Rule{
		{
			Name: "StoreZeroDirect",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).WithMode(ir.Immediate).When(OperandIs(0)),
				HasOpcode(ir.STA).WithMode(ir.ZeroPage, ir.ZeroPageX, ir.Absolute, ir.AbsoluteX).
					When(DeadAfter(flow.LiveA | flow.LiveN | flow.LiveZ)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				st := m.Line(1)
				return []ir.AssemblyLine{ir.Insn(ir.STZ, st.Mode, st.Operand)}
			}),
		},
		{
			Name: "StoreKnownZero",
			Pattern: []LinePattern{
				HasOpcode(ir.STA).WithMode(ir.ZeroPage, ir.ZeroPageX, ir.Absolute, ir.AbsoluteX).
					When(RegKnown(flow.RegA, 0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				st := m.Line(0)
				return []ir.AssemblyLine{ir.Insn(ir.STZ, st.Mode, st.Operand)}
			}),
		},
		{
			Name: "IncAccumulator",
			Pattern: []LinePattern{
				HasOpcode(ir.CLC),
				HasOpcode(ir.ADC).WithMode(ir.Immediate).When(OperandIs(1)).
					When(DecimalClear()).When(DeadAfter(flow.LiveC | flow.LiveV)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.INC)}
			}),
		},
		{
			Name: "DecAccumulator",
			Pattern: []LinePattern{
				HasOpcode(ir.SEC),
				HasOpcode(ir.SBC).WithMode(ir.Immediate).When(OperandIs(1)).
					When(DecimalClear()).When(DeadAfter(flow.LiveC | flow.LiveV)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.DEC)}
			}),
		},
		{
			Name: "PushXDirect",
			Pattern: []LinePattern{
				HasOpcode(ir.TXA),
				HasOpcode(ir.PHA).When(DeadAfter(flow.LiveA | flow.LiveN | flow.LiveZ)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.PHX)}
			}),
		},
		{
			Name: "PushYDirect",
			Pattern: []LinePattern{
				HasOpcode(ir.TYA),
				HasOpcode(ir.PHA).When(DeadAfter(flow.LiveA | flow.LiveN | flow.LiveZ)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.PHY)}
			}),
		},
		{
			Name: "PullXDirect",
			Pattern: []LinePattern{
				HasOpcode(ir.PLA),
				HasOpcode(ir.TAX).When(DeadAfter(flow.LiveA)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.PLX)}
			}),
		},
		{
			Name: "PullYDirect",
			Pattern: []LinePattern{
				HasOpcode(ir.PLA),
				HasOpcode(ir.TAY).When(DeadAfter(flow.LiveA)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.PLY)}
			}),
		},
	}
}

// CE02Optimizations uses the 65CE02 extensions: word increments and NEG.
var CE02Optimizations = Pass{Name: "ce02", Rules: ce02Rules()}

func ce02Rules() []Rule {
	return []Rule{
		{
			Name: "IncrementWord",
			Pattern: []LinePattern{
				HasOpcode(ir.INC).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1),
				HasOpcode(ir.BNE).Capturing(2),
				HasOpcode(ir.INC).WithMode(ir.ZeroPage, ir.Absolute).
					When(SameModeAs(0)).When(operandIsSuccessorOf(1)),
				HasOpcode(ir.LABEL).Capturing(2).
					When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: func(m *Match) ([]ir.AssemblyLine, bool) {
				mode := m.Line(0).Mode
				if !ir.Legal(ir.INW, mode) {
					return nil, false
				}
				return []ir.AssemblyLine{
					ir.Insn(ir.INW, mode, m.Operand(1)),
					m.Line(3),
				}, true
			},
		},
		{
			Name: "Negate",
			Pattern: []LinePattern{
				HasOpcode(ir.EOR).WithMode(ir.Immediate).When(OperandIs(0xff)),
				HasOpcode(ir.CLC),
				HasOpcode(ir.ADC).WithMode(ir.Immediate).When(OperandIs(1)).
					When(DecimalClear()).When(DeadAfter(flow.LiveC | flow.LiveV)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.NEG)}
			}),
		},
	}
}

// operandIsSuccessorOf holds when the operand equals the variable's
// constant plus one, after simplification. Used to recognize the high byte
// of a word.
func operandIsSuccessorOf(v int) Cond {
	return func(m *Match, idx int) bool {
		base := m.vars[v]
		if base == nil || m.Lines[idx].Operand == nil {
			return false
		}
		succ := ir.AddC(base, ir.Num(1)).QuickSimplify()
		return sameConstant(m.Lines[idx].Operand.QuickSimplify(), succ)
	}
}

// HudsonOptimizations uses the HuC6280 register-clear opcodes.
var HudsonOptimizations = Pass{Name: "hudson", Rules: hudsonRules()}

func hudsonRules() []Rule {
	rules := []Rule{}
	for _, p := range []struct {
		ld  ir.Opcode
		clr ir.Opcode
	}{
		{ir.LDA, ir.CLA}, {ir.LDX, ir.CLX}, {ir.LDY, ir.CLY},
	} {
		clr := p.clr
		rules = append(rules, Rule{
			Name: "ClearRegister" + clr.String(),
			Pattern: []LinePattern{
				HasOpcode(p.ld).WithMode(ir.Immediate).When(OperandIs(0)).
					When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(clr)}
			}),
		})
	}
	return rules
}

// SixteenOptimizations uses the 65816 opcodes available in emulation mode.
var SixteenOptimizations = Pass{Name: "sixteen", Rules: sixteenRules()}

func sixteenRules() []Rule {
	return []Rule{
		{
			Name: "TransferXY",
			Pattern: []LinePattern{
				HasOpcode(ir.TXA),
				HasOpcode(ir.TAY).When(DeadAfter(flow.LiveA)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.TXY)}
			}),
		},
		{
			Name: "TransferYX",
			Pattern: []LinePattern{
				HasOpcode(ir.TYA),
				HasOpcode(ir.TAX).When(DeadAfter(flow.LiveA)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.ImpliedInsn(ir.TYX)}
			}),
		},
	}
}

// UndocumentedOptimizations fuses instruction pairs into the NMOS
// undocumented opcodes. Gated by -fillegals.
var UndocumentedOptimizations = Pass{Name: "undocumented", Rules: undocumentedRules()}

func undocumentedRules() []Rule {
	rules := []Rule{
		{
			Name: "LoadBoth",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).Capturing(1).When(ModeLegalFor(ir.LAX)),
				HasOpcode(ir.LDX).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.LAX, m.Line(0).Mode, m.Operand(1))}
			}),
		},
		{
			Name: "LoadThenCopyToX",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).Capturing(1).When(ModeLegalFor(ir.LAX)),
				HasOpcode(ir.TAX),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.LAX, m.Line(0).Mode, m.Operand(1))}
			}),
		},
		{
			Name: "LoadXThenCopyToA",
			Pattern: []LinePattern{
				HasOpcode(ir.LDX).Capturing(1).When(ModeLegalFor(ir.LAX)),
				HasOpcode(ir.TXA),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.LAX, m.Line(0).Mode, m.Operand(1))}
			}),
		},
		{
			Name: "MaskThenShift",
			Pattern: []LinePattern{
				HasOpcode(ir.AND).WithMode(ir.Immediate).Capturing(1),
				HasOpcode(ir.LSR).WithMode(ir.Implied),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.ALR, ir.Immediate, m.Operand(1))}
			}),
		},
	}

	// Read-modify-write followed by the ALU consumption of the same cell.
	for _, p := range []struct {
		rmw, alu, fused ir.Opcode
	}{
		{ir.DEC, ir.CMP, ir.DCP},
		{ir.INC, ir.SBC, ir.ISC},
		{ir.ASL, ir.ORA, ir.SLO},
		{ir.LSR, ir.EOR, ir.SRE},
		{ir.ROL, ir.AND, ir.RLA},
		{ir.ROR, ir.ADC, ir.RRA},
	} {
		fused := p.fused
		rules = append(rules, Rule{
			Name: "Fuse" + fused.String(),
			Pattern: []LinePattern{
				HasOpcode(p.rmw).WithMode(ir.ZeroPage, ir.Absolute).Capturing(1).
					When(ModeLegalFor(fused)),
				HasOpcode(p.alu).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(fused, m.Line(0).Mode, m.Operand(1))}
			}),
		})
	}

	return rules
}

// DangerousOptimizations assumes memory reads are side-effect free and
// unaliased, which does not hold for hardware registers. Gated by -Ob.
var DangerousOptimizations = Pass{Name: "dangerous", Rules: dangerousRules()}

func dangerousRules() []Rule {
	return []Rule{
		{
			Name: "ReloadAcrossUnrelatedStore",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).Capturing(1),
				HasOpcode(ir.STA).When(OperandUnrelated(1)),
				HasOpcode(ir.LDA).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: KeepOnly(0, 1),
		},
		{
			Name: "ReloadAcrossUnrelatedStoreX",
			Pattern: []LinePattern{
				HasOpcode(ir.LDX).Capturing(1),
				HasOpcode(ir.STX).When(OperandUnrelated(1)),
				HasOpcode(ir.LDX).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: KeepOnly(0, 1),
		},
	}
}

// ZeropageRegisterOptimizations exploits the compiler-owned zero-page
// pseudoregister, which no hardware or alias can touch.
var ZeropageRegisterOptimizations = Pass{Name: "zpreg", Rules: zpRegRules()}

const pseudoregPrefix = "__reg"

func zpRegRules() []Rule {
	return []Rule{
		{
			Name: "PseudoregReload",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).Capturing(1).When(OperandNamePrefix(pseudoregPrefix)),
				HasOpcode(ir.STA).When(OperandUnrelated(1)),
				HasOpcode(ir.LDA).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: KeepOnly(0, 1),
		},
		{
			Name: "PseudoregLoadViaX",
			Pattern: []LinePattern{
				HasOpcode(ir.STX).Capturing(1).When(OperandNamePrefix(pseudoregPrefix)),
				HasOpcode(ir.LDA).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{m.Line(0), ir.ImpliedInsn(ir.TXA)}
			}),
		},
		{
			Name: "PseudoregLoadViaY",
			Pattern: []LinePattern{
				HasOpcode(ir.STY).Capturing(1).When(OperandNamePrefix(pseudoregPrefix)),
				HasOpcode(ir.LDA).Capturing(1).When(SameModeAs(0)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{m.Line(0), ir.ImpliedInsn(ir.TYA)}
			}),
		},
	}
}
