// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"testing"

	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func TestEngineRejectsCostlierRewrite(t *testing.T) {
	pass := Pass{
		Name: "test",
		Rules: []Rule{{
			Name:    "Pessimize",
			Pattern: []LinePattern{HasOpcode(ir.INX)},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{
					ir.ImpliedInsn(ir.INX),
					ir.ImpliedInsn(ir.NOP),
				}
			}),
		}},
	}
	lines := []ir.AssemblyLine{ir.ImpliedInsn(ir.INX)}
	out := pass.Apply(lines, Config{Metric: prog.MetricCycles})
	if len(out) != 1 {
		t.Fatalf("engine accepted a rewrite that raised the cost: %d lines", len(out))
	}
}

func TestEngineMetricSelectsWinner(t *testing.T) {
	// The rewrite trades bytes for cycles: 3 bytes / 4 cycles becomes
	// 2 bytes / 7 cycles. Only -Os should take it.
	pass := Pass{
		Name: "test",
		Rules: []Rule{{
			Name: "TradeCyclesForBytes",
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).WithMode(ir.Absolute).Capturing(1),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{
					ir.ImpliedInsn(ir.PHA),
					ir.ImpliedInsn(ir.PLA),
				}
			}),
		}},
	}
	lines := []ir.AssemblyLine{ir.Abs(ir.LDA, ir.Addr("v"))}

	if out := pass.Apply(lines, Config{Metric: prog.MetricCycles}); len(out) != 1 {
		t.Errorf("-Of took a rewrite that costs extra cycles")
	}
	if out := pass.Apply(lines, Config{Metric: prog.MetricBytes}); len(out) != 2 {
		t.Errorf("-Os rejected a rewrite that saves a byte")
	}
}

func TestEngineIterates(t *testing.T) {
	// Each pair cancellation exposes the next one.
	lines := []ir.AssemblyLine{
		ir.ImpliedInsn(ir.INX),
		ir.ImpliedInsn(ir.INX),
		ir.ImpliedInsn(ir.DEX),
		ir.ImpliedInsn(ir.DEX),
	}
	out := QuickPreset.Apply(lines, testCfg)
	if len(out) != 0 {
		t.Fatalf("expected full cancellation, %d lines left", len(out))
	}
}

func TestRemoveUnusedLocalLabels(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.LabelLine(".unused"),
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.LabelLine(".used"),
		ir.Rel(ir.BNE, ".used"),
		ir.ImpliedInsn(ir.RTS),
	}
	out := RemoveUnusedLocalLabels(lines)
	checkLines(t, out, "main:", "LDA #$01", ".used:", "BNE .used", "RTS")
}

func TestRemoveUnusedKeepsGlobalLabels(t *testing.T) {
	lines := []ir.AssemblyLine{
		ir.LabelLine("helper"),
		ir.ImpliedInsn(ir.RTS),
	}
	out := RemoveUnusedLocalLabels(lines)
	if len(out) != 2 {
		t.Fatalf("global label was removed")
	}
}
