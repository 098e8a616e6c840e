// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
)

// LaterOptimizations runs after the main sets have settled. Its rewrites
// depend on dead registers the earlier sets expose.
var LaterOptimizations = Pass{Name: "later", Rules: laterRules()}

func laterRules() []Rule {
	rules := []Rule{}

	// A load only feeding a transfer becomes a direct load of the target
	// register, when the addressing mode permits one.
	for _, p := range []struct {
		xfer   ir.Opcode
		direct ir.Opcode
		dead   flow.Liveness
	}{
		{ir.TAX, ir.LDX, flow.LiveA},
		{ir.TAY, ir.LDY, flow.LiveA},
	} {
		direct := p.direct
		rules = append(rules, Rule{
			Name: "LoadViaTransfer" + p.xfer.String(),
			Pattern: []LinePattern{
				HasOpcode(ir.LDA).Capturing(1).When(ModeLegalFor(direct)),
				HasOpcode(p.xfer).When(DeadAfter(p.dead)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(direct, m.Line(0).Mode, m.Operand(1))}
			}),
		})
	}
	for _, p := range []struct {
		ld   ir.Opcode
		dead flow.Liveness
	}{
		{ir.LDX, flow.LiveX},
		{ir.LDY, flow.LiveY},
	} {
		xfer := ir.TXA
		if p.ld == ir.LDY {
			xfer = ir.TYA
		}
		rules = append(rules, Rule{
			Name: "TransferViaLoad" + p.ld.String(),
			Pattern: []LinePattern{
				HasOpcode(p.ld).Capturing(1).When(ModeLegalFor(ir.LDA)),
				HasOpcode(xfer).When(DeadAfter(p.dead)),
			},
			Rewrite: ReplaceWith(func(m *Match) []ir.AssemblyLine {
				return []ir.AssemblyLine{ir.Insn(ir.LDA, m.Line(0).Mode, m.Operand(1))}
			}),
		})
	}

	rules = append(rules,
		Rule{
			Name: "PushPullCancelX",
			Pattern: []LinePattern{
				HasOpcode(ir.PHX),
				HasOpcode(ir.PLX).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
		Rule{
			Name: "PushPullCancelY",
			Pattern: []LinePattern{
				HasOpcode(ir.PHY),
				HasOpcode(ir.PLY).When(DeadAfter(flow.LiveN | flow.LiveZ)),
			},
			Rewrite: Drop,
		},
	)

	return rules
}

// ModeLegalFor holds when the line's addressing mode is also legal for the
// given opcode, so the rewrite cannot construct an illegal pair.
func ModeLegalFor(op ir.Opcode) Cond {
	return func(m *Match, idx int) bool {
		return ir.Legal(op, m.Lines[idx].Mode)
	}
}
