// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"io"
	"strings"
	"testing"

	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func testEnv() *prog.Environment {
	env := prog.NewEnvironment()
	env.ZpRegisterSize = 4
	env.Add(&prog.Variable{Name: "a", Type: prog.ByteType, Storage: prog.ZeroPageStorage})
	env.Add(&prog.Variable{Name: "b", Type: prog.ByteType, Storage: prog.AbsoluteStorage})
	env.Add(&prog.Variable{Name: "s", Type: prog.SByteType, Storage: prog.ZeroPageStorage})
	out := ir.Constant(ir.NumSized(0xc000, 2))
	env.Add(&prog.Array{Name: "output", Length: 16, Fixed: &out})
	env.Add(&prog.Function{Name: "one", ReturnType: prog.ByteType})
	return env
}

func compileFn(t *testing.T, env *prog.Environment, f *prog.Function,
	opts prog.CompilationOptions) []ir.AssemblyLine {
	t.Helper()
	env.Labels().Reset()
	log := diag.New(io.Discard, diag.Error)
	return Function(prog.NewContext(env, f, opts), log)
}

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

func TestEntryLabelPinned(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main"}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	if len(out) == 0 || out[0].LabelName() != "main" {
		t.Fatalf("missing entry label")
	}
	if out[0].Elidable {
		t.Errorf("entry label must not be elidable")
	}
	if last := out[len(out)-1]; last.Op != ir.RTS {
		t.Errorf("function does not end in RTS: %s", last)
	}
}

func TestInterruptPrologueNmos(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "irq", Interrupt: true}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"irq:",
		"PHA ; +", "TXA ; +", "PHA ; +", "TYA ; +", "PHA ; +", "CLD ; +",
		"PLA ; +", "TAY ; +", "PLA ; +", "TAX ; +", "PLA ; +", "RTI ; +")
}

func TestInterruptPrologueCmos(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "irq", Interrupt: true}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.CMOS})
	checkLines(t, out,
		"irq:",
		"PHA ; +", "PHX ; +", "PHY ; +", "CLD ; +",
		"PLY ; +", "PLX ; +", "PLA ; +", "RTI ; +")
}

func TestKernalInterruptSkipsSaves(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "irq", Interrupt: true, KernalInterrupt: true}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out, "irq:", "RTI ; +")
}

// The frame allocator switches from a PHA run to the SBX form at exactly
// five bytes, and only when undocumented opcodes are allowed.
func TestStackFrameForms(t *testing.T) {
	env := testEnv()

	f := &prog.Function{Name: "f", StackVarsSize: 4}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS, Illegals: true})
	checkLines(t, out,
		"f:", "PHA ; +", "PHA ; +", "PHA ; +", "PHA ; +",
		"PLA ; +", "PLA ; +", "PLA ; +", "PLA ; +", "RTS")

	f = &prog.Function{Name: "f", StackVarsSize: 5}
	out = compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS, Illegals: true})
	checkLines(t, out,
		"f:", "TSX ; +", "LDA #$FF ; +", "SBX #$05 ; +", "TXS ; +",
		"TSX ; +", "LDA #$FF ; +", "SBX #$FB ; +", "TXS ; +", "RTS")

	// Without -fillegals the SBX form is off the table at any size.
	out = compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"f:", "PHA ; +", "PHA ; +", "PHA ; +", "PHA ; +", "PHA ; +",
		"PLA ; +", "PLA ; +", "PLA ; +", "PLA ; +", "PLA ; +", "RTS")
}

func TestSimpleAddition(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.IndexedExpression{Name: "output", Index: prog.LiteralExpression{Value: 0, Size: 1}},
			Value: prog.BinaryExpression{Op: prog.OpAdd,
				L: prog.VariableExpression{Name: "a"},
				R: prog.VariableExpression{Name: "a"}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:", "LDA a", "CLC", "ADC a", "STA $C000", "RTS")
}

func TestImmediateAddition(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.VariableExpression{Name: "b"},
			Value: prog.BinaryExpression{Op: prog.OpAdd,
				L: prog.VariableExpression{Name: "a"},
				R: prog.LiteralExpression{Value: 65, Size: 1}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:", "LDA a", "CLC", "ADC #$41", "STA b", "RTS")
}

func TestMulByPowerOfTwo(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.VariableExpression{Name: "b"},
			Value: prog.BinaryExpression{Op: prog.OpMul,
				L: prog.VariableExpression{Name: "a"},
				R: prog.LiteralExpression{Value: 4, Size: 1}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:", "LDA a", "ASL", "ASL", "STA b", "RTS")
}

func TestMulByConstantLadder(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.VariableExpression{Name: "b"},
			Value: prog.BinaryExpression{Op: prog.OpMul,
				L: prog.VariableExpression{Name: "a"},
				R: prog.LiteralExpression{Value: 5, Size: 1}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	// 5 = 101b: add, shift, shift+add.
	checkLines(t, out,
		"main:", "LDA a",
		"STA __reg", "LDA #$00",
		"CLC", "ADC __reg",
		"ASL",
		"ASL", "CLC", "ADC __reg",
		"STA b", "RTS")
}

func TestIfElseSkeleton(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.IfStatement{
			Condition: prog.BinaryExpression{Op: prog.OpEq,
				L: prog.VariableExpression{Name: "a"},
				R: prog.LiteralExpression{Value: 0, Size: 1}},
			Then: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "b"},
				Value:  prog.LiteralExpression{Value: 1, Size: 1}}},
			Else: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "b"},
				Value:  prog.LiteralExpression{Value: 2, Size: 1}}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:",
		"LDA a", "CMP #$00", "BNE .el_0001",
		"LDA #$01", "STA b", "JMP .fi_0002",
		".el_0001:",
		"LDA #$02", "STA b",
		".fi_0002:",
		"RTS")
}

func TestWhileLoop(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.WhileStatement{
			Condition: prog.BinaryExpression{Op: prog.OpNe,
				L: prog.VariableExpression{Name: "a"},
				R: prog.LiteralExpression{Value: 0, Size: 1}},
			Body: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "a"},
				Value: prog.BinaryExpression{Op: prog.OpSub,
					L: prog.VariableExpression{Name: "a"},
					R: prog.LiteralExpression{Value: 1, Size: 1}}}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:",
		".wh_0001:",
		"LDA a", "CMP #$00", "BEQ .ew_0002",
		"LDA a", "SEC", "SBC #$01", "STA a",
		"JMP .wh_0001",
		".ew_0002:",
		"RTS")
}

func TestForUntilLoop(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.ForStatement{
			Variable:  "a",
			Start:     prog.LiteralExpression{Value: 0, Size: 1},
			End:       prog.LiteralExpression{Value: 10, Size: 1},
			Direction: prog.ForUntil,
			Body: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "b"},
				Value:  prog.VariableExpression{Name: "a"}}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:",
		"LDA #$00", "STA a",
		".fo_0001:",
		"LDA a", "CMP #$0A", "BCS .fe_0003",
		"LDA a", "STA b",
		".fc_0002:",
		"INC a",
		"JMP .fo_0001",
		".fe_0003:",
		"RTS")
}

// An inclusive ascending loop tests at the tail, so a 255 bound terminates
// instead of wrapping.
func TestForToTestsAtTail(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.ForStatement{
			Variable:  "a",
			Start:     prog.LiteralExpression{Value: 0, Size: 1},
			End:       prog.LiteralExpression{Value: 255, Size: 1},
			Direction: prog.ForTo,
			Body: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "b"},
				Value:  prog.VariableExpression{Name: "a"}}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:",
		"LDA #$00", "STA a",
		".fo_0001:",
		"LDA a", "STA b",
		".fc_0002:",
		"LDA a", "CMP #$FF", "BEQ .fe_0003",
		"INC a",
		"JMP .fo_0001",
		".fe_0003:",
		"RTS")
}

func TestBoundsCheck(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.IndexedExpression{Name: "output",
				Index: prog.VariableExpression{Name: "a"}},
			Value: prog.LiteralExpression{Value: 5, Size: 1},
		},
	}}
	opts := prog.CompilationOptions{Arch: ir.NMOS, BoundsChecking: true}
	out := compileFn(t, env, f, opts)
	checkLines(t, out,
		"main:",
		"LDA #$05", "LDX a",
		"CPX #$10", "BCC .bc_0001", "JSR __bounds_fail", ".bc_0001:",
		"STA $C000,X",
		"RTS")
}

func TestBoundsCheckSuppressed(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.IndexedExpression{Name: "output",
				Index: prog.VariableExpression{Name: "a"}},
			Value: prog.LiteralExpression{Value: 5, Size: 1},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:", "LDA #$05", "LDX a", "STA $C000,X", "RTS")
}

func TestBreakAndContinue(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.WhileStatement{
			Condition: prog.VariableExpression{Name: "a"},
			Body: []prog.Statement{
				prog.BreakStatement{},
				prog.ContinueStatement{},
			},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out,
		"main:",
		".wh_0001:",
		"LDA a", "BEQ .ew_0002",
		"JMP .ew_0002",
		"JMP .wh_0001",
		"JMP .wh_0001",
		".ew_0002:",
		"RTS")
}

func TestInlineAssemblyStaysPinned(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.InlineAssemblyStatement{Lines: []ir.AssemblyLine{
			ir.Imm(ir.LDA, ir.Num(5)),
			ir.ImpliedInsn(ir.NOP),
		}},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out, "main:", "LDA #$05 ; +", "NOP ; +", "RTS")
}

func TestCallLeavesResultInA(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.Assignment{
			Target: prog.VariableExpression{Name: "b"},
			Value:  prog.FunctionCallExpression{Name: "one"},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	checkLines(t, out, "main:", "JSR one", "STA b", "RTS")
}

func TestRegisterArgumentOrder(t *testing.T) {
	env := testEnv()
	env.Add(&prog.Function{Name: "plot", Asm: true, Params: []prog.Param{
		{Name: "px", Type: prog.ByteType, Convention: prog.ByRegisterX},
		{Name: "pa", Type: prog.ByteType, Convention: prog.ByRegisterA},
	}})
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.ExpressionStatement{Expr: prog.FunctionCallExpression{
			Name: "plot",
			Args: []prog.Expression{
				prog.LiteralExpression{Value: 7, Size: 1},
				prog.VariableExpression{Name: "a"},
			},
		}},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	// The A-passed argument loads last so the X load cannot clobber it.
	checkLines(t, out, "main:", "LDX #$07", "LDA a", "JSR plot", "RTS")
}

func TestSignedComparison(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.IfStatement{
			Condition: prog.BinaryExpression{Op: prog.OpLt,
				L: prog.VariableExpression{Name: "s"},
				R: prog.LiteralExpression{Value: 0, Size: 1}},
			Then: []prog.Statement{prog.Assignment{
				Target: prog.VariableExpression{Name: "b"},
				Value:  prog.LiteralExpression{Value: 1, Size: 1}}},
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.NMOS})
	// if s < 0 inverts to a branch-if-nonnegative around the body.
	checkLines(t, out,
		"main:",
		"LDA s", "SEC", "SBC #$00",
		"BVC .sc_0002", "EOR #$80", ".sc_0002:",
		"BPL .fi_0001",
		"LDA #$01", "STA b",
		".fi_0001:",
		"RTS")
}

func TestCmosUsesBranchAlways(t *testing.T) {
	env := testEnv()
	f := &prog.Function{Name: "main", Body: []prog.Statement{
		prog.WhileStatement{
			Condition: prog.VariableExpression{Name: "a"},
			Body:      nil,
		},
	}}
	out := compileFn(t, env, f, prog.CompilationOptions{Arch: ir.CMOS})
	checkLines(t, out,
		"main:",
		".wh_0001:",
		"LDA a", "BEQ .ew_0002",
		"BRA .wh_0001",
		".ew_0002:",
		"RTS")
}
