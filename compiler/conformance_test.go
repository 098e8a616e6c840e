// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"io"
	"testing"

	"github.com/mfc-lang/mfc/cpu"
	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/options"
	"github.com/mfc-lang/mfc/platform"
	"github.com/mfc-lang/mfc/prog"
)

// End-to-end scenarios: compile a program at every level -O0..-O3, run the
// image on the emulator, and check what main left at $c000.

var levels = []string{"-O0", "-O1", "-O2", "-O3"}

func lit(v int64) prog.Expression {
	return prog.LiteralExpression{Value: v, Size: 1}
}

func rd(name string) prog.Expression {
	return prog.VariableExpression{Name: name}
}

func idx(name string, i prog.Expression) prog.Expression {
	return prog.IndexedExpression{Name: name, Index: i}
}

func call(name string) prog.Expression {
	return prog.FunctionCallExpression{Name: name}
}

func bin(op prog.BinaryOp, l, r prog.Expression) prog.Expression {
	return prog.BinaryExpression{Op: op, L: l, R: r}
}

func assign(target, value prog.Expression) prog.Statement {
	return prog.Assignment{Target: target, Value: value}
}

// scenarioProgram wraps main's body in an environment with a zero-page
// byte a, the output array at $c000, and any extra functions.
func scenarioProgram(body []prog.Statement, extra ...*prog.Function) *prog.Program {
	env := prog.NewEnvironment()
	env.Add(&prog.Variable{Name: "a", Type: prog.ByteType, Storage: prog.ZeroPageStorage})
	out := ir.Constant(ir.NumSized(0xc000, 2))
	env.Add(&prog.Array{Name: "output", Length: 16, Fixed: &out})
	for _, f := range extra {
		env.Add(f)
	}
	env.Add(&prog.Function{Name: "main", Body: body})
	return &prog.Program{Env: env, EntryPoints: []string{"main"}}
}

// compileAndRun compiles at one level and executes main on the emulator,
// returning the memory image afterward.
func compileAndRun(t *testing.T, p *prog.Program, level string) *cpu.FlatMemory {
	t.Helper()

	s, err := options.Parse([]string{"-o", "out", level, "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	plat, _ := platform.Builtin("sim")
	job := &Job{Program: p, Platform: plat, Settings: s, Log: diag.New(io.Discard, diag.Error)}
	res, ok := job.Run()
	if !ok {
		t.Fatalf("compilation failed at %s", level)
	}

	mem := cpu.NewFlatMemory()
	mem.StoreBytes(uint16(res.Output.Origin["default"]), res.Output.Code["default"])
	core := cpu.New(plat.Arch, false, mem)
	main := uint16(res.Output.Symbols["main"])
	if !core.RunSubroutine(main, 1_000_000) {
		t.Fatalf("program did not finish at %s", level)
	}
	return mem
}

func checkOutput(t *testing.T, p *prog.Program, offset uint16, want byte) {
	t.Helper()
	for _, level := range levels {
		mem := compileAndRun(t, p, level)
		if got := mem.LoadByte(0xc000 + offset); got != want {
			t.Errorf("%s: $%04X = %d, want %d", level, 0xc000+offset, got, want)
		}
	}
}

func TestComplexExpression(t *testing.T) {
	// output = (one()+one()) | ((one()<<2 - 1) ^ one())
	one := &prog.Function{
		Name:       "one",
		ReturnType: prog.ByteType,
		Body:       []prog.Statement{prog.ReturnStatement{Value: lit(1)}},
	}
	p := scenarioProgram([]prog.Statement{
		assign(idx("output", lit(0)),
			bin(prog.OpOr,
				bin(prog.OpAdd, call("one"), call("one")),
				bin(prog.OpXor,
					bin(prog.OpSub, bin(prog.OpShl, call("one"), lit(2)), lit(1)),
					call("one")))),
	}, one)
	checkOutput(t, p, 0, 2)
}

func TestSimpleAddition(t *testing.T) {
	p := scenarioProgram([]prog.Statement{
		assign(rd("a"), lit(1)),
		assign(idx("output", lit(0)), bin(prog.OpAdd, rd("a"), rd("a"))),
	})
	checkOutput(t, p, 0, 2)
}

func TestImmediateAddition(t *testing.T) {
	p := scenarioProgram([]prog.Statement{
		assign(rd("a"), lit(1)),
		assign(idx("output", lit(0)), bin(prog.OpAdd, rd("a"), lit(65))),
	})
	checkOutput(t, p, 0, 66)
}

func TestIndexedInPlaceAddition(t *testing.T) {
	// output[1] = 5; output[a] += 1; output[a] += 36 with a == 1
	p := scenarioProgram([]prog.Statement{
		assign(idx("output", lit(1)), lit(5)),
		assign(rd("a"), lit(1)),
		assign(idx("output", rd("a")), bin(prog.OpAdd, idx("output", rd("a")), lit(1))),
		assign(idx("output", rd("a")), bin(prog.OpAdd, idx("output", rd("a")), lit(36))),
	})
	checkOutput(t, p, 1, 42)
}

func TestByteMultiplication(t *testing.T) {
	p := scenarioProgram([]prog.Statement{
		assign(rd("a"), lit(7)),
		assign(idx("output", lit(0)), bin(prog.OpMul, rd("a"), lit(2))),
	})
	checkOutput(t, p, 0, 14)
}

func TestMultiplicationGrid(t *testing.T) {
	xs := []int64{0, 1, 2, 5, 7, 100}
	ys := []int64{0, 2, 4, 5, 54, 100}
	for _, x := range xs {
		for _, y := range ys {
			t.Run(fmt.Sprintf("%dx%d", x, y), func(t *testing.T) {
				p := scenarioProgram([]prog.Statement{
					assign(rd("a"), lit(x)),
					assign(idx("output", lit(0)), bin(prog.OpMul, rd("a"), lit(y))),
				})
				checkOutput(t, p, 0, byte(x*y))
			})
		}
	}
}

func TestInPlaceMultiplication(t *testing.T) {
	// output = 54; output *= 4
	p := scenarioProgram([]prog.Statement{
		assign(idx("output", lit(0)), lit(54)),
		assign(idx("output", lit(0)), bin(prog.OpMul, idx("output", lit(0)), lit(4))),
	})
	checkOutput(t, p, 0, 216)
}

func TestSizeMonotonicity(t *testing.T) {
	build := func() *prog.Program {
		one := &prog.Function{
			Name:       "one",
			ReturnType: prog.ByteType,
			Body:       []prog.Statement{prog.ReturnStatement{Value: lit(1)}},
		}
		return scenarioProgram([]prog.Statement{
			assign(rd("a"), lit(7)),
			assign(idx("output", lit(0)), bin(prog.OpMul, rd("a"), lit(2))),
			assign(idx("output", lit(1)),
				bin(prog.OpOr, bin(prog.OpAdd, call("one"), call("one")), rd("a"))),
		}, one)
	}

	prev := -1
	for _, level := range levels {
		s, err := options.Parse([]string{"-o", "out", level, "main.mfk"})
		if err != nil {
			t.Fatal(err)
		}
		plat, _ := platform.Builtin("sim")
		job := &Job{Program: build(), Platform: plat, Settings: s, Log: diag.New(io.Discard, diag.Error)}
		res, ok := job.Run()
		if !ok {
			t.Fatalf("compilation failed at %s", level)
		}
		if prev >= 0 && res.SizeAfter > prev {
			t.Errorf("%s grew the code: %d > %d", level, res.SizeAfter, prev)
		}
		prev = res.SizeAfter
	}
}
