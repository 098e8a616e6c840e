// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func testConfig() Config {
	return Config{
		Arch:         ir.NMOS,
		Banks:        []Bank{{Name: "default", Start: 0x0800, End: 0xbfff}},
		ZeroPageBase: 0x02,
		DataBase:     0xc100,
		Log:          diag.New(io.Discard, diag.Fatal),
	}
}

func TestAssembleSimple(t *testing.T) {
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Insn(ir.STA, ir.Absolute, ir.NumSized(0xc000, 2)),
		ir.ImpliedInsn(ir.RTS),
	}}}
	out, ok := Assemble(funcs, testConfig())
	if !ok {
		t.Fatal("assembly failed")
	}
	want := []byte{0xa9, 0x01, 0x8d, 0x00, 0xc0, 0x60}
	if !bytes.Equal(out.Code["default"], want) {
		t.Fatalf("code = % X, want % X", out.Code["default"], want)
	}
	if out.Symbols["main"] != 0x0800 {
		t.Errorf("main placed at $%04X, want $0800", out.Symbols["main"])
	}
	if out.Origin["default"] != 0x0800 {
		t.Errorf("origin = $%04X", out.Origin["default"])
	}
}

func TestCallResolvesForwardSymbol(t *testing.T) {
	funcs := []Function{
		{Name: "main", Lines: []ir.AssemblyLine{
			ir.LabelLine("main").Pinned(),
			ir.Insn(ir.JSR, ir.Absolute, ir.Addr("helper")),
			ir.ImpliedInsn(ir.RTS),
		}},
		{Name: "helper", Lines: []ir.AssemblyLine{
			ir.LabelLine("helper").Pinned(),
			ir.ImpliedInsn(ir.RTS),
		}},
	}
	out, ok := Assemble(funcs, testConfig())
	if !ok {
		t.Fatal("assembly failed")
	}
	// main is 4 bytes, so helper lands at $0804.
	want := []byte{0x20, 0x04, 0x08, 0x60, 0x60}
	if !bytes.Equal(out.Code["default"], want) {
		t.Fatalf("code = % X, want % X", out.Code["default"], want)
	}
}

func branchOverFiller(fillerBytes int) []ir.AssemblyLine {
	lines := []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Rel(ir.BNE, ".far"),
	}
	for i := 0; i < fillerBytes; i++ {
		lines = append(lines, ir.ImpliedInsn(ir.NOP))
	}
	return append(lines, ir.LabelLine(".far"), ir.ImpliedInsn(ir.RTS))
}

func TestBranchAtRangeLimitStaysShort(t *testing.T) {
	// The displacement equals the filler size, so 127 NOPs sit exactly at
	// the limit of the signed offset byte.
	out, ok := Assemble([]Function{{Name: "main", Lines: branchOverFiller(127)}}, testConfig())
	if !ok {
		t.Fatal("assembly failed")
	}
	code := out.Code["default"]
	if code[0] != 0xd0 || code[1] != 127 {
		t.Fatalf("branch not short: % X", code[:2])
	}
}

func TestBranchRelaxation(t *testing.T) {
	out, ok := Assemble([]Function{{Name: "main", Lines: branchOverFiller(128)}}, testConfig())
	if !ok {
		t.Fatal("assembly failed")
	}
	code := out.Code["default"]
	// BNE .far becomes BEQ over a JMP.
	if code[0] != 0xf0 || code[1] != 3 || code[2] != 0x4c {
		t.Fatalf("branch not relaxed: % X", code[:3])
	}
	// The JMP lands on .far: 5 rewrite bytes plus 128 of filler.
	farAddr := 0x0800 + 5 + 128
	if got := int(code[3]) | int(code[4])<<8; got != farAddr {
		t.Errorf("JMP target $%04X, want $%04X", got, farAddr)
	}
}

func TestUnreachableFunctionEmitsNoBytes(t *testing.T) {
	funcs := []Function{
		{Name: "main", Lines: []ir.AssemblyLine{
			ir.LabelLine("main").Pinned(),
			ir.ImpliedInsn(ir.RTS),
		}},
		{Name: "dead", Lines: []ir.AssemblyLine{
			ir.LabelLine("dead").Pinned(),
			ir.ImpliedInsn(ir.RTS),
		}},
	}
	cfg := testConfig()
	cfg.Reachable = map[string]bool{"main": true}
	out, ok := Assemble(funcs, cfg)
	if !ok {
		t.Fatal("assembly failed")
	}
	if len(out.Code["default"]) != 1 {
		t.Errorf("dead function produced bytes: % X", out.Code["default"])
	}
	if _, defined := out.Symbols["dead"]; defined {
		t.Errorf("dead function was placed")
	}
}

func TestBankOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.Banks = []Bank{{Name: "tiny", Start: 0x0800, End: 0x0802}}
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Imm(ir.LDA, ir.Num(1)),
		ir.Insn(ir.STA, ir.Absolute, ir.NumSized(0xc000, 2)),
		ir.ImpliedInsn(ir.RTS),
	}}}
	if _, ok := Assemble(funcs, cfg); ok {
		t.Fatal("expected a bank overflow error")
	}
}

func TestDataAllocation(t *testing.T) {
	env := prog.NewEnvironment()
	env.ZpRegisterSize = 2
	env.Add(&prog.Variable{Name: "a", Type: prog.ByteType, Storage: prog.ZeroPageStorage})
	env.Add(&prog.Variable{Name: "b", Type: prog.ByteType, Storage: prog.AbsoluteStorage})

	cfg := testConfig()
	cfg.Env = env
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Zp(ir.LDA, ir.Addr("a")),
		ir.Insn(ir.STA, ir.Absolute, ir.Addr("b")),
		ir.ImpliedInsn(ir.RTS),
	}}}
	out, ok := Assemble(funcs, cfg)
	if !ok {
		t.Fatal("assembly failed")
	}
	// __reg claims the first two zero-page bytes.
	if out.Symbols["__reg"] != 0x02 || out.Symbols["a"] != 0x04 {
		t.Errorf("zero-page allocation: __reg=$%02X a=$%02X",
			out.Symbols["__reg"], out.Symbols["a"])
	}
	if out.Symbols["b"] != 0xc100 {
		t.Errorf("data allocation: b=$%04X", out.Symbols["b"])
	}
	want := []byte{0xa5, 0x04, 0x8d, 0x00, 0xc1, 0x60}
	if !bytes.Equal(out.Code["default"], want) {
		t.Fatalf("code = % X, want % X", out.Code["default"], want)
	}
}

func TestInitializedArrayReference(t *testing.T) {
	env := prog.NewEnvironment()
	env.Add(&prog.Array{
		Name:     "table",
		Length:   3,
		Contents: []ir.Constant{ir.Num(1), ir.Num(2), ir.Num(3)},
	})

	cfg := testConfig()
	cfg.Env = env
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Imm(ir.LDX, ir.Num(0)),
		ir.Insn(ir.LDA, ir.AbsoluteX, ir.Addr("table")),
		ir.Insn(ir.STA, ir.Absolute, ir.NumSized(0xc000, 2)),
		ir.ImpliedInsn(ir.RTS),
	}}}
	out, ok := Assemble(funcs, cfg)
	if !ok {
		t.Fatal("assembly failed")
	}
	// main is 9 bytes, so the array contents land right after it.
	if out.Symbols["table"] != 0x0809 {
		t.Errorf("table placed at $%04X, want $0809", out.Symbols["table"])
	}
	want := []byte{
		0xa2, 0x00, 0xbd, 0x09, 0x08, 0x8d, 0x00, 0xc0, 0x60,
		0x01, 0x02, 0x03,
	}
	if !bytes.Equal(out.Code["default"], want) {
		t.Fatalf("code = % X, want % X", out.Code["default"], want)
	}
}

func TestUndefinedSymbol(t *testing.T) {
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Insn(ir.JSR, ir.Absolute, ir.Addr("nowhere")),
		ir.ImpliedInsn(ir.RTS),
	}}}
	if _, ok := Assemble(funcs, testConfig()); ok {
		t.Fatal("expected an undefined symbol error")
	}
}

func TestIllegalsGateEncoding(t *testing.T) {
	funcs := []Function{{Name: "main", Lines: []ir.AssemblyLine{
		ir.LabelLine("main").Pinned(),
		ir.Insn(ir.LAX, ir.Absolute, ir.NumSized(0xc000, 2)),
		ir.ImpliedInsn(ir.RTS),
	}}}

	if _, ok := Assemble(funcs, testConfig()); ok {
		t.Fatal("undocumented opcode assembled without -fillegals")
	}

	cfg := testConfig()
	cfg.Illegals = true
	out, ok := Assemble(funcs, cfg)
	if !ok {
		t.Fatal("assembly failed with -fillegals")
	}
	if out.Code["default"][0] != 0xaf {
		t.Errorf("LAX abs encoded as $%02X", out.Code["default"][0])
	}
}

func TestLabelListingOrder(t *testing.T) {
	labels := BuildLabels(map[string]int{
		".loop": 0x0800,
		"main":  0x0800,
		"b":     0x0900,
	})
	want := []Symbol{
		{Name: "main", Address: 0x0800},
		{Name: ".loop", Address: 0x0800},
		{Name: "b", Address: 0x0900},
	}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v", labels)
	}
}

func TestLabelFileRoundTrip(t *testing.T) {
	labels := []Symbol{
		{Name: "main", Address: 0x0800},
		{Name: "_wh_0001", Address: 0x0803},
		{Name: "output", Address: 0xc000},
	}
	var buf bytes.Buffer
	if err := WriteLabels(&buf, labels); err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseLabels(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(parsed, labels) {
		t.Fatalf("round trip changed the pairs:\n%v\n%v", parsed, labels)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName(".wh_0001"); got != "_wh_0001" {
		t.Errorf("NormalizeName = %q", got)
	}
	if got := NormalizeName("tbl$hi"); got != "tbl_hi" {
		t.Errorf("NormalizeName = %q", got)
	}
}
