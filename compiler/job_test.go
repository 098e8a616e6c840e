// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfc-lang/mfc/asm"
	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/options"
	"github.com/mfc-lang/mfc/platform"
	"github.com/mfc-lang/mfc/prog"
)

// testProgram builds a = 1; output[0] = a + a; with output fixed at $c000.
func testProgram() *prog.Program {
	env := prog.NewEnvironment()
	env.Add(&prog.Variable{Name: "a", Type: prog.ByteType, Storage: prog.ZeroPageStorage})
	out := ir.Constant(ir.NumSized(0xc000, 2))
	env.Add(&prog.Array{Name: "output", Length: 16, Fixed: &out})
	env.Add(&prog.Function{
		Name: "main",
		Body: []prog.Statement{
			prog.Assignment{
				Target: prog.VariableExpression{Name: "a"},
				Value:  prog.LiteralExpression{Value: 1, Size: 1},
			},
			prog.Assignment{
				Target: prog.IndexedExpression{Name: "output", Index: prog.LiteralExpression{Value: 0, Size: 1}},
				Value: prog.BinaryExpression{
					Op: prog.OpAdd,
					L:  prog.VariableExpression{Name: "a"},
					R:  prog.VariableExpression{Name: "a"},
				},
			},
		},
	})
	env.Add(&prog.Function{Name: "unused", Body: []prog.Statement{}})
	return &prog.Program{Env: env, EntryPoints: []string{"main"}}
}

func testJob(t *testing.T, args ...string) *Job {
	t.Helper()
	s, err := options.Parse(append([]string{"-o", "out", "main.mfk"}, args...))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := platform.Builtin("sim")
	return &Job{
		Program:  testProgram(),
		Platform: p,
		Settings: s,
		Log:      diag.New(io.Discard, diag.Error),
	}
}

func TestJobProducesImage(t *testing.T) {
	res, ok := testJob(t).Run()
	if !ok {
		t.Fatal("job failed")
	}
	code := res.Output.Code["default"]
	if len(code) == 0 {
		t.Fatal("no code emitted")
	}
	if res.Output.Symbols["main"] != 0x0800 {
		t.Errorf("main at $%04X", res.Output.Symbols["main"])
	}
	if _, placed := res.Output.Symbols["unused"]; placed {
		t.Error("unreachable function was placed")
	}
}

func TestOptimizationShrinksOrHolds(t *testing.T) {
	res, ok := testJob(t, "-O2").Run()
	if !ok {
		t.Fatal("job failed")
	}
	if res.SizeAfter > res.SizeBefore {
		t.Errorf("optimization grew the code: %d -> %d", res.SizeBefore, res.SizeAfter)
	}
}

func TestParallelMatchesSingleThreaded(t *testing.T) {
	single, ok := testJob(t, "-O2", "--single-threaded").Run()
	if !ok {
		t.Fatal("single-threaded job failed")
	}
	parallel, ok := testJob(t, "-O2").Run()
	if !ok {
		t.Fatal("parallel job failed")
	}
	if !bytes.Equal(single.Output.Code["default"], parallel.Output.Code["default"]) {
		t.Error("worker count changed the output image")
	}
}

func TestBoundsHandlerLinked(t *testing.T) {
	res, ok := testJob(t, "-fbounds-checking").Run()
	if !ok {
		t.Fatal("job failed")
	}
	if _, defined := res.Output.Symbols["__bounds_fail"]; !defined {
		t.Error("bounds-check trap not linked")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "game")
	s, err := options.Parse([]string{"-o", stem, "-s", "-g", "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := platform.Builtin("sim")
	job := &Job{Program: testProgram(), Platform: p, Settings: s, Log: diag.New(io.Discard, diag.Error)}
	res, ok := job.Run()
	if !ok {
		t.Fatal("job failed")
	}
	if err := WriteFiles(res, s, p); err != nil {
		t.Fatal(err)
	}

	image, err := os.ReadFile(stem + ".bin")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(image, res.Output.Code["default"]) {
		t.Error("image file does not match the assembled bank")
	}

	listing, err := os.ReadFile(stem + ".asm")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(listing), "main") {
		t.Error("listing does not mention main")
	}

	lbl, err := os.Open(stem + ".lbl")
	if err != nil {
		t.Fatal(err)
	}
	defer lbl.Close()
	parsed, err := asm.ParseLabels(lbl)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sym := range parsed {
		if sym.Name == "main" && sym.Address == 0x0800 {
			found = true
		}
	}
	if !found {
		t.Error("label file is missing main")
	}
}

func TestInfSidecar(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "game")
	s, err := options.Parse([]string{"-o", stem, "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := platform.Builtin("bbcmicro")
	job := &Job{Program: testProgram(), Platform: p, Settings: s, Log: diag.New(io.Discard, diag.Error)}
	res, ok := job.Run()
	if !ok {
		t.Fatal("job failed")
	}
	if err := WriteFiles(res, s, p); err != nil {
		t.Fatal(err)
	}
	inf, err := os.ReadFile(stem + ".inf")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(inf); got != "$.GAME FF0E00 FF0E00\n" {
		t.Errorf("sidecar = %q", got)
	}
}
