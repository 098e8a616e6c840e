// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm turns optimized pseudo-assembly into placed byte images.
// It runs three passes: sizing (with branch relaxation), first-fit
// placement of reachable functions into platform banks, and emission of
// the bank images, an assembly listing, and a label file.
package asm

import (
	"fmt"
	"sort"

	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// A Bank is one contiguous target address region.
type Bank struct {
	Name  string
	Start int
	End   int // inclusive
}

// A Function is one compiled function ready for placement.
type Function struct {
	Name  string
	Bank  string // "" selects the default (first) bank
	Lines []ir.AssemblyLine
}

// Config carries everything the assembler needs beyond the functions
// themselves.
type Config struct {
	Arch     ir.Arch
	Illegals bool
	Banks    []Bank

	// Data allocation regions for things without fixed addresses.
	ZeroPageBase int
	DataBase     int

	Env       *prog.Environment
	Reachable map[string]bool // nil means everything is reachable
	Log       *diag.Logger
}

// A Symbol is one entry of the label listing.
type Symbol struct {
	Name    string
	Address int
}

// Output is the assembler's finished product.
type Output struct {
	Code    map[string][]byte // bank name -> placed bytes
	Origin  map[string]int    // bank name -> load address
	Asm     []string
	Labels  []Symbol
	Symbols map[string]int // every resolved name, locals included
}

// Assemble runs all three passes.
func Assemble(funcs []Function, cfg Config) (*Output, bool) {
	a := &assembler{
		cfg:     cfg,
		symbols: map[string]int{},
		out: &Output{
			Code:    map[string][]byte{},
			Origin:  map[string]int{},
			Symbols: map[string]int{},
		},
	}
	if len(cfg.Banks) == 0 {
		a.errorf("no banks declared by the platform")
		return nil, false
	}
	a.allocateData()

	placed := a.place(funcs)
	arrays := a.placeInitializedArrays()
	if a.failed {
		return nil, false
	}
	for _, p := range placed {
		a.emit(p)
	}
	a.emitInitializedArrays(arrays)
	if a.failed {
		return nil, false
	}

	a.out.Symbols = a.symbols
	a.out.Labels = BuildLabels(a.symbols)
	return a.out, true
}

type placedFunction struct {
	fn    Function
	bank  *Bank
	addr  int
	lines []ir.AssemblyLine // after branch relaxation
	size  int
}

type assembler struct {
	cfg     Config
	symbols map[string]int
	out     *Output
	cursors map[string]int
	failed  bool
	detour  int // counter for relaxation labels
}

func (a *assembler) errorf(format string, args ...any) {
	a.failed = true
	if a.cfg.Log != nil {
		a.cfg.Log.Errorf(nil, format, args...)
	}
}

func (a *assembler) bankFor(name string) *Bank {
	if name == "" {
		return &a.cfg.Banks[0]
	}
	for i := range a.cfg.Banks {
		if a.cfg.Banks[i].Name == name {
			return &a.cfg.Banks[i]
		}
	}
	return nil
}

// allocateData assigns addresses to every variable and array that has no
// fixed address: the pseudoregister first, then zero-page variables, then
// everything else in the data region.
func (a *assembler) allocateData() {
	if a.cfg.Env == nil {
		return
	}
	zp := a.cfg.ZeroPageBase
	data := a.cfg.DataBase

	if n := a.cfg.Env.ZpRegisterSize; n > 0 {
		a.symbols["__reg"] = zp
		zp += n
	}
	for _, t := range a.cfg.Env.Things() {
		switch t := t.(type) {
		case *prog.Variable:
			if t.Fixed != nil || t.Storage == prog.StackStorage {
				continue
			}
			if t.Storage == prog.ZeroPageStorage {
				if zp+t.Type.Size() > 0x100 {
					a.errorf("zero page exhausted allocating %s", t.Name)
					continue
				}
				a.symbols[t.Name] = zp
				zp += t.Type.Size()
			} else {
				a.symbols[t.Name] = data
				data += t.Type.Size()
			}
		case *prog.Array:
			if t.Fixed != nil || t.Contents != nil {
				continue
			}
			a.symbols[t.Name] = data
			data += t.Length
		}
	}
}

// place sizes each reachable function and assigns it a bank slot first-fit
// in declaration order.
func (a *assembler) place(funcs []Function) []placedFunction {
	a.cursors = map[string]int{}
	for _, b := range a.cfg.Banks {
		a.cursors[b.Name] = b.Start
		a.out.Origin[b.Name] = b.Start
	}

	var placed []placedFunction
	for _, fn := range funcs {
		if a.cfg.Reachable != nil && !a.cfg.Reachable[fn.Name] {
			continue
		}
		bank := a.bankFor(fn.Bank)
		if bank == nil {
			a.errorf("%s declares unknown bank %q", fn.Name, fn.Bank)
			continue
		}
		lines := a.relax(fn.Lines)
		size := linesSize(lines)
		addr := a.cursors[bank.Name]
		if addr+size-1 > bank.End {
			a.errorf("bank %s overflows placing %s (%d bytes at $%04X, bank ends at $%04X)",
				bank.Name, fn.Name, size, addr, bank.End)
			continue
		}
		a.cursors[bank.Name] = addr + size
		a.defineLabels(lines, addr)
		placed = append(placed, placedFunction{fn, bank, addr, lines, size})
	}
	return placed
}

func linesSize(lines []ir.AssemblyLine) int {
	n := 0
	for _, l := range lines {
		n += l.SizeInBytes()
	}
	return n
}

// defineLabels records the address of every label the function defines.
func (a *assembler) defineLabels(lines []ir.AssemblyLine, base int) {
	off := 0
	for _, l := range lines {
		if l.Op == ir.LABEL {
			name := l.LabelName()
			if _, dup := a.symbols[name]; dup && name[0] != '.' {
				a.errorf("duplicate symbol %s", name)
			}
			a.symbols[name] = base + off
		}
		off += l.SizeInBytes()
	}
}

// emit encodes one placed function into its bank image and appends the
// listing lines.
func (a *assembler) emit(p placedFunction) {
	resolve := func(name string) (int64, bool) {
		v, ok := a.symbols[name]
		return int64(v), ok
	}

	a.out.Asm = append(a.out.Asm, fmt.Sprintf("; %s ($%04X, %d bytes, bank %s)",
		p.fn.Name, p.addr, p.size, p.bank.Name))

	addr := p.addr
	var code []byte
	for _, l := range p.lines {
		a.out.Asm = append(a.out.Asm, l.String())
		switch l.Op {
		case ir.LABEL:
			continue
		case ir.BYTE:
			v, ok := l.Operand.Eval(resolve)
			if !ok {
				a.errorf("undefined symbol in data: %s", l.Operand)
				continue
			}
			code = append(code, byte(v))
			addr++
			continue
		}

		enc, _, ok := ir.Encoding(l.Op, l.Mode, a.cfg.Arch, a.cfg.Illegals)
		if !ok {
			// The compiler and every optimization rule must respect the
			// target's matrix; reaching here is an internal bug.
			a.errorf("internal: %s %s has no encoding on %s (illegals=%v)",
				l.Op, l.Mode, a.cfg.Arch, a.cfg.Illegals)
			continue
		}
		code = append(code, enc)

		n := l.Mode.OperandBytes()
		if n == 0 {
			addr++
			continue
		}
		v, ok := l.Operand.Eval(resolve)
		if !ok {
			a.errorf("undefined symbol: %s", l.Operand)
			continue
		}
		if l.Mode == ir.Relative {
			disp := int(v) - (addr + 2)
			if disp < -128 || disp > 127 {
				a.errorf("internal: branch to %s out of range after relaxation", l.Operand)
				continue
			}
			code = append(code, byte(disp))
		} else {
			for i := 0; i < n; i++ {
				code = append(code, byte(v>>(8*uint(i))))
			}
		}
		addr += 1 + n
	}
	a.appendToBank(p.bank, p.addr, code)
}

type placedArray struct {
	arr  *prog.Array
	bank *Bank
	addr int
}

// placeInitializedArrays assigns addresses to arrays carrying initial
// contents, after the code in the default bank. Function operands resolve
// against these symbols, so addresses must be final before emission starts.
func (a *assembler) placeInitializedArrays() []placedArray {
	if a.cfg.Env == nil {
		return nil
	}
	bank := &a.cfg.Banks[0]
	var placed []placedArray
	for _, t := range a.cfg.Env.Things() {
		arr, ok := t.(*prog.Array)
		if !ok || arr.Contents == nil || arr.Fixed != nil {
			continue
		}
		addr := a.cursors[bank.Name]
		if addr+arr.Length-1 > bank.End {
			a.errorf("bank %s overflows placing array %s", bank.Name, arr.Name)
			continue
		}
		a.symbols[arr.Name] = addr
		a.cursors[bank.Name] = addr + arr.Length
		placed = append(placed, placedArray{arr, bank, addr})
	}
	return placed
}

// emitInitializedArrays encodes the contents of the placed arrays.
func (a *assembler) emitInitializedArrays(placed []placedArray) {
	resolve := func(name string) (int64, bool) {
		v, ok := a.symbols[name]
		return int64(v), ok
	}
	for _, p := range placed {
		arr := p.arr
		code := make([]byte, 0, arr.Length)
		for _, c := range arr.Contents {
			v, ok := c.Eval(resolve)
			if !ok {
				a.errorf("undefined symbol in array %s: %s", arr.Name, c)
				v = 0
			}
			code = append(code, byte(v))
		}
		for len(code) < arr.Length {
			code = append(code, 0)
		}
		a.out.Asm = append(a.out.Asm, fmt.Sprintf("; array %s ($%04X, %d bytes)",
			arr.Name, p.addr, arr.Length))
		a.appendToBank(p.bank, p.addr, code)
	}
}

func (a *assembler) appendToBank(bank *Bank, addr int, code []byte) {
	img := a.out.Code[bank.Name]
	offset := addr - bank.Start
	for len(img) < offset {
		img = append(img, 0)
	}
	img = append(img[:offset], code...)
	a.out.Code[bank.Name] = img
}

// BuildLabels produces the label listing: sorted by address, global
// symbols before locals on ties, names normalized for strict assemblers.
func BuildLabels(symbols map[string]int) []Symbol {
	out := make([]Symbol, 0, len(symbols))
	for name, addr := range symbols {
		out = append(out, Symbol{Name: name, Address: addr})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Address != out[j].Address {
			return out[i].Address < out[j].Address
		}
		li, lj := isLocal(out[i].Name), isLocal(out[j].Name)
		if li != lj {
			return !li
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func isLocal(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
