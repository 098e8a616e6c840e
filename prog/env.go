// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prog models the contract the resolved front end delivers to the
// code generator: the type system, things in memory, the environment, the
// checked statement tree, and per-function compilation state.
package prog

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/mfc-lang/mfc/ir"
)

// A Type is a resolved value type. All types of the language are plain
// fixed-size integers or composites laid out by the front end.
type Type struct {
	Name   string
	Sz     int
	Signed bool
}

// Size returns the storage size of the type in bytes.
func (t Type) Size() int { return t.Sz }

// The built-in types.
var (
	ByteType    = Type{Name: "byte", Sz: 1}
	SByteType   = Type{Name: "sbyte", Sz: 1, Signed: true}
	WordType    = Type{Name: "word", Sz: 2}
	PointerType = Type{Name: "pointer", Sz: 2}
)

// Storage classifies where a variable lives.
type Storage byte

const (
	ZeroPageStorage Storage = iota // allocated in zero page
	AbsoluteStorage                // allocated in a regular RAM bank
	StackStorage                   // allocated in the software stack frame
)

// A Thing is anything with a name and a place in memory: variables, arrays,
// functions, constant aliases. The code generator treats things opaquely
// except for the name; addresses are assigned by the linker.
type Thing interface {
	ThingName() string
}

// A Variable is a scalar in memory.
type Variable struct {
	Name        string
	Type        Type
	Storage     Storage
	StackOffset int          // offset in the frame for StackStorage
	Fixed       *ir.Constant // fixed address, if declared with @
}

func (v *Variable) ThingName() string { return v.Name }

// ZeroPage reports whether the variable is zero-page allocated.
func (v *Variable) ZeroPage() bool { return v.Storage == ZeroPageStorage }

// Toa returns the variable's address constant.
func (v *Variable) Toa() ir.Constant {
	if v.Fixed != nil {
		return *v.Fixed
	}
	return ir.Addr(v.Name)
}

// An Array is a fixed-length byte array.
type Array struct {
	Name     string
	Length   int
	Fixed    *ir.Constant
	Contents []ir.Constant // initial contents; nil for uninitialized
}

func (a *Array) ThingName() string { return a.Name }

// Toa returns the array's base address constant.
func (a *Array) Toa() ir.Constant {
	if a.Fixed != nil {
		return *a.Fixed
	}
	return ir.Addr(a.Name)
}

// A ConstantThing is a named compile-time constant.
type ConstantThing struct {
	Name  string
	Value ir.Constant
}

func (c *ConstantThing) ThingName() string { return c.Name }

// ParamConvention describes how an asm function receives one parameter.
type ParamConvention byte

const (
	ByVariable ParamConvention = iota // through the parameter's memory slot
	ByRegisterA
	ByRegisterX
	ByRegisterY
	ByRegisterAX
	ByRegisterAY
	ByRegisterXA
	ByRegisterYA
	ByRegisterXY
	ByRegisterYX
	ByStack
	ByConstant
	ByReference
)

// A Param is one function parameter.
type Param struct {
	Name       string
	Type       Type
	Convention ParamConvention
}

// A Function is a compiled or external routine.
type Function struct {
	Name            string
	ReturnType      Type
	Params          []Param
	Body            []Statement
	Bank            string // platform bank; "" means the default bank
	Interrupt       bool
	KernalInterrupt bool
	Asm             bool // body is user-written inline assembly
	Inline          bool
	NoInline        bool
	Macro           bool
	Reentrant       bool
	StackVarsSize   int // bytes of stack-allocated locals
	Fixed           *ir.Constant
}

func (f *Function) ThingName() string { return f.Name }

// Toa returns the function's entry address constant.
func (f *Function) Toa() ir.Constant {
	if f.Fixed != nil {
		return *f.Fixed
	}
	return ir.Addr(f.Name)
}

// The Environment is the resolved symbol table delivered by the front end.
// It also owns the label generator shared by all compilation phases.
type Environment struct {
	things map[string]Thing
	labels *LabelGenerator

	// ZpRegisterSize is the width of the zero-page pseudoregister, in
	// bytes. Zero disables it.
	ZpRegisterSize int
}

// NewEnvironment returns an empty environment with a fresh label generator.
func NewEnvironment() *Environment {
	return &Environment{
		things: make(map[string]Thing),
		labels: NewLabelGenerator(),
	}
}

// Add registers a thing under its name. Redefinition is a front-end bug.
func (e *Environment) Add(t Thing) {
	name := t.ThingName()
	if _, dup := e.things[name]; dup {
		panic(fmt.Sprintf("duplicate definition of %s", name))
	}
	e.things[name] = t
}

// Lookup finds a thing by name.
func (e *Environment) Lookup(name string) (Thing, bool) {
	t, ok := e.things[name]
	return t, ok
}

// Variable finds a variable by name.
func (e *Environment) Variable(name string) (*Variable, bool) {
	v, ok := e.things[name].(*Variable)
	return v, ok
}

// ArrayThing finds an array by name.
func (e *Environment) ArrayThing(name string) (*Array, bool) {
	a, ok := e.things[name].(*Array)
	return a, ok
}

// FunctionThing finds a function by name.
func (e *Environment) FunctionThing(name string) (*Function, bool) {
	f, ok := e.things[name].(*Function)
	return f, ok
}

// Things returns all registered things sorted by name, for deterministic
// iteration during placement.
func (e *Environment) Things() []Thing {
	names := make([]string, 0, len(e.things))
	for n := range e.things {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Thing, 0, len(names))
	for _, n := range names {
		out = append(out, e.things[n])
	}
	return out
}

// Labels returns the environment's label generator.
func (e *Environment) Labels() *LabelGenerator { return e.labels }

// ZpRegister returns the address constant of byte i of the zero-page
// pseudoregister.
func (e *Environment) ZpRegister(i int) ir.Constant {
	if i >= e.ZpRegisterSize {
		panic("zero-page pseudoregister too small")
	}
	if i == 0 {
		return ir.Addr("__reg")
	}
	return ir.AddC(ir.Addr("__reg"), ir.Num(int64(i)))
}

// A LabelGenerator hands out process-unique local label names. The counter
// is atomic so parallel phases may share one generator, but label numbers
// are consumed only during the single-threaded front-end passes, keeping
// output deterministic.
type LabelGenerator struct {
	counter atomic.Uint64
}

// NewLabelGenerator returns a generator starting at label 1.
func NewLabelGenerator() *LabelGenerator {
	return &LabelGenerator{}
}

// Next returns a fresh local label with the given prefix, in the form
// ".xc_0001". Labels beginning with a dot are function-local and eligible
// for dead-label removal.
func (g *LabelGenerator) Next(prefix string) string {
	n := g.counter.Add(1)
	return fmt.Sprintf(".%s_%04d", prefix, n)
}

// Reset rewinds the counter. Tests use it to get stable label names.
func (g *LabelGenerator) Reset() {
	g.counter.Store(0)
}
