// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the pseudo-assembly intermediate representation used by
// the code generator, the dataflow analyzer and the peephole optimizer: the
// opcode and addressing-mode enumerations, assembly lines, and the constant
// algebra used for operands.
package ir

// An AddrMode describes the shape of an instruction's operand.
type AddrMode byte

// All addressing modes of the 6502 family.
const (
	Implied       AddrMode = iota // no operand
	Immediate                     // #$12
	WordImmediate                 // #$1234 (65816)
	ZeroPage                      // $12
	ZeroPageX                     // $12,X
	ZeroPageY                     // $12,Y
	Absolute                      // $1234
	AbsoluteX                     // $1234,X
	AbsoluteY                     // $1234,Y
	Indirect                      // ($1234)
	IndexedX                      // ($12,X)
	IndexedY                      // ($12),Y
	IndexedZ                      // ($12) or ($12),Z on 65CE02
	IndexedSY                     // ($12,S),Y (65816)
	LongAbsolute                  // $123456 (65816)
	LongAbsoluteX                 // $123456,X (65816)
	LongIndexedY                  // [$12],Y (65816)
	LongIndexedZ                  // [$12] (65816)
	Stack                         // $12,S (65816)
	Relative                      // branch target
	DoesNotExist                  // pseudo-instructions
)

var modeName = []string{
	"Implied",
	"Immediate",
	"WordImmediate",
	"ZeroPage",
	"ZeroPageX",
	"ZeroPageY",
	"Absolute",
	"AbsoluteX",
	"AbsoluteY",
	"Indirect",
	"IndexedX",
	"IndexedY",
	"IndexedZ",
	"IndexedSY",
	"LongAbsolute",
	"LongAbsoluteX",
	"LongIndexedY",
	"LongIndexedZ",
	"Stack",
	"Relative",
	"DoesNotExist",
}

func (m AddrMode) String() string {
	return modeName[m]
}

// Format strings used when rendering an operand in an assembly listing.
var modeFormat = []string{
	"",         // Implied
	"#%s",      // Immediate
	"#%s",      // WordImmediate
	"%s",       // ZeroPage
	"%s,X",     // ZeroPageX
	"%s,Y",     // ZeroPageY
	"%s",       // Absolute
	"%s,X",     // AbsoluteX
	"%s,Y",     // AbsoluteY
	"(%s)",     // Indirect
	"(%s,X)",   // IndexedX
	"(%s),Y",   // IndexedY
	"(%s),Z",   // IndexedZ
	"(%s,S),Y", // IndexedSY
	"%s",       // LongAbsolute
	"%s,X",     // LongAbsoluteX
	"[%s],Y",   // LongIndexedY
	"[%s]",     // LongIndexedZ
	"%s,S",     // Stack
	"%s",       // Relative
	"%s",       // DoesNotExist
}

// OperandBytes returns the number of operand bytes the mode occupies in the
// instruction encoding.
func (m AddrMode) OperandBytes() int {
	switch m {
	case Implied, DoesNotExist:
		return 0
	case Immediate, ZeroPage, ZeroPageX, ZeroPageY, IndexedX, IndexedY,
		IndexedZ, IndexedSY, LongIndexedY, LongIndexedZ, Stack, Relative:
		return 1
	case WordImmediate, Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	case LongAbsolute, LongAbsoluteX:
		return 3
	default:
		return 0
	}
}

// ReadsX reports whether the mode consults the X register to form the
// effective address.
func (m AddrMode) ReadsX() bool {
	switch m {
	case ZeroPageX, AbsoluteX, IndexedX, LongAbsoluteX:
		return true
	}
	return false
}

// ReadsY reports whether the mode consults the Y register to form the
// effective address.
func (m AddrMode) ReadsY() bool {
	switch m {
	case ZeroPageY, AbsoluteY, IndexedY, IndexedSY, LongIndexedY:
		return true
	}
	return false
}

// AccessesMemory reports whether an instruction using the mode touches a
// memory operand.
func (m AddrMode) AccessesMemory() bool {
	switch m {
	case Implied, Immediate, WordImmediate, Relative, DoesNotExist:
		return false
	}
	return true
}
