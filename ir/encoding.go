// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Arch selects the target CPU of the 6502 family.
type Arch byte

const (
	NMOS    Arch = iota // NMOS 6502
	CMOS                // WDC/Rockwell 65C02
	CE02                // CSG 65CE02
	HuC6280             // Hudson Soft HuC6280
	W65816              // WDC 65816, emulation mode
)

var archName = []string{"6502", "65c02", "65ce02", "huc6280", "65816"}

func (a Arch) String() string {
	return archName[a]
}

// HasCmosOps reports whether the architecture includes the 65C02 extensions.
func (a Arch) HasCmosOps() bool {
	return a == CMOS || a == CE02 || a == HuC6280 || a == W65816
}

// Encoding data for one legal (opcode, mode) pair.
type encodingData struct {
	op      Opcode
	mode    AddrMode
	enc     byte // encoding byte
	cycles  byte // base cycle count
	arch    Arch // minimum architecture
	illegal bool // undocumented NMOS opcode
}

// All legal (opcode, mode) pairs. The NMOS portion mirrors the official
// instruction matrix; the undocumented rows cover only the opcodes the
// compiler emits or the optimizer introduces.
var encodings = []encodingData{
	{LDA, Immediate, 0xa9, 2, NMOS, false},
	{LDA, ZeroPage, 0xa5, 3, NMOS, false},
	{LDA, ZeroPageX, 0xb5, 4, NMOS, false},
	{LDA, Absolute, 0xad, 4, NMOS, false},
	{LDA, AbsoluteX, 0xbd, 4, NMOS, false},
	{LDA, AbsoluteY, 0xb9, 4, NMOS, false},
	{LDA, IndexedX, 0xa1, 6, NMOS, false},
	{LDA, IndexedY, 0xb1, 5, NMOS, false},
	{LDA, IndexedZ, 0xb2, 5, CMOS, false},

	{LDX, Immediate, 0xa2, 2, NMOS, false},
	{LDX, ZeroPage, 0xa6, 3, NMOS, false},
	{LDX, ZeroPageY, 0xb6, 4, NMOS, false},
	{LDX, Absolute, 0xae, 4, NMOS, false},
	{LDX, AbsoluteY, 0xbe, 4, NMOS, false},

	{LDY, Immediate, 0xa0, 2, NMOS, false},
	{LDY, ZeroPage, 0xa4, 3, NMOS, false},
	{LDY, ZeroPageX, 0xb4, 4, NMOS, false},
	{LDY, Absolute, 0xac, 4, NMOS, false},
	{LDY, AbsoluteX, 0xbc, 4, NMOS, false},

	{STA, ZeroPage, 0x85, 3, NMOS, false},
	{STA, ZeroPageX, 0x95, 4, NMOS, false},
	{STA, Absolute, 0x8d, 4, NMOS, false},
	{STA, AbsoluteX, 0x9d, 5, NMOS, false},
	{STA, AbsoluteY, 0x99, 5, NMOS, false},
	{STA, IndexedX, 0x81, 6, NMOS, false},
	{STA, IndexedY, 0x91, 6, NMOS, false},
	{STA, IndexedZ, 0x92, 5, CMOS, false},

	{STX, ZeroPage, 0x86, 3, NMOS, false},
	{STX, ZeroPageY, 0x96, 4, NMOS, false},
	{STX, Absolute, 0x8e, 4, NMOS, false},

	{STY, ZeroPage, 0x84, 3, NMOS, false},
	{STY, ZeroPageX, 0x94, 4, NMOS, false},
	{STY, Absolute, 0x8c, 4, NMOS, false},

	{STZ, ZeroPage, 0x64, 3, CMOS, false},
	{STZ, ZeroPageX, 0x74, 4, CMOS, false},
	{STZ, Absolute, 0x9c, 4, CMOS, false},
	{STZ, AbsoluteX, 0x9e, 5, CMOS, false},

	{ADC, Immediate, 0x69, 2, NMOS, false},
	{ADC, ZeroPage, 0x65, 3, NMOS, false},
	{ADC, ZeroPageX, 0x75, 4, NMOS, false},
	{ADC, Absolute, 0x6d, 4, NMOS, false},
	{ADC, AbsoluteX, 0x7d, 4, NMOS, false},
	{ADC, AbsoluteY, 0x79, 4, NMOS, false},
	{ADC, IndexedX, 0x61, 6, NMOS, false},
	{ADC, IndexedY, 0x71, 5, NMOS, false},
	{ADC, IndexedZ, 0x72, 5, CMOS, false},

	{SBC, Immediate, 0xe9, 2, NMOS, false},
	{SBC, ZeroPage, 0xe5, 3, NMOS, false},
	{SBC, ZeroPageX, 0xf5, 4, NMOS, false},
	{SBC, Absolute, 0xed, 4, NMOS, false},
	{SBC, AbsoluteX, 0xfd, 4, NMOS, false},
	{SBC, AbsoluteY, 0xf9, 4, NMOS, false},
	{SBC, IndexedX, 0xe1, 6, NMOS, false},
	{SBC, IndexedY, 0xf1, 5, NMOS, false},
	{SBC, IndexedZ, 0xf2, 5, CMOS, false},

	{CMP, Immediate, 0xc9, 2, NMOS, false},
	{CMP, ZeroPage, 0xc5, 3, NMOS, false},
	{CMP, ZeroPageX, 0xd5, 4, NMOS, false},
	{CMP, Absolute, 0xcd, 4, NMOS, false},
	{CMP, AbsoluteX, 0xdd, 4, NMOS, false},
	{CMP, AbsoluteY, 0xd9, 4, NMOS, false},
	{CMP, IndexedX, 0xc1, 6, NMOS, false},
	{CMP, IndexedY, 0xd1, 5, NMOS, false},
	{CMP, IndexedZ, 0xd2, 5, CMOS, false},

	{CPX, Immediate, 0xe0, 2, NMOS, false},
	{CPX, ZeroPage, 0xe4, 3, NMOS, false},
	{CPX, Absolute, 0xec, 4, NMOS, false},

	{CPY, Immediate, 0xc0, 2, NMOS, false},
	{CPY, ZeroPage, 0xc4, 3, NMOS, false},
	{CPY, Absolute, 0xcc, 4, NMOS, false},

	{BIT, Immediate, 0x89, 2, CMOS, false},
	{BIT, ZeroPage, 0x24, 3, NMOS, false},
	{BIT, ZeroPageX, 0x34, 4, CMOS, false},
	{BIT, Absolute, 0x2c, 4, NMOS, false},
	{BIT, AbsoluteX, 0x3c, 4, CMOS, false},

	{AND, Immediate, 0x29, 2, NMOS, false},
	{AND, ZeroPage, 0x25, 3, NMOS, false},
	{AND, ZeroPageX, 0x35, 4, NMOS, false},
	{AND, Absolute, 0x2d, 4, NMOS, false},
	{AND, AbsoluteX, 0x3d, 4, NMOS, false},
	{AND, AbsoluteY, 0x39, 4, NMOS, false},
	{AND, IndexedX, 0x21, 6, NMOS, false},
	{AND, IndexedY, 0x31, 5, NMOS, false},
	{AND, IndexedZ, 0x32, 5, CMOS, false},

	{ORA, Immediate, 0x09, 2, NMOS, false},
	{ORA, ZeroPage, 0x05, 3, NMOS, false},
	{ORA, ZeroPageX, 0x15, 4, NMOS, false},
	{ORA, Absolute, 0x0d, 4, NMOS, false},
	{ORA, AbsoluteX, 0x1d, 4, NMOS, false},
	{ORA, AbsoluteY, 0x19, 4, NMOS, false},
	{ORA, IndexedX, 0x01, 6, NMOS, false},
	{ORA, IndexedY, 0x11, 5, NMOS, false},
	{ORA, IndexedZ, 0x12, 5, CMOS, false},

	{EOR, Immediate, 0x49, 2, NMOS, false},
	{EOR, ZeroPage, 0x45, 3, NMOS, false},
	{EOR, ZeroPageX, 0x55, 4, NMOS, false},
	{EOR, Absolute, 0x4d, 4, NMOS, false},
	{EOR, AbsoluteX, 0x5d, 4, NMOS, false},
	{EOR, AbsoluteY, 0x59, 4, NMOS, false},
	{EOR, IndexedX, 0x41, 6, NMOS, false},
	{EOR, IndexedY, 0x51, 5, NMOS, false},
	{EOR, IndexedZ, 0x52, 5, CMOS, false},

	{INC, ZeroPage, 0xe6, 5, NMOS, false},
	{INC, ZeroPageX, 0xf6, 6, NMOS, false},
	{INC, Absolute, 0xee, 6, NMOS, false},
	{INC, AbsoluteX, 0xfe, 7, NMOS, false},
	{INC, Implied, 0x1a, 2, CMOS, false},

	{DEC, ZeroPage, 0xc6, 5, NMOS, false},
	{DEC, ZeroPageX, 0xd6, 6, NMOS, false},
	{DEC, Absolute, 0xce, 6, NMOS, false},
	{DEC, AbsoluteX, 0xde, 7, NMOS, false},
	{DEC, Implied, 0x3a, 2, CMOS, false},

	{INX, Implied, 0xe8, 2, NMOS, false},
	{INY, Implied, 0xc8, 2, NMOS, false},
	{DEX, Implied, 0xca, 2, NMOS, false},
	{DEY, Implied, 0x88, 2, NMOS, false},

	{CLC, Implied, 0x18, 2, NMOS, false},
	{SEC, Implied, 0x38, 2, NMOS, false},
	{CLI, Implied, 0x58, 2, NMOS, false},
	{SEI, Implied, 0x78, 2, NMOS, false},
	{CLD, Implied, 0xd8, 2, NMOS, false},
	{SED, Implied, 0xf8, 2, NMOS, false},
	{CLV, Implied, 0xb8, 2, NMOS, false},

	{BCC, Relative, 0x90, 2, NMOS, false},
	{BCS, Relative, 0xb0, 2, NMOS, false},
	{BEQ, Relative, 0xf0, 2, NMOS, false},
	{BNE, Relative, 0xd0, 2, NMOS, false},
	{BMI, Relative, 0x30, 2, NMOS, false},
	{BPL, Relative, 0x10, 2, NMOS, false},
	{BVC, Relative, 0x50, 2, NMOS, false},
	{BVS, Relative, 0x70, 2, NMOS, false},
	{BRA, Relative, 0x80, 3, CMOS, false},

	{JMP, Absolute, 0x4c, 3, NMOS, false},
	{JMP, Indirect, 0x6c, 5, NMOS, false},
	{JMP, AbsoluteX, 0x7c, 6, CMOS, false},
	{JSR, Absolute, 0x20, 6, NMOS, false},
	{RTS, Implied, 0x60, 6, NMOS, false},
	{RTI, Implied, 0x40, 6, NMOS, false},
	{BRK, Implied, 0x00, 7, NMOS, false},
	{NOP, Implied, 0xea, 2, NMOS, false},

	{TAX, Implied, 0xaa, 2, NMOS, false},
	{TXA, Implied, 0x8a, 2, NMOS, false},
	{TAY, Implied, 0xa8, 2, NMOS, false},
	{TYA, Implied, 0x98, 2, NMOS, false},
	{TXS, Implied, 0x9a, 2, NMOS, false},
	{TSX, Implied, 0xba, 2, NMOS, false},

	{PHA, Implied, 0x48, 3, NMOS, false},
	{PLA, Implied, 0x68, 4, NMOS, false},
	{PHP, Implied, 0x08, 3, NMOS, false},
	{PLP, Implied, 0x28, 4, NMOS, false},
	{PHX, Implied, 0xda, 3, CMOS, false},
	{PLX, Implied, 0xfa, 4, CMOS, false},
	{PHY, Implied, 0x5a, 3, CMOS, false},
	{PLY, Implied, 0x7a, 4, CMOS, false},

	{ASL, Implied, 0x0a, 2, NMOS, false},
	{ASL, ZeroPage, 0x06, 5, NMOS, false},
	{ASL, ZeroPageX, 0x16, 6, NMOS, false},
	{ASL, Absolute, 0x0e, 6, NMOS, false},
	{ASL, AbsoluteX, 0x1e, 7, NMOS, false},

	{LSR, Implied, 0x4a, 2, NMOS, false},
	{LSR, ZeroPage, 0x46, 5, NMOS, false},
	{LSR, ZeroPageX, 0x56, 6, NMOS, false},
	{LSR, Absolute, 0x4e, 6, NMOS, false},
	{LSR, AbsoluteX, 0x5e, 7, NMOS, false},

	{ROL, Implied, 0x2a, 2, NMOS, false},
	{ROL, ZeroPage, 0x26, 5, NMOS, false},
	{ROL, ZeroPageX, 0x36, 6, NMOS, false},
	{ROL, Absolute, 0x2e, 6, NMOS, false},
	{ROL, AbsoluteX, 0x3e, 7, NMOS, false},

	{ROR, Implied, 0x6a, 2, NMOS, false},
	{ROR, ZeroPage, 0x66, 5, NMOS, false},
	{ROR, ZeroPageX, 0x76, 6, NMOS, false},
	{ROR, Absolute, 0x6e, 6, NMOS, false},
	{ROR, AbsoluteX, 0x7e, 7, NMOS, false},

	{TRB, ZeroPage, 0x14, 5, CMOS, false},
	{TRB, Absolute, 0x1c, 6, CMOS, false},
	{TSB, ZeroPage, 0x04, 5, CMOS, false},
	{TSB, Absolute, 0x0c, 6, CMOS, false},

	// Undocumented NMOS
	{LAX, ZeroPage, 0xa7, 3, NMOS, true},
	{LAX, ZeroPageY, 0xb7, 4, NMOS, true},
	{LAX, Absolute, 0xaf, 4, NMOS, true},
	{LAX, AbsoluteY, 0xbf, 4, NMOS, true},
	{LAX, IndexedX, 0xa3, 6, NMOS, true},
	{LAX, IndexedY, 0xb3, 5, NMOS, true},

	{SAX, ZeroPage, 0x87, 3, NMOS, true},
	{SAX, ZeroPageY, 0x97, 4, NMOS, true},
	{SAX, Absolute, 0x8f, 4, NMOS, true},
	{SAX, IndexedX, 0x83, 6, NMOS, true},

	{SBX, Immediate, 0xcb, 2, NMOS, true},
	{ANC, Immediate, 0x0b, 2, NMOS, true},
	{ALR, Immediate, 0x4b, 2, NMOS, true},
	{ARR, Immediate, 0x6b, 2, NMOS, true},
	{XAA, Immediate, 0x8b, 2, NMOS, true},
	{LAS, AbsoluteY, 0xbb, 4, NMOS, true},
	{TAS, AbsoluteY, 0x9b, 5, NMOS, true},
	{SHX, AbsoluteY, 0x9e, 5, NMOS, true},
	{SHY, AbsoluteX, 0x9c, 5, NMOS, true},

	{DCP, ZeroPage, 0xc7, 5, NMOS, true},
	{DCP, ZeroPageX, 0xd7, 6, NMOS, true},
	{DCP, Absolute, 0xcf, 6, NMOS, true},
	{DCP, AbsoluteX, 0xdf, 7, NMOS, true},
	{DCP, AbsoluteY, 0xdb, 7, NMOS, true},
	{DCP, IndexedX, 0xc3, 8, NMOS, true},
	{DCP, IndexedY, 0xd3, 8, NMOS, true},

	{ISC, ZeroPage, 0xe7, 5, NMOS, true},
	{ISC, ZeroPageX, 0xf7, 6, NMOS, true},
	{ISC, Absolute, 0xef, 6, NMOS, true},
	{ISC, AbsoluteX, 0xff, 7, NMOS, true},
	{ISC, AbsoluteY, 0xfb, 7, NMOS, true},
	{ISC, IndexedX, 0xe3, 8, NMOS, true},
	{ISC, IndexedY, 0xf3, 8, NMOS, true},

	{SLO, ZeroPage, 0x07, 5, NMOS, true},
	{SLO, ZeroPageX, 0x17, 6, NMOS, true},
	{SLO, Absolute, 0x0f, 6, NMOS, true},
	{SLO, AbsoluteX, 0x1f, 7, NMOS, true},
	{SLO, AbsoluteY, 0x1b, 7, NMOS, true},

	{SRE, ZeroPage, 0x47, 5, NMOS, true},
	{SRE, ZeroPageX, 0x57, 6, NMOS, true},
	{SRE, Absolute, 0x4f, 6, NMOS, true},
	{SRE, AbsoluteX, 0x5f, 7, NMOS, true},
	{SRE, AbsoluteY, 0x5b, 7, NMOS, true},

	{RLA, ZeroPage, 0x27, 5, NMOS, true},
	{RLA, ZeroPageX, 0x37, 6, NMOS, true},
	{RLA, Absolute, 0x2f, 6, NMOS, true},
	{RLA, AbsoluteX, 0x3f, 7, NMOS, true},
	{RLA, AbsoluteY, 0x3b, 7, NMOS, true},

	{RRA, ZeroPage, 0x67, 5, NMOS, true},
	{RRA, ZeroPageX, 0x77, 6, NMOS, true},
	{RRA, Absolute, 0x6f, 6, NMOS, true},
	{RRA, AbsoluteX, 0x7f, 7, NMOS, true},
	{RRA, AbsoluteY, 0x7b, 7, NMOS, true},

	// 65CE02
	{INW, ZeroPage, 0xe3, 6, CE02, false},
	{DEW, ZeroPage, 0xc3, 6, CE02, false},
	{ASW, Absolute, 0xcb, 7, CE02, false},
	{ROW, Absolute, 0xeb, 7, CE02, false},
	{ASR, Implied, 0x43, 2, CE02, false},
	{ASR, ZeroPage, 0x44, 4, CE02, false},
	{ASR, ZeroPageX, 0x54, 4, CE02, false},
	{INZ, Implied, 0x1b, 2, CE02, false},
	{DEZ, Implied, 0x3b, 2, CE02, false},
	{LDZ, Immediate, 0xa3, 2, CE02, false},
	{LDZ, Absolute, 0xab, 4, CE02, false},
	{CPZ, Immediate, 0xc2, 2, CE02, false},
	{CPZ, ZeroPage, 0xd4, 3, CE02, false},
	{NEG, Implied, 0x42, 2, CE02, false},
	{TAZ, Implied, 0x4b, 2, CE02, false},
	{TZA, Implied, 0x6b, 2, CE02, false},
	{TAB, Implied, 0x5b, 2, CE02, false},
	{TBA, Implied, 0x7b, 2, CE02, false},
	{TSY, Implied, 0x0b, 2, CE02, false},
	{TYS, Implied, 0x2b, 2, CE02, false},
	{CLE, Implied, 0x02, 2, CE02, false},
	{SEE, Implied, 0x03, 2, CE02, false},
	{PHW, WordImmediate, 0xf4, 7, CE02, false},
	{PHZ, Implied, 0xdb, 3, CE02, false},
	{PLZ, Implied, 0xfb, 4, CE02, false},
	{BSR, Relative, 0x63, 6, CE02, false},
	{RTN, Immediate, 0x62, 7, CE02, false},

	// HuC6280
	{CLA, Implied, 0x62, 2, HuC6280, false},
	{CLX, Implied, 0x82, 2, HuC6280, false},
	{CLY, Implied, 0xc2, 2, HuC6280, false},
	{CSH, Implied, 0xd4, 3, HuC6280, false},
	{CSL, Implied, 0x54, 3, HuC6280, false},
	{SAY, Implied, 0x42, 3, HuC6280, false},
	{SXY, Implied, 0x02, 3, HuC6280, false},
	{HuSAX, Implied, 0x22, 3, HuC6280, false},
	{SET, Implied, 0xf4, 2, HuC6280, false},
	{ST0, Immediate, 0x03, 4, HuC6280, false},
	{ST1, Immediate, 0x13, 4, HuC6280, false},
	{ST2, Immediate, 0x23, 4, HuC6280, false},
	{TAM, Immediate, 0x53, 5, HuC6280, false},
	{TMA, Immediate, 0x43, 4, HuC6280, false},
	{TST, ZeroPage, 0x83, 7, HuC6280, false},
	{TST, Absolute, 0x93, 8, HuC6280, false},

	// 65816 (emulation mode)
	{XCE, Implied, 0xfb, 2, W65816, false},
	{REP, Immediate, 0xc2, 3, W65816, false},
	{SEP, Immediate, 0xe2, 3, W65816, false},
	{PHB, Implied, 0x8b, 3, W65816, false},
	{PLB, Implied, 0xab, 4, W65816, false},
	{PHD, Implied, 0x0b, 4, W65816, false},
	{PLD, Implied, 0x2b, 5, W65816, false},
	{PHK, Implied, 0x4b, 3, W65816, false},
	{XBA, Implied, 0xeb, 3, W65816, false},
	{TXY, Implied, 0x9b, 2, W65816, false},
	{TYX, Implied, 0xbb, 2, W65816, false},
	{TCD, Implied, 0x5b, 2, W65816, false},
	{TDC, Implied, 0x7b, 2, W65816, false},
	{TCS, Implied, 0x1b, 2, W65816, false},
	{TSC, Implied, 0x3b, 2, W65816, false},
	{PEA, WordImmediate, 0xf4, 5, W65816, false},
	{STA, Stack, 0x83, 4, W65816, false},
	{STA, IndexedSY, 0x93, 7, W65816, false},
	{LDA, Stack, 0xa3, 4, W65816, false},
	{LDA, IndexedSY, 0xb3, 7, W65816, false},
	{LDA, LongAbsolute, 0xaf, 5, W65816, false},
	{LDA, LongAbsoluteX, 0xbf, 5, W65816, false},
	{LDA, LongIndexedY, 0xb7, 6, W65816, false},
	{LDA, LongIndexedZ, 0xa7, 6, W65816, false},
	{STA, LongAbsolute, 0x8f, 5, W65816, false},
	{STA, LongAbsoluteX, 0x9f, 5, W65816, false},
	{STA, LongIndexedY, 0x97, 6, W65816, false},
	{STA, LongIndexedZ, 0x87, 6, W65816, false},
}

// Pseudo-opcodes are legal with DoesNotExist only.
var pseudoModes = map[Opcode]AddrMode{
	LABEL: DoesNotExist,
	BYTE:  DoesNotExist,
}

type opModeKey struct {
	op   Opcode
	mode AddrMode
}

var encodingIndex map[opModeKey]*encodingData

func init() {
	encodingIndex = make(map[opModeKey]*encodingData, len(encodings))
	for i := range encodings {
		e := &encodings[i]
		encodingIndex[opModeKey{e.op, e.mode}] = e
	}
}

// Legal reports whether the (opcode, mode) pair exists anywhere in the
// family's instruction matrix. The compiler must never build an AssemblyLine
// that fails this check.
func Legal(op Opcode, mode AddrMode) bool {
	if m, ok := pseudoModes[op]; ok {
		return mode == m
	}
	_, ok := encodingIndex[opModeKey{op, mode}]
	return ok
}

// Encoding returns the encoding byte and cycle count for the pair on the
// given architecture. It fails when the pair needs a later architecture or
// an undocumented opcode that has not been enabled.
func Encoding(op Opcode, mode AddrMode, arch Arch, illegals bool) (enc byte, cycles int, ok bool) {
	e, found := encodingIndex[opModeKey{op, mode}]
	if !found {
		return 0, 0, false
	}
	if e.illegal {
		// Undocumented opcodes exist only on the NMOS die.
		if arch != NMOS || !illegals {
			return 0, 0, false
		}
		return e.enc, int(e.cycles), true
	}
	if e.arch == CMOS && !arch.HasCmosOps() {
		return 0, 0, false
	}
	if e.arch > CMOS && arch != e.arch {
		return 0, 0, false
	}
	return e.enc, int(e.cycles), true
}

// Cycles returns a conservative cycle cost for the pair, defaulting to 2
// for pairs with no encoding on any architecture (pseudo-ops cost nothing).
func Cycles(op Opcode, mode AddrMode) int {
	if op == LABEL {
		return 0
	}
	if e, ok := encodingIndex[opModeKey{op, mode}]; ok {
		return int(e.cycles)
	}
	return 2
}

// Bytes returns the encoded size of the pair: opcode byte plus operand.
// LABEL occupies nothing; BYTE is a single data byte.
func Bytes(op Opcode, mode AddrMode) int {
	switch op {
	case LABEL:
		return 0
	case BYTE:
		return 1
	}
	return 1 + mode.OperandBytes()
}

// A DecodeEntry maps one encoding byte back to its (opcode, mode) pair.
type DecodeEntry struct {
	Enc    byte
	Op     Opcode
	Mode   AddrMode
	Cycles int
}

// DecodeTable lists every encoding legal on the architecture. Consumers
// that need the reverse mapping (the emulator, the disassembler) build
// their dispatch tables from it, so there is exactly one instruction
// matrix in the program.
func DecodeTable(arch Arch, illegals bool) []DecodeEntry {
	var out []DecodeEntry
	for _, e := range encodings {
		if enc, cycles, ok := Encoding(e.op, e.mode, arch, illegals); ok {
			out = append(out, DecodeEntry{enc, e.op, e.mode, cycles})
		}
	}
	return out
}
