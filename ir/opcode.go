// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// An Opcode identifies a 6502-family mnemonic or one of the synthetic
// pseudo-opcodes used by the compiler (LABEL, BYTE).
type Opcode uint16

const (
	// Pseudo-opcodes
	LABEL Opcode = iota // label definition; operand is the label constant
	BYTE                // raw data byte; operand is the byte value

	// Official NMOS 6502
	ADC
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA

	// Undocumented NMOS
	ALR
	ANC
	ARR
	DCP
	ISC
	LAS
	LAX
	RLA
	RRA
	SAX
	SBX
	SHX
	SHY
	SLO
	SRE
	TAS
	XAA

	// CMOS 65C02
	BRA
	PHX
	PHY
	PLX
	PLY
	STZ
	TRB
	TSB

	// 65CE02
	ASR
	ASW
	BSR
	CLE
	CPZ
	DEW
	DEZ
	INW
	INZ
	LDZ
	NEG
	PHW
	PHZ
	PLZ
	ROW
	RTN
	SEE
	TAB
	TAZ
	TBA
	TSY
	TYS
	TZA

	// HuC6280
	CLA
	CLX
	CLY
	CSH
	CSL
	SAY
	SXY
	HuSAX // the HuC6280 register-swap SAX, distinct from the NMOS store
	SET
	ST0
	ST1
	ST2
	TAM
	TMA
	TST

	// 65816
	BRL
	COP
	JML
	JSL
	MVN
	MVP
	PEA
	PEI
	PER
	PHB
	PHD
	PHK
	PLB
	PLD
	REP
	RTL
	SEP
	STP
	TCD
	TCS
	TDC
	TSC
	TXY
	TYX
	WAI
	XBA
	XCE

	numOpcodes
)

var opcodeName = map[Opcode]string{
	LABEL: "LABEL", BYTE: "BYTE",
	ADC: "ADC", AND: "AND", ASL: "ASL", BCC: "BCC", BCS: "BCS", BEQ: "BEQ",
	BIT: "BIT", BMI: "BMI", BNE: "BNE", BPL: "BPL", BRK: "BRK", BVC: "BVC",
	BVS: "BVS", CLC: "CLC", CLD: "CLD", CLI: "CLI", CLV: "CLV", CMP: "CMP",
	CPX: "CPX", CPY: "CPY", DEC: "DEC", DEX: "DEX", DEY: "DEY", EOR: "EOR",
	INC: "INC", INX: "INX", INY: "INY", JMP: "JMP", JSR: "JSR", LDA: "LDA",
	LDX: "LDX", LDY: "LDY", LSR: "LSR", NOP: "NOP", ORA: "ORA", PHA: "PHA",
	PHP: "PHP", PLA: "PLA", PLP: "PLP", ROL: "ROL", ROR: "ROR", RTI: "RTI",
	RTS: "RTS", SBC: "SBC", SEC: "SEC", SED: "SED", SEI: "SEI", STA: "STA",
	STX: "STX", STY: "STY", TAX: "TAX", TAY: "TAY", TSX: "TSX", TXA: "TXA",
	TXS: "TXS", TYA: "TYA",
	ALR: "ALR", ANC: "ANC", ARR: "ARR", DCP: "DCP", ISC: "ISC", LAS: "LAS",
	LAX: "LAX", RLA: "RLA", RRA: "RRA", SAX: "SAX", SBX: "SBX", SHX: "SHX",
	SHY: "SHY", SLO: "SLO", SRE: "SRE", TAS: "TAS", XAA: "XAA",
	BRA: "BRA", PHX: "PHX", PHY: "PHY", PLX: "PLX", PLY: "PLY", STZ: "STZ",
	TRB: "TRB", TSB: "TSB",
	ASR: "ASR", ASW: "ASW", BSR: "BSR", CLE: "CLE", CPZ: "CPZ", DEW: "DEW",
	DEZ: "DEZ", INW: "INW", INZ: "INZ", LDZ: "LDZ", NEG: "NEG", PHW: "PHW",
	PHZ: "PHZ", PLZ: "PLZ", ROW: "ROW", RTN: "RTN", SEE: "SEE", TAB: "TAB", TAZ: "TAZ",
	TBA: "TBA", TSY: "TSY", TYS: "TYS", TZA: "TZA",
	CLA: "CLA", CLX: "CLX", CLY: "CLY", CSH: "CSH", CSL: "CSL", SAY: "SAY",
	SXY: "SXY", HuSAX: "SAX", SET: "SET", ST0: "ST0", ST1: "ST1", ST2: "ST2",
	TAM: "TAM", TMA: "TMA", TST: "TST",
	BRL: "BRL", COP: "COP", JML: "JML", JSL: "JSL", MVN: "MVN", MVP: "MVP",
	PEA: "PEA", PEI: "PEI", PER: "PER", PHB: "PHB", PHD: "PHD", PHK: "PHK",
	PLB: "PLB", PLD: "PLD", REP: "REP", RTL: "RTL", SEP: "SEP", STP: "STP",
	TCD: "TCD", TCS: "TCS", TDC: "TDC", TSC: "TSC", TXY: "TXY", TYX: "TYX",
	WAI: "WAI", XBA: "XBA", XCE: "XCE",
}

func (op Opcode) String() string {
	if s, ok := opcodeName[op]; ok {
		return s
	}
	return "???"
}

// OpcodeSet is a set of opcodes, used by peephole patterns and
// classification queries.
type OpcodeSet map[Opcode]struct{}

// Opcodes builds an OpcodeSet from a list of opcodes.
func Opcodes(ops ...Opcode) OpcodeSet {
	s := make(OpcodeSet, len(ops))
	for _, op := range ops {
		s[op] = struct{}{}
	}
	return s
}

// Contains reports set membership.
func (s OpcodeSet) Contains(op Opcode) bool {
	_, ok := s[op]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s OpcodeSet) Union(t OpcodeSet) OpcodeSet {
	u := make(OpcodeSet, len(s)+len(t))
	for op := range s {
		u[op] = struct{}{}
	}
	for op := range t {
		u[op] = struct{}{}
	}
	return u
}

// Classification sets consulted by the dataflow analyzer and the rule
// preconditions.
var (
	// ConditionalBranches branch when their flag condition holds.
	ConditionalBranches = Opcodes(BCC, BCS, BEQ, BNE, BMI, BPL, BVC, BVS)

	// AllDirectJumps transfer control unconditionally.
	AllDirectJumps = Opcodes(JMP, BRA, BRL, JML)

	// NoopDiscards neither change state nor observe it.
	NoopDiscards = Opcodes(NOP)

	// ChangesA holds every opcode that may modify the accumulator.
	ChangesA = Opcodes(ADC, AND, ASL, DEC, EOR, INC, LDA, LSR, ORA, PLA,
		ROL, ROR, SBC, TXA, TYA, TZA, TBA, LAX, LAS, ALR, ANC, ARR, SBX,
		XAA, SLO, SRE, RLA, RRA, ISC, ASR, NEG, CLA, SAY, HuSAX, XBA, TDC,
		TSC, JSR, BRK)

	// ChangesX holds every opcode that may modify X.
	ChangesX = Opcodes(DEX, INX, LDX, PLX, TAX, TSX, LAX, LAS, SBX, CLX,
		HuSAX, SXY, TYX, JSR, BRK)

	// ChangesY holds every opcode that may modify Y.
	ChangesY = Opcodes(DEY, INY, LDY, PLY, TAY, TSY, CLY, SAY, SXY, TXY,
		JSR, BRK)

	// ReadsA holds every opcode that observes the accumulator.
	ReadsA = Opcodes(ADC, AND, ASL, BIT, CMP, DEC, EOR, INC, LSR, ORA, PHA,
		ROL, ROR, SBC, STA, TAX, TAY, TAB, TAZ, SAX, SBX, ANC, ALR, ARR,
		XAA, SLO, SRE, RLA, RRA, DCP, ISC, ASR, NEG, SAY, HuSAX, XBA, TCD,
		TCS, TRB, TSB, JSR, BRK)

	// ReadsX holds every opcode that observes X.
	ReadsX = Opcodes(CPX, DEX, INX, STX, TXA, TXS, TXY, SAX, SBX, SHX, TAS,
		HuSAX, SXY, PHX, JSR, BRK)

	// ReadsY holds every opcode that observes Y.
	ReadsY = Opcodes(CPY, DEY, INY, STY, TYA, TYS, TYX, SHY, SAY, SXY, PHY,
		JSR, BRK)

	// ReadsC holds every opcode whose result depends on the carry flag.
	ReadsC = Opcodes(ADC, SBC, ROL, ROR, BCC, BCS, ARR, ISC, RRA, PHP, ROW,
		JSR, BRK)

	// ReadsD holds every opcode whose result depends on decimal mode.
	ReadsD = Opcodes(ADC, SBC, ARR, ISC, RRA, PHP, JSR, BRK)

	// ChangesNZ holds every opcode that rewrites the N and Z flags.
	ChangesNZ = Opcodes(ADC, AND, ASL, BIT, CMP, CPX, CPY, DEC, DEX, DEY,
		EOR, INC, INX, INY, LDA, LDX, LDY, LSR, ORA, PLA, PLX, PLY, ROL,
		ROR, SBC, TAX, TAY, TSX, TXA, TYA, PLP, RTI, LAX, LAS, ALR, ANC,
		ARR, SBX, XAA, DCP, ISC, SLO, SRE, RLA, RRA, TRB, TSB, ASR, NEG,
		CPZ, INW, DEW, INZ, DEZ, LDZ, ASW, ROW, TZA, TAB, TBA, JSR, BRK)

	// ChangesC holds every opcode that rewrites the carry flag.
	ChangesC = Opcodes(ADC, ASL, CLC, CMP, CPX, CPY, LSR, ROL, ROR, SBC,
		SEC, PLP, RTI, ALR, ANC, ARR, SBX, DCP, ISC, SLO, SRE, RRA, LAS,
		ASR, CPZ, ASW, ROW, XCE, JSR, BRK)

	// ChangesV holds every opcode that rewrites the overflow flag.
	ChangesV = Opcodes(ADC, BIT, CLV, SBC, PLP, RTI, ARR, ISC, RRA, JSR, BRK)

	// ChangesStack holds every opcode that moves the stack pointer.
	ChangesStack = Opcodes(PHA, PHP, PHX, PHY, PHZ, PHW, PLA, PLP, PLX, PLY,
		PLZ, JSR, RTS, RTI, BRK, TXS, TYS, TCS, TAS, BSR, RTL, RTN, PEA,
		PEI, PER, PHB, PHD, PHK, PLB, PLD)

	// SupportsAbsoluteX is consulted when the compiler needs an indexed
	// read and must pick an index register.
	SupportsAbsoluteX = Opcodes(ADC, AND, ASL, BIT, CMP, DEC, EOR, INC, LDA,
		LDY, LSR, ORA, ROL, ROR, SBC, STA, STZ)

	// SupportsAbsoluteY is the AbsoluteY counterpart of SupportsAbsoluteX.
	SupportsAbsoluteY = Opcodes(ADC, AND, CMP, EOR, LDA, LDX, ORA, SBC, STA,
		LAX, SHX, TAS, LAS)
)

// IsTerminal reports whether the opcode ends a straight-line flow: returns,
// unconditional jumps and halts.
func (op Opcode) IsTerminal() bool {
	switch op {
	case RTS, RTI, RTL, RTN, JMP, BRA, BRL, JML, STP, BRK:
		return true
	}
	return false
}

// ModifiesMemory reports whether the opcode writes to its memory operand
// when used with a memory addressing mode.
func (op Opcode) ModifiesMemory() bool {
	switch op {
	case STA, STX, STY, STZ, ST0, ST1, ST2, INC, DEC, ASL, LSR, ROL, ROR,
		TRB, TSB, SAX, DCP, ISC, SLO, SRE, RLA, RRA, SHX, SHY, TAS, INW,
		DEW, ASW, ROW, ASR, BYTE:
		return true
	}
	return false
}

// ReadsMemory reports whether the opcode reads its memory operand when used
// with a memory addressing mode.
func (op Opcode) ReadsMemory() bool {
	switch op {
	case LDA, LDX, LDY, LDZ, ADC, SBC, AND, ORA, EOR, CMP, CPX, CPY, CPZ,
		BIT, INC, DEC, ASL, LSR, ROL, ROR, TRB, TSB, JMP, LAX, DCP, ISC,
		SLO, SRE, RLA, RRA, LAS, INW, DEW, ASW, ROW, ASR, TST:
		return true
	}
	return false
}
