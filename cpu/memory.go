// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// The Memory interface is the CPU's window onto the address space. All
// loads and stores go through it, so hosts can map devices or watchpoints.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// LoadBytes loads multiple bytes from the address into 'b'.
	LoadBytes(addr uint16, b []byte)

	// LoadAddress loads a 16-bit little-endian address value.
	LoadAddress(addr uint16) uint16

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// StoreBytes stores multiple bytes to the requested address.
	StoreBytes(addr uint16, b []byte)

	// StoreAddress stores a 16-bit address 'v' to the requested address.
	StoreAddress(addr uint16, v uint16)
}

// FlatMemory is the whole 16-bit address space as one 64K RAM buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address into 'b'.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	if int(addr)+len(b) <= len(m.b) {
		copy(b, m.b[addr:])
	} else {
		r0 := len(m.b) - int(addr)
		copy(b, m.b[addr:])
		for i := r0; i < len(b); i++ {
			b[i] = 0
		}
	}
}

// LoadAddress loads a 16-bit address value. When the address ends in $ff
// the high byte comes from the start of the same page, mimicking the NMOS
// page-wrap behavior.
func (m *FlatMemory) LoadAddress(addr uint16) uint16 {
	if addr&0xff == 0xff {
		return uint16(m.b[addr]) | uint16(m.b[addr-0xff])<<8
	}
	return uint16(m.b[addr]) | uint16(m.b[addr+1])<<8
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	copy(m.b[addr:], b)
}

// StoreAddress stores a 16-bit address value, page-wrapped like
// LoadAddress.
func (m *FlatMemory) StoreAddress(addr uint16, v uint16) {
	m.b[addr] = byte(v)
	if addr&0xff == 0xff {
		m.b[addr-0xff] = byte(v >> 8)
	} else {
		m.b[addr+1] = byte(v >> 8)
	}
}

// offsetAddress returns addr+offset and whether the sum crossed a page.
func offsetAddress(addr uint16, offset byte) (newAddr uint16, pageCrossed bool) {
	newAddr = addr + uint16(offset)
	return newAddr, newAddr&0xff00 != addr&0xff00
}

// offsetZeroPage offsets a zero-page address, wrapping within the page.
func offsetZeroPage(addr uint16, offset byte) uint16 {
	return (addr + uint16(offset)) & 0xff
}

// operandToAddress converts a 1- or 2-byte operand into an address.
func operandToAddress(operand []byte) uint16 {
	switch len(operand) {
	case 1:
		return uint16(operand[0])
	case 2:
		return uint16(operand[0]) | uint16(operand[1])<<8
	}
	return 0
}
