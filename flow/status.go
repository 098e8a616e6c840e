// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flow computes a conservative abstraction of the CPU state before
// every assembly line: register and flag contents in the forward direction,
// register and flag liveness in the backward direction. The peephole rules
// consume both to prove their preconditions.
package flow

import "fmt"

// A Register names one of the tracked byte registers.
type Register byte

const (
	RegA Register = iota
	RegX
	RegY
)

var registerName = []string{"A", "X", "Y"}

func (r Register) String() string { return registerName[r] }

// A Value is the abstract content of one register: unknown, a known byte,
// or a copy of another register.
type Value struct {
	kind  valueKind
	b     byte
	other Register
}

type valueKind byte

const (
	unknown valueKind = iota
	known
	sameAs
)

// UnknownValue is the lattice top: any byte.
func UnknownValue() Value { return Value{kind: unknown} }

// KnownValue abstracts an exactly known byte.
func KnownValue(b byte) Value { return Value{kind: known, b: b} }

// SameAsValue abstracts a byte equal to another register's current value.
func SameAsValue(r Register) Value { return Value{kind: sameAs, other: r} }

// Known reports the exact byte, if there is one.
func (v Value) Known() (byte, bool) { return v.b, v.kind == known }

// IsSameAs reports whether the value mirrors the given register.
func (v Value) IsSameAs(r Register) bool { return v.kind == sameAs && v.other == r }

// Join merges two abstract values at a control-flow merge.
func (v Value) Join(w Value) Value {
	if v == w {
		return v
	}
	return UnknownValue()
}

func (v Value) String() string {
	switch v.kind {
	case known:
		return fmt.Sprintf("$%02X", v.b)
	case sameAs:
		return "=" + v.other.String()
	default:
		return "?"
	}
}

// A FlagValue is the abstract content of one status flag.
type FlagValue byte

const (
	FlagUnknown FlagValue = iota
	FlagSet
	FlagClear
)

// Known reports the flag's exact state, if there is one.
func (f FlagValue) Known() (bool, bool) {
	switch f {
	case FlagSet:
		return true, true
	case FlagClear:
		return false, true
	}
	return false, false
}

// Join merges two abstract flags.
func (f FlagValue) Join(g FlagValue) FlagValue {
	if f == g {
		return f
	}
	return FlagUnknown
}

func flagOf(b bool) FlagValue {
	if b {
		return FlagSet
	}
	return FlagClear
}

// A Status is the abstract CPU state at one program point.
type Status struct {
	A, X, Y          Value
	N, Z, C, V, D, I FlagValue
}

// UnknownStatus is the conservative entry state.
func UnknownStatus() Status {
	return Status{A: UnknownValue(), X: UnknownValue(), Y: UnknownValue()}
}

// Join merges two statuses at a control-flow merge.
func (s Status) Join(t Status) Status {
	return Status{
		A: s.A.Join(t.A), X: s.X.Join(t.X), Y: s.Y.Join(t.Y),
		N: s.N.Join(t.N), Z: s.Z.Join(t.Z), C: s.C.Join(t.C),
		V: s.V.Join(t.V), D: s.D.Join(t.D), I: s.I.Join(t.I),
	}
}

// Reg returns the abstract value of the named register.
func (s Status) Reg(r Register) Value {
	switch r {
	case RegA:
		return s.A
	case RegX:
		return s.X
	default:
		return s.Y
	}
}

func (s *Status) setReg(r Register, v Value) {
	// Any register overwrite invalidates aliases pointing at it.
	for _, reg := range []*Value{&s.A, &s.X, &s.Y} {
		if reg.IsSameAs(r) {
			if con, ok := s.Reg(r).Known(); ok {
				*reg = KnownValue(con)
			} else {
				*reg = UnknownValue()
			}
		}
	}
	switch r {
	case RegA:
		s.A = v
	case RegX:
		s.X = v
	default:
		s.Y = v
	}
}

func (s *Status) setNZ(v Value) {
	if b, ok := v.Known(); ok {
		s.N = flagOf(b&0x80 != 0)
		s.Z = flagOf(b == 0)
	} else {
		s.N = FlagUnknown
		s.Z = FlagUnknown
	}
}

// Liveness is a bit set of registers and flags that are consumed later in
// the function.
type Liveness uint16

const (
	LiveA Liveness = 1 << iota
	LiveX
	LiveY
	LiveN
	LiveZ
	LiveC
	LiveV
	LiveD

	liveAll = LiveA | LiveX | LiveY | LiveN | LiveZ | LiveC | LiveV | LiveD
)

// Has reports whether all given bits are live.
func (l Liveness) Has(bits Liveness) bool { return l&bits == bits }

// HasAny reports whether any of the given bits is live.
func (l Liveness) HasAny(bits Liveness) bool { return l&bits != 0 }
