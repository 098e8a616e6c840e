// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"
)

// A ConstOp is a binary operator appearing in a CompoundConstant. The
// Decimal variants interpret their operands as packed BCD at compile time.
type ConstOp byte

const (
	Plus ConstOp = iota
	Minus
	Times
	Shl
	Shr
	Shl9  // 9-bit shift left: result keeps the carry bit
	Shr9  // 9-bit shift right
	Plus9 // 9-bit addition: result keeps the carry bit
	DecimalPlus
	DecimalMinus
	DecimalTimes
	DecimalShl
	DecimalShl9
	DecimalShr
	DecimalPlus9
	And
	Or
	Exor
)

var constOpSymbol = []string{
	"+", "-", "*", "<<", ">>", "<<9", ">>9", "+9",
	"+'", "-'", "*'", "<<'", "<<9'", ">>'", "+9'",
	"&", "|", "^",
}

func (op ConstOp) String() string {
	return constOpSymbol[op]
}

// A Resolver maps a symbol name to its resolved numeric value. The assembler
// supplies one during emission; a nil resolver leaves symbolic constants
// unevaluated.
type Resolver func(name string) (int64, bool)

// A Constant is a compile-time operand expression. Constants are immutable;
// all operations return new values.
type Constant interface {
	// Size returns the number of bytes needed to store the constant.
	Size() int

	// QuickSimplify rewrites the constant into a simpler equivalent form.
	// It is idempotent and never drops MemoryAddressConstant occurrences.
	QuickSimplify() Constant

	// Eval computes the closed value of the constant, resolving symbols
	// through the resolver. The second result is false if the constant
	// contains a symbol the resolver cannot supply.
	Eval(r Resolver) (int64, bool)

	// IsProvablyZero reports whether the constant is statically zero.
	IsProvablyZero() bool

	// IsProvablyNonnegative reports whether the constant is statically
	// known not to be negative.
	IsProvablyNonnegative() bool

	// IsRelatedTo reports whether the constant mentions the named thing.
	IsRelatedTo(name string) bool

	String() string
}

//
// NumericConstant
//

// A NumericConstant is a closed integer of a fixed byte size.
type NumericConstant struct {
	Value int64
	Sz    int
}

// Num returns a numeric constant in its narrowest encoding.
func Num(v int64) NumericConstant {
	return NumericConstant{Value: v, Sz: minimumSize(v)}
}

// NumSized returns a numeric constant with an explicit size. Byte-sized
// values must lie in [-128, 255].
func NumSized(v int64, size int) NumericConstant {
	if size == 1 && (v < -128 || v > 255) {
		panic(fmt.Sprintf("numeric constant %d does not fit in a byte", v))
	}
	return NumericConstant{Value: v, Sz: size}
}

func minimumSize(v int64) int {
	switch {
	case v >= -128 && v <= 255:
		return 1
	case v >= -32768 && v <= 65535:
		return 2
	case v >= -(1<<23) && v < 1<<24:
		return 3
	default:
		return 4
	}
}

func (c NumericConstant) Size() int                   { return c.Sz }
func (c NumericConstant) QuickSimplify() Constant     { return c }
func (c NumericConstant) Eval(Resolver) (int64, bool) { return c.Value, true }
func (c NumericConstant) IsProvablyZero() bool        { return c.Value == 0 }
func (c NumericConstant) IsProvablyNonnegative() bool { return c.Value >= 0 }
func (c NumericConstant) IsRelatedTo(string) bool     { return false }

func (c NumericConstant) String() string {
	if c.Value >= 0 && c.Value < 10 {
		return fmt.Sprintf("%d", c.Value)
	}
	return fmt.Sprintf("$%0*X", c.Sz*2, uint64(c.Value)&((1<<(uint(c.Sz)*8))-1))
}

//
// MemoryAddressConstant
//

// A MemoryAddressConstant is the address of a named thing in memory. The
// thing is referenced by name so constant trees never form cycles with the
// environment.
type MemoryAddressConstant struct {
	Name string
}

// Addr returns the address constant for a named thing.
func Addr(name string) MemoryAddressConstant {
	return MemoryAddressConstant{Name: name}
}

func (c MemoryAddressConstant) Size() int               { return 2 }
func (c MemoryAddressConstant) QuickSimplify() Constant { return c }

func (c MemoryAddressConstant) Eval(r Resolver) (int64, bool) {
	if r == nil {
		return 0, false
	}
	return r(c.Name)
}

func (c MemoryAddressConstant) IsProvablyZero() bool        { return false }
func (c MemoryAddressConstant) IsProvablyNonnegative() bool { return true }

func (c MemoryAddressConstant) IsRelatedTo(name string) bool {
	// Subfield references share the base name before the first dot.
	base := c.Name
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	other := name
	if i := strings.IndexByte(other, '.'); i > 0 {
		other = other[:i]
	}
	return base == other
}

func (c MemoryAddressConstant) String() string { return c.Name }

//
// SubbyteConstant
//

// A SubbyteConstant selects one byte of a wider constant. Index 0 is the
// low byte.
type SubbyteConstant struct {
	Base  Constant
	Index int
}

func (c SubbyteConstant) Size() int { return 1 }

func (c SubbyteConstant) QuickSimplify() Constant {
	base := c.Base.QuickSimplify()
	if n, ok := base.(NumericConstant); ok {
		return NumSized((n.Value>>(uint(c.Index)*8))&0xff, 1)
	}
	return SubbyteConstant{Base: base, Index: c.Index}
}

func (c SubbyteConstant) Eval(r Resolver) (int64, bool) {
	v, ok := c.Base.Eval(r)
	if !ok {
		return 0, false
	}
	return (v >> (uint(c.Index) * 8)) & 0xff, true
}

func (c SubbyteConstant) IsProvablyZero() bool {
	return c.Index >= c.Base.Size() && c.Base.IsProvablyNonnegative()
}

func (c SubbyteConstant) IsProvablyNonnegative() bool { return true }

func (c SubbyteConstant) IsRelatedTo(name string) bool {
	return c.Base.IsRelatedTo(name)
}

func (c SubbyteConstant) String() string {
	switch c.Index {
	case 0:
		return fmt.Sprintf("lo(%s)", c.Base)
	case 1:
		return fmt.Sprintf("hi(%s)", c.Base)
	default:
		return fmt.Sprintf("byte%d(%s)", c.Index, c.Base)
	}
}

//
// CompoundConstant
//

// A CompoundConstant applies a binary operator to two constants.
type CompoundConstant struct {
	Op   ConstOp
	L, R Constant
}

func (c CompoundConstant) Size() int {
	switch c.Op {
	case Plus9, DecimalPlus9, Shl9, DecimalShl9:
		return 2
	}
	sz := c.L.Size()
	if r := c.R.Size(); r > sz {
		sz = r
	}
	return sz
}

func (c CompoundConstant) Eval(r Resolver) (int64, bool) {
	l, ok := c.L.Eval(r)
	if !ok {
		return 0, false
	}
	rr, ok := c.R.Eval(r)
	if !ok {
		return 0, false
	}
	return applyConstOp(c.Op, l, rr, c.Size()), true
}

func (c CompoundConstant) IsProvablyZero() bool {
	switch c.Op {
	case Times, DecimalTimes, And:
		return c.L.IsProvablyZero() || c.R.IsProvablyZero()
	case Plus, Or, Exor, Shl, Shr:
		return c.L.IsProvablyZero() && c.R.IsProvablyZero()
	}
	return false
}

func (c CompoundConstant) IsProvablyNonnegative() bool {
	switch c.Op {
	case Plus, Plus9, Times, Shl, Shl9, Shr, Shr9, And, Or, Exor,
		DecimalPlus, DecimalTimes, DecimalShl, DecimalShl9, DecimalShr,
		DecimalPlus9:
		return c.L.IsProvablyNonnegative() && c.R.IsProvablyNonnegative()
	}
	return false
}

func (c CompoundConstant) IsRelatedTo(name string) bool {
	return c.L.IsRelatedTo(name) || c.R.IsRelatedTo(name)
}

func (c CompoundConstant) String() string {
	return fmt.Sprintf("(%s %s %s)", c.L, c.Op, c.R)
}

// QuickSimplify folds closed subtrees, applies identity laws, hoists
// numeric offsets to the right of additive chains, and recognizes the
// hi:lo byte-reassembly pattern.
func (c CompoundConstant) QuickSimplify() Constant {
	l := c.L.QuickSimplify()
	r := c.R.QuickSimplify()

	ln, lNum := l.(NumericConstant)
	rn, rNum := r.(NumericConstant)

	// Closed fold.
	if lNum && rNum {
		sz := CompoundConstant{Op: c.Op, L: l, R: r}.Size()
		v := applyConstOp(c.Op, ln.Value, rn.Value, sz)
		if (c.Op == Times || c.Op == Shl) && minimumSize(v) > sz {
			sz = minimumSize(v)
		}
		return NumSized(v, sz)
	}

	// Identity laws.
	switch c.Op {
	case Plus, Or, Exor:
		if lNum && ln.Value == 0 {
			return r
		}
		if rNum && rn.Value == 0 {
			return l
		}
	case Minus, Shl, Shr:
		if rNum && rn.Value == 0 {
			return l
		}
	case Times:
		if lNum && ln.Value == 0 || rNum && rn.Value == 0 {
			return NumSized(0, 1)
		}
		if lNum && ln.Value == 1 {
			return r
		}
		if rNum && rn.Value == 1 {
			return l
		}
	case And:
		if lNum && ln.Value == 0 || rNum && rn.Value == 0 {
			return NumSized(0, 1)
		}
	}

	// Hoist a single numeric offset to the right of Plus/Minus chains:
	// (a+k1)+k2 -> a+(k1+k2), (a-k1)+k2 -> a+(k2-k1) or a-(k1-k2).
	if rNum && (c.Op == Plus || c.Op == Minus) {
		k2 := rn.Value
		if c.Op == Minus {
			k2 = -k2
		}
		if inner, ok := l.(CompoundConstant); ok {
			if k1n, ok := inner.R.(NumericConstant); ok {
				var k int64
				switch inner.Op {
				case Plus:
					k = k1n.Value + k2
				case Minus:
					k = -k1n.Value + k2
				default:
					goto noHoist
				}
				if k == 0 {
					return inner.L
				}
				if k > 0 {
					return CompoundConstant{Op: Plus, L: inner.L, R: Num(k)}
				}
				return CompoundConstant{Op: Minus, L: inner.L, R: Num(-k)}
			}
		}
	}
noHoist:

	// Byte reassembly: (hi(c) << 8) | lo(c) -> c.
	if c.Op == Or || c.Op == Plus {
		if reassembled, ok := matchReassembly(l, r); ok {
			return reassembled
		}
		if reassembled, ok := matchReassembly(r, l); ok {
			return reassembled
		}
	}

	return CompoundConstant{Op: c.Op, L: l, R: r}
}

// matchReassembly recognizes hiShifted = (hi(c) << 8) and lo = lo(c) over
// the same word-sized base.
func matchReassembly(hiShifted, lo Constant) (Constant, bool) {
	sh, ok := hiShifted.(CompoundConstant)
	if !ok || sh.Op != Shl {
		return nil, false
	}
	eight, ok := sh.R.(NumericConstant)
	if !ok || eight.Value != 8 {
		return nil, false
	}
	hi, ok := sh.L.(SubbyteConstant)
	if !ok || hi.Index != 1 {
		return nil, false
	}
	loSub, ok := lo.(SubbyteConstant)
	if !ok || loSub.Index != 0 {
		return nil, false
	}
	if hi.Base != loSub.Base || hi.Base.Size() > 2 {
		return nil, false
	}
	return hi.Base, true
}

//
// UnexpandedConstant
//

// An UnexpandedConstant is a named placeholder awaiting environment
// resolution.
type UnexpandedConstant struct {
	Name string
	Sz   int
}

func (c UnexpandedConstant) Size() int               { return c.Sz }
func (c UnexpandedConstant) QuickSimplify() Constant { return c }

func (c UnexpandedConstant) Eval(r Resolver) (int64, bool) {
	if r == nil {
		return 0, false
	}
	return r(c.Name)
}

func (c UnexpandedConstant) IsProvablyZero() bool         { return false }
func (c UnexpandedConstant) IsProvablyNonnegative() bool  { return false }
func (c UnexpandedConstant) IsRelatedTo(name string) bool { return c.Name == name }
func (c UnexpandedConstant) String() string               { return c.Name }

//
// AssertByte
//

// AssertByte tags a constant that must fit into 8 bits. The assembler
// reports a link error if the resolved value does not.
type AssertByte struct {
	C Constant
}

func (c AssertByte) Size() int { return 1 }

func (c AssertByte) QuickSimplify() Constant {
	inner := c.C.QuickSimplify()
	if n, ok := inner.(NumericConstant); ok && n.Value >= -128 && n.Value <= 255 {
		return NumSized(n.Value, 1)
	}
	return AssertByte{C: inner}
}

func (c AssertByte) Eval(r Resolver) (int64, bool)   { return c.C.Eval(r) }
func (c AssertByte) IsProvablyZero() bool            { return c.C.IsProvablyZero() }
func (c AssertByte) IsProvablyNonnegative() bool     { return c.C.IsProvablyNonnegative() }
func (c AssertByte) IsRelatedTo(name string) bool    { return c.C.IsRelatedTo(name) }
func (c AssertByte) String() string                  { return fmt.Sprintf("byte(%s)", c.C) }

//
// operator semantics
//

func maskToSize(v int64, size int) int64 {
	if size >= 8 {
		return v
	}
	return v & ((1 << (uint(size) * 8)) - 1)
}

// bcdDecode interprets v as packed BCD of the given byte width.
func bcdDecode(v int64, size int) int64 {
	var result, mult int64 = 0, 1
	for i := 0; i < size*2; i++ {
		result += ((v >> (uint(i) * 4)) & 0xf) * mult
		mult *= 10
	}
	return result
}

// bcdEncode packs a decimal integer back into BCD nibbles.
func bcdEncode(v int64, size int) int64 {
	var result int64
	for i := 0; i < size*2; i++ {
		result |= (v % 10) << (uint(i) * 4)
		v /= 10
	}
	return result
}

func applyConstOp(op ConstOp, a, b int64, size int) int64 {
	switch op {
	case Plus:
		return maskToSize(a+b, size)
	case Minus:
		return maskToSize(a-b, size)
	case Times:
		return a * b
	case Shl:
		return a << uint(b)
	case Shr:
		return maskToSize(a, size) >> uint(b)
	case Shl9:
		return (maskToSize(a, 1) << uint(b)) & 0x1ff
	case Shr9:
		return (maskToSize(a, 1) & 0x1ff) >> uint(b)
	case Plus9:
		return (maskToSize(a, 1) + maskToSize(b, 1)) & 0x1ff
	case DecimalPlus:
		return bcdEncode(bcdDecode(a, size)+bcdDecode(b, size), size)
	case DecimalMinus:
		d := bcdDecode(a, size) - bcdDecode(b, size)
		if d < 0 {
			d += pow10(size * 2)
		}
		return bcdEncode(d, size)
	case DecimalTimes:
		return bcdEncode(bcdDecode(a, size)*bcdDecode(b, size), size)
	case DecimalShl:
		return bcdEncode(bcdDecode(a, size)<<uint(b), size)
	case DecimalShl9:
		return bcdEncode(bcdDecode(a, 1)<<uint(b), 2) & 0x1ff
	case DecimalShr:
		return bcdEncode(bcdDecode(a, size)>>uint(b), size)
	case DecimalPlus9:
		return bcdEncode(bcdDecode(a, 1)+bcdDecode(b, 1), 2) & 0x1ff
	case And:
		return a & b
	case Or:
		return a | b
	case Exor:
		return maskToSize(a^b, size)
	default:
		panic("unknown constant operator")
	}
}

func pow10(n int) int64 {
	var p int64 = 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

//
// constructors
//

// AddC returns the simplified sum of two constants.
func AddC(a, b Constant) Constant {
	return CompoundConstant{Op: Plus, L: a, R: b}.QuickSimplify()
}

// SubC returns the simplified difference of two constants.
func SubC(a, b Constant) Constant {
	return CompoundConstant{Op: Minus, L: a, R: b}.QuickSimplify()
}

// AslC returns the constant shifted left by n bits.
func AslC(a Constant, n int) Constant {
	return CompoundConstant{Op: Shl, L: a, R: Num(int64(n))}.QuickSimplify()
}

// LoByte selects the low byte of a constant.
func LoByte(a Constant) Constant {
	return SubbyteConstant{Base: a, Index: 0}.QuickSimplify()
}

// HiByte selects the high byte of a constant.
func HiByte(a Constant) Constant {
	return SubbyteConstant{Base: a, Index: 1}.QuickSimplify()
}

// Subbyte selects byte i of a constant, low byte first.
func Subbyte(a Constant, i int) Constant {
	return SubbyteConstant{Base: a, Index: i}.QuickSimplify()
}

// Subword reassembles the two-byte word starting at byte i of a constant.
func Subword(a Constant, i int) Constant {
	hi := CompoundConstant{Op: Shl, L: SubbyteConstant{Base: a, Index: i + 1}, R: Num(8)}
	return CompoundConstant{Op: Or, L: hi, R: SubbyteConstant{Base: a, Index: i}}.QuickSimplify()
}
