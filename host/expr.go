// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errExprParse  = errors.New("expression syntax error")
	errDivideZero = errors.New("division by zero")
)

// An identifierResolver supplies values for identifiers appearing in
// expressions: register names and loaded labels.
type identifierResolver interface {
	resolveIdentifier(s string) (int64, error)
}

// The exprParser evaluates monitor expressions: numbers in several bases,
// identifiers, parentheses, and the usual arithmetic and bitwise
// operators. In hexMode, unprefixed numbers parse as hexadecimal.
type exprParser struct {
	hexMode bool
}

func newExprParser() *exprParser {
	return &exprParser{}
}

func (p *exprParser) Parse(expr string, resolver identifierResolver) (int64, error) {
	s := &exprScanner{src: expr, hexMode: p.hexMode, resolver: resolver}
	v, err := s.parseExpr(0)
	if err != nil {
		return 0, err
	}
	s.skipSpace()
	if s.pos < len(s.src) {
		return 0, errExprParse
	}
	return v, nil
}

type exprScanner struct {
	src      string
	pos      int
	hexMode  bool
	resolver identifierResolver
}

// Binary operators by precedence, tightest first.
var binaryOps = []struct {
	text string
	prec int
}{
	{"*", 6}, {"/", 6}, {"%", 6},
	{"+", 5}, {"-", 5},
	{"<<", 4}, {">>", 4},
	{"&", 3},
	{"^", 2},
	{"|", 1},
}

func (s *exprScanner) parseExpr(minPrec int) (int64, error) {
	v, err := s.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		s.skipSpace()
		op, prec, ok := s.peekBinaryOp()
		if !ok || prec < minPrec {
			return v, nil
		}
		s.pos += len(op)

		rhs, err := s.parseExpr(prec + 1)
		if err != nil {
			return 0, err
		}

		switch op {
		case "*":
			v *= rhs
		case "/":
			if rhs == 0 {
				return 0, errDivideZero
			}
			v /= rhs
		case "%":
			if rhs == 0 {
				return 0, errDivideZero
			}
			v %= rhs
		case "+":
			v += rhs
		case "-":
			v -= rhs
		case "<<":
			v <<= uint(rhs & 63)
		case ">>":
			v >>= uint(rhs & 63)
		case "&":
			v &= rhs
		case "^":
			v ^= rhs
		case "|":
			v |= rhs
		}
	}
}

func (s *exprScanner) peekBinaryOp() (op string, prec int, ok bool) {
	rest := s.src[s.pos:]
	// Longest match first so "<<" wins over an unsupported "<".
	for _, b := range binaryOps {
		if len(b.text) == 2 && strings.HasPrefix(rest, b.text) {
			return b.text, b.prec, true
		}
	}
	for _, b := range binaryOps {
		if len(b.text) == 1 && strings.HasPrefix(rest, b.text) {
			return b.text, b.prec, true
		}
	}
	return "", 0, false
}

func (s *exprScanner) parseUnary() (int64, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return 0, errExprParse
	}

	switch c := s.src[s.pos]; {
	case c == '-':
		s.pos++
		v, err := s.parseUnary()
		return -v, err

	case c == '~':
		s.pos++
		v, err := s.parseUnary()
		return ^v, err

	case c == '(':
		s.pos++
		v, err := s.parseExpr(0)
		if err != nil {
			return 0, err
		}
		s.skipSpace()
		if s.pos >= len(s.src) || s.src[s.pos] != ')' {
			return 0, errExprParse
		}
		s.pos++
		return v, nil

	case c == '$':
		s.pos++
		return s.parseNumber(16)

	case c == '%':
		s.pos++
		return s.parseNumber(2)

	case c >= '0' && c <= '9':
		if strings.HasPrefix(s.src[s.pos:], "0x") || strings.HasPrefix(s.src[s.pos:], "0X") {
			s.pos += 2
			return s.parseNumber(16)
		}
		if s.hexMode {
			return s.parseNumber(16)
		}
		return s.parseNumber(10)

	case isIdentStart(c):
		return s.parseIdentifier()

	default:
		return 0, errExprParse
	}
}

func (s *exprScanner) parseNumber(base int) (int64, error) {
	start := s.pos
	for s.pos < len(s.src) && isAlnum(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return 0, errExprParse
	}
	v, err := strconv.ParseInt(s.src[start:s.pos], base, 64)
	if err != nil {
		return 0, errExprParse
	}
	return v, nil
}

func (s *exprScanner) parseIdentifier() (int64, error) {
	start := s.pos
	for s.pos < len(s.src) && (isAlnum(s.src[s.pos]) || s.src[s.pos] == '_' || s.src[s.pos] == '.') {
		s.pos++
	}
	return s.resolver.resolveIdentifier(s.src[start:s.pos])
}

func (s *exprScanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
