// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteLabels renders the label listing in the VICE monitor format:
// one "al <hex> .<name>" line per symbol, with characters strict
// assemblers reject ('$' and '.') normalized to underscores.
func WriteLabels(w io.Writer, labels []Symbol) error {
	for _, s := range labels {
		if _, err := fmt.Fprintf(w, "al %04X .%s\n", s.Address, NormalizeName(s.Name)); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeName rewrites a symbol name for the label file.
func NormalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

// ParseLabels reads a label listing back. Round-tripping a listing yields
// the identical (name, address) pairs.
func ParseLabels(r io.Reader) ([]Symbol, error) {
	var out []Symbol
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[0] != "al" || !strings.HasPrefix(fields[2], ".") {
			return nil, fmt.Errorf("label file line %d: malformed entry %q", lineNo, line)
		}
		addr, err := strconv.ParseUint(fields[1], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("label file line %d: bad address %q", lineNo, fields[1])
		}
		out = append(out, Symbol{Name: fields[2][1:], Address: int(addr)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
