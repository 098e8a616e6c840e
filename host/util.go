// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strings"

	"github.com/mfc-lang/mfc/cpu"
)

func codeString(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// registerString renders the register file one line wide, flags as a
// letter when set and a dash when clear.
func registerString(r *cpu.Registers) string {
	flag := func(set bool, c byte) byte {
		if set {
			return c
		}
		return '-'
	}
	flags := []byte{
		flag(r.Sign, 'N'),
		flag(r.Overflow, 'V'),
		flag(r.Decimal, 'D'),
		flag(r.InterruptDisable, 'I'),
		flag(r.Zero, 'Z'),
		flag(r.Carry, 'C'),
	}
	return fmt.Sprintf("A=%02X X=%02X Y=%02X SP=%02X PC=%04X %s",
		r.A, r.X, r.Y, r.SP, r.PC, flags)
}

func stringToBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func toPrintableChar(v byte) byte {
	if v >= 32 && v < 127 {
		return v
	}
	return '.'
}
