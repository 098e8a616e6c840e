// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfc-lang/mfc/ir"
)

const c64INI = `
; Commodore 64
[compilation]
arch=mos6502
zeropage_register=4
zeropage_base=$02
data_base=$c000

[banks]
default=$080d:$9fff

[output]
extension=prg
style=single
`

func TestParseINI(t *testing.T) {
	p, err := parseINI("c64", c64INI)
	if err != nil {
		t.Fatal(err)
	}
	if p.Arch != ir.NMOS || p.ZpRegisterSize != 4 || p.DataBase != 0xc000 {
		t.Errorf("platform = %+v", p)
	}
	if len(p.Banks) != 1 || p.Banks[0].Start != 0x080d || p.Banks[0].End != 0x9fff {
		t.Errorf("banks = %v", p.Banks)
	}
	if p.OutputExt != "prg" || p.OutputStyle != SingleFile {
		t.Errorf("output = %q %v", p.OutputExt, p.OutputStyle)
	}
}

func TestINIErrors(t *testing.T) {
	if _, err := parseINI("x", "[banks]\ndefault=$0800:$bfff\n"); err == nil {
		t.Error("missing arch accepted")
	}
	if _, err := parseINI("x", "[compilation]\narch=mos6502\n"); err == nil {
		t.Error("missing banks accepted")
	}
	if _, err := parseINI("x", "[compilation]\narch=z80\n[banks]\ndefault=$0:$ff\n"); err == nil {
		t.Error("z80 accepted")
	}
	if _, err := parseINI("x", "[compilation]\narch=unobtainium\n[banks]\ndefault=$0:$ff\n"); err == nil {
		t.Error("unknown cpu accepted")
	}
	if _, err := parseINI("x", "[banks]\ndefault=$0800\n[compilation]\narch=cmos\n"); err == nil {
		t.Error("bank without end accepted")
	}
}

func TestParseYAML(t *testing.T) {
	const y = `
cpu: huc6280
zeropage_register: 6
banks:
  - name: default
    start: "$e000"
    end: "$ffff"
output:
  extension: pce
`
	p, err := parseYAML("pce", []byte(y))
	if err != nil {
		t.Fatal(err)
	}
	if p.Arch != ir.HuC6280 || p.ZpRegisterSize != 6 || p.OutputExt != "pce" {
		t.Errorf("platform = %+v", p)
	}
	if p.Banks[0].Start != 0xe000 || p.Banks[0].End != 0xffff {
		t.Errorf("banks = %v", p.Banks)
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "c64.ini")
	if err := os.WriteFile(ini, []byte(c64INI), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(ini)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "c64" || p.Arch != ir.NMOS {
		t.Errorf("platform = %+v", p)
	}

	if _, err := Load(filepath.Join(dir, "missing.ini")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestBuiltins(t *testing.T) {
	p, ok := Builtin("sim")
	if !ok || p.Banks[0].Start != 0x0800 {
		t.Fatalf("sim builtin = %+v, %v", p, ok)
	}
	if _, ok := Builtin("amiga"); ok {
		t.Error("unknown builtin resolved")
	}
}
