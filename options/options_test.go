// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package options

import (
	"testing"

	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

func TestBasicInvocation(t *testing.T) {
	s, err := Parse([]string{"-o", "game", "-O2", "-s", "-g", "main.mfk", "lib.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Output != "game" || s.OptLevel != 2 || !s.EmitAsm || !s.EmitLabels {
		t.Errorf("settings = %+v", s)
	}
	if len(s.Inputs) != 2 || s.Inputs[0] != "main.mfk" {
		t.Errorf("inputs = %v", s.Inputs)
	}
}

func TestMandatoryOutput(t *testing.T) {
	if _, err := Parse([]string{"main.mfk"}); err == nil {
		t.Fatal("missing -o accepted")
	}
	if _, err := Parse([]string{"-o", "game"}); err == nil {
		t.Fatal("missing inputs accepted")
	}
}

func TestIllegalsRequireO2(t *testing.T) {
	if _, err := Parse([]string{"-o", "x", "-fillegals", "main.mfk"}); err == nil {
		t.Fatal("-fillegals accepted at -O0")
	}
	if _, err := Parse([]string{"-o", "x", "-O2", "-fillegals", "main.mfk"}); err != nil {
		t.Fatal(err)
	}
}

func TestFeatureTogglePairs(t *testing.T) {
	s, err := Parse([]string{"-o", "x", "-fjmp-fix", "-fno-jmp-fix", "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	if s.JmpFix {
		t.Error("-fno-jmp-fix did not override")
	}
	if _, err := Parse([]string{"-o", "x", "-fbogus", "main.mfk"}); err == nil {
		t.Error("unknown -f flag accepted")
	}
}

func TestInlineTriState(t *testing.T) {
	s, _ := Parse([]string{"-o", "x", "-O2", "main.mfk"})
	if !s.CompilationOptions(ir.NMOS, 4).InlineFunctions {
		t.Error("inlining should default on at -O2")
	}
	s, _ = Parse([]string{"-o", "x", "-O2", "-fno-inline", "main.mfk"})
	if s.CompilationOptions(ir.NMOS, 4).InlineFunctions {
		t.Error("-fno-inline ignored")
	}
	s, _ = Parse([]string{"-o", "x", "-finline", "main.mfk"})
	if !s.CompilationOptions(ir.NMOS, 4).InlineFunctions {
		t.Error("-finline ignored at -O0")
	}
}

func TestZpRegisterFlag(t *testing.T) {
	s, err := Parse([]string{"-o", "x", "-fzp-register=8", "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.CompilationOptions(ir.NMOS, 4).ZpRegisterSize; got != 8 {
		t.Errorf("zp register size = %d", got)
	}
	s, _ = Parse([]string{"-o", "x", "main.mfk"})
	if got := s.CompilationOptions(ir.NMOS, 4).ZpRegisterSize; got != 4 {
		t.Errorf("platform default not applied: %d", got)
	}
	if _, err := Parse([]string{"-o", "x", "-fzp-register=16", "main.mfk"}); err == nil {
		t.Error("-fzp-register=16 accepted")
	}
}

func TestArchSelection(t *testing.T) {
	s, _ := Parse([]string{"-o", "x", "-fcmos-ops", "main.mfk"})
	if got := s.CompilationOptions(ir.NMOS, 4).Arch; got != ir.CMOS {
		t.Errorf("arch = %v", got)
	}
	s, _ = Parse([]string{"-o", "x", "-fhuc6280-ops", "main.mfk"})
	if got := s.CompilationOptions(ir.NMOS, 4).Arch; got != ir.HuC6280 {
		t.Errorf("arch = %v", got)
	}
}

func TestMetricFlags(t *testing.T) {
	s, _ := Parse([]string{"-o", "x", "-Os", "main.mfk"})
	if s.Metric != prog.MetricBytes {
		t.Errorf("metric = %v", s.Metric)
	}
	s, _ = Parse([]string{"-o", "x", "-Ob", "main.mfk"})
	if s.Metric != prog.MetricExtremeCycles {
		t.Errorf("metric = %v", s.Metric)
	}
}

func TestIncludePathSplitting(t *testing.T) {
	s, err := Parse([]string{"-o", "x", "-I", "a;b", "-I", "c", "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.IncludePath) != 3 || s.IncludePath[1] != "b" || s.IncludePath[2] != "c" {
		t.Errorf("include path = %v", s.IncludePath)
	}
}

func TestDefines(t *testing.T) {
	s, err := Parse([]string{"-o", "x", "-D", "WIDTH=40", "-D", "MASK=$f0", "main.mfk"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Defines["WIDTH"] != 40 || s.Defines["MASK"] != 0xf0 {
		t.Errorf("defines = %v", s.Defines)
	}
	if _, err := Parse([]string{"-o", "x", "-D", "WIDTH", "main.mfk"}); err == nil {
		t.Error("-D without value accepted")
	}
}

func TestIntegerBases(t *testing.T) {
	cases := map[string]int64{
		"42":       42,
		"$ff":      255,
		"0x10":     16,
		"%1010":    10,
		"0b101":    5,
		"0o17":     15,
		"0q123":    27,
		"-5":       -5,
		"1_000":    1000,
	}
	for in, want := range cases {
		got, err := ParseInt(in)
		if err != nil || got != want {
			t.Errorf("ParseInt(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := ParseInt("0xzz"); err == nil {
		t.Error("bad hex accepted")
	}
}

func TestIntegerFormatRoundTrip(t *testing.T) {
	for _, base := range []int{2, 4, 8, 10, 16} {
		for _, v := range []int64{0, 1, 42, 255, 4096} {
			got, err := ParseInt(FormatInt(v, base))
			if err != nil || got != v {
				t.Errorf("base %d value %d: round trip gave %d, %v", base, v, got, err)
			}
		}
	}
}

func TestVerbosityLevels(t *testing.T) {
	s, _ := Parse([]string{"-o", "x", "-q", "main.mfk"})
	if s.Verbosity != -1 {
		t.Errorf("verbosity = %d", s.Verbosity)
	}
	s, _ = Parse([]string{"-o", "x", "-vvv", "main.mfk"})
	if s.Verbosity != 3 {
		t.Errorf("verbosity = %d", s.Verbosity)
	}
}

func TestHelpSkipsValidation(t *testing.T) {
	s, err := Parse([]string{"--help"})
	if err != nil || !s.ShowHelp {
		t.Fatalf("help: %+v, %v", s, err)
	}
}
