// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package platform loads target machine descriptors. A descriptor names
// the CPU, the bank layout, the output file shape, and the default
// zero-page pseudoregister width. Descriptors are INI files in the
// documented layout; YAML is accepted as an alternative keyed on the file
// extension.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mfc-lang/mfc/asm"
	"github.com/mfc-lang/mfc/ir"
)

// OutputStyle selects how bank images map to output files.
type OutputStyle byte

const (
	SingleFile OutputStyle = iota // banks concatenated into one image
	PerBank                      // one file per bank
)

// A Platform is a resolved machine descriptor.
type Platform struct {
	Name           string
	Arch           ir.Arch
	Banks          []asm.Bank
	OutputExt      string
	OutputStyle    OutputStyle
	GenerateInf    bool // BBC Micro .inf sidecar
	ZpRegisterSize int
	ZeroPageBase   int
	DataBase       int
}

// cpuNames maps descriptor CPU names to architectures. The 8080-family
// names are recognized but rejected: this compiler only targets the 6502
// family.
var cpuNames = map[string]ir.Arch{
	"mos6502": ir.NMOS,
	"6502":    ir.NMOS,
	"ricoh":   ir.NMOS,
	"cmos":    ir.CMOS,
	"65c02":   ir.CMOS,
	"65ce02":  ir.CE02,
	"huc6280": ir.HuC6280,
	"65816":   ir.W65816,
}

var unsupportedCPUs = map[string]bool{
	"z80": true, "i8080": true, "sharp": true,
}

func archFor(cpu string) (ir.Arch, error) {
	cpu = strings.ToLower(strings.TrimSpace(cpu))
	if a, ok := cpuNames[cpu]; ok {
		return a, nil
	}
	if unsupportedCPUs[cpu] {
		return 0, fmt.Errorf("cpu %q is not supported by this compiler", cpu)
	}
	return 0, fmt.Errorf("unknown cpu %q", cpu)
}

// ArchNamed resolves a descriptor CPU name to an architecture.
func ArchNamed(cpu string) (ir.Arch, error) {
	return archFor(cpu)
}

// Load reads a platform descriptor from disk, dispatching on extension.
func Load(path string) (*Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(name, data)
	default:
		return parseINI(name, string(data))
	}
}

// Builtin returns a compiled-in descriptor.
func Builtin(name string) (*Platform, bool) {
	p, ok := builtins[name]
	return p, ok
}

// BuiltinNames lists the compiled-in descriptors.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	return names
}

var builtins = map[string]*Platform{
	// A bare machine for simulation and tests: RAM everywhere, code at
	// $0800, output slot at $c000.
	"sim": {
		Name:           "sim",
		Arch:           ir.NMOS,
		Banks:          []asm.Bank{{Name: "default", Start: 0x0800, End: 0xbfff}},
		OutputExt:      "bin",
		ZpRegisterSize: 4,
		ZeroPageBase:   0x02,
		DataBase:       0xc100,
	},
	"c64": {
		Name:           "c64",
		Arch:           ir.NMOS,
		Banks:          []asm.Bank{{Name: "default", Start: 0x080d, End: 0x9fff}},
		OutputExt:      "prg",
		ZpRegisterSize: 4,
		ZeroPageBase:   0x02,
		DataBase:       0xc000,
	},
	"bbcmicro": {
		Name:           "bbcmicro",
		Arch:           ir.NMOS,
		Banks:          []asm.Bank{{Name: "default", Start: 0x0e00, End: 0x7bff}},
		OutputExt:      "",
		GenerateInf:    true,
		ZpRegisterSize: 4,
		ZeroPageBase:   0x70,
		DataBase:       0x7c00,
	},
	"pce": {
		Name:           "pce",
		Arch:           ir.HuC6280,
		Banks:          []asm.Bank{{Name: "default", Start: 0xe000, End: 0xffff}},
		OutputExt:      "pce",
		ZpRegisterSize: 4,
		ZeroPageBase:   0x02,
		DataBase:       0x2200,
	},
}

// parseINI reads the documented INI layout:
//
//	[compilation]
//	arch=mos6502
//	zeropage_register=4
//	zeropage_base=$02
//	data_base=$c100
//	[banks]
//	default=$0800:$bfff
//	[output]
//	extension=prg
//	style=single
//	bbc_inf=false
func parseINI(name, text string) (*Platform, error) {
	p := &Platform{Name: name, ZpRegisterSize: 4, ZeroPageBase: 0x02}
	section := ""
	sawCPU := false

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(line[1 : len(line)-1])
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s.ini line %d: expected key=value", name, lineNo+1)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch section {
		case "compilation":
			switch key {
			case "arch", "cpu":
				arch, err := archFor(value)
				if err != nil {
					return nil, err
				}
				p.Arch = arch
				sawCPU = true
			case "zeropage_register":
				n, err := parseNum(value)
				if err != nil {
					return nil, fmt.Errorf("%s.ini line %d: %w", name, lineNo+1, err)
				}
				p.ZpRegisterSize = n
			case "zeropage_base":
				n, err := parseNum(value)
				if err != nil {
					return nil, fmt.Errorf("%s.ini line %d: %w", name, lineNo+1, err)
				}
				p.ZeroPageBase = n
			case "data_base":
				n, err := parseNum(value)
				if err != nil {
					return nil, fmt.Errorf("%s.ini line %d: %w", name, lineNo+1, err)
				}
				p.DataBase = n
			}
		case "banks":
			start, end, ok := strings.Cut(value, ":")
			if !ok {
				return nil, fmt.Errorf("%s.ini line %d: bank %s needs start:end", name, lineNo+1, key)
			}
			s, err := parseNum(start)
			if err != nil {
				return nil, fmt.Errorf("%s.ini line %d: %w", name, lineNo+1, err)
			}
			e, err := parseNum(end)
			if err != nil {
				return nil, fmt.Errorf("%s.ini line %d: %w", name, lineNo+1, err)
			}
			p.Banks = append(p.Banks, asm.Bank{Name: key, Start: s, End: e})
		case "output":
			switch key {
			case "extension":
				p.OutputExt = value
			case "style":
				switch strings.ToLower(value) {
				case "single", "":
					p.OutputStyle = SingleFile
				case "per_bank", "perbank":
					p.OutputStyle = PerBank
				default:
					return nil, fmt.Errorf("%s.ini line %d: unknown output style %q", name, lineNo+1, value)
				}
			case "bbc_inf":
				p.GenerateInf = value == "true" || value == "1"
			}
		}
	}
	if !sawCPU {
		return nil, fmt.Errorf("%s.ini: missing [compilation] arch", name)
	}
	if len(p.Banks) == 0 {
		return nil, fmt.Errorf("%s.ini: no banks declared", name)
	}
	return p, nil
}

// parseNum accepts decimal or $-prefixed / 0x-prefixed hex.
func parseNum(s string) (int, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return int(v), nil
}

// yamlPlatform mirrors the YAML descriptor shape.
type yamlPlatform struct {
	CPU   string `yaml:"cpu"`
	Banks []struct {
		Name  string `yaml:"name"`
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"banks"`
	Output struct {
		Extension string `yaml:"extension"`
		Style     string `yaml:"style"`
		BBCInf    bool   `yaml:"bbc_inf"`
	} `yaml:"output"`
	ZeroPageRegister *int   `yaml:"zeropage_register"`
	ZeroPageBase     string `yaml:"zeropage_base"`
	DataBase         string `yaml:"data_base"`
}

func parseYAML(name string, data []byte) (*Platform, error) {
	var y yamlPlatform
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("%s.yaml: %w", name, err)
	}
	arch, err := archFor(y.CPU)
	if err != nil {
		return nil, err
	}
	p := &Platform{Name: name, Arch: arch, ZpRegisterSize: 4, ZeroPageBase: 0x02}
	if y.ZeroPageRegister != nil {
		p.ZpRegisterSize = *y.ZeroPageRegister
	}
	if y.ZeroPageBase != "" {
		if p.ZeroPageBase, err = parseNum(y.ZeroPageBase); err != nil {
			return nil, err
		}
	}
	if y.DataBase != "" {
		if p.DataBase, err = parseNum(y.DataBase); err != nil {
			return nil, err
		}
	}
	for _, b := range y.Banks {
		s, err := parseNum(b.Start)
		if err != nil {
			return nil, err
		}
		e, err := parseNum(b.End)
		if err != nil {
			return nil, err
		}
		p.Banks = append(p.Banks, asm.Bank{Name: b.Name, Start: s, End: e})
	}
	if len(p.Banks) == 0 {
		return nil, fmt.Errorf("%s.yaml: no banks declared", name)
	}
	p.OutputExt = y.Output.Extension
	p.GenerateInf = y.Output.BBCInf
	if strings.EqualFold(y.Output.Style, "per_bank") {
		p.OutputStyle = PerBank
	}
	return p, nil
}
