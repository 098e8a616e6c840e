// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package options parses the compiler's command line. The grammar is the
// traditional compiler-driver shape: positional input files, single-dash
// long flags, numbered -O levels, and -f feature toggles with -fno-
// inverses.
package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// Version is stamped by the build.
var Version = "0.1.0"

// Settings is the parsed command line. Tri-state toggles keep a pointer
// so platform and optimization-level defaults apply only when the user
// said nothing.
type Settings struct {
	Inputs      []string
	Output      string // output stem; mandatory
	EmitAsm     bool   // -s
	EmitLabels  bool   // -g
	Platform    string // -t
	IncludePath []string
	RunAfter    string // -r
	Defines     map[string]int64

	OptLevel int
	Metric   prog.OptimizationMetric

	Inline         *bool // nil = decide from OptLevel
	IPO            bool
	OptimizeStdlib bool

	CmosOps     bool
	Ce02Ops     bool
	HudsonOps   bool
	Emu65816    bool
	Native65816 bool
	Illegals    bool

	ZpRegister      *int // nil = platform default
	JmpFix          bool
	DecimalMode     bool
	VariableOverlap bool
	BoundsChecking  bool
	LenientEncoding bool
	ShadowIRQ       bool
	UseIXForStack   bool
	UseIYForStack   bool
	SoftwareStack   bool

	WAll   bool
	WFatal bool

	SingleThreaded bool
	Verbosity      int // -1 quiet, 0 default, 1..3
	ShowHelp       bool
	ShowVersion    bool
}

// featureToggles maps -f<name> flags to their Settings fields. Toggles not
// listed here need value or pair handling and are matched explicitly.
func (s *Settings) featureToggles() map[string]*bool {
	return map[string]*bool{
		"ipo":                 &s.IPO,
		"optimize-stdlib":     &s.OptimizeStdlib,
		"cmos-ops":            &s.CmosOps,
		"65ce02-ops":          &s.Ce02Ops,
		"huc6280-ops":         &s.HudsonOps,
		"emulation-65816-ops": &s.Emu65816,
		"native-65816-ops":    &s.Native65816,
		"illegals":            &s.Illegals,
		"jmp-fix":             &s.JmpFix,
		"decimal-mode":        &s.DecimalMode,
		"variable-overlap":    &s.VariableOverlap,
		"bounds-checking":     &s.BoundsChecking,
		"lenient-encoding":    &s.LenientEncoding,
		"shadow-irq":          &s.ShadowIRQ,
		"use-ix-for-stack":    &s.UseIXForStack,
		"use-iy-for-stack":    &s.UseIYForStack,
		"software-stack":      &s.SoftwareStack,
	}
}

// Parse reads the argument list (without the program name). A returned
// error is CLI misuse; callers exit with status 2.
func Parse(args []string) (*Settings, error) {
	s := &Settings{Defines: map[string]int64{}}
	toggles := s.featureToggles()

	// next consumes a flag's value, either attached with '=' or as the
	// following argument.
	i := 0
	next := func(flag, attached string) (string, error) {
		if attached != "" {
			return attached, nil
		}
		i++
		if i >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		return args[i], nil
	}

	for ; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--help" || arg == "-h":
			s.ShowHelp = true
		case arg == "--version":
			s.ShowVersion = true
		case arg == "--single-threaded":
			s.SingleThreaded = true
		case arg == "-q":
			s.Verbosity = -1
		case arg == "-v", arg == "-vv", arg == "-vvv":
			s.Verbosity = len(arg) - 1
		case arg == "-s":
			s.EmitAsm = true
		case arg == "-g":
			s.EmitLabels = true
		case arg == "-Wall":
			s.WAll = true
		case arg == "-Wfatal":
			s.WFatal = true

		case arg == "-o" || strings.HasPrefix(arg, "-o="):
			v, err := next("-o", strings.TrimPrefix(arg, "-o="))
			if err != nil {
				return nil, err
			}
			s.Output = v
		case arg == "-t" || strings.HasPrefix(arg, "-t="):
			v, err := next("-t", strings.TrimPrefix(arg, "-t="))
			if err != nil {
				return nil, err
			}
			s.Platform = v
		case arg == "-r" || strings.HasPrefix(arg, "-r="):
			v, err := next("-r", strings.TrimPrefix(arg, "-r="))
			if err != nil {
				return nil, err
			}
			s.RunAfter = v
		case arg == "-I" || strings.HasPrefix(arg, "-I="):
			v, err := next("-I", strings.TrimPrefix(arg, "-I="))
			if err != nil {
				return nil, err
			}
			for _, dir := range strings.Split(v, ";") {
				if dir != "" {
					s.IncludePath = append(s.IncludePath, dir)
				}
			}
		case arg == "-D" || strings.HasPrefix(arg, "-D="):
			v, err := next("-D", strings.TrimPrefix(arg, "-D="))
			if err != nil {
				return nil, err
			}
			name, val, ok := strings.Cut(v, "=")
			if !ok {
				return nil, fmt.Errorf("-D expects name=value, got %q", v)
			}
			n, err := parseInt(val)
			if err != nil {
				return nil, fmt.Errorf("-D %s: %w", name, err)
			}
			s.Defines[name] = n

		case arg == "-Os":
			s.Metric = prog.MetricBytes
		case arg == "-Of":
			s.Metric = prog.MetricCycles
		case arg == "-Ob":
			s.Metric = prog.MetricExtremeCycles
		case len(arg) == 3 && strings.HasPrefix(arg, "-O") && arg[2] >= '0' && arg[2] <= '9':
			s.OptLevel = int(arg[2] - '0')

		case arg == "-finline":
			t := true
			s.Inline = &t
		case arg == "-fno-inline":
			f := false
			s.Inline = &f
		case strings.HasPrefix(arg, "-fzp-register="):
			n, err := parseInt(arg[len("-fzp-register="):])
			if err != nil || n < 0 || n > 15 {
				return nil, fmt.Errorf("-fzp-register expects 0..15, got %q",
					arg[len("-fzp-register="):])
			}
			v := int(n)
			s.ZpRegister = &v
		case strings.HasPrefix(arg, "-fno-"):
			name := arg[len("-fno-"):]
			p, ok := toggles[name]
			if !ok {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			*p = false
		case strings.HasPrefix(arg, "-f"):
			name := arg[len("-f"):]
			p, ok := toggles[name]
			if !ok {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			*p = true

		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag %s", arg)
		default:
			s.Inputs = append(s.Inputs, arg)
		}
	}

	if s.ShowHelp || s.ShowVersion {
		return s, nil
	}
	return s, s.validate()
}

func (s *Settings) validate() error {
	if len(s.Inputs) == 0 {
		return fmt.Errorf("no input files")
	}
	if s.Output == "" {
		return fmt.Errorf("-o is mandatory")
	}
	if s.Illegals && s.OptLevel < 2 {
		return fmt.Errorf("-fillegals requires -O2 or higher")
	}
	if s.UseIXForStack && s.UseIYForStack {
		return fmt.Errorf("-fuse-ix-for-stack and -fuse-iy-for-stack are mutually exclusive")
	}
	if s.Emu65816 && s.Native65816 {
		return fmt.Errorf("-femulation-65816-ops and -fnative-65816-ops are mutually exclusive")
	}
	return nil
}

// CompilationOptions resolves the settings against a platform's
// architecture and defaults.
func (s *Settings) CompilationOptions(arch ir.Arch, platformZpRegister int) prog.CompilationOptions {
	if s.CmosOps && arch == ir.NMOS {
		arch = ir.CMOS
	}
	if s.Ce02Ops {
		arch = ir.CE02
	}
	if s.HudsonOps {
		arch = ir.HuC6280
	}
	if s.Emu65816 || s.Native65816 {
		arch = ir.W65816
	}

	inline := s.OptLevel >= 2
	if s.Inline != nil {
		inline = *s.Inline
	}
	zp := platformZpRegister
	if s.ZpRegister != nil {
		zp = *s.ZpRegister
	}
	return prog.CompilationOptions{
		Arch:              arch,
		OptLevel:          s.OptLevel,
		Metric:            s.Metric,
		Illegals:          s.Illegals && arch == ir.NMOS,
		DecimalMode:       s.DecimalMode,
		BoundsChecking:    s.BoundsChecking,
		VariableOverlap:   s.VariableOverlap,
		ZpRegisterSize:    zp,
		SingleThreaded:    s.SingleThreaded,
		InlineFunctions:   inline,
		Ce02Ops:           s.Ce02Ops,
		HudsonOps:         s.HudsonOps,
		Emulation65816Ops: s.Emu65816,
		JmpFix:            s.JmpFix,
		SoftwareStack:     s.SoftwareStack,
	}
}

// LogLevel maps the verbosity flags onto diagnostic levels.
func (s *Settings) LogLevel() diag.Level {
	switch s.Verbosity {
	case -1:
		return diag.Error
	case 1:
		return diag.Info
	case 2:
		return diag.Debug
	case 3:
		return diag.Trace
	default:
		return diag.Warn
	}
}

// parseInt accepts the source language's integer bases: decimal, $/0x
// hex, 0o octal, 0q base 4, and %/0b binary.
func parseInt(v string) (int64, error) {
	neg := false
	if strings.HasPrefix(v, "-") {
		neg, v = true, v[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(v, "$"):
		v, base = v[1:], 16
	case strings.HasPrefix(v, "0x"), strings.HasPrefix(v, "0X"):
		v, base = v[2:], 16
	case strings.HasPrefix(v, "0o"), strings.HasPrefix(v, "0O"):
		v, base = v[2:], 8
	case strings.HasPrefix(v, "0q"), strings.HasPrefix(v, "0Q"):
		v, base = v[2:], 4
	case strings.HasPrefix(v, "%"):
		v, base = v[1:], 2
	case strings.HasPrefix(v, "0b"), strings.HasPrefix(v, "0B"):
		v, base = v[2:], 2
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), base, 64)
	if err != nil {
		return 0, fmt.Errorf("bad integer %q", v)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// FormatInt renders a value in a given base with the matching prefix.
// Formatting the result of parseInt in the same base is the identity
// modulo leading zeros.
func FormatInt(v int64, base int) string {
	switch base {
	case 16:
		return "$" + strconv.FormatInt(v, 16)
	case 8:
		return "0o" + strconv.FormatInt(v, 8)
	case 4:
		return "0q" + strconv.FormatInt(v, 4)
	case 2:
		return "%" + strconv.FormatInt(v, 2)
	default:
		return strconv.FormatInt(v, 10)
	}
}

// ParseInt is the exported form used by the source scanner.
func ParseInt(v string) (int64, error) { return parseInt(v) }

// Usage is the --help text.
const Usage = `Usage: mfc [options] <input.mfk>...

Output:
  -o <stem>        output file stem (mandatory)
  -s               also write an assembly listing (<stem>.asm)
  -g               also write a label file (<stem>.lbl)
  -t <platform>    target platform descriptor (.ini/.yaml) or builtin name
  -I <dir[;dir]>   include search path (repeatable)
  -r <program>     run this program on the output after a successful build
  -D <name>=<int>  define a preprocessor feature

Optimization:
  -O0..-O9         optimization level (-O9 enables the superoptimizer)
  -Os -Of -Ob      optimize for size / speed / extreme speed
  -finline         inline small functions (-fno-inline to force off)
  -fipo            interprocedural optimization
  -foptimize-stdlib

Target features:
  -fcmos-ops -f65ce02-ops -fhuc6280-ops
  -femulation-65816-ops -fnative-65816-ops
  -fillegals       undocumented NMOS opcodes (requires -O2 or higher)
  -fzp-register=N  zero-page pseudoregister size, 0..15
  -fjmp-fix -fdecimal-mode -fsoftware-stack
  -fuse-ix-for-stack -fuse-iy-for-stack -fshadow-irq

Checks:
  -fbounds-checking -fvariable-overlap -flenient-encoding
  -Wall -Wfatal

Misc:
  --single-threaded  disable per-function parallel optimization
  -q -v -vv -vvv     verbosity
  --help --version
`
