// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// Passes assembles the pass sequence for one optimization level. At -O2 and
// above the main sets run in the order good, assopt, good: the middle pass
// exposes instruction selections the dataflow pass then cleans up, which
// avoids local minima a single fixpoint would settle into.
func Passes(opts prog.CompilationOptions) []Pass {
	if opts.OptLevel <= 0 {
		return nil
	}
	if opts.OptLevel == 1 {
		return []Pass{QuickPreset}
	}

	passes := []Pass{QuickPreset, Good, AssOpt, Good}
	passes = append(passes, archPasses(opts)...)
	passes = append(passes, LaterOptimizations)

	// Higher levels repeat the main interleave; each repetition is a full
	// fixpoint, so extra cycles only ever help.
	for extra := 3; extra <= opts.OptLevel && extra <= 5; extra++ {
		passes = append(passes, Good, AssOpt, Good)
		passes = append(passes, archPasses(opts)...)
	}
	return passes
}

func archPasses(opts prog.CompilationOptions) []Pass {
	var passes []Pass
	if opts.Arch.HasCmosOps() {
		passes = append(passes, CmosOptimizations)
	}
	if opts.Ce02Ops {
		passes = append(passes, CE02Optimizations)
	}
	if opts.HudsonOps {
		passes = append(passes, HudsonOptimizations)
	}
	if opts.Emulation65816Ops {
		passes = append(passes, SixteenOptimizations)
	}
	if opts.Illegals && opts.Arch == ir.NMOS {
		passes = append(passes, UndocumentedOptimizations)
	}
	if opts.Metric == prog.MetricExtremeCycles {
		passes = append(passes, DangerousOptimizations)
	}
	if opts.ZpRegisterSize > 0 {
		passes = append(passes, ZeropageRegisterOptimizations)
	}
	return passes
}

// Optimize runs the whole peephole pipeline over one function's lines.
func Optimize(lines []ir.AssemblyLine, opts prog.CompilationOptions, cfg Config) []ir.AssemblyLine {
	for _, p := range Passes(opts) {
		lines = p.Apply(lines, cfg)
		lines = RemoveUnusedLocalLabels(lines)
	}
	if opts.OptLevel >= 9 {
		lines = Superoptimize(lines, opts, cfg)
	}
	return lines
}
