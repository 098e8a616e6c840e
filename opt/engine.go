// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/flow"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/prog"
)

// restartWindow is how far the scan backs up after a rewrite, so rules whose
// precondition newly holds get another chance without a full re-sweep.
const restartWindow = 3

// maxRewritesPerPass caps rewrites within one pass. A rule set that keeps
// rewriting past this bound is cycling; the pass gives up at the cap.
const maxRewritesPerPass = 4096

// A Pass is a named rule set applied to a fixed point.
type Pass struct {
	Name  string
	Rules []Rule
}

// Config carries the engine knobs shared by all passes of one run.
type Config struct {
	Metric prog.OptimizationMetric
	Log    *diag.Logger
}

// cost prices a line list under the selected metric.
func cost(lines []ir.AssemblyLine, metric prog.OptimizationMetric) int {
	total := 0
	for _, l := range lines {
		if metric == prog.MetricBytes {
			total += l.SizeInBytes()
		} else {
			total += l.Cost()
		}
	}
	return total
}

// Apply runs the pass over one function's lines until no rule fires. The
// input list is never mutated.
func (p Pass) Apply(lines []ir.AssemblyLine, cfg Config) []ir.AssemblyLine {
	lines = ir.CloneLines(lines)
	rewrites := 0
	for {
		changed := false
		states := flow.Analyze(lines)
		live := flow.LivenessAnalysis(lines)

		i := 0
		for i < len(lines) {
			r, m := p.matchAt(lines, i, states, live)
			if r == nil {
				i++
				continue
			}
			repl, ok := r.Rewrite(m)
			if !ok {
				i++
				continue
			}
			window := lines[i : i+len(r.Pattern)]
			if cost(repl, cfg.Metric) > cost(window, cfg.Metric) {
				i++
				continue
			}
			if cfg.Log != nil {
				cfg.Log.Tracef("%s: %s rewrote %d line(s) into %d",
					p.Name, r.Name, len(window), len(repl))
			}
			lines = splice(lines, i, len(r.Pattern), repl)
			changed = true
			rewrites++
			if rewrites >= maxRewritesPerPass {
				if cfg.Log != nil {
					cfg.Log.Warnf("%s: rewrite cap reached, giving up the pass", p.Name)
				}
				return lines
			}

			// The rewrite invalidated both analyses.
			states = flow.Analyze(lines)
			live = flow.LivenessAnalysis(lines)
			if i -= restartWindow; i < 0 {
				i = 0
			}
		}
		if !changed {
			return lines
		}
	}
}

func (p Pass) matchAt(lines []ir.AssemblyLine, i int,
	states []flow.Status, live []flow.Liveness) (*Rule, *Match) {

	for ri := range p.Rules {
		r := &p.Rules[ri]
		if m, ok := r.match(lines, i, states, live); ok {
			return r, m
		}
	}
	return nil, nil
}

func splice(lines []ir.AssemblyLine, at, n int, repl []ir.AssemblyLine) []ir.AssemblyLine {
	out := make([]ir.AssemblyLine, 0, len(lines)-n+len(repl))
	out = append(out, lines[:at]...)
	out = append(out, repl...)
	out = append(out, lines[at+n:]...)
	return out
}
