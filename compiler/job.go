// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler drives a whole compilation job: lowering every
// reachable function, optimizing the per-function line lists on a worker
// pool, and assembling the result into placed bank images.
package compiler

import (
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/mfc-lang/mfc/asm"
	"github.com/mfc-lang/mfc/compile"
	"github.com/mfc-lang/mfc/diag"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/opt"
	"github.com/mfc-lang/mfc/options"
	"github.com/mfc-lang/mfc/platform"
	"github.com/mfc-lang/mfc/prog"
)

// A Job is one compiler run.
type Job struct {
	Program  *prog.Program
	Platform *platform.Platform
	Settings *options.Settings
	Log      *diag.Logger

	// Progress receives the optimization progress bar. Nil selects
	// stderr; the bar only appears on an interactive terminal.
	Progress io.Writer
}

// Result is a finished job's product.
type Result struct {
	Output    *asm.Output
	Functions []asm.Function

	// Code sizes in bytes before and after the peephole phase.
	SizeBefore int
	SizeAfter  int
}

// Run executes the job's phases in order. Lowering is sequential so label
// numbering stays deterministic; only the peephole phase fans out.
func (j *Job) Run() (*Result, bool) {
	opts := j.Settings.CompilationOptions(j.Platform.Arch, j.Platform.ZpRegisterSize)
	env := j.Program.Env
	env.ZpRegisterSize = opts.ZpRegisterSize
	reachable := j.Program.Reachable()

	funcs := j.lower(opts, reachable)
	if !j.Log.AssertNoErrors("compilation") {
		return nil, false
	}

	res := &Result{Functions: funcs}
	res.SizeBefore = totalSize(funcs)
	j.optimize(funcs, opts)
	res.SizeAfter = totalSize(funcs)
	j.Log.Infof("code size %d bytes unoptimized, %d bytes optimized",
		res.SizeBefore, res.SizeAfter)
	if !j.Log.AssertNoErrors("optimization") {
		return nil, false
	}

	if opts.BoundsChecking {
		funcs = append(funcs, boundsFailHandler())
		reachable = copyReachable(reachable)
		reachable[compile.BoundsFailHandler] = true
	}

	out, ok := asm.Assemble(funcs, asm.Config{
		Arch:         opts.Arch,
		Illegals:     opts.Illegals,
		Banks:        j.Platform.Banks,
		ZeroPageBase: j.Platform.ZeroPageBase,
		DataBase:     j.Platform.DataBase,
		Env:          env,
		Reachable:    reachable,
		Log:          j.Log,
	})
	if !ok || !j.Log.AssertNoErrors("assembly") {
		return nil, false
	}
	res.Output = out
	res.Functions = funcs
	return res, true
}

// lower compiles every reachable non-macro function with a body, in the
// environment's deterministic order.
func (j *Job) lower(opts prog.CompilationOptions, reachable map[string]bool) []asm.Function {
	var funcs []asm.Function
	for _, t := range j.Program.Env.Things() {
		f, ok := t.(*prog.Function)
		if !ok || f.Macro || f.Fixed != nil || !reachable[f.Name] {
			continue
		}
		ctx := prog.NewContext(j.Program.Env, f, opts)
		lines := compile.Function(ctx, j.Log)
		funcs = append(funcs, asm.Function{Name: f.Name, Bank: f.Bank, Lines: lines})
	}
	return funcs
}

// optimize runs the peephole pipeline over every function, fanning out to
// a worker pool unless the job is single-threaded.
func (j *Job) optimize(funcs []asm.Function, opts prog.CompilationOptions) {
	if opts.OptLevel <= 0 || len(funcs) == 0 {
		return
	}
	cfg := opt.Config{Metric: opts.Metric, Log: j.Log}
	bar := j.progressBar(len(funcs))

	workers := runtime.GOMAXPROCS(0)
	if opts.SingleThreaded {
		workers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				funcs[i].Lines = opt.Optimize(funcs[i].Lines, opts, cfg)
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}
	for i := range funcs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}
}

// progressBar returns a bar over the optimization phase, or nil when the
// run is quiet or not attached to a terminal.
func (j *Job) progressBar(total int) *progressbar.ProgressBar {
	if j.Settings.Verbosity < 1 {
		return nil
	}
	w := j.Progress
	if w == nil {
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return nil
		}
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("optimizing"),
		progressbar.OptionClearOnFinish(),
	)
}

// boundsFailHandler is the runtime trap an out-of-range index jumps to.
func boundsFailHandler() asm.Function {
	return asm.Function{
		Name: compile.BoundsFailHandler,
		Lines: []ir.AssemblyLine{
			ir.LabelLine(compile.BoundsFailHandler).Pinned(),
			ir.ImpliedInsn(ir.BRK).Pinned(),
		},
	}
}

func copyReachable(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func totalSize(funcs []asm.Function) int {
	n := 0
	for _, f := range funcs {
		for _, l := range f.Lines {
			n += l.SizeInBytes()
		}
	}
	return n
}
