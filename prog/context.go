// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prog

import "github.com/mfc-lang/mfc/ir"

// OptimizationMetric selects what the optimizer minimizes.
type OptimizationMetric byte

const (
	MetricCycles OptimizationMetric = iota // -Of: speed
	MetricBytes                            // -Os: size
	MetricExtremeCycles                    // -Ob: speed, dangerous rules allowed
)

// CompilationOptions carries the semantic switches of one compiler run.
type CompilationOptions struct {
	Arch              ir.Arch
	OptLevel          int // 0..9; 9 enables the superoptimizer
	Metric            OptimizationMetric
	Illegals          bool // undocumented NMOS opcodes allowed
	DecimalMode       bool // target has working decimal mode
	BoundsChecking    bool
	VariableOverlap   bool
	ZpRegisterSize    int // 0..15 bytes
	SingleThreaded    bool
	InlineFunctions   bool
	Ce02Ops           bool
	HudsonOps         bool
	Emulation65816Ops bool
	JmpFix            bool // work around the NMOS JMP ($xxFF) bug
	SoftwareStack     bool
}

// A CompilationContext is the per-function compilation state. It has pure
// value semantics: every mutator returns a copy, so callees can extend the
// context without unwinding.
type CompilationContext struct {
	Env      *Environment
	Function *Function
	Options  CompilationOptions

	// ExtraStackOffset tracks bytes pushed within the current statement,
	// so stack-relative operands stay correct mid-expression.
	ExtraStackOffset int

	// NeverCheckArrayBounds suppresses bounds-check emission for the
	// current scope even when bounds checking is globally enabled.
	NeverCheckArrayBounds bool

	breakLabels    map[string]string
	continueLabels map[string]string
}

// NewContext builds the context for compiling one function.
func NewContext(env *Environment, f *Function, opts CompilationOptions) CompilationContext {
	return CompilationContext{
		Env:            env,
		Function:       f,
		Options:        opts,
		breakLabels:    map[string]string{},
		continueLabels: map[string]string{},
	}
}

func copyLabels(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AddLabels returns a copy with break/continue targets registered for a
// loop. The empty key always tracks the innermost loop.
func (ctx CompilationContext) AddLabels(loopLabel, breakTarget, continueTarget string) CompilationContext {
	ctx.breakLabels = copyLabels(ctx.breakLabels)
	ctx.continueLabels = copyLabels(ctx.continueLabels)
	ctx.breakLabels[""] = breakTarget
	ctx.continueLabels[""] = continueTarget
	if loopLabel != "" {
		ctx.breakLabels[loopLabel] = breakTarget
		ctx.continueLabels[loopLabel] = continueTarget
	}
	return ctx
}

// BreakLabel resolves the break target for a loop label ("" = innermost).
func (ctx CompilationContext) BreakLabel(loopLabel string) (string, bool) {
	l, ok := ctx.breakLabels[loopLabel]
	return l, ok
}

// ContinueLabel resolves the continue target for a loop label.
func (ctx CompilationContext) ContinueLabel(loopLabel string) (string, bool) {
	l, ok := ctx.continueLabels[loopLabel]
	return l, ok
}

// WithExtraStackOffset returns a copy with the push depth adjusted.
func (ctx CompilationContext) WithExtraStackOffset(delta int) CompilationContext {
	ctx.ExtraStackOffset += delta
	return ctx
}

// WithoutBoundsChecks returns a copy that suppresses bounds checking.
func (ctx CompilationContext) WithoutBoundsChecks() CompilationContext {
	ctx.NeverCheckArrayBounds = true
	return ctx
}

// NextLabel returns a fresh local label from the shared generator.
func (ctx CompilationContext) NextLabel(prefix string) string {
	return ctx.Env.Labels().Next(prefix)
}
