// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "sort"

// A Debugger watches an attached CPU for breakpoint hits. The monitor
// uses it to stop execution at code addresses and on stores to watched
// data addresses.
type Debugger struct {
	handler         BreakpointHandler
	breakpoints     map[uint16]*Breakpoint
	dataBreakpoints map[uint16]*DataBreakpoint
}

// BreakpointHandler receives debugger notifications.
type BreakpointHandler interface {
	OnBreakpoint(c *CPU, b *Breakpoint)
	OnDataBreakpoint(c *CPU, b *DataBreakpoint)
}

// A Breakpoint stops execution when the program counter reaches its
// address.
type Breakpoint struct {
	Address  uint16
	Disabled bool

	// StepOver marks a temporary breakpoint placed by a step-over, so the
	// handler can resume without reporting a hit.
	StepOver bool
}

// A DataBreakpoint stops execution when a byte is stored to its address,
// optionally only when a particular value is stored.
type DataBreakpoint struct {
	Address     uint16
	Disabled    bool
	Conditional bool
	Value       byte // matched only when Conditional
}

// NewDebugger creates a debugger delivering hits to the handler.
func NewDebugger(handler BreakpointHandler) *Debugger {
	return &Debugger{
		handler:         handler,
		breakpoints:     make(map[uint16]*Breakpoint),
		dataBreakpoints: make(map[uint16]*DataBreakpoint),
	}
}

// GetBreakpoint returns the breakpoint at addr, or nil.
func (d *Debugger) GetBreakpoint(addr uint16) *Breakpoint {
	return d.breakpoints[addr]
}

// GetBreakpoints returns all breakpoints, sorted by address.
func (d *Debugger) GetBreakpoints() []*Breakpoint {
	var out []*Breakpoint
	for _, b := range d.breakpoints {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// AddBreakpoint sets a breakpoint at addr, replacing any existing one.
func (d *Debugger) AddBreakpoint(addr uint16) *Breakpoint {
	b := &Breakpoint{Address: addr}
	d.breakpoints[addr] = b
	return b
}

// RemoveBreakpoint clears the breakpoint at addr.
func (d *Debugger) RemoveBreakpoint(addr uint16) {
	delete(d.breakpoints, addr)
}

// GetDataBreakpoint returns the data breakpoint at addr, or nil.
func (d *Debugger) GetDataBreakpoint(addr uint16) *DataBreakpoint {
	return d.dataBreakpoints[addr]
}

// GetDataBreakpoints returns all data breakpoints, sorted by address.
func (d *Debugger) GetDataBreakpoints() []*DataBreakpoint {
	var out []*DataBreakpoint
	for _, b := range d.dataBreakpoints {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// AddDataBreakpoint sets an unconditional data breakpoint on addr.
func (d *Debugger) AddDataBreakpoint(addr uint16) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr}
	d.dataBreakpoints[addr] = b
	return b
}

// AddConditionalDataBreakpoint sets a data breakpoint on addr that fires
// only when value is stored.
func (d *Debugger) AddConditionalDataBreakpoint(addr uint16, value byte) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr, Conditional: true, Value: value}
	d.dataBreakpoints[addr] = b
	return b
}

// RemoveDataBreakpoint clears the data breakpoint at addr.
func (d *Debugger) RemoveDataBreakpoint(addr uint16) {
	delete(d.dataBreakpoints, addr)
}

func (d *Debugger) onUpdatePC(c *CPU, addr uint16) {
	if d.handler == nil {
		return
	}
	if b, ok := d.breakpoints[addr]; ok && !b.Disabled {
		d.handler.OnBreakpoint(c, b)
	}
}

func (d *Debugger) onDataStore(c *CPU, addr uint16, v byte) {
	if d.handler == nil {
		return
	}
	if b, ok := d.dataBreakpoints[addr]; ok && !b.Disabled {
		if !b.Conditional || b.Value == v {
			d.handler.OnDataBreakpoint(c, b)
		}
	}
}
