// Copyright 2026 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements the interactive machine monitor. The monitor
// hosts an emulated 6502-family system with 64K of memory: it loads the
// compiler's binary images and label files, runs and steps machine code,
// sets address and data breakpoints, dumps and patches memory,
// disassembles code, and evaluates expressions over registers and labels.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/beevik/cmd"

	"github.com/mfc-lang/mfc/asm"
	"github.com/mfc-lang/mfc/cpu"
	"github.com/mfc-lang/mfc/disasm"
	"github.com/mfc-lang/mfc/ir"
	"github.com/mfc-lang/mfc/platform"
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
	stateStepOverBreakpoint
)

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displayAnnotations

	displayAll = displayRegisters | displayCycles | displayAnnotations
)

// A Host is one monitor session: an emulated CPU and memory plus the
// interactive command state around them.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	dis         *disasm.Disassembler
	plat        *platform.Platform
	illegals    bool
	symbols     map[string]uint16
	addrLabels  map[uint16]string
	lastCmd     *cmd.Selection
	state       state
	exprParser  *exprParser
	settings    *settings
}

// New creates a monitor session targeting the built-in "sim" platform.
func New() *Host {
	h := &Host{
		state:      stateProcessingCommands,
		exprParser: newExprParser(),
		settings:   newSettings(),
		symbols:    make(map[string]uint16),
		addrLabels: make(map[uint16]string),
	}

	h.mem = cpu.NewFlatMemory()
	p, _ := platform.Builtin("sim")
	h.usePlatform(p)

	return h
}

// usePlatform switches the active platform, rebuilding the CPU core for
// its architecture. Memory contents survive the switch.
func (h *Host) usePlatform(p *platform.Platform) {
	h.plat = p
	h.rebuildCore(p.Arch, h.illegals)
}

func (h *Host) rebuildCore(arch ir.Arch, illegals bool) {
	h.illegals = illegals
	h.cpu = cpu.New(arch, illegals, h.mem)
	h.dis = disasm.New(arch, illegals)
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)
	if len(h.plat.Banks) > 0 {
		h.cpu.SetPC(uint16(h.plat.Banks[0].Start))
	}
}

// RunCommands accepts monitor commands from a reader and writes results to
// a writer. If interactive, a prompt is displayed while the host waits for
// the next command.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.printf("mfc monitor — platform %s, cpu %s\n", h.plat.Name, h.cpu.Arch)
		h.displayPC()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}
}

// Break interrupts a running CPU.
func (h *Host) Break() {
	h.println()

	if h.state == stateRunning {
		h.displayPC()
	}
	if h.state == stateProcessingCommands {
		h.prompt()
	}
	h.state = stateProcessingCommands
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	switch {
	case len(c.Args) == 0:
		h.displayCommands(cmds)
	default:
		s, err := cmds.Lookup(strings.Join(c.Args, " "))
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		switch {
		case s.Command.Subtree != nil:
			h.displayCommands(s.Command.Subtree)
		default:
			if s.Command.Usage != "" {
				h.printf("Syntax: %s\n", s.Command.Usage)
			}
			switch {
			case s.Command.Description != "":
				h.printf("%s\n", s.Command.Description)
			case s.Command.Brief != "":
				h.printf("%s.\n", s.Command.Brief)
			}
		}
	}
	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}
	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}
	b.Disabled = false
	h.printf("Breakpoint at $%04X enabled.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}
	b.Disabled = true
	h.printf("Breakpoint at $%04X disabled.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, byte(value))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}
	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}
	b.Disabled = false
	h.printf("Data breakpoint at $%04X enabled.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointDisable(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}
	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}
	b.Disabled = true
	h.printf("Data breakpoint at $%04X disabled.\n", addr)
	return nil
}

func (h *Host) cmdCall(c cmd.Selection) error {
	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}

	maxCycles := uint64(100_000_000)
	if len(c.Args) > 1 {
		n, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		maxCycles = uint64(n)
	}

	before := h.cpu.Cycles
	returned := h.cpu.RunSubroutine(addr, maxCycles)
	switch {
	case returned:
		h.printf("Subroutine at $%04X returned after %d cycles.\n", addr, h.cpu.Cycles-before)
	case h.cpu.Halted:
		h.printf("CPU halted at $%04X.\n", h.cpu.LastPC)
		h.cpu.Halted = false
	default:
		h.printf("Cycle budget exhausted at $%04X.\n", h.cpu.Reg.PC)
	}
	h.println(registerString(&h.cpu.Reg))
	return nil
}

func (h *Host) cmdCpu(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.printf("CPU: %s, illegals %s\n", h.cpu.Arch, onOff(h.illegals))
		return nil
	}

	arch, err := platform.ArchNamed(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	illegals := false
	if len(c.Args) > 1 {
		if strings.ToLower(c.Args[1]) != "illegals" {
			h.printf("Unrecognized option '%s'.\n", c.Args[1])
			return nil
		}
		illegals = true
	}

	pc := h.cpu.Reg.PC
	h.rebuildCore(arch, illegals)
	h.cpu.SetPC(pc)
	h.printf("CPU set to %s, illegals %s.\n", arch, onOff(illegals))
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	addr, ok := h.addrToken(c.Args[0], h.settings.NextDisasmAddr)
	if !ok {
		return nil
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, displayAnnotations)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEval(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	expr := strings.Join(c.Args, " ")
	v, err := h.parseExpr(expr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X\n", v)
	return nil
}

func (h *Host) cmdLabelsLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".lbl"
	}
	h.loadLabels(filename)
	return nil
}

func (h *Host) cmdLabelsList(c cmd.Selection) error {
	type pair struct {
		name string
		addr uint16
	}
	var all []pair
	for name, addr := range h.symbols {
		all = append(all, pair{name, addr})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].addr != all[j].addr {
			return all[i].addr < all[j].addr
		}
		return all[i].name < all[j].name
	})
	for _, p := range all {
		h.printf("$%04X %s\n", p.addr, p.name)
	}
	return nil
}

func (h *Host) cmdLabelsClear(c cmd.Selection) error {
	h.symbols = make(map[string]uint16)
	h.addrLabels = make(map[uint16]string)
	h.println("Label table cleared.")
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	filename := c.Args[0]
	loadAddr := -1
	if len(c.Args) >= 2 {
		addr, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		loadAddr = int(addr)
	}

	h.load(filename, loadAddr)
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	addr, ok := h.addrToken(c.Args[0], h.settings.NextMemDumpAddr)
	if !ok {
		return nil
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c.Command)
		return nil
	}

	addr, ok := h.argAddr(c, 0)
	if !ok {
		return nil
	}

	for i, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.mem.StoreByte(addr+uint16(i), byte(v))
	}
	h.printf("%d byte(s) stored at $%04X.\n", len(c.Args)-1, addr)
	return nil
}

func (h *Host) cmdPlatform(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.printf("Platform: %s (cpu %s)\n", h.plat.Name, h.plat.Arch)
		for _, b := range h.plat.Banks {
			h.printf("    bank %-10s $%04X..$%04X\n", b.Name, b.Start, b.End)
		}
		h.printf("Built-in platforms: %s\n", strings.Join(sortedNames(platform.BuiltinNames()), " "))
		return nil
	}

	name := c.Args[0]
	p, ok := platform.Builtin(name)
	if !ok {
		var err error
		p, err = platform.Load(name)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.usePlatform(p)
	h.printf("Platform set to %s (cpu %s).\n", p.Name, p.Arch)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errors.New("exiting monitor")
}

func (h *Host) cmdRegister(c cmd.Selection) error {
	d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
	h.println(d)
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		pc, ok := h.argAddr(c, 0)
		if !ok {
			return nil
		}
		h.cpu.SetPC(pc)
		h.cpu.Halted = false
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)

	h.state = stateRunning
	for h.state == stateRunning && !h.cpu.Halted {
		h.step()
	}
	h.state = stateProcessingCommands

	if h.cpu.Halted {
		h.printf("CPU halted at $%04X.\n", h.cpu.LastPC)
	}

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Settings:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c.Command)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		v, errV := h.exprParser.Parse(value, h)

		// Setting a register?
		if errV == nil && h.setRegister(key, v) {
			return nil
		}

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			err = errV
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}

		h.onSettingsUpdate()
	}

	return nil
}

// setRegister handles "set <register> <value>" and reports whether the key
// named a register.
func (h *Host) setRegister(key string, v int64) bool {
	switch key {
	case "a":
		h.cpu.Reg.A = byte(v)
	case "x":
		h.cpu.Reg.X = byte(v)
	case "y":
		h.cpu.Reg.Y = byte(v)
	case "sp":
		h.cpu.Reg.SP = byte(v)
	case ".", "pc":
		h.cpu.Reg.PC = uint16(v)
		h.printf("Register PC set to $%04X.\n", uint16(v))
		return true
	case "carry":
		h.cpu.Reg.Carry = v != 0
	case "zero":
		h.cpu.Reg.Zero = v != 0
	case "decimal":
		h.cpu.Reg.Decimal = v != 0
	case "overflow":
		h.cpu.Reg.Overflow = v != 0
	case "sign":
		h.cpu.Reg.Sign = v != 0
	default:
		return false
	}
	h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), byte(v))
	return true
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err == nil {
			count = int(n)
		}
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning && !h.cpu.Halted; i-- {
		h.step()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err == nil {
			count = int(n)
		}
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning && !h.cpu.Halted; i-- {
		h.stepOver()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdStepOut(c cmd.Selection) error {
	h.state = stateRunning
	for h.state == stateRunning && !h.cpu.Halted {
		op, _, _ := h.cpu.InstructionAt(h.cpu.Reg.PC)
		h.step()
		if op == ir.RTS || op == ir.RTI {
			break
		}
	}
	h.state = stateProcessingCommands

	h.displayPC()
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

// load reads a binary image into memory. A negative addr selects the
// platform's first bank origin. A label file with the same stem loads
// automatically when present.
func (h *Host) load(filename string, addr int) {
	data, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return
	}

	origin := addr
	if origin < 0 {
		if len(h.plat.Banks) == 0 {
			h.printf("File '%s' requires an address.\n", filepath.Base(filename))
			return
		}
		origin = h.plat.Banks[0].Start
	}
	if origin+len(data) > 0x10000 {
		h.printf("File '%s' does not fit at $%04X.\n", filepath.Base(filename), origin)
		return
	}

	h.mem.StoreBytes(uint16(origin), data)
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename), origin, origin+len(data)-1)

	ext := filepath.Ext(filename)
	lblFile := filename[:len(filename)-len(ext)] + ".lbl"
	if _, err := os.Stat(lblFile); err == nil {
		h.loadLabels(lblFile)
	}

	h.cpu.Halted = false
	h.cpu.SetPC(uint16(origin))
}

func (h *Host) loadLabels(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return
	}
	defer file.Close()

	labels, err := asm.ParseLabels(file)
	if err != nil {
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return
	}

	for _, s := range labels {
		h.symbols[s.Name] = uint16(s.Address)
		h.addrLabels[uint16(s.Address)] = s.Name
	}
	h.printf("Loaded %d labels from '%s'.\n", len(labels), filepath.Base(filename))
}

func (h *Host) step() {
	h.cpu.Step()
}

// stepOver steps one instruction, running JSR callees to completion with a
// temporary breakpoint on the return address.
func (h *Host) stepOver() {
	op, _, length := h.cpu.InstructionAt(h.cpu.Reg.PC)
	if op != ir.JSR {
		h.cpu.Step()
		return
	}

	next := h.cpu.Reg.PC + uint16(length)
	tmpBreakpointCreated := false
	b := h.debugger.GetBreakpoint(next)
	if b == nil {
		b = h.debugger.AddBreakpoint(next)
		tmpBreakpointCreated = true
	}
	b.StepOver = true

	for h.state == stateRunning && !h.cpu.Halted {
		h.step()
	}
	b.StepOver = false

	if h.state == stateStepOverBreakpoint {
		h.state = stateRunning
	}

	if tmpBreakpointCreated {
		h.debugger.RemoveBreakpoint(next)
	}
}

func (h *Host) onSettingsUpdate() {
	h.exprParser.hexMode = h.settings.HexMode
}

func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		v = 0x10000 + v
	}
	return uint16(v), nil
}

// argAddr parses positional argument i as an address, displaying usage or
// the parse error on failure.
func (h *Host) argAddr(c cmd.Selection, i int) (uint16, bool) {
	if len(c.Args) <= i {
		h.displayUsage(c.Command)
		return 0, false
	}
	addr, err := h.parseExpr(c.Args[i])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

// addrToken resolves the '$' and '.' address shorthands.
func (h *Host) addrToken(tok string, cont uint16) (uint16, bool) {
	switch tok {
	case "$":
		if cont == 0 {
			cont = h.cpu.Reg.PC
		}
		return cont, true
	case ".":
		return h.cpu.Reg.PC, true
	default:
		addr, err := h.parseExpr(tok)
		if err != nil {
			h.printf("%v\n", err)
			return 0, false
		}
		return addr, true
	}
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	var line string
	line, next = h.dis.Disassemble(h.mem, addr)

	b := h.dis.InstructionBytes(h.mem, addr)
	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if flags&displayRegisters != 0 {
		str += " " + registerString(&h.cpu.Reg)
	}
	if flags&displayCycles != 0 {
		str += fmt.Sprintf(" C=%-12d", h.cpu.Cycles)
	}
	if flags&displayAnnotations != 0 {
		if name, ok := h.addrLabels[addr]; ok {
			str += " ; " + name
		}
	}

	return str, next
}

// dumpMemory displays memory as eight hex bytes per row with a printable
// column.
func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	for row := uint32(addr0) &^ 7; row <= uint32(addr1); row += 8 {
		hexCol := make([]string, 8)
		asciiCol := make([]byte, 8)
		for i := uint32(0); i < 8; i++ {
			a := row + i
			if a >= uint32(addr0) && a <= uint32(addr1) && a <= 0xffff {
				v := h.mem.LoadByte(uint16(a))
				hexCol[i] = fmt.Sprintf("%02X", v)
				asciiCol[i] = toPrintableChar(v)
			} else {
				hexCol[i] = "  "
				asciiCol[i] = ' '
			}
		}
		h.printf("%04X-   %s   %s\n", uint16(row), strings.Join(hexCol, " "), asciiCol)
	}
}

func (h *Host) displayUsage(c *cmd.Command) {
	if c.Usage != "" {
		h.printf("Syntax: %s\n", c.Usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(commands *cmd.Tree) {
	h.printf("%s commands:\n", commands.Name)
	for _, c := range commands.Commands {
		if c.Brief != "" {
			h.printf("    %-15s  %s\n", c.Name, c.Brief)
		}
	}
}

// resolveIdentifier looks up an expression identifier: registers first,
// then loaded labels.
func (h *Host) resolveIdentifier(s string) (int64, error) {
	ls := strings.ToLower(s)

	switch ls {
	case "a":
		return int64(h.cpu.Reg.A), nil
	case "x":
		return int64(h.cpu.Reg.X), nil
	case "y":
		return int64(h.cpu.Reg.Y), nil
	case "sp":
		return int64(h.cpu.Reg.SP) | 0x0100, nil
	case ".", "pc":
		return int64(h.cpu.Reg.PC), nil
	}

	if addr, ok := h.symbols[s]; ok {
		return int64(addr), nil
	}
	for name, addr := range h.symbols {
		if strings.ToLower(name) == ls {
			return int64(addr), nil
		}
	}

	return 0, fmt.Errorf("identifier '%s' not found", s)
}

func (h *Host) onBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	if b.StepOver {
		h.state = stateStepOverBreakpoint
	} else {
		h.state = stateBreakpoint
		h.printf("Breakpoint hit at $%04X.\n", b.Address)
		h.displayPC()
	}
}

func (h *Host) onDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	h.state = stateBreakpoint

	if c.LastPC != c.Reg.PC {
		d, _ := h.disassemble(c.LastPC, displayAll)
		h.println(d)
	}

	h.displayPC()
}

func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}
