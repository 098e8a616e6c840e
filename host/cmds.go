// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "mfc-mon"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified address. The" +
			" breakpoint starts enabled.",
		Usage: "breakpoint add <address>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <address>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This prevents" +
			" the breakpoint from being hit when running the CPU.",
		Usage: "breakpoint disable <address>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	dbp := root.AddSubtree(cmd.TreeDescriptor{Name: "databreakpoint", Brief: "Data breakpoint commands"})
	dbp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List data breakpoints",
		Description: "List all current data breakpoints.",
		Usage:       "databreakpoint list",
		Data:        (*Host).cmdDataBreakpointList,
	})
	dbp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a data breakpoint",
		Description: "Add a breakpoint on a write to the specified" +
			" address. If a value is provided, the breakpoint is hit only" +
			" when that value is stored.",
		Usage: "databreakpoint add <address> [<value>]",
		Data:  (*Host).cmdDataBreakpointAdd,
	})
	dbp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a data breakpoint",
		Description: "Remove a data breakpoint at the specified address.",
		Usage:       "databreakpoint remove <address>",
		Data:        (*Host).cmdDataBreakpointRemove,
	})
	dbp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a data breakpoint",
		Description: "Enable a previously added data breakpoint.",
		Usage:       "databreakpoint enable <address>",
		Data:        (*Host).cmdDataBreakpointEnable,
	})
	dbp.AddCommand(cmd.CommandDescriptor{
		Name:        "disable",
		Brief:       "Disable a data breakpoint",
		Description: "Disable a previously added data breakpoint.",
		Usage:       "databreakpoint disable <address>",
		Data:        (*Host).cmdDataBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "call",
		Brief: "Call a subroutine",
		Description: "Call the subroutine at the specified address as if" +
			" by JSR, running until it returns, the CPU halts, or the cycle" +
			" budget is exhausted.",
		Usage: "call <address> [<max-cycles>]",
		Data:  (*Host).cmdCall,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "cpu",
		Brief: "Display or select the CPU core",
		Description: "With no arguments, display the emulated CPU core." +
			" Otherwise select a core by name (6502, 65c02, ...). Append" +
			" 'illegals' to enable the undocumented 6502 opcodes.",
		Usage: "cpu [<name>] [illegals]",
		Data:  (*Host).cmdCpu,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the specified" +
			" address. A line count may follow. Use '.' for the current" +
			" program counter and '$' to continue the previous disassembly.",
		Usage: "disassemble [<address>] [<count>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "evaluate",
		Brief: "Evaluate an expression",
		Description: "Evaluate a mathematical expression. Expressions may" +
			" reference registers and loaded labels.",
		Usage: "evaluate <expression>",
		Data:  (*Host).cmdEval,
	})

	// Label commands
	lb := root.AddSubtree(cmd.TreeDescriptor{Name: "labels", Brief: "Label table commands"})
	lb.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a label file",
		Description: "Load a compiler-generated label file (.lbl)," +
			" making its symbols available to expressions and annotating" +
			" disassembly output.",
		Usage: "labels load <filename>",
		Data:  (*Host).cmdLabelsLoad,
	})
	lb.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List loaded labels",
		Description: "List all loaded labels, sorted by address.",
		Usage:       "labels list",
		Data:        (*Host).cmdLabelsList,
	})
	lb.AddCommand(cmd.CommandDescriptor{
		Name:        "clear",
		Brief:       "Clear the label table",
		Description: "Discard all loaded labels.",
		Usage:       "labels clear",
		Data:        (*Host).cmdLabelsClear,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary image",
		Description: "Load a compiled binary image into memory. With no" +
			" address, the image loads at the platform's first bank origin." +
			" A label file with the same stem loads automatically when" +
			" present.",
		Usage: "load <filename> [<address>]",
		Data:  (*Host).cmdLoad,
	})

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory",
		Description: "Dump memory starting at the specified address. A" +
			" byte count may follow. Use '.' for the current program" +
			" counter and '$' to continue the previous dump.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:        "set",
		Brief:       "Set memory",
		Description: "Write one or more byte values starting at the specified address.",
		Usage:       "memory set <address> <byte> [<byte> ...]",
		Data:        (*Host).cmdMemorySet,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "platform",
		Brief: "Display or select the platform",
		Description: "With no arguments, display the current platform." +
			" Otherwise select a built-in platform by name or load a" +
			" descriptor file (.ini or .yaml).",
		Usage: "platform [<name-or-file>]",
		Data:  (*Host).cmdPlatform,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the monitor",
		Description: "Exit the monitor.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "register",
		Brief:       "Display registers",
		Description: "Display the CPU registers and the current instruction.",
		Usage:       "register",
		Data:        (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU from the specified address, or from the" +
			" current program counter. Execution continues until a" +
			" breakpoint is hit, the CPU halts, or ctrl-C is pressed.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a register or setting",
		Description: "With no arguments, display all settings. Otherwise" +
			" assign a value to a register or a monitor setting.",
		Usage: "set [<name> <value>]",
		Data:  (*Host).cmdSet,
	})

	// Step commands
	st := root.AddSubtree(cmd.TreeDescriptor{Name: "step", Brief: "Step commands"})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "in",
		Brief: "Step into next instruction",
		Description: "Step the CPU by a single instruction, stepping into" +
			" subroutine calls. A step count may be provided.",
		Usage: "step in [<count>]",
		Data:  (*Host).cmdStepIn,
	})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "over",
		Brief: "Step over next instruction",
		Description: "Step the CPU by a single instruction, stepping over" +
			" subroutine calls. A step count may be provided.",
		Usage: "step over [<count>]",
		Data:  (*Host).cmdStepOver,
	})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "out",
		Brief: "Step out of the current subroutine",
		Description: "Step the CPU until the current subroutine returns" +
			" with RTS or RTI.",
		Usage: "step out",
		Data:  (*Host).cmdStepOut,
	})

	// Add command shortcuts.
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("db", "databreakpoint")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("dbe", "databreakpoint enable")
	root.AddShortcut("dbd", "databreakpoint disable")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("g", "run")
	root.AddShortcut("l", "load")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("so", "step out")
	root.AddShortcut("?", "help")
	root.AddShortcut(".", "register")

	cmds = root
}
