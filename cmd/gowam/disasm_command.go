package main

import (
	"fmt"
	"os"

	"github.com/rupertlssmith/gowam/engine"
	"github.com/rupertlssmith/gowam/internal/ngi"
)

// DisasmCommand implements "gowam disasm <factfile>": compile the fact
// file's clauses and dump the resulting bytecode via
// internal/instr.Disassemble.
type DisasmCommand struct{}

func (c *DisasmCommand) Help() string {
	return "Usage: gowam disasm <factfile>\n\n" +
		"Compiles a fact file's clauses and prints their bytecode."
}

func (c *DisasmCommand) Synopsis() string {
	return "Compile a fact file and print its bytecode"
}

func (c *DisasmCommand) Run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, c.Help())
		return 1
	}
	out := ngi.NewErrWriter(os.Stdout)

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	prog, err := loadProgram(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	e := engine.New()
	for _, cl := range prog.Clauses {
		if err := e.Compile(cl); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	e.Disassemble(out)
	if out.Err != nil {
		fmt.Fprintln(os.Stderr, out.Err)
		return 1
	}
	return 0
}
