// Command gowam is the thin driver of spec.md §4.10 / SPEC_FULL.md §4.10:
// it compiles a fact file through the package's minimal line-oriented
// reader and either runs the queries it contains or disassembles the
// resulting bytecode. It is not a REPL and not a general Prolog front
// end (see loader.go's doc comment) — matching the carve-out in §1 that
// keeps the excluded "interactive terminal front-end" out of scope while
// still giving the engine a command-line entry point, the way the
// teacher's cmd/retro drives vm.Instance.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
)

func main() {
	c := cli.NewCLI("gowam", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"run":    func() (cli.Command, error) { return &RunCommand{}, nil },
		"disasm": func() (cli.Command, error) { return &DisasmCommand{}, nil },
	}

	status, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(status)
}
