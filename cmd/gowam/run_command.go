package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rupertlssmith/gowam/engine"
	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/ngi"
)

// RunCommand implements "gowam run <factfile> [query]": load the fact
// file's clauses, then solve either the query given on the command line
// or every "?-" query embedded in the file, printing each solution's
// bindings until the search is exhausted.
type RunCommand struct{}

func (c *RunCommand) Help() string {
	return "Usage: gowam run <factfile> [query]\n\n" +
		"Loads a fact file through gowam's minimal line-oriented reader,\n" +
		"compiles its clauses, and runs either the given query string or\n" +
		"every \"?-\" query embedded in the file."
}

func (c *RunCommand) Synopsis() string {
	return "Compile a fact file and run its queries"
}

func (c *RunCommand) Run(args []string) int {
	if len(args) < 1 {
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

	queries := prog.Queries
	if len(args) >= 2 {
		goals, err := parseGoals(strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		queries = []*ast.Query{{Goals: goals}}
	}

	for _, q := range queries {
		if err := runQuery(out, e, q); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if out.Err != nil {
		fmt.Fprintln(os.Stderr, out.Err)
		return 1
	}
	return 0
}

func runQuery(out *ngi.ErrWriter, e *engine.Engine, q *ast.Query) error {
	if err := e.SetQuery(q); err != nil {
		return err
	}
	it := e.Solutions()
	n := 0
	for it.Next() {
		n++
		b, err := it.Bindings()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "solution %d: %s\n", n, formatBindings(b))
	}
	if err := it.Err(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "false.")
	}
	return nil
}

func formatBindings(b map[string]ast.Term) string {
	if len(b) == 0 {
		return "true."
	}
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s = %s", name, b[name].String())
	}
	return strings.Join(parts, ", ")
}
