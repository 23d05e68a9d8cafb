package engine

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/decode"
	"github.com/rupertlssmith/gowam/internal/instr"
	"github.com/rupertlssmith/gowam/internal/machine"
)

// queryFrame is the environment-stack index the query's own top-level
// frame always lands at: resetForQuery leaves EnvStack empty, and
// CompileQuery's emitClauseBody issues the query's own allocate (if any)
// before any nested call can push a frame of its own, so it is always the
// very first entry.
const queryFrame = 0

// Iterator walks a query's solution sequence one binding set at a time,
// in the shape of the retrieved Prolog-wrapper reference's
// sols.Next()/sols.Scan(): call Next until it returns false, inspecting
// Bindings after each true result.
type Iterator struct {
	e       *Engine
	started bool
	done    bool
	err     error
}

// Solutions returns an Iterator over the query passed to the most recent
// SetQuery call. On an engine that is not usable, the Iterator is already
// exhausted and its Err reports ErrNotUsable.
func (e *Engine) Solutions() *Iterator {
	if !e.usable {
		return &Iterator{e: e, done: true, err: ErrNotUsable}
	}
	return &Iterator{e: e}
}

// Next advances to the next solution, returning false when the search is
// exhausted or an error occurred (distinguishable via Err).
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	e := it.e

	var solved bool
	var err error
	if !it.started {
		it.started = true
		solved, err = e.m.Run()
	} else {
		solved, err = e.m.Redo()
	}

	if err != nil {
		it.err = err
		it.done = true
		e.usable = false
		return false
	}
	if !solved {
		it.done = true
		return false
	}
	return true
}

// Err reports the error, if any, that ended iteration early. A clean
// exhaustion of all solutions (Next returning false with no error) reports
// nil here, matching spec.md §7's "resolution failure folded into
// Iterator.Next() bool".
func (it *Iterator) Err() error {
	return it.err
}

// Bindings decodes every named query variable's current binding. Valid
// only immediately after a true-returning Next, before the next Next call
// (which may backtrack over the same environment frame's slots).
func (it *Iterator) Bindings() (map[string]ast.Term, error) {
	e := it.e
	out := make(map[string]ast.Term, len(e.queryVars))
	ctx := e.decoder.NewContext()

	for name, op := range e.queryVars {
		cell := readQueryOperand(e.m, op)
		t, err := ctx.DecodeCell(e.m, cell)
		if err != nil {
			if stderrors.Is(err, decode.ErrDepthExceeded) {
				out[name] = ast.A("...")
				continue
			}
			return nil, errors.Wrapf(err, "decoding %s", name)
		}
		out[name] = t
	}
	return out, nil
}

func readQueryOperand(m *machine.Machine, op instr.Operand) machine.Cell {
	if op.Mode == instr.ModeStack {
		return m.EnvStack[queryFrame].Y[op.Index]
	}
	return m.X[op.Index]
}
