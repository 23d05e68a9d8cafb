// Package engine is the facade of spec.md §4.6: it composes
// internal/intern, internal/builtin, internal/compiler and
// internal/machine into the single entry point a caller drives — Reset,
// Compile, SetQuery, Solutions — the way the retrieved Prolog-wrapper
// reference file composes an engine behind a Query/Next/Scan shape,
// though here every layer underneath is gowam's own.
package engine

import (
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/builtin"
	"github.com/rupertlssmith/gowam/internal/compiler"
	"github.com/rupertlssmith/gowam/internal/decode"
	"github.com/rupertlssmith/gowam/internal/instr"
	"github.com/rupertlssmith/gowam/internal/intern"
	"github.com/rupertlssmith/gowam/internal/machine"
	"github.com/rupertlssmith/gowam/internal/monitor"
)

// ErrNotUsable is returned by Compile/SetQuery (and reported by the Err of
// the Iterator that Solutions returns) after a prior solution search ended
// in an error from the machine (an invariant violation, resource
// exhaustion, a linkage error or an exhausted step budget); Reset clears it.
var ErrNotUsable = errors.New("engine: not usable, call Reset")

// predKey identifies one predicate by name/arity, the unit CompilePredicate
// recompiles whenever a new clause is added to it.
type predKey struct {
	name  string
	arity int
}

// Engine is the facade spec.md §4.6 describes. Not safe for concurrent use
// (spec.md §5): the machine beneath it is a single synchronous WAM.
type Engine struct {
	interner *intern.Table
	builtins *builtin.Table
	compiler *compiler.Compiler
	m        *machine.Machine
	decoder  *decode.Decoder
	log      hclog.Logger

	machineOpts []machine.Option

	clauses map[predKey][]*ast.Clause
	defs    map[uint32]machine.CallEntry

	queryVars map[string]instr.Operand
	usable    bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// Logger sets the structured logger threaded into the engine and its
// machine. Default hclog.NewNullLogger().
func Logger(l hclog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// MachineOptions passes additional machine.Option values through to the
// underlying machine.New call (sizes, step budget, an Observer's owner
// wiring a monitor, and so on).
func MachineOptions(opts ...machine.Option) Option {
	return func(e *Engine) { e.machineOpts = append(e.machineOpts, opts...) }
}

// MaxDecodeDepth overrides the heap decoder's recursion limit (see
// internal/decode.WithMaxDepth); only relevant for cyclic, occurs-check-free
// bindings (spec.md §8 scenario 6).
func MaxDecodeDepth(n int) Option {
	return func(e *Engine) { e.decoder = decode.New(decode.WithMaxDepth(n)) }
}

// WithMonitor attaches mon as the underlying machine's step observer, so
// every Run/Redo call made through this Engine also drives mon.OnReset/
// OnCodeUpdate/OnExecute/OnStep (spec.md §2 module 8's debug surface). mon
// survives Reset: resetForQuery only calls machine.Reset, which keeps the
// installed observer, and Reset (the public one) rebuilds the machine with
// the same machine.WithObserver option again via machineOpts, so a monitor
// installed at New time keeps observing across engine resets too.
func WithMonitor(mon monitor.Monitor) Option {
	return MachineOptions(machine.WithObserver(mon))
}

// New constructs an Engine and performs an initial Reset.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:     hclog.NewNullLogger(),
		decoder: decode.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset discards every compiled predicate and the machine's entire state,
// re-installs the standard built-in table, and leaves the engine ready for
// a fresh sequence of Compile calls. Matches spec.md §4.6's "Reset"
// operation and the error-handling design's "Engine must be Reset before
// reuse" rule (spec.md §7).
func (e *Engine) Reset() {
	e.interner = intern.New()
	e.builtins = builtin.NewStandard()
	e.compiler = compiler.New(e.interner, e.builtins)
	e.clauses = make(map[predKey][]*ast.Clause)
	e.defs = make(map[uint32]machine.CallEntry)
	e.queryVars = nil

	nilID := e.interner.Functor(ast.NilAtom, 0)
	opts := append([]machine.Option{
		machine.Logger(e.log),
		machine.NilFunctor(uint32(nilID)),
		machine.FunctorNamer(func(id int) (string, int, bool) {
			k, ok := e.lookupFunctorKey(intern.FunctorID(id))
			return k.Name, k.Arity, ok
		}),
		machine.MakeInt(func(v int64) int {
			return int(e.interner.Functor(intFunctorName(v), 0))
		}),
	}, e.machineOpts...)
	e.m = machine.New(opts...)

	e.usable = true
	e.log.Debug("engine reset")
}

func (e *Engine) lookupFunctorKey(id intern.FunctorID) (intern.FunctorKey, bool) {
	if int(id) < 0 || int(id) >= e.interner.NumFunctors() {
		return intern.FunctorKey{}, false
	}
	return e.interner.Deintern(id), true
}

// Compile adds one clause to its predicate's definition and immediately
// recompiles that predicate's whole clause list into the machine's code
// buffer, replacing whatever was previously defined for it (spec.md
// §4.4's "redefinition replaces" call-table semantics). Clauses of one
// predicate may be added incrementally across several Compile calls; the
// relative order they're added in is their resolution order.
func (e *Engine) Compile(cl *ast.Clause) error {
	if !e.usable {
		return ErrNotUsable
	}
	key := predKey{name: cl.Head.Functor, arity: len(cl.Head.Args)}
	e.clauses[key] = append(e.clauses[key], cl)

	code, patches, arity, err := e.compiler.CompilePredicate(e.clauses[key])
	if err != nil {
		e.log.Warn("compile failed", "predicate", key.name, "arity", key.arity, "error", err)
		return errors.Wrapf(err, "compiling %s/%d", key.name, key.arity)
	}
	base := e.m.CodeLen()
	compiler.PatchBase(code, patches, base)
	start := e.m.LoadCode(code)

	fid := e.interner.Functor(key.name, key.arity)
	entry := machine.CallEntry{Addr: start, Arity: arity}
	e.defs[uint32(fid)] = entry
	e.m.Define(uint32(fid), entry)
	return nil
}

// SetQuery compiles q and positions the machine to begin solving it. Call
// Solutions afterward to drive the search.
func (e *Engine) SetQuery(q *ast.Query) error {
	if !e.usable {
		return ErrNotUsable
	}
	e.resetForQuery()

	code, patches, vars, err := e.compiler.CompileQuery(q)
	if err != nil {
		e.log.Warn("query compile failed", "error", err)
		return errors.Wrap(err, "compiling query")
	}
	base := e.m.CodeLen()
	compiler.PatchBase(code, patches, base)
	start := e.m.LoadCode(code)

	e.m.IP = start
	e.queryVars = vars
	return nil
}

// resetForQuery clears the machine's heap/register/stack state for a new
// query without losing the compiled predicate database: machine.Reset
// wipes the call table along with everything else, so every remembered
// definition is replayed into it immediately afterward. The code buffer
// itself is never touched by machine.Reset, so every predicate's entry
// address from a prior Compile remains valid.
func (e *Engine) resetForQuery() {
	e.m.Reset()
	for fid, entry := range e.defs {
		e.m.Define(fid, entry)
	}
}

func intFunctorName(v int64) string {
	return ast.I(v).String()
}

// Disassemble writes every instruction compiled so far to w, in source
// order, via internal/instr.DisassembleAll. Intended for cmd/gowam's
// "disasm" subcommand and for debugging; not part of the resolution API.
func (e *Engine) Disassemble(w io.Writer) {
	instr.DisassembleAll(e.m.Code, func(id uint32) (string, int, bool) {
		k, ok := e.lookupFunctorKey(intern.FunctorID(id))
		return k.Name, k.Arity, ok
	}, w)
}
