// Package builtin is the built-in predicate registry of spec.md §4.6: a
// table of (name, arity) pairs the compiler substitutes with a
// specialized compilation strategy instead of an ordinary call/execute.
//
// spec.md's original built-in library is a text resource of Prolog
// clauses; this module has none (see DESIGN.md), so built-ins are
// registered here as plain Go data through explicit factory functions —
// Control, Arithmetic, Unify — one per REDESIGN FLAGS' guidance to
// replace reflection-driven construction with an explicit factory
// function per variant. The actual bytecode each Kind compiles to lives
// in internal/compiler, which is the only importer of this package; doing
// it the other way around would need this package to know about
// compiler's emission context, for no benefit.
package builtin

import "github.com/rupertlssmith/gowam/internal/instr"

// Kind selects which family of specialized compilation a built-in gets.
type Kind int

const (
	// KindControl covers true/0, fail/0, !/0, ,/2, ;/2, call/1: pure
	// control flow, compiled without consulting any argument value.
	KindControl Kind = iota
	// KindUnify covers =/2 and \=/2: a fused structural-unification test.
	KindUnify
	// KindArithIs covers is/2: evaluate and bind.
	KindArithIs
	// KindArithCompare covers the six arithmetic comparisons.
	KindArithCompare
)

// Entry is one registered built-in.
type Entry struct {
	Name    string
	Arity   int
	Kind    Kind
	Negate  bool              // KindUnify: \=/2 is =/2 negated
	Compare instr.CompareKind // KindArithCompare only
}

type key struct {
	name  string
	arity int
}

// Table is the built-in registry, keyed by (name, arity) like any
// ordinary predicate — a built-in and a user predicate can never collide
// because the compiler consults this table before ever touching the call
// table (spec.md §4.6).
type Table struct {
	m map[key]Entry
}

// New returns an empty registry.
func New() *Table {
	return &Table{m: make(map[key]Entry)}
}

// Add registers e, overwriting any previous entry for the same name/arity.
func (t *Table) Add(e Entry) {
	t.m[key{e.Name, e.Arity}] = e
}

// Lookup reports whether (name, arity) is a registered built-in.
func (t *Table) Lookup(name string, arity int) (Entry, bool) {
	e, ok := t.m[key{name, arity}]
	return e, ok
}

// Control is the factory for the pure control-flow built-ins: true/0,
// fail/0, the cut !/0, conjunction ,/2, disjunction ;/2, and the meta-call
// call/1.
func Control() []Entry {
	return []Entry{
		{Name: "true", Arity: 0, Kind: KindControl},
		{Name: "fail", Arity: 0, Kind: KindControl},
		{Name: "false", Arity: 0, Kind: KindControl},
		{Name: "!", Arity: 0, Kind: KindControl},
		{Name: ",", Arity: 2, Kind: KindControl},
		{Name: ";", Arity: 2, Kind: KindControl},
		{Name: "call", Arity: 1, Kind: KindControl},
	}
}

// Arithmetic is the factory for is/2 and the six arithmetic comparisons.
func Arithmetic() []Entry {
	return []Entry{
		{Name: "is", Arity: 2, Kind: KindArithIs},
		{Name: ">", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareGT},
		{Name: "<", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareLT},
		{Name: ">=", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareGE},
		{Name: "=<", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareLE},
		{Name: "=:=", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareArithEq},
		{Name: "=\\=", Arity: 2, Kind: KindArithCompare, Compare: instr.CompareArithNeq},
	}
}

// Unify is the factory for =/2 and \=/2.
func Unify() []Entry {
	return []Entry{
		{Name: "=", Arity: 2, Kind: KindUnify},
		{Name: "\\=", Arity: 2, Kind: KindUnify, Negate: true},
	}
}

// NewStandard returns a registry pre-populated with Control, Arithmetic,
// and Unify — the library an Engine loads by default.
func NewStandard() *Table {
	t := New()
	for _, e := range Control() {
		t.Add(e)
	}
	for _, e := range Arithmetic() {
		t.Add(e)
	}
	for _, e := range Unify() {
		t.Add(e)
	}
	return t
}
