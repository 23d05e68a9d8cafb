package compiler

import (
	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/instr"
)

// varInfo tracks one clause-local variable through allocation and emission.
type varInfo struct {
	perm      bool // lives in a Y slot, survives across a call
	firstGoal int  // lowest goal index (0 = head) it occurs in, for deterministic Y ordering
	occCount  int  // number of distinct goal positions this name occurs in
	assigned  bool // operand already allocated
	used      bool // at least one occurrence already emitted (selects _var vs _val form)
	op        instr.Operand
}

// classify runs a permanent/temporary variable analysis over a clause's
// head and (already comma-flattened) body: a variable is permanent if it
// occurs inside a disjunction, or in more than one distinct goal position.
// Goal index 0 is the head; body goal i is index i+1.
//
// The textbook WAM optimization (Warren 1983, via Aho/Warren-style
// analyses) keeps a variable temporary when its only two occurrences are
// the head and the first body goal, reading it out of its head-assigned
// register before that register number is reused for the call's own
// arguments. Doing that safely requires ordering a goal's argument-building
// instructions so every temporary-register read happens before any other
// argument overwrites the same register number — a parallel-assignment
// problem this compiler does not solve (see DESIGN.md). Treating any
// multi-position variable as permanent instead sacrifices that one
// optimization but is always correct: a Y slot is never aliased by
// argument-register traffic.
func classify(head *ast.Compound, body []ast.Term) map[string]*varInfo {
	occ := map[string]map[int]bool{}
	disj := map[string]bool{}

	walkGoal(head, 0, false, occ, disj)
	for i, g := range body {
		walkGoal(g, i+1, false, occ, disj)
	}

	vars := make(map[string]*varInfo, len(occ))
	for name, positions := range occ {
		first := -1
		for idx := range positions {
			if first == -1 || idx < first {
				first = idx
			}
		}
		perm := disj[name] || len(positions) >= 2
		vars[name] = &varInfo{perm: perm, firstGoal: first, occCount: len(positions)}
	}
	return vars
}

// walkGoal records every named-variable occurrence in t under goal index
// goalIdx. inDisj is true once a ";"/2 node has been crossed, since a
// variable that might only be bound on one branch must be permanent: its
// binding cannot be trusted to survive in a temporary register across the
// branch's own choice point.
func walkGoal(t ast.Term, goalIdx int, inDisj bool, occ map[string]map[int]bool, disj map[string]bool) {
	switch v := t.(type) {
	case *ast.Var:
		if v.Anonymous() {
			return
		}
		if occ[v.Name] == nil {
			occ[v.Name] = map[int]bool{}
		}
		occ[v.Name][goalIdx] = true
		if inDisj {
			disj[v.Name] = true
		}
	case *ast.Compound:
		nd := inDisj || v.Functor == ast.SemiFunctor
		for _, a := range v.Args {
			walkGoal(a, goalIdx, nd, occ, disj)
		}
	}
}

// isBareCut reports whether t is the cut atom "!" appearing directly as a
// goal (as opposed to as a data argument somewhere inside a compound).
func isBareCut(t ast.Term) bool {
	a, ok := t.(*ast.Atom)
	return ok && a.Name == ast.CutFunctor
}

// containsCut reports whether a cut occurs anywhere within t when t is used
// as a goal, recursing only through disjunction: that is the only construct
// that nests a fresh goal position inside a single top-level body goal
// (conjunction is already flattened before a clause reaches the compiler).
func containsCut(t ast.Term) bool {
	if isBareCut(t) {
		return true
	}
	if c, ok := t.(*ast.Compound); ok && c.Functor == ast.SemiFunctor && len(c.Args) == ast.ConsArity {
		return containsCut(c.Args[0]) || containsCut(c.Args[1])
	}
	return false
}

// needsCutBarrier reports whether this clause's body needs a get_level slot
// recorded at clause entry: true whenever a cut can execute after at least
// one other goal has already run (a non-first body goal, or any cut nested
// in a disjunction regardless of position), since by then the live B0
// register may have been overwritten by an intervening call. A bare cut as
// literally the first body goal needs no such slot: nothing has run yet, so
// the live B0 register is still exactly the value a snapshot would hold.
func needsCutBarrier(body []ast.Term) bool {
	for i, g := range body {
		if i == 0 && isBareCut(g) {
			continue
		}
		if containsCut(g) {
			return true
		}
	}
	return false
}

// maxCallArity returns the largest arity among the head and every body
// goal (recursing into disjunction branches, since those compile to real
// calls too). Temporary registers are numbered starting above this value
// so a variable's dedicated register can never alias a call's own
// argument-position register 1..arity, whatever order the two are built in
// (see DESIGN.md on register allocation).
func maxCallArity(head *ast.Compound, body []ast.Term) int {
	maxA := len(head.Args)
	for _, g := range body {
		if a := goalArity(g); a > maxA {
			maxA = a
		}
	}
	return maxA
}

// maxGoalArity is maxCallArity for a headless goal list (a query).
func maxGoalArity(goals []ast.Term) int {
	maxA := 0
	for _, g := range goals {
		if a := goalArity(g); a > maxA {
			maxA = a
		}
	}
	return maxA
}

func goalArity(t ast.Term) int {
	c, ok := t.(*ast.Compound)
	if !ok {
		return 0
	}
	if c.Functor == ast.SemiFunctor && len(c.Args) == ast.ConsArity {
		maxA := 0
		for _, branch := range c.Args {
			for _, g := range flattenGoal(branch) {
				if a := goalArity(g); a > maxA {
					maxA = a
				}
			}
		}
		return maxA
	}
	return len(c.Args)
}

// flattenGoal splits t on top-level ","/2 into its conjuncts, left to right.
// Used for a disjunction branch, which (unlike a clause body) is not
// pre-flattened by the caller.
func flattenGoal(t ast.Term) []ast.Term {
	c, ok := t.(*ast.Compound)
	if !ok || c.Functor != ast.CommaFunctor || len(c.Args) != ast.ConsArity {
		return []ast.Term{t}
	}
	return append(flattenGoal(c.Args[0]), flattenGoal(c.Args[1])...)
}
