package compiler

import (
	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/builtin"
)

// emitBuiltin compiles a built-in goal to its fused strategy (spec.md
// §4.6) instead of a call/execute through the call table.
func (cx *clauseCtx) emitBuiltin(e builtin.Entry, args []ast.Term, last, hasEnv bool) {
	switch e.Kind {
	case builtin.KindControl:
		switch e.Name {
		case "fail", "false":
			cx.emit(opFail())
			return
		case ";":
			cx.emitDisjunction(args[0], args[1], last, hasEnv)
			return
		case ast.CallFunctor:
			cx.emitArgs(args[:1])
			if last && hasEnv {
				cx.emit(opDeallocate())
			}
			cx.emit(opCallVar(1))
			if last {
				cx.emit(opProceed())
			}
			return
		case ast.CutFunctor:
			cx.emitCut()
		case "true":
			// nothing to do: matches unconditionally
		}
	case builtin.KindUnify:
		cx.emitArgs(args)
		if e.Negate {
			cx.emit(opBuiltinNotUnify())
		} else {
			cx.emit(opBuiltinUnify())
		}
	case builtin.KindArithIs:
		cx.emitArgs(args)
		cx.emit(opBuiltinIs())
	case builtin.KindArithCompare:
		cx.emitArgs(args)
		cx.emit(opBuiltinCompare(e.Compare))
	}
	if last {
		cx.emitTail(hasEnv)
	}
}

// emitDisjunction compiles (left ; right) as a local two-way choice,
// wrapped in its own try_me_else/trust_me pair (spec.md §4.2's treatment of
// disjunction as an inline clause-like choice). When the disjunction is not
// in the clause's tail position, an explicit jump skips the second branch's
// code after the first branch completes; in tail position each branch
// already ends by returning to the caller, so no jump is needed.
func (cx *clauseCtx) emitDisjunction(left, right ast.Term, last, hasEnv bool) {
	lelse := cx.newLabel("disj_else")
	lend := cx.newLabel("disj_end")

	cx.emit(opTryMeElse(lelse, 0))
	cx.emitBranch(flattenGoal(left), last, hasEnv)
	if !last {
		cx.emit(opJump(lend))
	}
	cx.mark(lelse)
	cx.emit(opTrustMe())
	cx.emitBranch(flattenGoal(right), last, hasEnv)
	if !last {
		cx.mark(lend)
	}
}

// emitBranch compiles one disjunction branch's goal sequence, honoring the
// clause's overall tail position only for the branch's own final goal.
func (cx *clauseCtx) emitBranch(goals []ast.Term, last, hasEnv bool) {
	if len(goals) == 0 {
		if last {
			cx.emitTail(hasEnv)
		}
		return
	}
	for i, g := range goals {
		cx.emitGoal(g, last && i == len(goals)-1, hasEnv)
	}
}
