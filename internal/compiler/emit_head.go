package compiler

import "github.com/rupertlssmith/gowam/internal/ast"

// headWork is one pending (register, term) pair in the breadth-first head-
// matching worklist: nested compound subterms are hoisted to a fresh
// register via unify_var and re-queued, so they're matched with the exact
// same get_struc/get_list/get_constant/get_var/get_val instruction forms as
// a top-level argument — spec.md §4.2's flattening, grounded on the
// classic Aho/Warren breadth-first compilation order.
type headWork struct {
	reg  int
	term ast.Term
}

// emitHead compiles a clause's head-argument matching instructions.
func (cx *clauseCtx) emitHead(head *ast.Compound) {
	queue := make([]headWork, 0, len(head.Args))
	for i, a := range head.Args {
		queue = append(queue, headWork{reg: i + 1, term: a})
	}
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		cx.emitGetTerm(w.reg, w.term, &queue)
	}
}

// emitGetTerm compiles the get_* instruction matching reg against term, at
// either head-argument depth or (via the worklist) a hoisted subterm depth.
func (cx *clauseCtx) emitGetTerm(reg int, t ast.Term, queue *[]headWork) {
	switch v := t.(type) {
	case *ast.Var:
		if v.Anonymous() {
			return // no constraint, no binding: nothing to check
		}
		op, first := cx.operandFor(v.Name)
		if first {
			cx.emit(opGetVar(op, reg))
		} else {
			cx.emit(opGetVal(op, reg))
		}
	case *ast.Atom:
		if v.Name == ast.NilAtom {
			cx.emit(opGetNil(reg))
		} else {
			cx.emit(opGetConstant(cx.functorRef(v.Name, 0), reg))
		}
	case *ast.Int:
		cx.emit(opGetConstant(cx.intFunctorRef(v.Value), reg))
	case *ast.Compound:
		if v.Functor == ast.ConsFunctor && len(v.Args) == ast.ConsArity {
			cx.emit(opGetList(reg))
		} else {
			cx.emit(opGetStruc(cx.functorRef(v.Functor, len(v.Args)), reg))
		}
		cx.emitUnifyArgs(v.Args, queue)
	}
}

// emitUnifyArgs compiles a structure/list's argument terms in order,
// collapsing each maximal run of singleton anonymous variables into a
// single unify_void k (spec.md Phase 9's peephole optimization) instead of
// one unify_void 1 per anonymous argument.
func (cx *clauseCtx) emitUnifyArgs(args []ast.Term, queue *[]headWork) {
	i := 0
	for i < len(args) {
		if isAnonVar(args[i]) {
			j := i
			for j < len(args) && isAnonVar(args[j]) {
				j++
			}
			cx.emit(opUnifyVoid(j - i))
			i = j
			continue
		}
		cx.emitUnifySub(args[i], queue)
		i++
	}
}

// isAnonVar reports whether t is the anonymous variable "_", which needs
// no binding or check of its own.
func isAnonVar(t ast.Term) bool {
	v, ok := t.(*ast.Var)
	return ok && v.Anonymous()
}

// emitUnifySub compiles one unify_* instruction for a non-anonymous
// structure/list argument, hoisting a nested compound to a fresh register
// queued for later get_struc/get_list processing.
func (cx *clauseCtx) emitUnifySub(t ast.Term, queue *[]headWork) {
	switch v := t.(type) {
	case *ast.Var:
		op, first := cx.operandFor(v.Name)
		if first {
			cx.emit(opUnifyVar(op))
		} else {
			cx.emit(opUnifyVal(op))
		}
	case *ast.Atom:
		cx.emit(opUnifyConstant(cx.functorRef(v.Name, 0)))
	case *ast.Int:
		cx.emit(opUnifyConstant(cx.intFunctorRef(v.Value)))
	case *ast.Compound:
		reg := cx.nextX
		cx.nextX++
		cx.emit(opUnifyVar(regOperand(reg)))
		*queue = append(*queue, headWork{reg: reg, term: v})
	}
}
