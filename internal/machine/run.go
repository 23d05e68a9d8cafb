package machine

import (
	"github.com/pkg/errors"

	"github.com/rupertlssmith/gowam/internal/instr"
)

// encodeInt and decodeInt stash a plain machine-level int (a cut barrier,
// never a term) inside a Cell-typed permanent-variable slot via get_level/
// cut. These values are never read by unify/deref: a dedicated Y slot
// used this way is never also used to hold a term.
func encodeInt(v int) Cell  { return Cell(uint32(int32(v))) }
func decodeInt(c Cell) int  { return int(int32(uint32(c))) }

func (m *Machine) readOperand(o instr.Operand) Cell {
	if o.Mode == instr.ModeStack {
		return m.EnvStack[m.EP].Y[o.Index]
	}
	return m.X[o.Index]
}

func (m *Machine) writeOperand(o instr.Operand, v Cell) {
	if o.Mode == instr.ModeStack {
		m.EnvStack[m.EP].Y[o.Index] = v
	} else {
		m.X[o.Index] = v
	}
}

// derefArg resolves argument register Ai to a (possibly already-dereffed)
// heap address plus the cell found there. hasAddr is false when Ai holds a
// self-contained value (CON/STR/LIS placed directly by put_struc/put_list/
// put_constant) with no backing variable cell to bind.
func (m *Machine) derefArg(ai int) (addr int, cell Cell, hasAddr bool) {
	c := m.X[ai]
	if c.Tag() == TagRef {
		a := m.deref(c.Payload())
		return a, m.Heap[a], true
	}
	return -1, c, false
}

// Run executes from the current IP until a solution is found (a proceed
// with no caller to return to), the choice-point stack is exhausted (no
// more solutions), or an error occurs. Call Redo to resume searching for
// the next solution after a successful Run.
func (m *Machine) Run() (solved bool, err error) {
	m.halted = false
	m.obs.OnExecute()
	for {
		if m.stepBudget > 0 {
			m.steps++
			if m.steps > m.stepBudget {
				return false, errors.Wrapf(ErrBudgetExhausted, "at ip=%d", m.IP)
			}
		}
		if m.IP < 0 || m.IP >= len(m.Code) {
			return false, errors.Wrapf(ErrInvariant, "ip out of range: %d", m.IP)
		}
		ins, next := instr.Decode(m.Code, m.IP)
		if m.observed() {
			m.log.Trace("step", "ip", m.IP, "op", ins.Op.String(), "hp", m.HP, "b", m.B, "ep", m.EP)
		}
		m.obs.OnStep(Snapshot{IP: m.IP, HP: m.HP, HBP: m.HBP, SP: m.SP, B: m.B, B0: m.B0, EP: m.EP, TRP: len(m.Trail), WriteMode: m.writeMode, Op: ins.Op.String()})

		ok, stepErr := m.step(ins, next)
		if stepErr != nil {
			return false, stepErr
		}
		if !ok {
			if !m.backtrack() {
				return false, nil
			}
			continue
		}
		if m.halted {
			return true, nil
		}
	}
}

// Redo resumes the search for another solution after a prior successful
// Run, by forcing a backtrack into the last choice point.
func (m *Machine) Redo() (solved bool, err error) {
	if !m.backtrack() {
		return false, nil
	}
	return m.Run()
}

// step executes a single instruction. ok is false to signal a unification
// (or lookup) mismatch that should trigger backtracking rather than a
// hard error.
func (m *Machine) step(ins instr.Instruction, next int) (ok bool, err error) {
	switch ins.Op {

	// --- query-side argument construction ---
	case instr.OpPutVar:
		addr, e := m.heapPush(MkRef(0))
		if e != nil {
			return false, e
		}
		m.Heap[addr] = MkRef(addr)
		m.writeOperand(ins.Dst, m.Heap[addr])
		m.X[ins.Arg] = m.Heap[addr]
	case instr.OpPutVal:
		m.X[ins.Arg] = m.readOperand(ins.Dst)
	case instr.OpPutStruc:
		strAddr, e := m.heapPush(0)
		if e != nil {
			return false, e
		}
		if _, e := m.heapPush(FunctorWord(ins.Functor.Arity, int(ins.Functor.ID))); e != nil {
			return false, e
		}
		m.Heap[strAddr] = MkStr(strAddr + 1)
		m.X[ins.Arg] = MkStr(strAddr + 1)
		m.writeMode = true
	case instr.OpPutList:
		m.X[ins.Arg] = MkLis(m.HP)
		m.writeMode = true
	case instr.OpPutConstant:
		m.X[ins.Arg] = MkCon(int(ins.Functor.ID))
	case instr.OpPutVoid:
		for j := 0; j < ins.N; j++ {
			addr, e := m.heapPush(0)
			if e != nil {
				return false, e
			}
			m.Heap[addr] = MkRef(addr)
			m.X[ins.Arg+j] = m.Heap[addr]
		}

	case instr.OpSetVar:
		addr, e := m.heapPush(0)
		if e != nil {
			return false, e
		}
		m.Heap[addr] = MkRef(addr)
		m.writeOperand(ins.Dst, m.Heap[addr])
	case instr.OpSetVal:
		if _, e := m.heapPush(m.readOperand(ins.Dst)); e != nil {
			return false, e
		}
	case instr.OpSetConstant:
		if _, e := m.heapPush(MkCon(int(ins.Functor.ID))); e != nil {
			return false, e
		}
	case instr.OpSetVoid:
		for j := 0; j < ins.N; j++ {
			addr, e := m.heapPush(0)
			if e != nil {
				return false, e
			}
			m.Heap[addr] = MkRef(addr)
		}

	// --- head matching ---
	case instr.OpGetVar:
		m.writeOperand(ins.Dst, m.X[ins.Arg])
	case instr.OpGetVal:
		if !m.unifyCells(m.readOperand(ins.Dst), m.X[ins.Arg]) {
			return false, nil
		}
	case instr.OpGetStruc:
		addr, cell, hasAddr := m.derefArg(ins.Arg)
		switch {
		case hasAddr && cell.Tag() == TagRef:
			strAddr, e := m.heapPush(0)
			if e != nil {
				return false, e
			}
			if _, e := m.heapPush(FunctorWord(ins.Functor.Arity, int(ins.Functor.ID))); e != nil {
				return false, e
			}
			m.Heap[strAddr] = MkStr(strAddr + 1)
			m.bindRef(addr, strAddr)
			m.writeMode = true
		case cell.Tag() == TagStr:
			desc := m.Heap[cell.Payload()]
			arity, id := UnpackFunctorWord(desc)
			if id != int(ins.Functor.ID) || arity != ins.Functor.Arity {
				return false, nil
			}
			m.SP = cell.Payload() + 1
			m.writeMode = false
		default:
			return false, nil
		}
	case instr.OpGetList:
		addr, cell, hasAddr := m.derefArg(ins.Arg)
		switch {
		case hasAddr && cell.Tag() == TagRef:
			m.bindValue(addr, MkLis(m.HP))
			m.writeMode = true
		case cell.Tag() == TagLis:
			m.SP = cell.Payload()
			m.writeMode = false
		default:
			return false, nil
		}
	case instr.OpGetConstant:
		addr, cell, hasAddr := m.derefArg(ins.Arg)
		switch {
		case hasAddr && cell.Tag() == TagRef:
			m.bindValue(addr, MkCon(int(ins.Functor.ID)))
		case cell.Tag() == TagCon && cell.Payload() == int(ins.Functor.ID):
		default:
			return false, nil
		}
	case instr.OpGetNil:
		addr, cell, hasAddr := m.derefArg(ins.Arg)
		switch {
		case hasAddr && cell.Tag() == TagRef:
			m.bindValue(addr, MkCon(m.nilFunctor))
		case cell.Tag() == TagCon && cell.Payload() == m.nilFunctor:
		default:
			return false, nil
		}

	case instr.OpUnifyVar:
		if m.writeMode {
			addr, e := m.heapPush(0)
			if e != nil {
				return false, e
			}
			m.Heap[addr] = MkRef(addr)
			m.writeOperand(ins.Dst, m.Heap[addr])
		} else {
			m.writeOperand(ins.Dst, m.Heap[m.SP])
			m.SP++
		}
	case instr.OpUnifyVal, instr.OpUnifyLocalVal:
		if m.writeMode {
			if _, e := m.heapPush(m.readOperand(ins.Dst)); e != nil {
				return false, e
			}
		} else {
			if !m.unifyCells(m.readOperand(ins.Dst), m.Heap[m.SP]) {
				return false, nil
			}
			m.SP++
		}
	case instr.OpUnifyConstant:
		if m.writeMode {
			if _, e := m.heapPush(MkCon(int(ins.Functor.ID))); e != nil {
				return false, e
			}
		} else {
			d := m.deref(m.SP)
			cell := m.Heap[d]
			switch {
			case cell.Tag() == TagRef:
				m.bindValue(d, MkCon(int(ins.Functor.ID)))
			case cell.Tag() == TagCon && cell.Payload() == int(ins.Functor.ID):
			default:
				return false, nil
			}
			m.SP++
		}
	case instr.OpUnifyVoid:
		if m.writeMode {
			for j := 0; j < ins.N; j++ {
				addr, e := m.heapPush(0)
				if e != nil {
					return false, e
				}
				m.Heap[addr] = MkRef(addr)
			}
		} else {
			m.SP += ins.N
		}

	// --- environment / control ---
	case instr.OpAllocate:
		m.EnvStack = append(m.EnvStack, Frame{CP: m.CP, CE: m.EP, Y: make([]Cell, ins.N)})
		m.EP = len(m.EnvStack) - 1
	case instr.OpDeallocate:
		f := m.EnvStack[m.EP]
		m.CP, m.EP = f.CP, f.CE
	case instr.OpCall:
		entry, found := m.Lookup(ins.Functor.ID)
		if !found {
			m.log.Warn("linkage error", "functor", ins.Functor.Name, "arity", ins.Functor.Arity, "op", "call")
			return false, errors.Wrapf(ErrLinkage, "%s/%d", ins.Functor.Name, ins.Functor.Arity)
		}
		m.CP = next
		m.B0 = m.B
		m.IP = entry.Addr
		return true, nil
	case instr.OpExecute:
		entry, found := m.Lookup(ins.Functor.ID)
		if !found {
			m.log.Warn("linkage error", "functor", ins.Functor.Name, "arity", ins.Functor.Arity, "op", "execute")
			return false, errors.Wrapf(ErrLinkage, "%s/%d", ins.Functor.Name, ins.Functor.Arity)
		}
		m.B0 = m.B
		m.IP = entry.Addr
		return true, nil
	case instr.OpProceed:
		if m.CP < 0 {
			m.halted = true
		} else {
			m.IP = m.CP
		}
		return true, nil
	case instr.OpFail:
		return false, nil
	case instr.OpJump:
		m.IP = ins.Addr
		return true, nil
	case instr.OpCallVar:
		c := m.X[ins.Arg]
		if c.Tag() == TagRef {
			c = m.Heap[m.deref(c.Payload())]
		}
		switch c.Tag() {
		case TagCon:
			entry, found := m.Lookup(uint32(c.Payload()))
			if !found {
				m.log.Warn("linkage error", "op", "call_var", "kind", "atom")
				return false, errors.Wrap(ErrLinkage, "call/1 of unknown atom goal")
			}
			m.CP = next
			m.B0 = m.B
			m.IP = entry.Addr
			return true, nil
		case TagStr:
			desc := m.Heap[c.Payload()]
			arity, id := UnpackFunctorWord(desc)
			entry, found := m.Lookup(uint32(id))
			if !found || entry.Arity != arity {
				m.log.Warn("linkage error", "op", "call_var", "kind", "compound", "arity", arity)
				return false, errors.Wrap(ErrLinkage, "call/1 of unknown compound goal")
			}
			for k := 1; k <= arity; k++ {
				m.X[k] = m.Heap[c.Payload()+k]
			}
			m.CP = next
			m.B0 = m.B
			m.IP = entry.Addr
			return true, nil
		default:
			return false, nil
		}

	// --- indexed choice ---
	case instr.OpTryMeElse, instr.OpTry:
		saved := make([]Cell, ins.N)
		copy(saved, m.X[1:1+ins.N])
		m.CPStack = append(m.CPStack, ChoicePoint{
			CE: m.EP, CP: m.CP, NextAlt: ins.Addr, SavedArgs: saved,
			TrailTop: len(m.Trail), HeapTop: m.HP, PrevB: m.B,
		})
		m.B = len(m.CPStack) - 1
		m.updateHBP()
	case instr.OpRetryMeElse, instr.OpRetry:
		m.CPStack[m.B].NextAlt = ins.Addr
	case instr.OpTrustMe, instr.OpTrust:
		m.B = m.CPStack[m.B].PrevB
		m.CPStack = m.CPStack[:len(m.CPStack)-1]
		m.updateHBP()

	case instr.OpNeckCut:
		m.cutTo(m.B0)
	case instr.OpGetLevel:
		m.writeOperand(ins.Dst, encodeInt(m.B0))
	case instr.OpCut:
		m.cutTo(decodeInt(m.readOperand(ins.Dst)))

	case instr.OpSwitchOnTerm, instr.OpSwitchOnConstant, instr.OpSwitchOnStructure:
		kind := indexKindTerm
		switch ins.Op {
		case instr.OpSwitchOnConstant:
			kind = indexKindConstant
		case instr.OpSwitchOnStructure:
			kind = indexKindStructure
		}
		if target, found := m.indexLookup(indexedInstr{a: ins.Addr, k: kind}); found {
			m.IP = target
			return true, nil
		}
		// no index entry: fall through to the sequential try chain.

	// --- fused built-ins ---
	case instr.OpBuiltinUnify:
		if !m.unifyCells(m.X[1], m.X[2]) {
			return false, nil
		}
	case instr.OpBuiltinNotUnify:
		// unifyCells' trial run must leave no trace, whether it succeeds or
		// fails partway through a deep structure. trail() only records a
		// binding to an address below HBP, treating anything at or above it
		// as "created since the last real choice point, so backtracking's
		// heap truncation alone will erase it" — but that reasoning only
		// holds for cells the trial itself allocates. A binding to a
		// pre-existing cell between HBP and this trial's own heap top is
		// neither trailed (its address isn't below HBP) nor erased by
		// truncation (its address isn't above heapTop either), so it would
		// otherwise survive the trial undone. Raising HBP to heapTop for the
		// duration of the trial forces every such pre-existing binding to be
		// trailed, so unwindTrail can revert it; truncating the heap back to
		// heapTop afterward still discards every cell the trial allocated.
		trailTop, heapTop := len(m.Trail), m.HP
		savedHBP := m.HBP
		m.HBP = heapTop
		matched := m.unifyCells(m.X[1], m.X[2])
		m.HBP = savedHBP
		m.unwindTrail(trailTop)
		m.Heap = m.Heap[:heapTop]
		m.HP = heapTop
		if matched {
			return false, nil
		}
	case instr.OpBuiltinIs:
		v, okEval := m.evalCell(m.X[2])
		if !okEval {
			return false, nil
		}
		rc, okMk := m.makeIntCell(v)
		if !okMk {
			return false, errors.Wrap(ErrInvariant, "is/2: no integer interner wired")
		}
		if !m.unifyCells(m.X[1], rc) {
			return false, nil
		}
	case instr.OpBuiltinCompare:
		a, ok1 := m.evalCell(m.X[1])
		b, ok2 := m.evalCell(m.X[2])
		if !ok1 || !ok2 {
			return false, nil
		}
		if !compareHolds(instr.CompareKind(ins.N), a, b) {
			return false, nil
		}

	default:
		return false, errors.Wrapf(ErrInvariant, "unimplemented opcode %s", ins.Op)
	}

	m.IP = next
	return true, nil
}

func compareHolds(kind instr.CompareKind, a, b int64) bool {
	switch kind {
	case instr.CompareLT:
		return a < b
	case instr.CompareGT:
		return a > b
	case instr.CompareLE:
		return a <= b
	case instr.CompareGE:
		return a >= b
	case instr.CompareArithEq:
		return a == b
	case instr.CompareArithNeq:
		return a != b
	default:
		return false
	}
}

// cutTo discards every choice point created after barrier (spec.md §4.2's
// neck-cut/deep-cut compilation).
func (m *Machine) cutTo(barrier int) {
	m.B = barrier
	if m.B < 0 {
		m.CPStack = m.CPStack[:0]
	} else {
		m.CPStack = m.CPStack[:m.B+1]
	}
	m.updateHBP()
}
