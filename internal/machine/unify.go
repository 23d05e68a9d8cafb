package machine

// deref follows a chain of bound REF cells to the representative address
// of the term currently at addr: either an unbound variable (a self-
// referential REF) or a non-REF cell (spec.md §3).
func (m *Machine) deref(addr int) int {
	for {
		c := m.Heap[addr]
		if c.Tag() != TagRef {
			return addr
		}
		p := c.Payload()
		if p == addr {
			return addr
		}
		addr = p
	}
}

// trail conditionally records addr for undoing on backtrack: only bindings
// of cells below HBP (created before the most recent choice point) need
// undoing, since anything created after it is discarded wholesale by
// truncating the heap back to the choice point's HeapTop instead.
func (m *Machine) trail(addr int) {
	if addr < m.HBP {
		m.Trail = append(m.Trail, addr)
	}
}

// bindRef binds the unbound variable at addr to point at target.
func (m *Machine) bindRef(addr, target int) {
	m.Heap[addr] = MkRef(target)
	m.trail(addr)
}

// bindValue binds the unbound variable at addr in place to a cell value
// that needs no separate heap location: a constant (self-contained) or a
// structure/list cell (whose payload already addresses real heap storage,
// so copying the cell itself is equivalent to binding through a REF to
// it, just without the extra indirection). This departs from a literal
// reading of spec.md §3's "replaces its cell with a REF to the bound
// term's address" for the constant case, where no such address exists;
// see DESIGN.md.
func (m *Machine) bindValue(addr int, v Cell) {
	m.Heap[addr] = v
	m.trail(addr)
}

// unify unifies the terms at heap addresses a and b, following spec.md
// §3/§8's structural-equality algorithm via an explicit pushdown list
// rather than recursion, so arbitrarily deep structures don't blow the Go
// call stack.
func (m *Machine) unify(a, b int) bool {
	pdl := []int{a, b}
	for len(pdl) > 0 {
		y := pdl[len(pdl)-1]
		x := pdl[len(pdl)-2]
		pdl = pdl[:len(pdl)-2]

		da, db := m.deref(x), m.deref(y)
		if da == db {
			continue
		}
		ca, cb := m.Heap[da], m.Heap[db]
		ta, tb := ca.Tag(), cb.Tag()

		switch {
		case ta == TagRef && tb == TagRef:
			if da < db {
				m.bindRef(db, da)
			} else {
				m.bindRef(da, db)
			}
		case ta == TagRef:
			m.bindRef(da, db)
		case tb == TagRef:
			m.bindRef(db, da)
		case ta != tb:
			return false
		case ta == TagCon:
			if ca.Payload() != cb.Payload() {
				return false
			}
		case ta == TagStr:
			fa, fb := m.Heap[ca.Payload()], m.Heap[cb.Payload()]
			if fa != fb {
				return false
			}
			arity, _ := UnpackFunctorWord(fa)
			for k := 1; k <= arity; k++ {
				pdl = append(pdl, ca.Payload()+k, cb.Payload()+k)
			}
		case ta == TagLis:
			pdl = append(pdl, ca.Payload(), cb.Payload(), ca.Payload()+1, cb.Payload()+1)
		default:
			return false
		}
	}
	return true
}

// unifyCellWithAddr unifies a raw cell value v (as found directly in a
// register: never itself a heap address) against the term at heap address
// addr.
func (m *Machine) unifyCellWithAddr(v Cell, addr int) bool {
	d := m.deref(addr)
	dc := m.Heap[d]

	if v.Tag() == TagRef {
		return m.unify(v.Payload(), d)
	}
	if dc.Tag() == TagRef {
		m.bindValue(d, v)
		return true
	}
	if v.Tag() != dc.Tag() {
		return false
	}
	switch v.Tag() {
	case TagCon:
		return v.Payload() == dc.Payload()
	case TagStr, TagLis:
		return m.unifyCells(v, dc)
	default:
		return false
	}
}

// unifyCells unifies two raw register-held cell values against each
// other, used by get_val where neither side is known in advance to be an
// address vs. a self-contained value.
func (m *Machine) unifyCells(c1, c2 Cell) bool {
	switch {
	case c1.Tag() == TagRef && c2.Tag() == TagRef:
		return m.unify(c1.Payload(), c2.Payload())
	case c1.Tag() == TagRef:
		return m.unifyCellWithAddr(c2, c1.Payload())
	case c2.Tag() == TagRef:
		return m.unifyCellWithAddr(c1, c2.Payload())
	case c1.Tag() != c2.Tag():
		return false
	case c1.Tag() == TagCon:
		return c1.Payload() == c2.Payload()
	case c1.Tag() == TagLis:
		return m.unify(c1.Payload()+1, c2.Payload()+1) && m.unify(c1.Payload(), c2.Payload())
	case m.Heap[c1.Payload()] != m.Heap[c2.Payload()]:
		return false
	default:
		arity, _ := UnpackFunctorWord(m.Heap[c1.Payload()])
		for k := arity; k >= 1; k-- { // last pair first, the order unify's pdl pops them in
			if !m.unify(c1.Payload()+k, c2.Payload()+k) {
				return false
			}
		}
		return true
	}
}

// unwindTrail pops trail entries down to top, resetting each recorded
// cell back to an unbound self-referencing REF.
func (m *Machine) unwindTrail(top int) {
	for i := len(m.Trail) - 1; i >= top; i-- {
		addr := m.Trail[i]
		m.Heap[addr] = MkRef(addr)
	}
	m.Trail = m.Trail[:top]
}

// updateHBP recomputes HBP (heap top at the most recent choice point)
// from the current B, called whenever B changes.
func (m *Machine) updateHBP() {
	if m.B < 0 {
		m.HBP = 0
		return
	}
	m.HBP = m.CPStack[m.B].HeapTop
}

// backtrack restores machine state from the current choice point and
// jumps to its next alternative, reporting false when the choice-point
// stack is empty (resolution exhausted).
func (m *Machine) backtrack() bool {
	if m.B < 0 {
		return false
	}
	cp := m.CPStack[m.B]
	m.Heap = m.Heap[:cp.HeapTop]
	m.HP = cp.HeapTop
	m.unwindTrail(cp.TrailTop)
	m.EP = cp.CE
	m.CP = cp.CP
	copy(m.X[1:], cp.SavedArgs)
	m.IP = cp.NextAlt
	m.writeMode = false
	return true
}
