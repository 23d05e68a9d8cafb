package machine

import "strconv"

// evalCell evaluates a raw register-held cell as an arithmetic expression,
// backing is/2 and the arithmetic comparisons (spec.md §4.6's "its own
// compilation strategy" built-ins). Integers are represented as ordinary
// CON atoms whose interned name is their decimal form (see DESIGN.md);
// compound CON/STR cells recognized by name as +, -, *, /, mod evaluate
// their arguments recursively.
func (m *Machine) evalCell(c Cell) (int64, bool) {
	if c.Tag() == TagRef {
		return m.evalAddr(m.deref(c.Payload()))
	}
	return m.evalCellDirect(c)
}

func (m *Machine) evalAddr(addr int) (int64, bool) {
	return m.evalCellDirect(m.Heap[m.deref(addr)])
}

func (m *Machine) evalCellDirect(c Cell) (int64, bool) {
	switch c.Tag() {
	case TagCon:
		if m.namer == nil {
			return 0, false
		}
		name, _, ok := m.namer(c.Payload())
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true

	case TagStr:
		desc := m.Heap[c.Payload()]
		arity, id := UnpackFunctorWord(desc)
		if m.namer == nil {
			return 0, false
		}
		name, _, ok := m.namer(id)
		if !ok {
			return 0, false
		}
		base := c.Payload()
		switch arity {
		case 2:
			a, ok1 := m.evalAddr(base + 1)
			b, ok2 := m.evalAddr(base + 2)
			if !ok1 || !ok2 {
				return 0, false
			}
			switch name {
			case "+":
				return a + b, true
			case "-":
				return a - b, true
			case "*":
				return a * b, true
			case "/":
				if b == 0 {
					return 0, false
				}
				return a / b, true
			case "mod":
				if b == 0 {
					return 0, false
				}
				return a % b, true
			}
		case 1:
			a, ok1 := m.evalAddr(base + 1)
			if !ok1 {
				return 0, false
			}
			switch name {
			case "-":
				return -a, true
			case "+":
				return a, true
			}
		}
		return 0, false

	default:
		return 0, false
	}
}

// makeIntCell interns v as an atom and returns its CON cell, failing if no
// MakeInt callback was wired (engine always wires one).
func (m *Machine) makeIntCell(v int64) (Cell, bool) {
	if m.makeInt == nil {
		return 0, false
	}
	return MkCon(m.makeInt(v)), true
}
