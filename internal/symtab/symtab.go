// Package symtab implements the two-level symbol table spec.md §2 item 2
// describes: a (symbol key, attribute name) -> value mapping the compiler
// uses to attach analyses to syntax nodes without mutating the ast.Term
// tree itself. Grounded on the way asm.parser's labels/consts maps attach
// a resolved address to a name (internal/.../asm/parser.go in the teacher
// tree); the compiler keys it by clause-local variable name.
package symtab

// Key is a symbol's identity. The compiler uses the variable's name (a
// string, unique within a clause); the table does not care about the
// concrete type.
type Key interface{}

// Attr names one analysis attached to a symbol.
type Attr string

// Attributes recognized by the compiler, per spec.md §4.2.
const (
	AttrOccurrenceCount Attr = "occurrence_count"
	AttrArgOnly         Attr = "arg_only"  // false => "appears only in non-argument positions"
	AttrLastBodyGoal    Attr = "last_body_goal"
	AttrPermanent       Attr = "permanent"
	AttrAllocation      Attr = "allocation" // encodes mode<<8|slot, see Allocation
	AttrCallPoint       Attr = "call_point"
)

// Mode distinguishes a register-file slot from an environment-stack slot
// in an Allocation.
type Mode int

const (
	ModeReg Mode = iota
	ModeStack
)

// Allocation is the mode<<8|slot encoding spec.md §4.2 Phase 4 specifies.
type Allocation int

// Encode packs mode and slot into a single Allocation value.
func Encode(mode Mode, slot int) Allocation {
	return Allocation(int(mode)<<8 | (slot & 0xff))
}

// Mode unpacks the addressing mode from an Allocation.
func (a Allocation) Mode() Mode { return Mode(int(a) >> 8) }

// Slot unpacks the register/stack index from an Allocation.
func (a Allocation) Slot() int { return int(a) & 0xff }

// Table is the symbol table. The zero value is ready to use.
type Table struct {
	attrs map[Key]map[Attr]interface{}
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{attrs: make(map[Key]map[Attr]interface{})}
}

// Set attaches value to key under attr, overwriting any previous value.
func (t *Table) Set(key Key, attr Attr, value interface{}) {
	if t.attrs == nil {
		t.attrs = make(map[Key]map[Attr]interface{})
	}
	m := t.attrs[key]
	if m == nil {
		m = make(map[Attr]interface{})
		t.attrs[key] = m
	}
	m[attr] = value
}

// Get returns the value attached to key under attr, if any.
func (t *Table) Get(key Key, attr Attr) (interface{}, bool) {
	m, ok := t.attrs[key]
	if !ok {
		return nil, false
	}
	v, ok := m[attr]
	return v, ok
}

// Allocation is a typed convenience wrapper over Get for AttrAllocation.
func (t *Table) Allocation(key Key) (Allocation, bool) {
	v, ok := t.Get(key, AttrAllocation)
	if !ok {
		return 0, false
	}
	return v.(Allocation), true
}

// Permanent is a typed convenience wrapper over Get for AttrPermanent.
func (t *Table) Permanent(key Key) bool {
	v, ok := t.Get(key, AttrPermanent)
	return ok && v.(bool)
}

// OccurrenceCount is a typed convenience wrapper over Get for
// AttrOccurrenceCount.
func (t *Table) OccurrenceCount(key Key) int {
	v, ok := t.Get(key, AttrOccurrenceCount)
	if !ok {
		return 0
	}
	return v.(int)
}

// Reset clears the table for reuse across clause compilations.
func (t *Table) Reset() {
	for k := range t.attrs {
		delete(t.attrs, k)
	}
}
