package machine

// Index is the open-addressing hash table backing switch_on_term/
// switch_on_constant/switch_on_structure (spec.md §4.2 phase 9, optional
// clause-indexing). Keyed by identity (the interned functor/constant id
// itself, or the cell's tag for switch_on_term) per DESIGN.md's resolution
// of the unspecified collision/hash-function open question: identity
// hashing, linear-probe open addressing, first-writer-wins on collision.
type Index struct {
	keys   []int
	vals   []int
	used   []bool
	filled int
}

// NewIndex allocates an index sized for at least n entries.
func NewIndex(n int) *Index {
	cap := 4
	for cap < n*2 {
		cap *= 2
	}
	return &Index{keys: make([]int, cap), vals: make([]int, cap), used: make([]bool, cap)}
}

func (ix *Index) slot(key int) int {
	n := len(ix.keys)
	h := key % n
	if h < 0 {
		h += n
	}
	for i := 0; i < n; i++ {
		s := (h + i) % n
		if !ix.used[s] || ix.keys[s] == key {
			return s
		}
	}
	return -1
}

// Put records key -> target, first writer wins on an already-present key.
func (ix *Index) Put(key, target int) {
	s := ix.slot(key)
	if s < 0 {
		return
	}
	if !ix.used[s] {
		ix.used[s] = true
		ix.keys[s] = key
		ix.vals[s] = target
		ix.filled++
	}
}

// Get looks up key.
func (ix *Index) Get(key int) (target int, ok bool) {
	s := ix.slot(key)
	if s < 0 || !ix.used[s] {
		return 0, false
	}
	return ix.vals[s], true
}

// DefineIndex attaches idx as the hash table for the switch_on_* instruction
// at code offset at.
func (m *Machine) DefineIndex(at int, idx *Index) {
	if m.indexTables == nil {
		m.indexTables = make(map[int]*Index)
	}
	m.indexTables[at] = idx
}

func (m *Machine) indexLookup(ins indexedInstr) (int, bool) {
	idx, ok := m.indexTables[ins.addr()]
	if !ok {
		return 0, false
	}
	key, ok := m.indexKey(ins.kind())
	if !ok {
		return 0, false
	}
	return idx.Get(key)
}

// indexKey derives the hash key for argument register A1 according to
// which switch_on_* opcode is dispatching.
func (m *Machine) indexKey(kind int) (int, bool) {
	_, cell, _ := m.derefArg(1)
	switch kind {
	case indexKindTerm:
		return int(cell.Tag()), true
	case indexKindConstant:
		if cell.Tag() != TagCon {
			return 0, false
		}
		return cell.Payload(), true
	case indexKindStructure:
		if cell.Tag() != TagStr {
			return 0, false
		}
		desc := m.Heap[cell.Payload()]
		_, id := UnpackFunctorWord(desc)
		return id, true
	default:
		return 0, false
	}
}

const (
	indexKindTerm = iota
	indexKindConstant
	indexKindStructure
)

// indexedInstr adapts the three switch_on_* instructions to a common shape
// for indexLookup without importing internal/instr into this file's
// signature space beyond what run.go already does.
type indexedInstr struct {
	a int
	k int
}

func (i indexedInstr) addr() int { return i.a }
func (i indexedInstr) kind() int { return i.k }
