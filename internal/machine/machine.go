package machine

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Snapshot is a read-only view of machine state, handed to an Observer
// after every instruction when one is installed. Mirrors the teacher's
// vm.Instance.Dump-style introspection but without copying the heap.
type Snapshot struct {
	IP, HP, HBP, SP, B, B0, EP, TRP int
	WriteMode                       bool
	Op                              string
}

// Observer is notified as the machine executes, the hook internal/monitor
// builds its table/tree rendering on top of (spec.md §4.7).
type Observer interface {
	OnReset()
	OnCodeUpdate(start, length int)
	OnExecute()
	OnStep(Snapshot)
}

type nullObserver struct{}

func (nullObserver) OnReset()                    {}
func (nullObserver) OnCodeUpdate(int, int)        {}
func (nullObserver) OnExecute()                   {}
func (nullObserver) OnStep(Snapshot)               {}

// observed reports whether a real Observer (as opposed to the default
// no-op) is installed. Per-instruction Trace logging is gated on this so
// the hot path pays for string formatting only when something is actually
// watching (spec.md §4.0's logging note).
func (m *Machine) observed() bool {
	_, isNull := m.obs.(nullObserver)
	return !isNull
}

// Machine is the WAM interpreter: heap, register file, environment and
// choice-point stacks, trail, call table, and the bytecode dispatch loop.
// Grounded on the teacher's vm.Instance (vm/vm.go), generalized from a
// single-stack Forth image to the multi-arena WAM model of spec.md §3.
type Machine struct {
	Heap  []Cell
	X     []Cell
	Trail []int

	EnvStack []Frame
	CPStack  []ChoicePoint

	Code []byte

	IP        int
	HP        int
	HBP       int
	SP        int
	EP        int // index of current frame in EnvStack, -1 if none
	CP        int // continuation register, transient between call and allocate/proceed
	B         int // index of current choice point in CPStack, -1 if none
	B0        int // cut barrier visible to the currently-running clause
	writeMode bool

	calls       map[int]CallEntry
	indexTables map[int]*Index
	nilFunctor  int
	namer       func(id int) (name string, arity int, ok bool)
	makeInt     func(v int64) int
	halted      bool

	heapCap, regCap, trailCap, cpCap, envCap int
	stepBudget, steps                        int

	log hclog.Logger
	obs Observer
}

// New constructs a Machine ready for Reset.
func New(opts ...Option) *Machine {
	m := &Machine{
		heapCap:  1 << 16,
		regCap:   255,
		trailCap: 1 << 12,
		cpCap:    1 << 10,
		envCap:   1 << 12,
		log:      hclog.NewNullLogger(),
		obs:      nullObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

// SetObserver installs (or, with nil, clears) the step observer.
func (m *Machine) SetObserver(obs Observer) {
	if obs == nil {
		obs = nullObserver{}
	}
	m.obs = obs
}

// Reset discards all machine state except the code buffer (and the
// installed observer) and re-initializes every arena to its configured
// capacity, in the manner of the teacher's vm.Instance.Init.
func (m *Machine) Reset() {
	m.Heap = make([]Cell, 0, m.heapCap)
	m.X = make([]Cell, m.regCap)
	m.Trail = make([]int, 0, m.trailCap)
	m.EnvStack = make([]Frame, 0, m.envCap)
	m.CPStack = make([]ChoicePoint, 0, m.cpCap)
	m.calls = make(map[int]CallEntry)

	m.IP = 0
	m.HP = 0
	m.HBP = 0
	m.SP = 0
	m.EP = -1
	m.CP = -1
	m.B = -1
	m.B0 = -1
	m.writeMode = false
	m.steps = 0

	m.obs.OnReset()
	m.log.Debug("machine reset", "heap_cap", m.heapCap, "reg_cap", m.regCap)
}

// CodeLen reports the current length of the code buffer: the byte offset
// LoadCode will return for the next block appended, needed by the compiler
// to rebase a block's label operands before appending it.
func (m *Machine) CodeLen() int { return len(m.Code) }

// LoadCode appends code to the machine's code buffer and returns the byte
// offset it was written at, analogous to the teacher's vm.Instance growing
// its single image buffer as new blocks compile (vm/image.go).
func (m *Machine) LoadCode(code []byte) (start int) {
	start = len(m.Code)
	m.Code = append(m.Code, code...)
	m.obs.OnCodeUpdate(start, len(code))
	m.log.Debug("code loaded", "start", start, "bytes", len(code))
	return start
}

// Define registers functorID -> entry in the call table, overwriting any
// previous definition for the same functor (spec.md §4.4: redefinition
// replaces, consulted at the next call).
func (m *Machine) Define(functorID uint32, entry CallEntry) {
	m.calls[int(functorID)] = entry
}

// Lookup resolves a functor id to its call-table entry.
func (m *Machine) Lookup(functorID uint32) (CallEntry, bool) {
	e, ok := m.calls[int(functorID)]
	return e, ok
}

// heapPush appends a cell and returns its address, failing with
// ErrResourceExhausted when the configured capacity is exceeded.
func (m *Machine) heapPush(c Cell) (int, error) {
	if m.heapCap > 0 && len(m.Heap) >= m.heapCap {
		return 0, errors.Wrapf(ErrResourceExhausted, "heap overflow at ip=%d", m.IP)
	}
	addr := len(m.Heap)
	m.Heap = append(m.Heap, c)
	m.HP = len(m.Heap)
	return addr, nil
}

// TRP is the trail-top register (spec.md §3), always len(Trail); trail
// pushes and unwindTrail's truncation are the only mutators.
func (m *Machine) TRP() int { return len(m.Trail) }

// Deref is the exported form of deref, for internal/decode to resolve a
// variable-cell chain to its representative address without needing
// access to machine's unexported unification internals.
func (m *Machine) Deref(addr int) int { return m.deref(addr) }

// ResolveFunctor resolves a CON/STR functor id back to its (name, arity),
// the same lookup the machine's own arithmetic evaluator uses (see
// FunctorNamer), exported so internal/decode can render atoms/compounds
// by name instead of by opaque id.
func (m *Machine) ResolveFunctor(id int) (name string, arity int, ok bool) {
	if m.namer == nil {
		return "", 0, false
	}
	return m.namer(id)
}

// NilFunctorID reports the interned functor id configured via the
// NilFunctor option, so internal/decode can recognize the empty list atom
// without its own copy of that id.
func (m *Machine) NilFunctorID() int { return m.nilFunctor }
