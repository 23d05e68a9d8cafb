package machine

import hclog "github.com/hashicorp/go-hclog"

// Option configures a Machine at construction time, in the manner of the
// teacher's vm.Option / vm.DataSize / vm.AddressSize / vm.Output functional
// options (vm/vm.go).
type Option func(*Machine)

// HeapSize sets the heap's size limit in cells; a push past it fails with
// ErrResourceExhausted. Default 1 << 16.
func HeapSize(n int) Option {
	return func(m *Machine) { m.heapCap = n }
}

// RegisterCount sets the size of the temporary register file. Default 255
// (an argument/temporary index must fit the 1-byte register operand).
func RegisterCount(n int) Option {
	return func(m *Machine) { m.regCap = n }
}

// TrailSize sets the trail's initial capacity. Default 1 << 12.
func TrailSize(n int) Option {
	return func(m *Machine) { m.trailCap = n }
}

// ChoicePointDepth sets the choice-point stack's initial capacity. Default
// 1 << 10.
func ChoicePointDepth(n int) Option {
	return func(m *Machine) { m.cpCap = n }
}

// EnvironmentDepth sets the environment stack's initial capacity. Default
// 1 << 12.
func EnvironmentDepth(n int) Option {
	return func(m *Machine) { m.envCap = n }
}

// StepBudget bounds the number of instructions Run will execute before
// returning ErrBudgetExhausted; 0 (the default) disables the budget.
func StepBudget(n int) Option {
	return func(m *Machine) { m.stepBudget = n }
}

// NilFunctor tells the machine which interned functor id names the empty
// list atom "[]", so get_nil (which carries no functor operand of its own)
// knows what to match or bind. Engine sets this during Reset
// once the interner has assigned the id.
func NilFunctor(id uint32) Option {
	return func(m *Machine) { m.nilFunctor = int(id) }
}

// Logger sets the structured logger used for step tracing. Default
// hclog.NewNullLogger().
func Logger(l hclog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithObserver installs obs as the machine's step observer at construction
// time, the option-functional equivalent of calling SetObserver after New
// (spec.md §2 module 8's debug/introspection surface). A nil obs leaves the
// default no-op observer in place.
func WithObserver(obs Observer) Option {
	return func(m *Machine) { m.SetObserver(obs) }
}

// FunctorNamer lets the machine resolve a CON/STR functor id back to its
// (name, arity) without importing internal/intern, used by is/2 and the
// arithmetic comparisons to recognize operator functors and integer-valued
// atoms (see DESIGN.md on integer representation).
func FunctorNamer(fn func(id int) (name string, arity int, ok bool)) Option {
	return func(m *Machine) { m.namer = fn }
}

// MakeInt lets the machine intern a freshly computed integer result (from
// is/2) back into a functor id, without importing internal/intern.
func MakeInt(fn func(v int64) int) Option {
	return func(m *Machine) { m.makeInt = fn }
}
