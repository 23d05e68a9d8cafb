package machine

import "github.com/pkg/errors"

// Sentinel errors returned by Run, wrapped with context via
// github.com/pkg/errors in the manner of the teacher's vm/core.go, which
// wraps every returned vm error with the failing instruction's address.
var (
	// ErrResourceExhausted is returned when a heap push would exceed the
	// configured heap size (spec.md §5 resource limits). The heap is the
	// only region checked: the environment stack, choice-point stack and
	// trail grow past their initial capacities without a limit.
	ErrResourceExhausted = errors.New("machine: resource exhausted")

	// ErrInvariant is returned when the interpreter observes a state that
	// should be unreachable under a correctly compiled program, e.g.
	// decoding an opcode past the end of the code buffer.
	ErrInvariant = errors.New("machine: invariant violation")

	// ErrLinkage is returned by call/execute/call_var when the target
	// predicate has no entry in the call table (spec.md §4.4, §7).
	ErrLinkage = errors.New("machine: unresolved predicate (linkage error)")

	// ErrBudgetExhausted is returned when the configured step budget is
	// exceeded (spec.md §5, runaway-query guard).
	ErrBudgetExhausted = errors.New("machine: step budget exhausted")
)
