package machine

// Frame is one environment-stack entry (spec.md §3): the permanent
// variable slots of a clause activation, plus the saved continuation
// needed to resume the caller once the clause's body completes.
type Frame struct {
	CP int     // continuation: byte offset to resume in the caller
	CE int     // index of the caller's own frame in EnvStack, or -1
	Y  []Cell  // permanent variable slots, Y1 at index 0
}

// ChoicePoint is one choice-point-stack entry (spec.md §3): everything
// needed to retry the next clause alternative on failure.
type ChoicePoint struct {
	CE        int    // environment frame active when this choice point was pushed
	CP        int    // continuation active when this choice point was pushed
	NextAlt   int    // code offset of the next retry_me_else/trust_me/... to run on failure
	SavedArgs []Cell // A1..An snapshot, n = the predicate's arity
	TrailTop  int    // len(Trail) at push time
	HeapTop   int    // HP at push time
	PrevB     int    // index of the next choice point down, or -1
}

// CallEntry is one call-table entry: the predicate's bytecode entry point
// and its arity, looked up by interned functor id at call/execute/call_var
// (spec.md §4.4).
type CallEntry struct {
	Addr  int
	Arity int
}
