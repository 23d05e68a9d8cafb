// Package monitor is the read-only debug/introspection surface of
// spec.md §2.8/§6: a machine.Observer implementation that accumulates
// snapshots for later rendering instead of driving the machine itself.
// No write access to machine state is exposed anywhere in this package,
// matching spec.md §6 exactly.
package monitor

import "github.com/rupertlssmith/gowam/internal/machine"

// Monitor is the observer interface a caller installs on a machine via
// machine.Machine.SetObserver to watch its execution. Recorder is the
// concrete implementation; callers needing different behavior (streaming
// to a channel, filtering by opcode) can implement this interface
// directly against the same machine.Observer hook.
type Monitor interface {
	machine.Observer
}

// Recorder is a Monitor that keeps the most recent snapshot plus simple
// running counters, the minimum state render.go needs to print a table.
// Grounded on the teacher's vm.Instance.Dump family (vm/vm.go), which
// likewise exposes read-only state for external printing rather than
// printing it itself.
type Recorder struct {
	resets   int
	executes int
	steps    int
	lastCode struct{ start, length int }
	last     machine.Snapshot
	history  []machine.Snapshot
	maxHist  int
}

// NewRecorder returns a Recorder that keeps up to maxHist recent
// snapshots (0 disables history, keeping only the latest).
func NewRecorder(maxHist int) *Recorder {
	return &Recorder{maxHist: maxHist}
}

// OnReset implements machine.Observer.
func (r *Recorder) OnReset() {
	r.resets++
	r.steps = 0
	r.history = r.history[:0]
}

// OnCodeUpdate implements machine.Observer.
func (r *Recorder) OnCodeUpdate(start, length int) {
	r.lastCode.start, r.lastCode.length = start, length
}

// OnExecute implements machine.Observer.
func (r *Recorder) OnExecute() {
	r.executes++
}

// OnStep implements machine.Observer.
func (r *Recorder) OnStep(s machine.Snapshot) {
	r.steps++
	r.last = s
	if r.maxHist > 0 {
		r.history = append(r.history, s)
		if len(r.history) > r.maxHist {
			r.history = r.history[len(r.history)-r.maxHist:]
		}
	}
}

// Last returns the most recently observed snapshot and whether one has
// ever been recorded.
func (r *Recorder) Last() (machine.Snapshot, bool) {
	if r.steps == 0 {
		return machine.Snapshot{}, false
	}
	return r.last, true
}

// History returns the retained snapshot backlog, oldest first, up to the
// configured maxHist.
func (r *Recorder) History() []machine.Snapshot {
	return r.history
}

// Counts returns the running reset/execute/step counters.
func (r *Recorder) Counts() (resets, executes, steps int) {
	return r.resets, r.executes, r.steps
}
