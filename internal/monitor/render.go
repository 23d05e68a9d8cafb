package monitor

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rupertlssmith/gowam/internal/machine"
)

// RenderSnapshot writes s as a two-column register/stack table to w, the
// same "dump the machine's internals for a human" concern the retrieved
// sarchlab/zeonica pack covers for its own CGRA register/operand dumps.
func RenderSnapshot(w io.Writer, s machine.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"register", "value"})
	t.AppendRow(table.Row{"op", s.Op})
	t.AppendRow(table.Row{"IP", s.IP})
	t.AppendRow(table.Row{"HP", s.HP})
	t.AppendRow(table.Row{"HBP", s.HBP})
	t.AppendRow(table.Row{"SP", s.SP})
	t.AppendRow(table.Row{"B", s.B})
	t.AppendRow(table.Row{"B0", s.B0})
	t.AppendRow(table.Row{"EP", s.EP})
	t.AppendRow(table.Row{"TRP", s.TRP})
	t.AppendRow(table.Row{"writeMode", s.WriteMode})
	t.Render()
}

// RenderRecorder writes a Recorder's running counters and its last
// snapshot to w.
func RenderRecorder(w io.Writer, r *Recorder) {
	resets, executes, steps := r.Counts()
	fmt.Fprintf(w, "resets=%d executes=%d steps=%d\n", resets, executes, steps)
	if last, ok := r.Last(); ok {
		RenderSnapshot(w, last)
	}
}
