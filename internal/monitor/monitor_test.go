package monitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupertlssmith/gowam/internal/machine"
)

func TestRecorderTracksCountsAndLastSnapshot(t *testing.T) {
	r := NewRecorder(2)

	_, ok := r.Last()
	assert.False(t, ok, "no snapshot recorded yet")

	r.OnReset()
	r.OnCodeUpdate(0, 10)
	r.OnStep(machine.Snapshot{IP: 0, Op: "put_var"})
	r.OnStep(machine.Snapshot{IP: 3, Op: "proceed"})
	r.OnExecute()

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "proceed", last.Op)

	resets, executes, steps := r.Counts()
	assert.Equal(t, 1, resets)
	assert.Equal(t, 1, executes)
	assert.Equal(t, 2, steps)
}

func TestRecorderHistoryIsBoundedAndOldestFirst(t *testing.T) {
	r := NewRecorder(2)
	r.OnStep(machine.Snapshot{IP: 1})
	r.OnStep(machine.Snapshot{IP: 2})
	r.OnStep(machine.Snapshot{IP: 3})

	hist := r.History()
	require.Len(t, hist, 2)
	assert.Equal(t, 2, hist[0].IP)
	assert.Equal(t, 3, hist[1].IP)
}

func TestRecorderResetClearsHistoryAndSteps(t *testing.T) {
	r := NewRecorder(5)
	r.OnStep(machine.Snapshot{IP: 1})
	r.OnStep(machine.Snapshot{IP: 2})

	r.OnReset()
	assert.Empty(t, r.History())
	_, executes, steps := r.Counts()
	_ = executes
	assert.Equal(t, 0, steps)
	_, ok := r.Last()
	assert.False(t, ok, "steps reset to 0 means Last reports nothing recorded")
}

func TestRenderSnapshotWritesRegisters(t *testing.T) {
	var buf bytes.Buffer
	RenderSnapshot(&buf, machine.Snapshot{IP: 7, HP: 3, B: -1, Op: "get_constant"})
	out := buf.String()
	assert.Contains(t, out, "get_constant")
	assert.Contains(t, out, "7")
}

func TestRenderRecorderWritesCountsAndLastOp(t *testing.T) {
	r := NewRecorder(1)
	r.OnReset()
	r.OnStep(machine.Snapshot{IP: 4, Op: "call"})

	var buf bytes.Buffer
	RenderRecorder(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "call")
}
