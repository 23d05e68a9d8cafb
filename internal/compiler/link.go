package compiler

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/rupertlssmith/gowam/internal/instr"
)

// linker accumulates one predicate's (or query's) instructions, resolves
// symbolic labels to local byte offsets, and encodes the result to bytes.
// Grounded on the teacher's asm/parser.go two-pass approach: a first pass
// over the source (here, the instructions a clauseCtx emits) records label
// positions, a second resolves jump operands against them.
//
// The local offsets link produces are relative to the start of this
// predicate's own code block, not the machine's code buffer as a whole: the
// buffer's eventual load-time base offset isn't known until LoadCode runs,
// so link also returns the byte positions of every resolved label operand
// (patches) for the caller to add that base onto afterward.
type linker struct {
	code   []instr.Instruction
	pos    int
	labels map[string]int
}

func newLinker() *linker {
	return &linker{labels: map[string]int{}}
}

func (l *linker) emit(ins instr.Instruction) {
	l.code = append(l.code, ins)
	l.pos += instr.Size(ins)
}

// mark records label as naming the position the next emitted instruction
// will occupy.
func (l *linker) mark(label string) {
	l.labels[label] = l.pos
}

// link resolves every instruction's Label to a local Addr, encodes the
// block to bytes, and reports the byte offset of each label operand's
// 4-byte field within the result (for the caller to rebase once the block
// is appended to the machine's code buffer).
func (l *linker) link() (code []byte, patches []int, err error) {
	for i, ins := range l.code {
		if !ins.IsLabelRef() {
			continue
		}
		addr, ok := l.labels[ins.Label]
		if !ok {
			return nil, nil, errors.Errorf("compiler: unresolved label %q", ins.Label)
		}
		ins.Addr = addr
		l.code[i] = ins
	}

	for _, ins := range l.code {
		if ins.IsLabelRef() {
			patches = append(patches, len(code)+labelFieldOffset(ins.Op))
		}
		code = append(code, instr.Encode(ins)...)
	}
	return code, patches, nil
}

// labelFieldOffset is the byte offset, within an instruction's own encoded
// form, of its 4-byte label/Addr field: 1 (past the opcode byte) for every
// label-carrying opcode, since none of them place another variable-width
// operand before it.
func labelFieldOffset(op instr.Opcode) int {
	return 1
}

// PatchBase adds base to every 4-byte little-endian label field in code at
// the byte offsets listed in patches, turning the compiler's block-local
// addresses into absolute offsets within the machine's full code buffer.
// Call with base = Machine.CodeLen(), before passing code to LoadCode.
func PatchBase(code []byte, patches []int, base int) {
	for _, p := range patches {
		v := binary.LittleEndian.Uint32(code[p : p+4])
		binary.LittleEndian.PutUint32(code[p:p+4], v+uint32(base))
	}
}
