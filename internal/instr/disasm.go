package instr

import (
	"fmt"
	"io"
)

// FunctorNamer resolves a FunctorRef's id to a printable (name, arity),
// matching what an interner would return. Disassemble falls back to
// printing the bare id when namer is nil or returns ok=false.
type FunctorNamer func(id uint32) (name string, arity int, ok bool)

// Disassemble decodes one instruction at byte offset pc and writes its
// textual form to w, in the manner of the teacher's asm.Disassemble /
// vm.Image.Disassemble: mnemonic first, operands after, returns the offset
// of the next instruction.
func Disassemble(code []byte, pc int, namer FunctorNamer, w io.Writer) (next int) {
	ins, next := Decode(code, pc)
	io.WriteString(w, ins.Op.String())

	writeOperand := func(o Operand) {
		fmt.Fprintf(w, " %s%d", o.Mode, o.Index)
	}
	writeArg := func(a int) {
		fmt.Fprintf(w, ", A%d", a)
	}
	writeFunctor := func(f FunctorRef) {
		name, arity := f.Name, f.Arity
		if namer != nil {
			if n, a, ok := namer(f.ID); ok {
				name, arity = n, a
			}
		}
		if name == "" {
			fmt.Fprintf(w, " #%d/%d", f.ID, arity)
		} else {
			fmt.Fprintf(w, " %s/%d", name, arity)
		}
	}

	switch ins.Op {
	case OpPutVar, OpPutVal, OpGetVar, OpGetVal:
		writeOperand(ins.Dst)
		writeArg(ins.Arg)
	case OpPutStruc, OpGetStruc, OpPutConstant, OpGetConstant:
		writeFunctor(ins.Functor)
		writeArg(ins.Arg)
	case OpPutList, OpGetList, OpGetNil:
		writeArg(ins.Arg)
	case OpPutVoid:
		fmt.Fprintf(w, " %d", ins.N)
		writeArg(ins.Arg)

	case OpSetVar, OpSetVal, OpUnifyVar, OpUnifyVal, OpUnifyLocalVal:
		writeOperand(ins.Dst)
	case OpSetConstant, OpUnifyConstant:
		writeFunctor(ins.Functor)
	case OpSetVoid, OpUnifyVoid:
		fmt.Fprintf(w, " %d", ins.N)

	case OpAllocate:
		fmt.Fprintf(w, " %d", ins.N)
	case OpCall:
		writeFunctor(ins.Functor)
		fmt.Fprintf(w, ", %d", ins.N)
	case OpExecute:
		writeFunctor(ins.Functor)

	case OpTryMeElse, OpTry:
		fmt.Fprintf(w, " %d, %d", ins.Addr, ins.N)
	case OpRetryMeElse, OpRetry, OpTrust, OpJump,
		OpSwitchOnTerm, OpSwitchOnConstant, OpSwitchOnStructure:
		fmt.Fprintf(w, " %d", ins.Addr)

	case OpGetLevel, OpCut:
		writeOperand(ins.Dst)

	case OpCallVar:
		writeArg(ins.Arg)
	case OpBuiltinCompare:
		fmt.Fprintf(w, " %d", ins.N)
	}
	io.WriteString(w, "\n")
	return next
}

// DisassembleAll disassembles the whole code buffer to w.
func DisassembleAll(code []byte, namer FunctorNamer, w io.Writer) {
	pc := 0
	for pc < len(code) {
		fmt.Fprintf(w, "% 6d\t", pc)
		pc = Disassemble(code, pc, namer, w)
	}
}
