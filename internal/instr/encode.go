package instr

import "encoding/binary"

// Widths of the fixed-size operand forms spec.md §6 names without
// prescribing exact byte counts for count/label fields; this package fixes
// them at 4 bytes (little-endian) uniformly, the same width spec.md
// mandates for functor operands, so that every non-register operand in the
// instruction stream has one width to reason about.
const (
	opcodeWidth  = 1
	modeWidth    = 1
	regWidth     = 1
	functorWidth = 4
	countWidth   = 4
	labelWidth   = 4
)

func putU32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func getU32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Encode serializes ins to its byte-exact wire form. The instruction's
// Label must already be resolved into Addr (see compiler's link pass);
// Encode never consults Label.
func Encode(ins Instruction) []byte {
	buf := []byte{byte(ins.Op)}

	writeOperand := func(op Operand) {
		buf = append(buf, byte(op.Mode), byte(op.Index))
	}
	writeFunctor := func(f FunctorRef) {
		w := PackFunctor(f.Arity, f.ID)
		var b [functorWidth]byte
		putU32(b[:], w)
		buf = append(buf, b[:]...)
	}
	writeCount := func(n int) {
		var b [countWidth]byte
		putU32(b[:], uint32(n))
		buf = append(buf, b[:]...)
	}
	writeArg := func(a int) {
		buf = append(buf, byte(a))
	}
	writeLabel := func(addr int) {
		var b [labelWidth]byte
		putU32(b[:], uint32(addr))
		buf = append(buf, b[:]...)
	}

	switch ins.Op {
	case OpPutVar, OpPutVal:
		writeOperand(ins.Dst)
		writeArg(ins.Arg)
	case OpPutStruc:
		writeFunctor(ins.Functor)
		writeArg(ins.Arg)
	case OpPutList:
		writeArg(ins.Arg)
	case OpPutConstant:
		writeFunctor(ins.Functor)
		writeArg(ins.Arg)
	case OpPutVoid:
		writeCount(ins.N)
		writeArg(ins.Arg)

	case OpSetVar, OpSetVal:
		writeOperand(ins.Dst)
	case OpSetConstant:
		writeFunctor(ins.Functor)
	case OpSetVoid:
		writeCount(ins.N)

	case OpGetVar, OpGetVal:
		writeOperand(ins.Dst)
		writeArg(ins.Arg)
	case OpGetStruc:
		writeFunctor(ins.Functor)
		writeArg(ins.Arg)
	case OpGetList:
		writeArg(ins.Arg)
	case OpGetConstant:
		writeFunctor(ins.Functor)
		writeArg(ins.Arg)
	case OpGetNil:
		writeArg(ins.Arg)

	case OpUnifyVar, OpUnifyVal, OpUnifyLocalVal:
		writeOperand(ins.Dst)
	case OpUnifyConstant:
		writeFunctor(ins.Functor)
	case OpUnifyVoid:
		writeCount(ins.N)

	case OpAllocate:
		writeCount(ins.N)
	case OpDeallocate, OpProceed, OpNeckCut, OpTrustMe:
		// no operands
	case OpCall:
		writeFunctor(ins.Functor)
		writeCount(ins.N)
	case OpExecute:
		writeFunctor(ins.Functor)

	case OpTryMeElse, OpTry:
		writeLabel(ins.Addr)
		writeCount(ins.N)
	case OpRetryMeElse, OpRetry, OpTrust:
		writeLabel(ins.Addr)

	case OpGetLevel, OpCut:
		writeOperand(ins.Dst)

	case OpSwitchOnTerm, OpSwitchOnConstant, OpSwitchOnStructure:
		writeLabel(ins.Addr)

	case OpFail:
		// no operands
	case OpCallVar:
		writeArg(ins.Arg)
	case OpBuiltinUnify, OpBuiltinNotUnify, OpBuiltinIs:
		// no operands: fixed A1/A2 convention
	case OpBuiltinCompare:
		writeCount(ins.N)
	case OpJump:
		writeLabel(ins.Addr)
	}
	return buf
}

// Decode reads one instruction starting at byte offset pc in code, and
// returns it along with the offset of the next instruction.
func Decode(code []byte, pc int) (Instruction, int) {
	op := Opcode(code[pc])
	p := pc + 1
	ins := Instruction{Op: op}

	readOperand := func() Operand {
		o := Operand{Mode: Mode(code[p]), Index: int(code[p+1])}
		p += modeWidth + regWidth
		return o
	}
	readFunctor := func() FunctorRef {
		w := getU32(code[p : p+functorWidth])
		p += functorWidth
		arity, id := UnpackFunctor(w)
		return FunctorRef{ID: id, Arity: arity}
	}
	readCount := func() int {
		n := int(int32(getU32(code[p : p+countWidth])))
		p += countWidth
		return n
	}
	readArg := func() int {
		a := int(code[p])
		p += regWidth
		return a
	}
	readLabel := func() int {
		a := int(getU32(code[p : p+labelWidth]))
		p += labelWidth
		return a
	}

	switch op {
	case OpPutVar, OpPutVal:
		ins.Dst = readOperand()
		ins.Arg = readArg()
	case OpPutStruc:
		ins.Functor = readFunctor()
		ins.Arg = readArg()
	case OpPutList:
		ins.Arg = readArg()
	case OpPutConstant:
		ins.Functor = readFunctor()
		ins.Arg = readArg()
	case OpPutVoid:
		ins.N = readCount()
		ins.Arg = readArg()

	case OpSetVar, OpSetVal:
		ins.Dst = readOperand()
	case OpSetConstant:
		ins.Functor = readFunctor()
	case OpSetVoid:
		ins.N = readCount()

	case OpGetVar, OpGetVal:
		ins.Dst = readOperand()
		ins.Arg = readArg()
	case OpGetStruc:
		ins.Functor = readFunctor()
		ins.Arg = readArg()
	case OpGetList:
		ins.Arg = readArg()
	case OpGetConstant:
		ins.Functor = readFunctor()
		ins.Arg = readArg()
	case OpGetNil:
		ins.Arg = readArg()

	case OpUnifyVar, OpUnifyVal, OpUnifyLocalVal:
		ins.Dst = readOperand()
	case OpUnifyConstant:
		ins.Functor = readFunctor()
	case OpUnifyVoid:
		ins.N = readCount()

	case OpAllocate:
		ins.N = readCount()
	case OpDeallocate, OpProceed, OpNeckCut, OpTrustMe:
	case OpCall:
		ins.Functor = readFunctor()
		ins.N = readCount()
	case OpExecute:
		ins.Functor = readFunctor()

	case OpTryMeElse, OpTry:
		ins.Addr = readLabel()
		ins.N = readCount()
	case OpRetryMeElse, OpRetry, OpTrust:
		ins.Addr = readLabel()

	case OpGetLevel, OpCut:
		ins.Dst = readOperand()

	case OpSwitchOnTerm, OpSwitchOnConstant, OpSwitchOnStructure:
		ins.Addr = readLabel()

	case OpFail:
	case OpCallVar:
		ins.Arg = readArg()
	case OpBuiltinUnify, OpBuiltinNotUnify, OpBuiltinIs:
	case OpBuiltinCompare:
		ins.N = readCount()
	case OpJump:
		ins.Addr = readLabel()
	}
	return ins, p
}

// Size returns the encoded byte length of ins without allocating.
func Size(ins Instruction) int {
	return len(Encode(ins))
}
