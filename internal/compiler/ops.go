package compiler

import "github.com/rupertlssmith/gowam/internal/instr"

// Small instruction-construction helpers, kept separate from the emission
// walks in emit_head.go/emit_body.go so those read as a sequence of
// decisions about which form to emit, not a sequence of struct literals.

func regOperand(idx int) instr.Operand { return instr.Operand{Mode: instr.ModeReg, Index: idx} }

func opGetVar(dst instr.Operand, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetVar, Dst: dst, Arg: arg}
}
func opGetVal(dst instr.Operand, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetVal, Dst: dst, Arg: arg}
}
func opGetStruc(f instr.FunctorRef, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetStruc, Functor: f, Arg: arg}
}
func opGetList(arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetList, Arg: arg}
}
func opGetConstant(f instr.FunctorRef, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetConstant, Functor: f, Arg: arg}
}
func opGetNil(arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetNil, Arg: arg}
}

func opUnifyVar(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpUnifyVar, Dst: dst}
}
func opUnifyVal(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpUnifyVal, Dst: dst}
}
func opUnifyConstant(f instr.FunctorRef) instr.Instruction {
	return instr.Instruction{Op: instr.OpUnifyConstant, Functor: f}
}
func opUnifyVoid(n int) instr.Instruction {
	return instr.Instruction{Op: instr.OpUnifyVoid, N: n}
}

func opPutVar(dst instr.Operand, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutVar, Dst: dst, Arg: arg}
}
func opPutVal(dst instr.Operand, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutVal, Dst: dst, Arg: arg}
}
func opPutStruc(f instr.FunctorRef, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutStruc, Functor: f, Arg: arg}
}
func opPutList(arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutList, Arg: arg}
}
func opPutConstant(f instr.FunctorRef, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutConstant, Functor: f, Arg: arg}
}
func opPutVoid(n, arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpPutVoid, N: n, Arg: arg}
}

func opSetVar(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpSetVar, Dst: dst}
}
func opSetVal(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpSetVal, Dst: dst}
}
func opSetConstant(f instr.FunctorRef) instr.Instruction {
	return instr.Instruction{Op: instr.OpSetConstant, Functor: f}
}
func opSetVoid(n int) instr.Instruction {
	return instr.Instruction{Op: instr.OpSetVoid, N: n}
}

func stackOperand(idx int) instr.Operand { return instr.Operand{Mode: instr.ModeStack, Index: idx} }

func opAllocate(n int) instr.Instruction   { return instr.Instruction{Op: instr.OpAllocate, N: n} }
func opDeallocate() instr.Instruction      { return instr.Instruction{Op: instr.OpDeallocate} }
func opProceed() instr.Instruction         { return instr.Instruction{Op: instr.OpProceed} }
func opFail() instr.Instruction            { return instr.Instruction{Op: instr.OpFail} }
func opNeckCut() instr.Instruction         { return instr.Instruction{Op: instr.OpNeckCut} }
func opGetLevel(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpGetLevel, Dst: dst}
}
func opCut(dst instr.Operand) instr.Instruction {
	return instr.Instruction{Op: instr.OpCut, Dst: dst}
}
func opCall(f instr.FunctorRef) instr.Instruction {
	return instr.Instruction{Op: instr.OpCall, Functor: f}
}
func opExecute(f instr.FunctorRef) instr.Instruction {
	return instr.Instruction{Op: instr.OpExecute, Functor: f}
}
func opCallVar(arg int) instr.Instruction {
	return instr.Instruction{Op: instr.OpCallVar, Arg: arg}
}
func opJump(label string) instr.Instruction {
	return instr.Instruction{Op: instr.OpJump, Label: label}
}
func opTryMeElse(label string, n int) instr.Instruction {
	return instr.Instruction{Op: instr.OpTryMeElse, Label: label, N: n}
}
func opTrustMe() instr.Instruction { return instr.Instruction{Op: instr.OpTrustMe} }
func opBuiltinUnify() instr.Instruction    { return instr.Instruction{Op: instr.OpBuiltinUnify} }
func opBuiltinNotUnify() instr.Instruction { return instr.Instruction{Op: instr.OpBuiltinNotUnify} }
func opBuiltinIs() instr.Instruction       { return instr.Instruction{Op: instr.OpBuiltinIs} }
func opBuiltinCompare(kind instr.CompareKind) instr.Instruction {
	return instr.Instruction{Op: instr.OpBuiltinCompare, N: int(kind)}
}
