/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package emit

import (
	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/function"
)

func valType(t classfile.ValTypeTag) descriptor.ValType {
	switch t {
	case classfile.TagLong:
		return descriptor.I64
	case classfile.TagFloat:
		return descriptor.F32
	case classfile.TagDouble:
		return descriptor.F64
	default: // TagInt, TagRef
		return descriptor.I32
	}
}

// getLocal appends the load for a local of type t at slot to out.
func getLocal(out []Instruction, locals *function.LocalInterpretation, t descriptor.ValType, slot int) []Instruction {
	return append(out, instrOp(opLocalGet(locals.GetLocalIndex(t, slot))))
}

func setLocal(out []Instruction, locals *function.LocalInterpretation, t descriptor.ValType, slot int) []Instruction {
	return append(out, instrOp(opLocalSet(locals.GetLocalIndex(t, slot))))
}

// arithOp selects the wasm binary operator for an OpArith instruction,
// given its operator kind and operand type.
func arithOp(kind classfile.ArithKind, t descriptor.ValType) WasmOp {
	switch t {
	case descriptor.I64:
		switch kind {
		case classfile.ArithAdd:
			return I64Add
		case classfile.ArithSub:
			return I64Sub
		case classfile.ArithMul:
			return I64Mul
		case classfile.ArithDiv:
			return I64DivS
		case classfile.ArithRem:
			return I64RemS
		case classfile.ArithAnd:
			return I64And
		case classfile.ArithOr:
			return I64Or
		case classfile.ArithXor:
			return I64Xor
		case classfile.ArithShl:
			return I64Shl
		case classfile.ArithShr:
			return I64ShrS
		case classfile.ArithUshr:
			return I64ShrU
		}
	case descriptor.F32:
		switch kind {
		case classfile.ArithAdd:
			return F32Add
		case classfile.ArithSub:
			return F32Sub
		case classfile.ArithMul:
			return F32Mul
		case classfile.ArithDiv:
			return F32Div
		}
	case descriptor.F64:
		switch kind {
		case classfile.ArithAdd:
			return F64Add
		case classfile.ArithSub:
			return F64Sub
		case classfile.ArithMul:
			return F64Mul
		case classfile.ArithDiv:
			return F64Div
		}
	default: // I32
		switch kind {
		case classfile.ArithAdd:
			return I32Add
		case classfile.ArithSub:
			return I32Sub
		case classfile.ArithMul:
			return I32Mul
		case classfile.ArithDiv:
			return I32DivS
		case classfile.ArithRem:
			return I32RemS
		case classfile.ArithAnd:
			return I32And
		case classfile.ArithOr:
			return I32Or
		case classfile.ArithXor:
			return I32Xor
		case classfile.ArithShl:
			return I32Shl
		case classfile.ArithShr:
			return I32ShrS
		case classfile.ArithUshr:
			return I32ShrU
		}
	}
	compileerr.Invariant("emit: arithmetic kind %d is not valid for type %v", kind, t)
	panic("unreachable")
}

// conditionalCompareOp selects the wasm comparison pushed for a
// conditional-branch instruction that itself carries no operator field
// (it always compares against an implicit zero or reference).
func conditionalCompareOp(op classfile.Opcode) (WasmOp, bool) {
	switch op {
	case classfile.OpIfEq, classfile.OpIfNull:
		return I32Eqz, false
	case classfile.OpIfNe, classfile.OpIfNonNull:
		return I32Ne, true
	case classfile.OpIfLt:
		return I32LtS, true
	case classfile.OpIfGe:
		return I32GeS, true
	case classfile.OpIfGt:
		return I32GtS, true
	case classfile.OpIfLe:
		return I32LeS, true
	case classfile.OpIfIcmpEq, classfile.OpIfAcmpEq:
		return I32Eq, false
	case classfile.OpIfIcmpNe, classfile.OpIfAcmpNe:
		return I32Ne, false
	case classfile.OpIfIcmpLt:
		return I32LtS, false
	case classfile.OpIfIcmpGe:
		return I32GeS, false
	case classfile.OpIfIcmpGt:
		return I32GtS, false
	case classfile.OpIfIcmpLe:
		return I32LeS, false
	}
	return 0, false
}

// convertOp selects the wasm conversion instruction for an OpConvert
// from/to type pair.
func convertOp(from, to descriptor.ValType) WasmOp {
	switch {
	case from == descriptor.I32 && to == descriptor.I64:
		return I64ExtendI32S
	case from == descriptor.I32 && to == descriptor.F32:
		return F32ConvertI32S
	case from == descriptor.I32 && to == descriptor.F64:
		return F64ConvertI32S
	case from == descriptor.I64 && to == descriptor.I32:
		return I32WrapI64
	case from == descriptor.I64 && to == descriptor.F32:
		return F32ConvertI64S
	case from == descriptor.I64 && to == descriptor.F64:
		return F64ConvertI64S
	case from == descriptor.F32 && to == descriptor.I32:
		return I32TruncF32S
	case from == descriptor.F32 && to == descriptor.I64:
		return I64TruncF32S
	case from == descriptor.F32 && to == descriptor.F64:
		return F64PromoteF32
	case from == descriptor.F64 && to == descriptor.I32:
		return I32TruncF64S
	case from == descriptor.F64 && to == descriptor.I64:
		return I64TruncF64S
	case from == descriptor.F64 && to == descriptor.F32:
		return F32DemoteF64
	}
	compileerr.Invariant("emit: no conversion from %v to %v", from, to)
	panic("unreachable")
}

// Visit translates one byte-code instruction into zero or more pseudo-IR
// instructions, appended to out. Control-flow opcodes (Goto and every
// conditional branch) contribute only the value test they leave on the
// stack — the branch scaffolding itself is reconstructed by the Visitor
// from the structuring passes' output, not from BranchTarget.
func Visit(out []Instruction, cp *classfile.ConstantPool, locals *function.LocalInterpretation, ins classfile.RawInstruction) []Instruction {
	switch ins.Op {
	case classfile.OpNop:
		return append(out, instrOp(op(Nop)))

	case classfile.OpGoto:
		return append(out, instrOp(op(Nop)))

	case classfile.OpIfEq, classfile.OpIfNe, classfile.OpIfLt, classfile.OpIfGe,
		classfile.OpIfGt, classfile.OpIfLe, classfile.OpIfIcmpEq, classfile.OpIfIcmpNe,
		classfile.OpIfIcmpLt, classfile.OpIfIcmpGe, classfile.OpIfIcmpGt, classfile.OpIfIcmpLe,
		classfile.OpIfAcmpEq, classfile.OpIfAcmpNe, classfile.OpIfNull, classfile.OpIfNonNull:
		wop, needsZero := conditionalCompareOp(ins.Op)
		if needsZero {
			out = append(out, instrOp(opI32(0)))
		}
		return append(out, instrOp(op(wop)))

	case classfile.OpReturn:
		return append(out, instrOp(op(Return)))

	case classfile.OpLoad:
		return getLocal(out, locals, valType(ins.Type), int(ins.Slot))
	case classfile.OpStore:
		return setLocal(out, locals, valType(ins.Type), int(ins.Slot))
	case classfile.OpIInc:
		idx := locals.GetLocalIndex(descriptor.I32, int(ins.Slot))
		out = append(out, instrOp(opLocalGet(idx)))
		out = append(out, instrOp(opI32(ins.IntImmediate)))
		out = append(out, instrOp(op(I32Add)))
		return append(out, instrOp(opLocalSet(idx)))

	case classfile.OpIConst:
		return append(out, instrOp(opI32(ins.IntImmediate)))
	case classfile.OpLConst:
		return append(out, instrOp(opI64(int64(ins.IntImmediate))))
	case classfile.OpFConst:
		return append(out, instrOp(opF32(float32(ins.FloatImmediate))))
	case classfile.OpDConst:
		return append(out, instrOp(opF64(ins.FloatImmediate)))
	case classfile.OpAConstNull:
		return append(out, instrOp(opI32(0)))

	case classfile.OpLdc:
		num := cp.Num(ins.ConstIndex)
		switch {
		case num.IsInt():
			return append(out, instrOp(opI32(num.Int())))
		case num.IsFloat():
			return append(out, instrOp(opF32(num.Float())))
		case num.IsLong():
			return append(out, instrOp(opI64(num.Long())))
		default:
			return append(out, instrOp(opF64(num.Double())))
		}

	case classfile.OpArith:
		return append(out, instrOp(op(arithOp(ins.Arith, valType(ins.Type)))))

	case classfile.OpNeg:
		switch valType(ins.Type) {
		case descriptor.I32:
			out = append(out, instrOp(opI32(-1)))
			return append(out, instrOp(op(I32Mul)))
		case descriptor.I64:
			out = append(out, instrOp(opI64(-1)))
			return append(out, instrOp(op(I64Mul)))
		case descriptor.F32:
			return append(out, instrOp(op(F32Neg)))
		default:
			return append(out, instrOp(op(F64Neg)))
		}

	case classfile.OpCmp:
		nan := NaNLesser
		if ins.NaNGreater {
			nan = NaNGreater
		}
		switch valType(ins.Type) {
		case descriptor.I64:
			return append(out, instrLongCmp())
		case descriptor.F32:
			return append(out, instrFloatCmp(nan))
		default:
			return append(out, instrDoubleCmp(nan))
		}

	case classfile.OpDup:
		return append(out, instrDup())
	case classfile.OpPop:
		return append(out, instrOp(op(Drop)))

	case classfile.OpConvert:
		return append(out, instrOp(op(convertOp(valType(ins.Type), valType(ins.ToType)))))

	case classfile.OpNew:
		return append(out, instrNew(cp.ClassName(ins.ConstIndex)))
	case classfile.OpInstanceOf:
		return append(out, instrInstanceOf(cp.ClassName(ins.ConstIndex)))
	case classfile.OpGetField:
		return append(out, instrGetField(cp.Field(ins.ConstIndex)))
	case classfile.OpPutField:
		return append(out, instrPutField(cp.Field(ins.ConstIndex)))

	case classfile.OpInvokeStatic:
		return append(out, instrCallStatic(cp.Method(ins.ConstIndex)))
	case classfile.OpInvokeVirtual:
		return append(out, instrCallVirtual(cp.Method(ins.ConstIndex)))
	case classfile.OpInvokeSpecial:
		id := cp.Method(ins.ConstIndex)
		if id.ClassName == classfile.JavaLangObject && id.Name == "<init>" {
			// Implicit super() call on the root class: a no-op, but the
			// receiver it would have consumed is still on the stack.
			return append(out, instrOp(op(Drop)))
		}
		return append(out, instrCallStatic(id))

	case classfile.OpAthrow:
		return append(out, instrUnreachable())
	}

	compileerr.Invariant("emit: unhandled opcode %d", ins.Op)
	panic("unreachable")
}

// VisitBlock translates a straight-line run of byte-code, in order.
func VisitBlock(cp *classfile.ConstantPool, locals *function.LocalInterpretation, code []classfile.RawInstruction) []Instruction {
	var out []Instruction
	for _, ins := range code {
		out = Visit(out, cp, locals, ins)
	}
	return out
}
