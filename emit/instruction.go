/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package emit

import "github.com/jacobin-authors/j2wasm/classfile"

// InstructionKind discriminates Instruction's variants.
type InstructionKind int

const (
	// KindOp wraps a plain Op, unpacked straight into the code section.
	KindOp InstructionKind = iota

	// KindDup duplicates the top-of-stack i32 value. Lowered to a
	// local.tee/local.get pair against a scratch local wasmmod appends
	// to the function's locals run.
	KindDup

	// KindNew allocates ClassName on the bump heap, leaving its pointer
	// on the stack. Lowered to a call to component L's Allocate helper
	// for that class.
	KindNew

	// KindInstanceOf tests the i32 pointer on the stack against
	// ClassName, replacing it with a 0/1 i32. Lowered to a call to
	// component L's InstanceOf helper.
	KindInstanceOf

	// KindGetField/KindPutField access Field on the object pointer on
	// the stack. Lowered directly to a load/store typed by Field's
	// descriptor (i32, i64, f32 or f64) at Field's offset
	// (known only once every class's layout is finalized).
	KindGetField
	KindPutField

	// KindCallStatic/KindCallVirtual call Method. CallVirtual dispatches
	// through the receiver's virtual table (component J); CallStatic
	// calls the target function directly.
	KindCallStatic
	KindCallVirtual

	// KindLongCmp/KindFloatCmp/KindDoubleCmp compare the top two values,
	// leaving a {-1,0,1} i32. Lowered to a call to component L's Compare
	// dispatcher for the operand type (and NaN direction, for floats).
	KindLongCmp
	KindFloatCmp
	KindDoubleCmp

	// KindUnreachable lowers a failed assertion's athrow to a wasm trap.
	// It carries no operand and never falls through.
	KindUnreachable
)

// NaNBehaviour selects the direction fcmpg/dcmpg vs. fcmpl/dcmpl treat a
// NaN operand as ordering towards.
type NaNBehaviour int

const (
	// NaNGreater: if either operand is NaN, the comparison is greater.
	NaNGreater NaNBehaviour = iota
	// NaNLesser: if either operand is NaN, the comparison is lesser.
	NaNLesser
)

// AsNaNGreaterFlag returns the value component L's Compare built-in
// expects for its nan_greater parameter.
func (n NaNBehaviour) AsNaNGreaterFlag() int32 {
	if n == NaNGreater {
		return 1
	}
	return 0
}

// Instruction is one entry in the pseudo-IR stream the Visitor produces:
// either a simple Op, or a pseudo-instruction requiring virtual dispatch
// or a built-in helper, to be lowered to simple instructions once
// wasmmod knows every class's final layout.
type Instruction struct {
	Kind InstructionKind

	Op Op // KindOp

	ClassName string // KindNew, KindInstanceOf

	Field  classfile.FieldId  // KindGetField, KindPutField
	Method classfile.MethodId // KindCallStatic, KindCallVirtual

	NaN NaNBehaviour // KindFloatCmp, KindDoubleCmp
}

func instrOp(o Op) Instruction                     { return Instruction{Kind: KindOp, Op: o} }
func instrDup() Instruction                        { return Instruction{Kind: KindDup} }
func instrNew(class string) Instruction             { return Instruction{Kind: KindNew, ClassName: class} }
func instrInstanceOf(class string) Instruction      { return Instruction{Kind: KindInstanceOf, ClassName: class} }
func instrGetField(f classfile.FieldId) Instruction { return Instruction{Kind: KindGetField, Field: f} }
func instrPutField(f classfile.FieldId) Instruction { return Instruction{Kind: KindPutField, Field: f} }
func instrCallStatic(m classfile.MethodId) Instruction {
	return Instruction{Kind: KindCallStatic, Method: m}
}
func instrCallVirtual(m classfile.MethodId) Instruction {
	return Instruction{Kind: KindCallVirtual, Method: m}
}
func instrLongCmp() Instruction                  { return Instruction{Kind: KindLongCmp} }
func instrFloatCmp(n NaNBehaviour) Instruction    { return Instruction{Kind: KindFloatCmp, NaN: n} }
func instrDoubleCmp(n NaNBehaviour) Instruction    { return Instruction{Kind: KindDoubleCmp, NaN: n} }
func instrUnreachable() Instruction               { return Instruction{Kind: KindUnreachable} }
