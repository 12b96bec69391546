/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package builtin constructs the small fixed set of helper functions
// high-level JVM instructions need that wasm has no single instruction
// for: object allocation, instanceof's superclass walk, and three-way
// comparison for long/float/double. Each one is built once per module,
// lazily, the first time wasmmod's ensure mechanism needs it.
package builtin

import (
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

// Kind names one of this compiler's built-in helper functions.
type Kind int

const (
	Allocate Kind = iota
	InstanceOf
	LongCmp
	FloatCmp
	DoubleCmp
)

// Name returns the wasm export/debug name for k. The '!' prefix can
// never collide with a Java identifier, which JVMS restricts to a
// narrower character set.
func (k Kind) Name() string {
	switch k {
	case Allocate:
		return "!Allocate"
	case InstanceOf:
		return "!InstanceOf"
	case LongCmp:
		return "!LongCmp"
	case FloatCmp:
		return "!FloatCmp"
	case DoubleCmp:
		return "!DoubleCmp"
	default:
		panic("builtin: invalid Kind")
	}
}

// VirtualClassIDMemArg is the memory argument for loading or storing the
// 4-byte virtual-class ID every heap object carries ahead of its fields.
var VirtualClassIDMemArg = wasmcode.MemArg{Align: 2, Offset: 0}

// ConstructAllocate builds the bump allocator: given a size in bytes and
// a virtual class ID, it stamps the ID at the new object's head and
// returns a pointer to it, advancing heapNextGlobal by size.
//
// [size: i32, virtual_class_id: i32] -> [ptr: i32]
func ConstructAllocate(heapNextGlobal uint32) (descriptor.FunctionType, []byte) {
	ft := descriptor.FunctionType{
		Params:  []descriptor.ValType{descriptor.I32, descriptor.I32},
		Results: []descriptor.ValType{descriptor.I32},
	}
	c := wasmcode.NewCodeBuilder()
	c.GlobalGet(heapNextGlobal).
		LocalGet(1). // virtual_class_id
		I32Store(VirtualClassIDMemArg).
		GlobalGet(heapNextGlobal). // value to return
		GlobalGet(heapNextGlobal).
		LocalGet(0). // size
		Raw(i32Add).
		GlobalSet(heapNextGlobal).
		End()
	return ft, c.Bytes()
}

// ConstructInstanceOf builds the instanceof runtime check: starting at a
// pointer's own virtual class ID, it walks superclasses (via each
// class's generated super-ID function, always function-table offset 0
// relative to the class) until it finds the target ID (true) or reaches
// java/lang/Object's ID 0 without finding it (false).
//
// [ptr: i32, target_virtual_class_id: i32] -> [is: i32]
func ConstructInstanceOf(superIDTypeIndex uint32) (descriptor.FunctionType, []byte) {
	ft := descriptor.FunctionType{
		Params:  []descriptor.ValType{descriptor.I32, descriptor.I32},
		Results: []descriptor.ValType{descriptor.I32},
	}
	const currentVID, targetVID uint32 = 0, 1
	c := wasmcode.NewCodeBuilder()
	c.LocalGet(currentVID).
		I32Load(VirtualClassIDMemArg).
		LocalSet(currentVID)

	c.Loop(wasmcode.Empty)
	{
		c.LocalGet(currentVID).LocalGet(targetVID).Raw(i32Eq)
		c.If(wasmcode.Empty)
		{
			c.I32Const(1).Return()
		}
		c.End()

		c.LocalGet(currentVID).Raw(i32Eqz)
		c.If(wasmcode.Empty)
		{
			c.I32Const(0).Return()
		}
		c.End()

		// current class's super-ID function is always its own table
		// offset's first entry.
		c.LocalGet(currentVID).
			CallIndirect(superIDTypeIndex).
			LocalSet(currentVID).
			Br(0)
	}
	c.End()

	c.Unreachable() // every chain terminates at java/lang/Object, ID 0
	c.End()
	return ft, c.Bytes()
}

// ConstructCompare builds a three-way comparator for t (one of
// i64/f32/f64): -1/0/1 for less/equal/greater, with float/double taking
// an extra nan_greater flag dictating whether a NaN operand sorts above
// or below every real number (see emit.NaNBehaviour's NaN-ordering convention —
// float-remainder fidelity isn't attempted, but three-way ordering is).
//
// i64:         [a: i64, b: i64] -> [ord: i32]
// f32/f64: [a, b: t, nan_greater: i32] -> [ord: i32]
func ConstructCompare(t descriptor.ValType) (descriptor.FunctionType, []byte) {
	gt, eq, lt, hasNaN := compareOps(t)
	var params []descriptor.ValType
	if hasNaN {
		params = []descriptor.ValType{t, t, descriptor.I32}
	} else {
		params = []descriptor.ValType{t, t}
	}
	ft := descriptor.FunctionType{Params: params, Results: []descriptor.ValType{descriptor.I32}}

	c := wasmcode.NewCodeBuilder()

	c.LocalGet(0).LocalGet(1).Raw(gt)
	c.If(wasmcode.Empty)
	{
		c.I32Const(1).Return()
	}
	c.End()

	c.LocalGet(0).LocalGet(1).Raw(eq)
	c.If(wasmcode.Empty)
	{
		c.I32Const(0).Return()
	}
	c.End()

	c.LocalGet(0).LocalGet(1).Raw(lt)
	c.If(wasmcode.Empty)
	{
		c.I32Const(-1).Return()
	}
	c.End()

	// Neither > nor = nor < held: one operand is NaN (only possible for
	// float/double — this is unreachable for i64).
	if hasNaN {
		c.LocalGet(2) // nan_greater
		c.If(wasmcode.BlockType{HasResult: true, Result: descriptor.I32})
		{
			c.I32Const(1)
		}
		c.Else()
		{
			c.I32Const(-1)
		}
		c.End()
	} else {
		c.Unreachable()
	}

	c.End()
	return ft, c.Bytes()
}

func compareOps(t descriptor.ValType) (gt, eq, lt byte, hasNaN bool) {
	switch t {
	case descriptor.I64:
		return i64GtS, i64Eq, i64LtS, false
	case descriptor.F32:
		return f32Gt, f32Eq, f32Lt, true
	case descriptor.F64:
		return f64Gt, f64Eq, f64Lt, true
	default:
		panic("builtin: ConstructCompare only supports i64/f32/f64")
	}
}
