/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package emit turns one function's structured control-flow graph
// (function.StructuredCode) into the flat pseudo-IR instruction stream
// wasmmod lowers into an actual wasm code section.
//
// No wasm-authoring library exists anywhere in the retrieval pack —
// tetratelabs/wazero, go-interpreter/wagon and bytecodealliance's Go
// bindings all run or embed wasm, none build a module from scratch — so
// Op mirrors wazero's own internal instruction representation: a flat,
// numerically-tagged record built up in memory and only serialized to
// LEB128 bytes by wasmmod, rather than a byte stream assembled by hand
// here.
package emit

// WasmOp enumerates the "simple" wasm instructions this compiler ever
// emits directly: arithmetic, comparisons, conversions, locals and the
// Block/Loop/If/Else/End/Br/BrIf scaffolding the structuring passes
// reconstruct. Everything requiring a virtual dispatch table or a
// built-in helper function is a pseudo-instruction (Instruction, not Op)
// instead, lowered only once wasmmod knows the program's full virtual
// layout.
type WasmOp int

const (
	Nop WasmOp = iota
	Drop
	Return

	I32Const
	I64Const
	F32Const
	F64Const

	LocalGet
	LocalSet

	I32Add
	I32Sub
	I32Mul
	I32DivS
	I32RemS
	I32And
	I32Or
	I32Xor
	I32Shl
	I32ShrS
	I32ShrU
	I32Eqz
	I32Eq
	I32Ne
	I32LtS
	I32GeS
	I32GtS
	I32LeS

	I64Add
	I64Sub
	I64Mul
	I64DivS
	I64RemS
	I64And
	I64Or
	I64Xor
	I64Shl
	I64ShrS
	I64ShrU

	F32Add
	F32Sub
	F32Mul
	F32Div
	F32Neg

	F64Add
	F64Sub
	F64Mul
	F64Div
	F64Neg

	I32TruncF32S
	I32TruncF64S
	I64TruncF32S
	I64TruncF64S
	I64ExtendI32S
	I32WrapI64
	F32ConvertI32S
	F32ConvertI64S
	F64ConvertI32S
	F64ConvertI64S
	F32DemoteF64
	F64PromoteF32

	Block
	Loop
	If
	Else
	End
	Br
	BrIf
)

// Op is one simple wasm instruction: Code plus whichever immediate field
// that code actually uses.
type Op struct {
	Code WasmOp

	I32Val int32
	I64Val int64
	F32Val float32
	F64Val float64

	// Idx is the local index for LocalGet/LocalSet, or the branch depth
	// for Br/BrIf.
	Idx uint32

	// HasResult marks a Block/Loop/If as producing a single i32 value on
	// exit rather than none.
	HasResult bool
}

func opI32(v int32) Op       { return Op{Code: I32Const, I32Val: v} }
func opI64(v int64) Op       { return Op{Code: I64Const, I64Val: v} }
func opF32(v float32) Op     { return Op{Code: F32Const, F32Val: v} }
func opF64(v float64) Op     { return Op{Code: F64Const, F64Val: v} }
func opLocalGet(i uint32) Op { return Op{Code: LocalGet, Idx: i} }
func opLocalSet(i uint32) Op { return Op{Code: LocalSet, Idx: i} }
func opBr(depth uint32) Op   { return Op{Code: Br, Idx: depth} }
func opBrIf(depth uint32) Op { return Op{Code: BrIf, Idx: depth} }
func op(c WasmOp) Op         { return Op{Code: c} }
