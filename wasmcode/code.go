/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmcode

import "math"

// Wasm binary format opcodes actually used by this compiler (wasm spec
// §5.4). Not exhaustive: no v128/reference-type/bulk-memory opcodes,
// since nothing this compiler emits ever needs them.
const (
	opUnreachable byte = 0x00
	opNop         byte = 0x01
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opCallIndirect byte = 0x11
	opDrop        byte = 0x1A

	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24

	opI32Load byte = 0x28
	opI64Load byte = 0x29
	opF32Load byte = 0x2A
	opF64Load byte = 0x2B

	opI32Store byte = 0x36
	opI64Store byte = 0x37
	opF32Store byte = 0x38
	opF64Store byte = 0x39

	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF32Const byte = 0x43
	opF64Const byte = 0x44
)

// MemArg is a load/store instruction's static alignment hint and byte
// offset (wasm spec §5.4.6). Align is log2 of the natural alignment in
// bytes (2 for 4-byte words, 3 for 8-byte words); it's advisory only —
// wasm never traps on misalignment — but every encoder still has to emit
// something, so this compiler always uses the natural alignment.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// CodeBuilder accumulates one function body's instruction bytes. It
// knows nothing about indices meaning anything in particular (locals,
// functions, types) — callers resolve those and pass plain integers.
type CodeBuilder struct {
	buf []byte
}

// NewCodeBuilder returns an empty CodeBuilder.
func NewCodeBuilder() *CodeBuilder { return &CodeBuilder{} }

// Bytes returns the accumulated instruction bytes. The caller is
// responsible for a terminating End if one hasn't been written.
func (c *CodeBuilder) Bytes() []byte { return c.buf }

func (c *CodeBuilder) op(b byte) *CodeBuilder {
	c.buf = append(c.buf, b)
	return c
}

func (c *CodeBuilder) Unreachable() *CodeBuilder { return c.op(opUnreachable) }
func (c *CodeBuilder) Nop() *CodeBuilder         { return c.op(opNop) }
func (c *CodeBuilder) Else() *CodeBuilder        { return c.op(opElse) }
func (c *CodeBuilder) End() *CodeBuilder         { return c.op(opEnd) }
func (c *CodeBuilder) Return() *CodeBuilder      { return c.op(opReturn) }
func (c *CodeBuilder) Drop() *CodeBuilder        { return c.op(opDrop) }

func (c *CodeBuilder) Block(bt BlockType) *CodeBuilder {
	c.op(opBlock)
	c.buf = append(c.buf, bt.byte())
	return c
}

func (c *CodeBuilder) Loop(bt BlockType) *CodeBuilder {
	c.op(opLoop)
	c.buf = append(c.buf, bt.byte())
	return c
}

func (c *CodeBuilder) If(bt BlockType) *CodeBuilder {
	c.op(opIf)
	c.buf = append(c.buf, bt.byte())
	return c
}

func (c *CodeBuilder) Br(depth uint32) *CodeBuilder {
	c.op(opBr)
	c.buf = AppendUvarint(c.buf, uint64(depth))
	return c
}

func (c *CodeBuilder) BrIf(depth uint32) *CodeBuilder {
	c.op(opBrIf)
	c.buf = AppendUvarint(c.buf, uint64(depth))
	return c
}

func (c *CodeBuilder) Call(funcIndex uint32) *CodeBuilder {
	c.op(opCall)
	c.buf = AppendUvarint(c.buf, uint64(funcIndex))
	return c
}

// CallIndirect calls through table 0 using a function-type index (wasm
// spec §5.4.1) — this compiler only ever declares one table, the
// program-wide virtual-dispatch table.
func (c *CodeBuilder) CallIndirect(typeIndex uint32) *CodeBuilder {
	c.op(opCallIndirect)
	c.buf = AppendUvarint(c.buf, uint64(typeIndex))
	c.buf = AppendUvarint(c.buf, 0) // table index
	return c
}

func (c *CodeBuilder) LocalGet(index uint32) *CodeBuilder {
	c.op(opLocalGet)
	c.buf = AppendUvarint(c.buf, uint64(index))
	return c
}

func (c *CodeBuilder) LocalSet(index uint32) *CodeBuilder {
	c.op(opLocalSet)
	c.buf = AppendUvarint(c.buf, uint64(index))
	return c
}

func (c *CodeBuilder) LocalTee(index uint32) *CodeBuilder {
	c.op(opLocalTee)
	c.buf = AppendUvarint(c.buf, uint64(index))
	return c
}

func (c *CodeBuilder) GlobalGet(index uint32) *CodeBuilder {
	c.op(opGlobalGet)
	c.buf = AppendUvarint(c.buf, uint64(index))
	return c
}

func (c *CodeBuilder) GlobalSet(index uint32) *CodeBuilder {
	c.op(opGlobalSet)
	c.buf = AppendUvarint(c.buf, uint64(index))
	return c
}

func (c *CodeBuilder) memOp(op byte, m MemArg) *CodeBuilder {
	c.op(op)
	c.buf = AppendUvarint(c.buf, uint64(m.Align))
	c.buf = AppendUvarint(c.buf, uint64(m.Offset))
	return c
}

func (c *CodeBuilder) I32Load(m MemArg) *CodeBuilder  { return c.memOp(opI32Load, m) }
func (c *CodeBuilder) I64Load(m MemArg) *CodeBuilder  { return c.memOp(opI64Load, m) }
func (c *CodeBuilder) F32Load(m MemArg) *CodeBuilder  { return c.memOp(opF32Load, m) }
func (c *CodeBuilder) F64Load(m MemArg) *CodeBuilder  { return c.memOp(opF64Load, m) }
func (c *CodeBuilder) I32Store(m MemArg) *CodeBuilder { return c.memOp(opI32Store, m) }
func (c *CodeBuilder) I64Store(m MemArg) *CodeBuilder { return c.memOp(opI64Store, m) }
func (c *CodeBuilder) F32Store(m MemArg) *CodeBuilder { return c.memOp(opF32Store, m) }
func (c *CodeBuilder) F64Store(m MemArg) *CodeBuilder { return c.memOp(opF64Store, m) }

func (c *CodeBuilder) I32Const(v int32) *CodeBuilder {
	c.op(opI32Const)
	c.buf = AppendVarint(c.buf, int64(v))
	return c
}

func (c *CodeBuilder) I64Const(v int64) *CodeBuilder {
	c.op(opI64Const)
	c.buf = AppendVarint(c.buf, v)
	return c
}

func (c *CodeBuilder) F32Const(v float32) *CodeBuilder {
	c.op(opF32Const)
	bits := math.Float32bits(v)
	c.buf = append(c.buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	return c
}

func (c *CodeBuilder) F64Const(v float64) *CodeBuilder {
	c.op(opF64Const)
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		c.buf = append(c.buf, byte(bits>>(8*i)))
	}
	return c
}

// Raw appends a single opcode byte with no immediate, for the many
// wasm instructions (arithmetic, comparison, conversion) that carry
// none. The opcode table mapping each one to its byte lives in wasmmod,
// next to the pseudo-IR it translates from.
func (c *CodeBuilder) Raw(opcode byte) *CodeBuilder { return c.op(opcode) }
