/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import "github.com/jacobin-authors/j2wasm/emit"

// rawOpcode maps every emit.WasmOp that carries no immediate of its own
// (arithmetic, bitwise, comparison, conversion) to its wasm binary
// opcode (wasm spec §5.4.1-§5.4.3). Ops with immediates (consts,
// local.get/set, block/loop/if, br/br_if) are translated directly by
// their own CodeBuilder methods in render.go instead of through this
// table.
var rawOpcode = map[emit.WasmOp]byte{
	emit.I32Add:  0x6A,
	emit.I32Sub:  0x6B,
	emit.I32Mul:  0x6C,
	emit.I32DivS: 0x6D,
	emit.I32RemS: 0x6F,
	emit.I32And:  0x71,
	emit.I32Or:   0x72,
	emit.I32Xor:  0x73,
	emit.I32Shl:  0x74,
	emit.I32ShrS: 0x75,
	emit.I32ShrU: 0x76,
	emit.I32Eqz:  0x45,
	emit.I32Eq:   0x46,
	emit.I32Ne:   0x47,
	emit.I32LtS:  0x48,
	emit.I32GtS:  0x4A,
	emit.I32LeS:  0x4C,
	emit.I32GeS:  0x4E,

	emit.I64Add:  0x7C,
	emit.I64Sub:  0x7D,
	emit.I64Mul:  0x7E,
	emit.I64DivS: 0x7F,
	emit.I64RemS: 0x81,
	emit.I64And:  0x83,
	emit.I64Or:   0x84,
	emit.I64Xor:  0x85,
	emit.I64Shl:  0x86,
	emit.I64ShrS: 0x87,
	emit.I64ShrU: 0x88,

	emit.F32Add: 0x92,
	emit.F32Sub: 0x93,
	emit.F32Mul: 0x94,
	emit.F32Div: 0x95,
	emit.F32Neg: 0x8C,

	emit.F64Add: 0xA0,
	emit.F64Sub: 0xA1,
	emit.F64Mul: 0xA2,
	emit.F64Div: 0xA3,
	emit.F64Neg: 0x9A,

	emit.I32WrapI64:     0xA7,
	emit.I32TruncF32S:   0xA8,
	emit.I32TruncF64S:   0xAA,
	emit.I64ExtendI32S:  0xAC,
	emit.I64TruncF32S:   0xAE,
	emit.I64TruncF64S:   0xB0,
	emit.F32ConvertI32S: 0xB2,
	emit.F32ConvertI64S: 0xB4,
	emit.F32DemoteF64:   0xB6,
	emit.F64ConvertI32S: 0xB7,
	emit.F64ConvertI64S: 0xB9,
	emit.F64PromoteF32:  0xBB,

	emit.Nop:    0x01,
	emit.Drop:   0x1A,
	emit.Return: 0x0F,
}
