/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmcode

import (
	"fmt"

	"github.com/jacobin-authors/j2wasm/descriptor"
)

// Wasm binary format value-type encodings (wasm spec §5.3.1).
const (
	TypeI32 byte = 0x7F
	TypeI64 byte = 0x7E
	TypeF32 byte = 0x7D
	TypeF64 byte = 0x7C
)

// ValTypeByte returns t's wasm binary-format encoding.
func ValTypeByte(t descriptor.ValType) byte {
	switch t {
	case descriptor.I32:
		return TypeI32
	case descriptor.I64:
		return TypeI64
	case descriptor.F32:
		return TypeF32
	case descriptor.F64:
		return TypeF64
	default:
		panic(fmt.Sprintf("wasmcode: invalid ValType %d", int(t)))
	}
}

// BlockType is a structured instruction's (block/loop/if) result
// signature: empty, or a single value type. This compiler only ever
// produces 0- or 1-result blocks, never a multi-value block type index.
type BlockType struct {
	HasResult bool
	Result    descriptor.ValType
}

// Empty is the no-result block type.
var Empty = BlockType{}

// byte encodes bt as wasm's blocktype immediate: 0x40 for empty, or the
// value type byte for a single result.
func (bt BlockType) byte() byte {
	if !bt.HasResult {
		return 0x40
	}
	return ValTypeByte(bt.Result)
}
