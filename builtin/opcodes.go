/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package builtin

// A handful of raw wasm opcodes (wasm spec §5.4) these hand-written
// function bodies need directly, passed to CodeBuilder.Raw. Nothing
// fancier than this package's five functions ever needs: everything
// else goes through CodeBuilder's named methods.
const (
	i32Add byte = 0x6A
	i32Eq  byte = 0x46
	i32Eqz byte = 0x45

	i64GtS byte = 0x55
	i64Eq  byte = 0x51
	i64LtS byte = 0x53

	f32Gt byte = 0x5E
	f32Eq byte = 0x5B
	f32Lt byte = 0x5D

	f64Gt byte = 0x64
	f64Eq byte = 0x61
	f64Lt byte = 0x63
)
