/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package wasmcode provides the wasm binary format's smallest building
// blocks: LEB128 integer encoding and a single-function instruction
// encoder. Nothing above single-function granularity (sections, modules)
// lives here — that's wasmmod's job, built on top of this package.
package wasmcode

// AppendUvarint appends v to buf as an unsigned LEB128 integer, the
// encoding wasm uses for every size, count and index field.
func AppendUvarint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// AppendVarint appends v to buf as a signed LEB128 integer, the encoding
// wasm uses for i32.const/i64.const immediates.
func AppendVarint(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			return buf
		}
		buf = append(buf, b|0x80)
	}
}

// AppendName appends a wasm "name": a byte-length-prefixed UTF-8 string,
// used for import/export names and the custom name section.
func AppendName(buf []byte, s string) []byte {
	buf = AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
