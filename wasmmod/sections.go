/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import (
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

// Wasm binary format section IDs (wasm spec §5.5). No start or data
// section: this compiler never needs either — every class's instance
// fields are zero-initialized by the bump allocator, and there is no
// <clinit>-style module-level entry point.
const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionTable    byte = 4
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionElement  byte = 9
	sectionCode     byte = 10
	sectionCustom   byte = 0
)

// section accumulates one wasm section's entries: a count prefix
// followed by however many items the section holds. Every section in
// the binary format shares this (count, body) shape.
type section struct {
	id    byte
	count uint32
	body  []byte
}

func (s *section) append(entry []byte) {
	s.body = append(s.body, entry...)
	s.count++
}

// bytes renders the section's framed bytes, or nil if it's empty — an
// empty section is omitted from the module entirely.
func (s *section) bytes() []byte {
	if s.count == 0 {
		return nil
	}
	body := wasmcode.AppendUvarint(nil, uint64(s.count))
	body = append(body, s.body...)
	out := []byte{s.id}
	out = wasmcode.AppendUvarint(out, uint64(len(body)))
	return append(out, body...)
}

// encodeFuncType encodes a FunctionType as a wasm type-section entry:
// the 0x60 functype tag, then a vector of parameter types, then a vector
// of result types.
func encodeFuncType(ft descriptor.FunctionType) []byte {
	buf := []byte{0x60}
	buf = wasmcode.AppendUvarint(buf, uint64(len(ft.Params)))
	for _, p := range ft.Params {
		buf = append(buf, wasmcode.ValTypeByte(p))
	}
	buf = wasmcode.AppendUvarint(buf, uint64(len(ft.Results)))
	for _, r := range ft.Results {
		buf = append(buf, wasmcode.ValTypeByte(r))
	}
	return buf
}

// Export kinds (wasm spec §5.5.10).
const (
	exportFunc   byte = 0x00
	exportTable  byte = 0x01
	exportMemory byte = 0x02
	exportGlobal byte = 0x03
)

func encodeExport(name string, kind byte, index uint32) []byte {
	buf := wasmcode.AppendName(nil, name)
	buf = append(buf, kind)
	return wasmcode.AppendUvarint(buf, uint64(index))
}

// encodeLimits encodes a table/memory limits pair: minimum-only when
// maximum is nil (the module's one memory, which is unbounded), minimum
// and maximum otherwise (its one table, fixed-size once every class is
// known).
func encodeLimits(minimum uint32, maximum *uint32) []byte {
	if maximum == nil {
		buf := []byte{0x00}
		return wasmcode.AppendUvarint(buf, uint64(minimum))
	}
	buf := []byte{0x01}
	buf = wasmcode.AppendUvarint(buf, uint64(minimum))
	return wasmcode.AppendUvarint(buf, uint64(*maximum))
}

// funcref is the only reference type this compiler's one table holds.
const funcref byte = 0x70

func encodeTableType(minimum uint32, maximum *uint32) []byte {
	buf := []byte{funcref}
	return append(buf, encodeLimits(minimum, maximum)...)
}

func encodeMemoryType(minimumPages uint32) []byte {
	return encodeLimits(minimumPages, nil)
}

func encodeGlobalType(t descriptor.ValType, mutable bool) []byte {
	m := byte(0x00)
	if mutable {
		m = 0x01
	}
	return []byte{wasmcode.ValTypeByte(t), m}
}

// encodeCode frames one function body for the code section: its byte
// size, its run-length-encoded local declarations, then its
// instructions (which must already end in End).
func encodeCode(locals []localDecl, instructions []byte) []byte {
	body := wasmcode.AppendUvarint(nil, uint64(len(locals)))
	for _, l := range locals {
		body = wasmcode.AppendUvarint(body, uint64(l.count))
		body = append(body, wasmcode.ValTypeByte(l.typ))
	}
	body = append(body, instructions...)
	out := wasmcode.AppendUvarint(nil, uint64(len(body)))
	return append(out, body...)
}

type localDecl struct {
	count uint32
	typ   descriptor.ValType
}
