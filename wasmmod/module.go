/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package wasmmod assembles one program's worth of compiled functions
// into a single wasm binary module: the type/function/table/memory/
// global/export/element/code sections, plus the handful of built-in
// helper functions and virtual dispatch thunks the program's functions
// turn out to need, generated lazily and exactly once each.
package wasmmod

import (
	"sort"

	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

// Module accumulates one wasm binary's sections as they're rendered.
// Sections are written in the fixed order wasm requires regardless of
// the order their entries were appended in, so Finish reorders by
// section ID, not call order.
type Module struct {
	types     section
	imports   section
	functions section
	table     section
	memory    section
	globals   section
	exports   section
	elements  section
	codes     section

	// ensured memoizes every type/dispatcher/builtin already written (or
	// reserved), so a function requested twice returns the same index
	// instead of generating a duplicate.
	ensured map[ensureKey]uint32

	nextTypeIndex     uint32
	nextFunctionIndex uint32
	nextGlobalIndex   uint32

	// ensuredFunctions holds dispatcher/builtin bodies whose indices are
	// already assigned but whose code hasn't been written to the
	// function/code sections yet — user functions must all be indexed
	// and rendered first, since ensuring a built-in while rendering one
	// user function must not shift the indices of functions rendered
	// after it.
	ensuredFunctions []ensuredFunc

	// functionNames backs the custom "name" section: debug names for
	// every function index, written in index order by Finish.
	functionNames map[uint32]string
}

type ensuredFunc struct {
	typeIndex     uint32
	functionIndex uint32
	code          []byte
	name          string
}

// NewModule returns an empty Module with its heap already declared: a
// single unbounded memory, exported as "memory" so a host embedder can
// read compiled objects back out.
func NewModule() *Module {
	m := &Module{
		types:         section{id: sectionType},
		imports:       section{id: sectionImport},
		functions:     section{id: sectionFunction},
		table:         section{id: sectionTable},
		memory:        section{id: sectionMemory},
		globals:       section{id: sectionGlobal},
		exports:       section{id: sectionExport},
		elements:      section{id: sectionElement},
		codes:         section{id: sectionCode},
		ensured:       make(map[ensureKey]uint32),
		functionNames: make(map[uint32]string),
	}
	m.addHeap()
	return m
}

// addHeap declares the module's one memory: a minimum of one 64KiB page,
// no maximum. The bump allocator never frees and never issues
// memory.grow, so the heap is limited to that one page.
func (m *Module) addHeap() {
	m.memory.append(encodeMemoryType(1))
	m.exports.append(encodeExport("memory", exportMemory, 0))
}

// SetFunctionName records fn's debug name for the custom name section.
func (m *Module) SetFunctionName(fn uint32, name string) {
	m.functionNames[fn] = name
}

// NextFunctionIndex reserves and returns the next function index,
// without assigning it a type or body — used by the renderer while
// indexing user functions, before any of them have been translated.
func (m *Module) NextFunctionIndex() uint32 {
	idx := m.nextFunctionIndex
	m.nextFunctionIndex++
	return idx
}

// AddFunction declares a rendered function's type and body directly
// (not through the ensure/queue mechanism): used for user functions and
// the virtual table's per-class super-ID functions, both of which are
// written immediately because their index is already fixed by the time
// their body is known.
func (m *Module) AddFunction(typeIndex uint32, code []byte, locals []localDecl) {
	m.functions.append(wasmcode.AppendUvarint(nil, uint64(typeIndex)))
	m.codes.append(encodeCode(locals, code))
}

// AddExport exports fn under name.
func (m *Module) AddExport(name string, fn uint32) {
	m.exports.append(encodeExport(name, exportFunc, fn))
}

// AddGlobal declares a mutable or immutable i32/i64/f32/f64 global with
// a constant initializer, returning its index.
func (m *Module) AddGlobal(t descriptor.ValType, mutable bool, init []byte) uint32 {
	idx := m.nextGlobalIndex
	m.nextGlobalIndex++
	entry := encodeGlobalType(t, mutable)
	entry = append(entry, init...)
	m.globals.append(entry)
	return idx
}

// SetTable declares the module's one table: a fixed-size funcref table
// sized to hold every class's virtual dispatch slots. Called once,
// after every class's slots are known.
func (m *Module) SetTable(size uint32) {
	m.table.append(encodeTableType(size, &size))
}

// AddElement writes an active element segment placing fns starting at
// offset in the module's one table.
func (m *Module) AddElement(offset uint32, fns []uint32) {
	buf := []byte{0x00} // active segment, table index 0 implied
	buf = append(buf, 0x41)
	buf = wasmcode.AppendVarint(buf, int64(offset))
	buf = append(buf, 0x0B) // end of offset expression
	buf = wasmcode.AppendUvarint(buf, uint64(len(fns)))
	for _, f := range fns {
		buf = wasmcode.AppendUvarint(buf, uint64(f))
	}
	m.elements.append(buf)
}

// Finish assembles every section, in wasm's fixed section-ID order,
// into a complete binary module (preceded by the magic number and
// version header), plus a trailing custom name section for debug info.
func (m *Module) Finish() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for _, s := range []*section{&m.types, &m.imports, &m.functions, &m.table, &m.memory, &m.globals, &m.exports, &m.elements, &m.codes} {
		out = append(out, s.bytes()...)
	}
	out = append(out, m.nameSection()...)
	return out
}

func (m *Module) nameSection() []byte {
	if len(m.functionNames) == 0 {
		return nil
	}
	indices := make([]uint32, 0, len(m.functionNames))
	for idx := range m.functionNames {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var nameMap []byte
	nameMap = wasmcode.AppendUvarint(nameMap, uint64(len(indices)))
	for _, idx := range indices {
		nameMap = wasmcode.AppendUvarint(nameMap, uint64(idx))
		nameMap = wasmcode.AppendName(nameMap, m.functionNames[idx])
	}

	sub := []byte{0x01} // function names subsection
	sub = wasmcode.AppendUvarint(sub, uint64(len(nameMap)))
	sub = append(sub, nameMap...)

	body := wasmcode.AppendName(nil, "name")
	body = append(body, sub...)

	out := []byte{sectionCustom}
	out = wasmcode.AppendUvarint(out, uint64(len(body)))
	return append(out, body...)
}
