/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/descriptor"
)

func TestFinishStartsWithMagicAndVersion(t *testing.T) {
	m := NewModule()
	out := m.Finish()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if len(out) < len(want) {
		t.Fatalf("Finish() too short: %v", out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("Finish() header = %v, want %v", out[:len(want)], want)
		}
	}
}

func TestNewModuleExportsMemory(t *testing.T) {
	m := NewModule()
	out := m.Finish()
	// memory section (id 5) and export section (id 7) must both be present.
	var sawMemory, sawExport bool
	for _, b := range out {
		if b == sectionMemory {
			sawMemory = true
		}
		if b == sectionExport {
			sawExport = true
		}
	}
	if !sawMemory || !sawExport {
		t.Fatalf("expected memory and export sections in %v", out)
	}
}

func TestEnsureTypeDedupes(t *testing.T) {
	m := NewModule()
	ft := descriptor.FunctionType{Params: []descriptor.ValType{descriptor.I32}, Results: []descriptor.ValType{descriptor.I32}}
	a := m.EnsureType(ft)
	b := m.EnsureType(ft)
	if a != b {
		t.Fatalf("EnsureType returned different indices for the same signature: %d != %d", a, b)
	}
	other := descriptor.FunctionType{Params: []descriptor.ValType{descriptor.I64}, Results: []descriptor.ValType{descriptor.I32}}
	c := m.EnsureType(other)
	if c == a {
		t.Fatalf("EnsureType collapsed distinct signatures onto the same index")
	}
}

func TestNextFunctionIndexIncrements(t *testing.T) {
	m := NewModule()
	a := m.NextFunctionIndex()
	b := m.NextFunctionIndex()
	if b != a+1 {
		t.Fatalf("NextFunctionIndex() = %d, %d, want consecutive", a, b)
	}
}

func TestAddGlobalReturnsIncrementingIndices(t *testing.T) {
	m := NewModule()
	init := []byte{0x41, 0x00, 0x0B}
	a := m.AddGlobal(descriptor.I32, true, init)
	b := m.AddGlobal(descriptor.I32, true, init)
	if a != 0 || b != 1 {
		t.Fatalf("AddGlobal indices = %d, %d, want 0, 1", a, b)
	}
}

func TestAddElementWritesActiveSegment(t *testing.T) {
	m := NewModule()
	m.SetTable(4)
	m.AddElement(2, []uint32{9, 10})
	out := m.elements.bytes()
	if out == nil {
		t.Fatal("expected a non-nil element section after AddElement")
	}
}

func TestNameSectionOmittedWhenNoNamesRecorded(t *testing.T) {
	m := NewModule()
	if got := m.nameSection(); got != nil {
		t.Fatalf("nameSection() = %v, want nil with no names recorded", got)
	}
}

func TestNameSectionRecordsFunctionNames(t *testing.T) {
	m := NewModule()
	m.SetFunctionName(0, "main")
	out := m.nameSection()
	if out == nil {
		t.Fatal("expected a non-nil name section once a name is recorded")
	}
	if out[0] != sectionCustom {
		t.Fatalf("name section id = %#x, want %#x (custom)", out[0], sectionCustom)
	}
}
