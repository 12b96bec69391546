/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/emit"
	"github.com/jacobin-authors/j2wasm/function"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

func addMethodId() classfile.MethodId {
	md := descriptor.NewMethodDescriptor(
		[]descriptor.FieldDescriptor{{Kind: descriptor.Int}, {Kind: descriptor.Int}},
		descriptor.ReturnDescriptor{Kind: descriptor.Field, Field: descriptor.FieldDescriptor{Kind: descriptor.Int}},
	)
	return classfile.MethodId{ClassName: "Adder", Name: "add", Descriptor: md}
}

func TestRenderAllProducesAValidModule(t *testing.T) {
	classes := map[string]*classfile.Class{
		"Adder": {ClassName: "Adder", SuperClassName: classfile.JavaLangObject},
	}

	id := addMethodId()
	locals := function.FromCode(true, id.Descriptor.Params, nil)

	cf := CompiledFunction{
		Id:       id,
		IsStatic: true,
		IsExport: true,
		Locals:   locals,
		Code: []emit.Instruction{
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.LocalGet, Idx: 0}},
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.LocalGet, Idx: 1}},
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.I32Add}},
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.End}},
		},
	}

	r := NewRenderer(classes, []CompiledFunction{cf})
	out := NewModule()
	indices := r.RenderAll(out)

	if _, ok := indices[id.String()]; !ok {
		t.Fatalf("RenderAll did not index %s", id.String())
	}

	module := out.Finish()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for i := range want {
		if module[i] != want[i] {
			t.Fatalf("Finish() header = %v, want %v", module[:len(want)], want)
		}
	}
}

func TestRenderAllWithVirtualCallEnsuresDispatcher(t *testing.T) {
	baseDesc := descriptor.NewMethodDescriptor(nil, descriptor.ReturnDescriptor{Kind: descriptor.Void})
	base := &classfile.Class{
		ClassName:      "Base",
		SuperClassName: classfile.JavaLangObject,
		Methods: []*classfile.Function{
			{Id: classfile.MethodId{ClassName: "Base", Name: "run", Descriptor: baseDesc}, IsStatic: false},
		},
	}
	classes := map[string]*classfile.Class{"Base": base}

	callerId := classfile.MethodId{
		ClassName:  "Base",
		Name:       "caller",
		Descriptor: descriptor.NewMethodDescriptor(nil, descriptor.ReturnDescriptor{Kind: descriptor.Void}),
	}
	runId := classfile.MethodId{ClassName: "Base", Name: "run", Descriptor: baseDesc}

	callerLocals := function.FromCode(false, nil, nil)
	runLocals := function.FromCode(false, nil, nil)

	caller := CompiledFunction{
		Id:       callerId,
		IsStatic: false,
		Locals:   callerLocals,
		Code: []emit.Instruction{
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.LocalGet, Idx: 0}},
			emitCallVirtual(runId),
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.End}},
		},
	}
	run := CompiledFunction{
		Id:       runId,
		IsStatic: false,
		Locals:   runLocals,
		Code: []emit.Instruction{
			{Kind: emit.KindOp, Op: emit.Op{Code: emit.End}},
		},
	}

	r := NewRenderer(classes, []CompiledFunction{caller, run})
	out := NewModule()
	r.RenderAll(out)

	if len(out.ensured) == 0 {
		t.Fatal("expected a dispatcher to be ensured for the virtual call")
	}
}

func emitCallVirtual(m classfile.MethodId) emit.Instruction {
	return emit.Instruction{Kind: emit.KindCallVirtual, Method: m}
}

// new AssertionError(); ...; athrow -- the construction site lowers to a
// null stand-in and a no-op init call, but the athrow that follows must
// still reach a real wasm trap.
func TestRenderAssertionFailureEmitsUnreachable(t *testing.T) {
	r := NewRenderer(map[string]*classfile.Class{}, nil)
	out := NewModule()
	c := wasmcode.NewCodeBuilder()

	r.render(out, c, emit.Instruction{Kind: emit.KindNew, ClassName: javaLangAssertionError}, nil)
	r.render(out, c, emit.Instruction{
		Kind:   emit.KindCallStatic,
		Method: classfile.MethodId{ClassName: javaLangAssertionError, Name: "<init>"},
	}, nil)
	r.render(out, c, emit.Instruction{Kind: emit.KindUnreachable}, nil)

	got := c.Bytes()
	want := []byte{0x41, 0x00, 0x01, 0x00} // i32.const 0, nop, unreachable
	if len(got) != len(want) {
		t.Fatalf("rendered bytes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rendered bytes = %v, want %v", got, want)
		}
	}
}

func TestGetClassSizeWalksSuperclassChain(t *testing.T) {
	classes := map[string]*classfile.Class{
		"Base": {ClassName: "Base", SuperClassName: classfile.JavaLangObject, Size: 4},
		"Sub":  {ClassName: "Sub", SuperClassName: "Base", Size: 8},
	}
	r := NewRenderer(classes, nil)
	// virtual-class-id header (4) + Sub's own fields (8) + Base's fields (4)
	if got := r.getClassSize("Sub"); got != 16 {
		t.Fatalf("getClassSize(Sub) = %d, want 16", got)
	}
}

func TestGetFieldOffsetAddsSuperclassSizes(t *testing.T) {
	classes := map[string]*classfile.Class{
		"Base": {ClassName: "Base", SuperClassName: classfile.JavaLangObject, Size: 4, FieldOffsets: map[string]uint32{"x": 0}},
		"Sub":  {ClassName: "Sub", SuperClassName: "Base", Size: 8, FieldOffsets: map[string]uint32{"y": 0}},
	}
	r := NewRenderer(classes, nil)
	id := classfile.FieldId{ClassName: "Sub", Name: "y", Descriptor: descriptor.FieldDescriptor{Kind: descriptor.Int}}
	typ, arg := r.getFieldOffset(id)
	if typ != descriptor.I32 {
		t.Fatalf("getFieldOffset(Sub.y) type = %v, want i32", typ)
	}
	// virtual-class-id header (4) + Base's size (4) + y's own offset (0)
	if arg.Offset != 8 {
		t.Fatalf("getFieldOffset(Sub.y) offset = %d, want 8", arg.Offset)
	}
}
