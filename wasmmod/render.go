/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import (
	"sort"

	"github.com/jacobin-authors/j2wasm/builtin"
	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/emit"
	"github.com/jacobin-authors/j2wasm/function"
	"github.com/jacobin-authors/j2wasm/virtual"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

// javaLangAssertionError is the one java.lang class this compiler gives
// special-cased, skin-deep support to: a failed assert constructs and
// throws it. The actual trap comes from the athrow that follows
// (emit.KindUnreachable, lowered below to a bare wasm unreachable); the
// New/CallStatic<init> pair preceding it just needs to lower to
// *something* that doesn't touch the (out-of-scope) allocator, since
// java/lang/AssertionError has no real layout in this compiler.
const javaLangAssertionError = "java/lang/AssertionError"

// CompiledFunction is one function ready to be rendered: its identity,
// its locals, and its already-structured and already-translated
// instruction stream (components D-I).
type CompiledFunction struct {
	Id       classfile.MethodId
	IsStatic bool
	IsExport bool
	Locals   *function.LocalInterpretation
	Code     []emit.Instruction
}

// Renderer lowers a whole program's compiled functions, plus its virtual
// dispatch table, into a Module.
type Renderer struct {
	classes         map[string]*classfile.Class
	virtualTable    *virtual.Table
	functions       []CompiledFunction
	functionIndices map[string]uint32
}

// NewRenderer builds a Renderer from every compiled function in a
// program and the classes they belong to.
func NewRenderer(classes map[string]*classfile.Class, functions []CompiledFunction) *Renderer {
	return &Renderer{
		classes:      classes,
		virtualTable: virtual.NewTable(classes),
		functions:    functions,
	}
}

// indexFunctions assigns every function a stable index, in sorted order
// so two runs over the same program produce byte-identical output. This
// must happen before any function is rendered: a function's own body may
// call another one not yet rendered.
func (r *Renderer) indexFunctions(out *Module) {
	sort.Slice(r.functions, func(i, j int) bool {
		return r.functions[i].Id.String() < r.functions[j].Id.String()
	})
	r.functionIndices = make(map[string]uint32, len(r.functions))
	for _, cf := range r.functions {
		idx := out.NextFunctionIndex()
		r.functionIndices[cf.Id.String()] = idx
		out.SetFunctionName(idx, cf.Id.WasmName())
	}
}

// getClassSize returns the total byte size of an instance of className,
// including its own virtual-class ID and every inherited field.
func (r *Renderer) getClassSize(className string) int32 {
	size := uint32(virtual.ClassIDSize)
	for className != classfile.JavaLangObject {
		class, ok := r.classes[className]
		if !ok {
			compileerr.Invariant("wasmmod: unresolved class %s computing instance size", className)
		}
		size += class.Size
		className = class.SuperClassName
	}
	return int32(size)
}

// getFieldOffset locates id's byte offset from an object pointer and the
// wasm value type it should be loaded/stored as. A field is looked up
// starting at id.ClassName (not necessarily the field's declaring
// class — a subclass accessing a shadowed superclass field by way of
// invokespecial-style access would start higher up), walking superclasses
// until FieldOffsets has an entry for it, then adding every remaining
// superclass's size plus the virtual-class ID header.
func (r *Renderer) getFieldOffset(id classfile.FieldId) (descriptor.ValType, wasmcode.MemArg) {
	className := id.ClassName
	var offset uint32
	found := false
	for !found {
		class, ok := r.classes[className]
		if !ok {
			compileerr.Invariant("wasmmod: unresolved class %s locating field %s", className, id.Name)
		}
		if o, ok := class.FieldOffsets[id.Name]; ok {
			offset = o
			found = true
			className = class.SuperClassName
			break
		}
		className = class.SuperClassName
	}

	for className != classfile.JavaLangObject {
		class := r.classes[className]
		offset += class.Size
		className = class.SuperClassName
	}
	offset += virtual.ClassIDSize

	fieldType := id.Descriptor.AsType()
	var align uint32
	switch fieldType {
	case descriptor.I32, descriptor.F32:
		align = 2 // log2(4)
	case descriptor.I64, descriptor.F64:
		align = 3 // log2(8)
	}
	return fieldType, wasmcode.MemArg{Offset: offset, Align: align}
}

// blockTypeFor translates an emit.Op's HasResult flag into the wasm
// blocktype immediate a Block/Loop/If carries.
func blockTypeFor(o emit.Op) wasmcode.BlockType {
	if !o.HasResult {
		return wasmcode.Empty
	}
	return wasmcode.BlockType{HasResult: true, Result: descriptor.I32}
}

// render lowers one pseudo-IR instruction to real wasm instructions,
// ensuring whatever virtual dispatcher or built-in helper it needs along
// the way.
func (r *Renderer) render(out *Module, c *wasmcode.CodeBuilder, ins emit.Instruction, scratchLocal *uint32) {
	switch ins.Kind {
	case emit.KindOp:
		o := ins.Op
		switch o.Code {
		case emit.I32Const:
			c.I32Const(o.I32Val)
		case emit.I64Const:
			c.I64Const(o.I64Val)
		case emit.F32Const:
			c.F32Const(o.F32Val)
		case emit.F64Const:
			c.F64Const(o.F64Val)
		case emit.LocalGet:
			c.LocalGet(o.Idx)
		case emit.LocalSet:
			c.LocalSet(o.Idx)
		case emit.Block:
			c.Block(blockTypeFor(o))
		case emit.Loop:
			c.Loop(blockTypeFor(o))
		case emit.If:
			c.If(blockTypeFor(o))
		case emit.Else:
			c.Else()
		case emit.End:
			c.End()
		case emit.Br:
			c.Br(o.Idx)
		case emit.BrIf:
			c.BrIf(o.Idx)
		default:
			opcode, ok := rawOpcode[o.Code]
			if !ok {
				compileerr.Invariant("wasmmod: no opcode mapping for WasmOp %d", o.Code)
			}
			c.Raw(opcode)
		}

	case emit.KindDup:
		if scratchLocal == nil {
			compileerr.Invariant("wasmmod: Dup instruction with no scratch local reserved")
		}
		c.LocalTee(*scratchLocal).LocalGet(*scratchLocal)

	case emit.KindNew:
		if ins.ClassName == javaLangAssertionError {
			c.I32Const(0) // the java.lang library is out of scope; null stands in
			break
		}
		size := r.getClassSize(ins.ClassName)
		vid := r.virtualTable.ClassID(ins.ClassName)
		allocate := out.EnsureBuiltinFunction(builtin.Allocate)
		c.I32Const(size).I32Const(vid).Call(allocate)

	case emit.KindInstanceOf:
		vid := r.virtualTable.ClassID(ins.ClassName)
		instanceOf := out.EnsureBuiltinFunction(builtin.InstanceOf)
		c.I32Const(vid).Call(instanceOf)

	case emit.KindGetField:
		t, arg := r.getFieldOffset(ins.Field)
		switch t {
		case descriptor.I32:
			c.I32Load(arg)
		case descriptor.I64:
			c.I64Load(arg)
		case descriptor.F32:
			c.F32Load(arg)
		case descriptor.F64:
			c.F64Load(arg)
		}

	case emit.KindPutField:
		t, arg := r.getFieldOffset(ins.Field)
		switch t {
		case descriptor.I32:
			c.I32Store(arg)
		case descriptor.I64:
			c.I64Store(arg)
		case descriptor.F32:
			c.F32Store(arg)
		case descriptor.F64:
			c.F64Store(arg)
		}

	case emit.KindCallStatic:
		if ins.Method.ClassName == javaLangAssertionError && ins.Method.Name == "<init>" {
			c.Nop()
			break
		}
		idx, ok := r.functionIndices[ins.Method.String()]
		if !ok {
			compileerr.Invariant("wasmmod: call to unindexed function %s", ins.Method)
		}
		c.Call(idx)

	case emit.KindCallVirtual:
		offset := r.virtualTable.MethodOffset(ins.Method)
		dispatcher := out.EnsureDispatcherFunction(ins.Method.Descriptor.FunctionType)
		c.I32Const(offset).Call(dispatcher)

	case emit.KindLongCmp:
		c.Call(out.EnsureBuiltinFunction(builtin.LongCmp))

	case emit.KindFloatCmp:
		idx := out.EnsureBuiltinFunction(builtin.FloatCmp)
		c.I32Const(ins.NaN.AsNaNGreaterFlag()).Call(idx)

	case emit.KindDoubleCmp:
		idx := out.EnsureBuiltinFunction(builtin.DoubleCmp)
		c.I32Const(ins.NaN.AsNaNGreaterFlag()).Call(idx)

	case emit.KindUnreachable:
		c.Unreachable()
	}
}

// renderFunction lowers one function's whole instruction stream, then
// writes its type, body and (if exported) export entry to out.
func (r *Renderer) renderFunction(out *Module, cf CompiledFunction) {
	needsScratch := false
	for _, ins := range cf.Code {
		if ins.Kind == emit.KindDup {
			needsScratch = true
			break
		}
	}

	var scratchLocal *uint32
	var appendTypes []descriptor.ValType
	if needsScratch {
		s := uint32(cf.Locals.Len())
		scratchLocal = &s
		appendTypes = []descriptor.ValType{descriptor.I32}
	}

	runs := cf.Locals.RunLengthEncode(appendTypes)
	locals := make([]localDecl, len(runs))
	for i, run := range runs {
		locals[i] = localDecl{count: run.Count, typ: run.Type}
	}

	c := wasmcode.NewCodeBuilder()
	for _, ins := range cf.Code {
		r.render(out, c, ins, scratchLocal)
	}

	ft := cf.Id.Descriptor.FunctionType
	if !cf.IsStatic {
		ft = ft.WithImplicitThis()
	}
	typeIndex := out.EnsureType(ft)
	out.AddFunction(typeIndex, c.Bytes(), locals)

	if cf.IsExport {
		out.AddExport(cf.Id.WasmName(), r.functionIndices[cf.Id.String()])
	}
}

// renderVirtualTable writes the program-wide function table: one
// generated super-ID function plus one element-segment slot per
// dispatchable method, for every class but the implicit
// java/lang/Object root (which has neither).
func (r *Renderer) renderVirtualTable(out *Module) {
	superIDType := out.EnsureType(descriptor.FunctionType{Results: []descriptor.ValType{descriptor.I32}})

	nodes := r.virtualTable.InheritanceTree.Iter()
	if len(nodes) == 0 {
		return
	}

	var tableSize uint32
	for _, node := range nodes[1:] { // nodes[0] is java/lang/Object
		class := node.Value
		superClass, ok := r.classes[class.ClassName]
		if !ok {
			compileerr.Invariant("wasmmod: unresolved class %s rendering virtual table", class.ClassName)
		}
		superID := r.virtualTable.ClassID(superClass.SuperClassName)

		superIdx := out.NextFunctionIndex()
		code := wasmcode.NewCodeBuilder().I32Const(superID).End().Bytes()
		out.AddFunction(superIDType, code, nil)
		out.SetFunctionName(superIdx, "!Super_"+class.ClassName)

		fns := make([]uint32, 0, 1+len(class.Methods))
		fns = append(fns, superIdx)
		for _, m := range class.Methods {
			idx, ok := r.functionIndices[m.String()]
			if !ok {
				compileerr.Invariant("wasmmod: unindexed virtual method %s", m)
			}
			fns = append(fns, idx)
		}

		offset := r.virtualTable.ClassIndices[class.ClassName].Offset
		out.AddElement(offset, fns)
		tableSize = offset + uint32(len(fns))
	}

	out.SetTable(tableSize)
}

// RenderAll lowers every function and the virtual table into out, in the
// fixed order their index assignment requires: index every user
// function, render each one's body (queuing any dispatcher/built-in it
// turns out to need), flush that queue, then render the virtual table's
// generated super-ID functions and element segments. Returns each
// method's final function index.
func (r *Renderer) RenderAll(out *Module) map[string]uint32 {
	r.indexFunctions(out)
	for _, cf := range r.functions {
		r.renderFunction(out, cf)
	}
	out.RenderEnsuredFunctionsQueue()
	r.renderVirtualTable(out)
	return r.functionIndices
}
