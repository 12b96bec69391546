/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package function

import (
	"fmt"
	"sort"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/descriptor"
)

// valType maps a classfile ValTypeTag (the JVM-only view carried on a
// RawInstruction) onto the wasm value type it occupies. References are
// i32 pointers, same as an int.
func valType(t classfile.ValTypeTag) descriptor.ValType {
	switch t {
	case classfile.TagLong:
		return descriptor.I64
	case classfile.TagFloat:
		return descriptor.F32
	case classfile.TagDouble:
		return descriptor.F64
	default: // TagInt, TagRef
		return descriptor.I32
	}
}

// localKey is a unique (JVM local-variable slot, wasm type) pair: the
// thing LocalInterpretation actually remaps to a wasm local index.
type localKey struct {
	slot int
	typ  descriptor.ValType
}

// instructionLocal returns the local slot and wasm type an instruction
// reads or writes, if any. IInc both reads and writes the same slot, so a
// single entry covers it.
func instructionLocal(ins classfile.RawInstruction) (localKey, bool) {
	switch ins.Op {
	case classfile.OpLoad, classfile.OpStore, classfile.OpIInc:
		return localKey{slot: int(ins.Slot), typ: valType(ins.Type)}, true
	default:
		return localKey{}, false
	}
}

// LocalInterpretation maps JVM (local-variable slot, wasm type) pairs to
// wasm local indices for one function.
//
// JVM stack frames hold a zero-indexed array of 4-byte words for locals,
// parameters first. boolean/byte/char/short/int/float and references
// occupy a single word; long/double occupy two consecutive words,
// addressed by the lower index. A slot may be reused by a later variable
// of a different type once the original goes out of scope.
//
// wasm locals are statically typed and always occupy a single slot
// regardless of width, so a class file's declared local count cannot be
// used directly as a wasm local count, and the type at each JVM slot has
// to be inferred from the instructions that touch it rather than
// declared up front. LocalInterpretation resolves this by assigning one
// wasm local per unique (slot, type) pair actually observed.
type LocalInterpretation struct {
	index      map[localKey]uint32
	localStart uint32
}

// FromCode builds a LocalInterpretation from a method's parameter
// descriptors and byte-code. If isStatic is false, an implicit `this`
// parameter (slot 0, i32) is assumed ahead of params.
func FromCode(isStatic bool, params []descriptor.FieldDescriptor, code []classfile.RawInstruction) *LocalInterpretation {
	index := make(map[localKey]uint32)
	javaSlot := 0
	wasmLocal := uint32(0)

	if !isStatic {
		index[localKey{slot: javaSlot, typ: descriptor.I32}] = wasmLocal
		javaSlot++
		wasmLocal++
	}

	for _, p := range params {
		t := p.AsType()
		index[localKey{slot: javaSlot, typ: t}] = wasmLocal
		javaSlot += wordCount(t)
		wasmLocal++
	}

	localStart := wasmLocal

	for _, ins := range code {
		key, ok := instructionLocal(ins)
		if !ok {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = wasmLocal
			wasmLocal++
		}
	}

	return &LocalInterpretation{index: index, localStart: localStart}
}

// wordCount returns the number of 4-byte JVM words a wasm type occupies:
// 2 for i64/f64, 1 otherwise.
func wordCount(t descriptor.ValType) int {
	if t == descriptor.I64 || t == descriptor.F64 {
		return 2
	}
	return 1
}

// GetLocalIndex returns the wasm local index for a unique (slot, type)
// pair. It panics if called for a pair no instruction ever referenced —
// a caller bug, since every local access must have gone through FromCode.
func (li *LocalInterpretation) GetLocalIndex(t descriptor.ValType, slot int) uint32 {
	idx, ok := li.index[localKey{slot: slot, typ: t}]
	if !ok {
		panic(fmt.Sprintf("function: no local index for slot %d type %v", slot, t))
	}
	return idx
}

// Len returns the number of unique (slot, type) pairs mapped, including
// parameters.
func (li *LocalInterpretation) Len() int {
	return len(li.index)
}

// LocalRun is one run of consecutive wasm locals sharing a type, as wasm's
// locals declaration encodes them.
type LocalRun struct {
	Count uint32
	Type  descriptor.ValType
}

// RunLengthEncode returns the run-length encoding of this function's
// local variables (excluding parameters, which wasm declares in the
// function type rather than the locals section) for the code section's
// locals declaration. appendTypes supplies extra scratch locals (e.g. a
// Dup temporary) to be tacked on the end before encoding, so they coalesce
// with a matching run rather than getting their own entry.
func (li *LocalInterpretation) RunLengthEncode(appendTypes []descriptor.ValType) []LocalRun {
	type local struct {
		idx uint32
		typ descriptor.ValType
	}
	locals := make([]local, 0, len(li.index))
	for k, idx := range li.index {
		if idx < li.localStart {
			continue
		}
		locals = append(locals, local{idx: idx, typ: k.typ})
	}
	sort.Slice(locals, func(i, j int) bool { return locals[i].idx < locals[j].idx })

	types := make([]descriptor.ValType, 0, len(locals)+len(appendTypes))
	for _, l := range locals {
		types = append(types, l.typ)
	}
	types = append(types, appendTypes...)

	var result []LocalRun
	var run uint32
	var cur descriptor.ValType
	have := false
	for _, t := range types {
		if !have {
			cur, have, run = t, true, 1
			continue
		}
		if t != cur {
			result = append(result, LocalRun{Count: run, Type: cur})
			cur, run = t, 0
		}
		run++
	}
	if have {
		result = append(result, LocalRun{Count: run, Type: cur})
	}
	return result
}
