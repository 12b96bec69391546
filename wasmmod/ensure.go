/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package wasmmod

import (
	"strings"

	"github.com/jacobin-authors/j2wasm/builtin"
	"github.com/jacobin-authors/j2wasm/descriptor"
	"github.com/jacobin-authors/j2wasm/wasmcode"
)

// ensureKey is what something else in the module wants to exist exactly
// once: a type, a virtual dispatcher for a given signature, or a
// built-in helper. funcTypeKey collapses a FunctionType into a string so
// it can be used as (part of) a map key — Go map keys can't hold slices
// directly.
type ensureKey struct {
	what string // "type", "dispatcher", or a builtin.Kind's name
	sig  string // funcTypeKey(ft), empty for plain builtins
}

func funcTypeKey(ft descriptor.FunctionType) string {
	var b strings.Builder
	for _, p := range ft.Params {
		b.WriteString(p.String())
	}
	b.WriteByte('_')
	for _, r := range ft.Results {
		b.WriteString(r.String())
	}
	return b.String()
}

// EnsureType returns ft's type index, adding ft to the type section the
// first time it's requested.
func (m *Module) EnsureType(ft descriptor.FunctionType) uint32 {
	key := ensureKey{what: "type", sig: funcTypeKey(ft)}
	if idx, ok := m.ensured[key]; ok {
		return idx
	}
	m.types.append(encodeFuncType(ft))
	idx := m.nextTypeIndex
	m.nextTypeIndex++
	m.ensured[key] = idx
	return idx
}

// EnsureDispatcherFunction returns the function index of the virtual
// dispatch thunk for ft (a non-static method's signature, without the
// implicit receiver parameter), generating it the first time it's
// requested. The thunk copies its arguments, reloads the receiver to
// read its virtual-class ID, adds the method's per-class offset
// (supplied as the thunk's last parameter by the call site), and
// indirect-calls the result.
//
// The thunk's body isn't written until RenderEnsuredFunctionsQueue runs:
// only its index (needed immediately, so callers can emit a `call`) and
// type are fixed here.
func (m *Module) EnsureDispatcherFunction(ft descriptor.FunctionType) uint32 {
	key := ensureKey{what: "dispatcher", sig: funcTypeKey(ft)}
	if idx, ok := m.ensured[key]; ok {
		return idx
	}
	index := m.nextFunctionIndex
	m.nextFunctionIndex++
	m.ensured[key] = index

	name := ft.DispatcherName()
	withThis := ft.WithImplicitThis()
	originalTypeIndex := m.EnsureType(withThis)
	callParamsLen := uint32(len(withThis.Params))

	dispatcherParams := append(append([]descriptor.ValType(nil), withThis.Params...), descriptor.I32)
	dispatcherFT := descriptor.FunctionType{Params: dispatcherParams, Results: withThis.Results}
	dispatcherTypeIndex := m.EnsureType(dispatcherFT)

	c := wasmcode.NewCodeBuilder()
	for i := uint32(0); i < callParamsLen; i++ {
		c.LocalGet(i)
	}
	c.LocalGet(0). // this, reloaded to read its virtual-class ID
			I32Load(builtin.VirtualClassIDMemArg).
			LocalGet(callParamsLen). // virtual method offset, the thunk's last param
			Raw(opI32Add).
			CallIndirect(originalTypeIndex).
			End()

	m.ensuredFunctions = append(m.ensuredFunctions, ensuredFunc{
		typeIndex:     dispatcherTypeIndex,
		functionIndex: index,
		code:          c.Bytes(),
		name:          name,
	})
	return index
}

// EnsureBuiltinFunction returns the function index of kind's helper,
// generating it (and any global or type it itself needs) the first time
// it's requested.
func (m *Module) EnsureBuiltinFunction(kind builtin.Kind) uint32 {
	key := ensureKey{what: kind.Name()}
	if idx, ok := m.ensured[key]; ok {
		return idx
	}
	index := m.nextFunctionIndex
	m.nextFunctionIndex++
	m.ensured[key] = index

	var ft descriptor.FunctionType
	var code []byte
	switch kind {
	case builtin.Allocate:
		heapNext := m.AddGlobal(descriptor.I32, true, wasmcode.NewCodeBuilder().I32Const(8).End().Bytes())
		ft, code = builtin.ConstructAllocate(heapNext)
	case builtin.InstanceOf:
		superIDFT := descriptor.FunctionType{Results: []descriptor.ValType{descriptor.I32}}
		superIDTypeIndex := m.EnsureType(superIDFT)
		ft, code = builtin.ConstructInstanceOf(superIDTypeIndex)
	case builtin.LongCmp:
		ft, code = builtin.ConstructCompare(descriptor.I64)
	case builtin.FloatCmp:
		ft, code = builtin.ConstructCompare(descriptor.F32)
	case builtin.DoubleCmp:
		ft, code = builtin.ConstructCompare(descriptor.F64)
	}

	typeIndex := m.EnsureType(ft)
	m.ensuredFunctions = append(m.ensuredFunctions, ensuredFunc{
		typeIndex:     typeIndex,
		functionIndex: index,
		code:          code,
		name:          kind.Name(),
	})
	return index
}

// RenderEnsuredFunctionsQueue writes every queued dispatcher/builtin
// body to the function and code sections. Must run after every user
// function has been rendered (and so has had the chance to ensure
// whatever it needs) but before the virtual table's per-class super-ID
// functions are rendered, so those land after every ensured function —
// matching the fixed index assignment order index/render/ensure/super-id.
func (m *Module) RenderEnsuredFunctionsQueue() {
	for _, f := range m.ensuredFunctions {
		m.functions.append(wasmcode.AppendUvarint(nil, uint64(f.typeIndex)))
		m.codes.append(encodeCode(nil, f.code))
		m.SetFunctionName(f.functionIndex, f.name)
	}
	m.ensuredFunctions = nil
}

// opI32Add is the one raw opcode the dispatcher thunk needs directly —
// every other instruction it writes has a named CodeBuilder method.
const opI32Add byte = 0x6A
