/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package descriptor parses field and method descriptors as defined by
// JVMS §4.3.2/§4.3.3 and maps them onto the wasm value types the emitter
// and module assembler work in terms of.
package descriptor

import (
	"fmt"
	"sort"
	"strings"
)

// ValType is a wasm value type, named to match the subset this compiler
// ever produces (no v128, funcref or externref — those never arise from a
// Java field or return type).
type ValType int

const (
	I32 ValType = iota
	I64
	F32
	F64
)

// String returns the wasm text-format spelling of v, used to build
// built-in dispatcher names.
func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		panic(fmt.Sprintf("descriptor: invalid ValType %d", int(v)))
	}
}

// FieldKind discriminates FieldDescriptor's variants. Array is recognized
// by the grammar for fidelity to JVMS §4.3.2, but arrays are an explicit
// non-goal of this compiler: any component that reaches a FieldDescriptor
// with Kind == Array past parsing must fail with compileerr.Unsupported.
type FieldKind int

const (
	Byte FieldKind = iota
	Char
	Double
	Float
	Int
	Long
	Short
	Boolean
	Object
	Array
)

// FieldDescriptor is a parsed field descriptor. Object carries the
// referenced class's binary name in ClassName; Array carries the
// component type in Component.
type FieldDescriptor struct {
	Kind      FieldKind
	ClassName string
	Component *FieldDescriptor
}

func (d FieldDescriptor) String() string {
	var b strings.Builder
	d.writeTo(&b)
	return b.String()
}

func (d FieldDescriptor) writeTo(b *strings.Builder) {
	switch d.Kind {
	case Byte:
		b.WriteByte('B')
	case Char:
		b.WriteByte('C')
	case Double:
		b.WriteByte('D')
	case Float:
		b.WriteByte('F')
	case Int:
		b.WriteByte('I')
	case Long:
		b.WriteByte('J')
	case Short:
		b.WriteByte('S')
	case Boolean:
		b.WriteByte('Z')
	case Object:
		b.WriteByte('L')
		b.WriteString(d.ClassName)
		b.WriteByte(';')
	case Array:
		b.WriteByte('[')
		d.Component.writeTo(b)
	}
}

// AsType returns the wasm value type a field of this descriptor occupies:
// references and arrays are bump-allocator pointers (i32), longs are i64,
// floats are f32, doubles are f64, everything else is i32.
func (d FieldDescriptor) AsType() ValType {
	switch d.Kind {
	case Long:
		return I64
	case Float:
		return F32
	case Double:
		return F64
	default:
		return I32
	}
}

// Size returns the number of bytes this field occupies in an object's
// layout or a local's slot allocation: 4 for every i32/f32-mapped kind, 8
// for long/double.
func (d FieldDescriptor) Size() uint32 {
	switch d.AsType() {
	case I64, F64:
		return 8
	default:
		return 4
	}
}

// Compare orders two FieldDescriptors so that method parameter lists sort
// deterministically: first by Kind, then recursively for Object/Array.
func (d FieldDescriptor) Compare(other FieldDescriptor) int {
	if d.Kind != other.Kind {
		if d.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch d.Kind {
	case Object:
		return strings.Compare(d.ClassName, other.ClassName)
	case Array:
		return d.Component.Compare(*other.Component)
	default:
		return 0
	}
}

// ReturnKind discriminates ReturnDescriptor's variants.
type ReturnKind int

const (
	Void ReturnKind = iota
	Field
)

// ReturnDescriptor is a parsed method return descriptor.
type ReturnDescriptor struct {
	Kind  ReturnKind
	Field FieldDescriptor
}

func (d ReturnDescriptor) String() string {
	if d.Kind == Void {
		return "V"
	}
	return d.Field.String()
}

// AsType returns nil for Void, or a pointer to the single result's value
// type otherwise — mirroring a wasm function's 0-or-1 result list.
func (d ReturnDescriptor) AsType() *ValType {
	if d.Kind == Void {
		return nil
	}
	t := d.Field.AsType()
	return &t
}

func (d ReturnDescriptor) compare(other ReturnDescriptor) int {
	if d.Kind != other.Kind {
		if d.Kind < other.Kind {
			return -1
		}
		return 1
	}
	if d.Kind == Void {
		return 0
	}
	return d.Field.Compare(other.Field)
}

// FunctionType is the wasm function signature corresponding to a
// MethodDescriptor.
type FunctionType struct {
	Params  []ValType
	Results []ValType
}

// WithImplicitThis returns a copy of ft with an i32 receiver parameter
// prepended, for instance methods.
func (ft FunctionType) WithImplicitThis() FunctionType {
	params := make([]ValType, 0, len(ft.Params)+1)
	params = append(params, I32)
	params = append(params, ft.Params...)
	return FunctionType{Params: params, Results: ft.Results}
}

// DispatcherName returns the built-in dispatcher export name for this
// function type, e.g. "!Dispatcher_i32i64f32f64_i32".
func (ft FunctionType) DispatcherName() string {
	var params, results strings.Builder
	for _, p := range ft.Params {
		params.WriteString(p.String())
	}
	for _, r := range ft.Results {
		results.WriteString(r.String())
	}
	return fmt.Sprintf("!Dispatcher_%s_%s", params.String(), results.String())
}

// MethodDescriptor is a parsed method descriptor: its parameter types, its
// return type, and the wasm FunctionType computed once at construction.
type MethodDescriptor struct {
	Params       []FieldDescriptor
	Returns      ReturnDescriptor
	FunctionType FunctionType
}

// NewMethodDescriptor builds a MethodDescriptor, computing its FunctionType.
func NewMethodDescriptor(params []FieldDescriptor, returns ReturnDescriptor) MethodDescriptor {
	ftParams := make([]ValType, len(params))
	for i, p := range params {
		ftParams[i] = p.AsType()
	}
	var results []ValType
	if rt := returns.AsType(); rt != nil {
		results = []ValType{*rt}
	}
	return MethodDescriptor{
		Params:       params,
		Returns:      returns,
		FunctionType: FunctionType{Params: ftParams, Results: results},
	}
}

func (d MethodDescriptor) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range d.Params {
		p.writeTo(&b)
	}
	b.WriteByte(')')
	b.WriteString(d.Returns.String())
	return b.String()
}

// Compare orders method descriptors by parameter list first, then return
// type, matching spec.md's requirement for deterministic method ordering.
func (d MethodDescriptor) Compare(other MethodDescriptor) int {
	n := len(d.Params)
	if len(other.Params) < n {
		n = len(other.Params)
	}
	for i := 0; i < n; i++ {
		if c := d.Params[i].Compare(other.Params[i]); c != 0 {
			return c
		}
	}
	if len(d.Params) != len(other.Params) {
		if len(d.Params) < len(other.Params) {
			return -1
		}
		return 1
	}
	return d.Returns.compare(other.Returns)
}

// SortMethodDescriptors sorts ms in place using Compare, for deterministic
// virtual-table and export ordering.
func SortMethodDescriptors(ms []MethodDescriptor) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Compare(ms[j]) < 0 })
}
