/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"sync"

	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/descriptor"
)

// JavaLangObject is the shared base class for every class that doesn't
// declare its own superclass.
const JavaLangObject = "java/lang/Object"

// numericKind discriminates Constant's Number variant.
type numericKind int

const (
	numInt numericKind = iota
	numFloat
	numLong
	numDouble
)

// NumericConstant is a resolved numeric constant-pool entry.
type NumericConstant struct {
	kind   numericKind
	i      int32
	f      float32
	l      int64
	d      float64
}

func NumInt(v int32) NumericConstant    { return NumericConstant{kind: numInt, i: v} }
func NumFloat(v float32) NumericConstant { return NumericConstant{kind: numFloat, f: v} }
func NumLong(v int64) NumericConstant   { return NumericConstant{kind: numLong, l: v} }
func NumDouble(v float64) NumericConstant { return NumericConstant{kind: numDouble, d: v} }

func (n NumericConstant) IsInt() bool    { return n.kind == numInt }
func (n NumericConstant) IsFloat() bool  { return n.kind == numFloat }
func (n NumericConstant) IsLong() bool   { return n.kind == numLong }
func (n NumericConstant) IsDouble() bool { return n.kind == numDouble }
func (n NumericConstant) Int() int32     { return n.i }
func (n NumericConstant) Float() float32 { return n.f }
func (n NumericConstant) Long() int64    { return n.l }
func (n NumericConstant) Double() float64 { return n.d }

// constKind discriminates constant's variants, including the two lazily
// promoted from String: FieldDescriptor and MethodDescriptor.
type constKind int

const (
	constUnusable constKind = iota
	constString
	constNumber
	constClass
	constFieldDescriptor
	constField
	constMethodDescriptor
	constMethod
)

// constant is one resolved constant-pool entry. Only one of the typed
// fields is meaningful, selected by kind; a string entry may be replaced
// in place by a field/method descriptor entry the first time it's
// accessed through FieldDescriptor/MethodDescriptor (see ConstantPool's
// lazy-promotion locking below).
type constant struct {
	kind   constKind
	str    string
	num    NumericConstant
	class  string
	fd     descriptor.FieldDescriptor
	field  FieldId
	md     descriptor.MethodDescriptor
	method MethodId
}

// ConstantPool is the resolved, reference-counting-free constant pool
// this compiler works with after NewConstantPool's three-wave sweep.
// Str, Num, ClassName, Field and Method take the shared lock and proceed
// without blocking each other. FieldDescriptorAt and MethodDescriptorAt
// take the exclusive lock on every call, since any call may promote a
// string into a parsed descriptor; they check the entry's kind under that
// lock before writing, so promotion is idempotent under concurrent
// first-access races (spec.md §5).
type ConstantPool struct {
	mu      sync.RWMutex
	entries []constant
}

// Str returns the string at index, panicking via compileerr.Invariant if
// the entry is not a string — every access in this compiler reaches CP
// entries through already-resolved MethodId/FieldId/descriptor values, so
// a kind mismatch here means an upstream invariant broke.
func (p *ConstantPool) Str(index uint16) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e := p.at(index)
	if e.kind != constString {
		compileerr.Invariant("classfile: constant pool index %d is not a string, got kind %d", index, e.kind)
	}
	return e.str
}

// Num returns the numeric constant at index.
func (p *ConstantPool) Num(index uint16) NumericConstant {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e := p.at(index)
	if e.kind != constNumber {
		compileerr.Invariant("classfile: constant pool index %d is not a number, got kind %d", index, e.kind)
	}
	return e.num
}

// ClassName returns the resolved class name at index.
func (p *ConstantPool) ClassName(index uint16) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e := p.at(index)
	if e.kind != constClass {
		compileerr.Invariant("classfile: constant pool index %d is not a class reference, got kind %d", index, e.kind)
	}
	return e.class
}

// FieldDescriptorAt returns the field descriptor at index, lazily parsing
// it from its backing utf8 string on first access.
func (p *ConstantPool) FieldDescriptorAt(index uint16) descriptor.FieldDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := &p.entries[index]
	switch e.kind {
	case constFieldDescriptor:
		return e.fd
	case constString:
		fd, err := descriptor.ParseField(e.str)
		if err != nil {
			panic(compileerr.Parse("classfile: invalid field descriptor %q at CP index %d: %v", e.str, index, err))
		}
		e.kind = constFieldDescriptor
		e.fd = fd
		return fd
	default:
		compileerr.Invariant("classfile: constant pool index %d is not a string/field descriptor, got kind %d", index, e.kind)
		panic("unreachable")
	}
}

// MethodDescriptorAt returns the method descriptor at index, lazily
// parsing it from its backing utf8 string on first access.
func (p *ConstantPool) MethodDescriptorAt(index uint16) descriptor.MethodDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := &p.entries[index]
	switch e.kind {
	case constMethodDescriptor:
		return e.md
	case constString:
		md, err := descriptor.ParseMethod(e.str)
		if err != nil {
			panic(compileerr.Parse("classfile: invalid method descriptor %q at CP index %d: %v", e.str, index, err))
		}
		e.kind = constMethodDescriptor
		e.md = md
		return md
	default:
		compileerr.Invariant("classfile: constant pool index %d is not a string/method descriptor, got kind %d", index, e.kind)
		panic("unreachable")
	}
}

// Field returns the resolved FieldId at index.
func (p *ConstantPool) Field(index uint16) FieldId {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e := p.at(index)
	if e.kind != constField {
		compileerr.Invariant("classfile: constant pool index %d is not a field reference, got kind %d", index, e.kind)
	}
	return e.field
}

// Method returns the resolved MethodId at index.
func (p *ConstantPool) Method(index uint16) MethodId {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e := p.at(index)
	if e.kind != constMethod {
		compileerr.Invariant("classfile: constant pool index %d is not a method reference, got kind %d", index, e.kind)
	}
	return e.method
}

func (p *ConstantPool) at(index uint16) constant {
	return p.entries[index]
}

// set assigns entries[index] without taking a lock; callers hold it.
func (p *ConstantPool) set(index int, c constant) {
	p.entries[index] = c
}

// NewConstantPool builds a ConstantPool from a RawCP via the three-wave
// sweep: atomic values first, then string-referencing constants, then
// class-referencing constants, whose descriptors are parsed from their
// utf8 entries during this wave (the utf8 entries themselves stay strings
// until FieldDescriptorAt/MethodDescriptorAt promotes them).
func NewConstantPool(raw RawCP) *ConstantPool {
	p := &ConstantPool{entries: make([]constant, len(raw.CPIndex))}

	// Wave 1: atomic entries (utf8, int, float, long, double).
	for i, e := range raw.CPIndex {
		switch e.Type {
		case RawUTF8:
			p.set(i, constant{kind: constString, str: raw.Utf8Refs[e.Slot]})
		case RawIntConst:
			p.set(i, constant{kind: constNumber, num: NumInt(raw.IntConsts[e.Slot])})
		case RawFloatConst:
			p.set(i, constant{kind: constNumber, num: NumFloat(raw.FloatConsts[e.Slot])})
		case RawLongConst:
			p.set(i, constant{kind: constNumber, num: NumLong(raw.LongConsts[e.Slot])})
		case RawDoubleConst:
			p.set(i, constant{kind: constNumber, num: NumDouble(raw.DoubleConsts[e.Slot])})
		}
	}

	// Wave 2: constants pointing at utf8 entries (string, class).
	for i, e := range raw.CPIndex {
		switch e.Type {
		case RawStringConst:
			utf8Index := raw.StringRefs[e.Slot]
			p.set(i, constant{kind: constString, str: p.entries[utf8Index].str})
		case RawClassRef:
			nameIndex := raw.ClassRefs[e.Slot]
			p.set(i, constant{kind: constClass, class: p.entries[nameIndex].str})
		}
	}

	// Wave 3: constants pointing at classes (field, method references).
	for i, e := range raw.CPIndex {
		switch e.Type {
		case RawFieldRef:
			ref := raw.FieldRefs[e.Slot]
			nt := lookupNameAndType(raw, ref.NameAndTypeIndex)
			className := p.entries[ref.ClassIndex].class
			name := p.entries[nt.NameIndex].str
			descStr := p.entries[nt.DescIndex].str
			fd, err := descriptor.ParseField(descStr)
			if err != nil {
				panic(compileerr.Parse("classfile: invalid field descriptor %q for %s.%s: %v", descStr, className, name, err))
			}
			p.set(i, constant{kind: constField, field: FieldId{
				ClassName:  className,
				Name:       name,
				Descriptor: fd,
			}})
		case RawMethodRef:
			ref := raw.MethodRefs[e.Slot]
			nt := lookupNameAndType(raw, ref.NameAndTypeIndex)
			className := p.entries[ref.ClassIndex].class
			name := p.entries[nt.NameIndex].str
			descStr := p.entries[nt.DescIndex].str
			md, err := descriptor.ParseMethod(descStr)
			if err != nil {
				panic(compileerr.Parse("classfile: invalid method descriptor %q for %s.%s: %v", descStr, className, name, err))
			}
			p.set(i, constant{kind: constMethod, method: MethodId{
				ClassName:  className,
				Name:       name,
				Descriptor: md,
			}})
		}
	}

	return p
}

func lookupNameAndType(raw RawCP, index uint16) RawNameAndTypeEntry {
	entry := raw.CPIndex[index]
	if entry.Type != RawNameAndType {
		compileerr.Invariant("classfile: CP index %d is not a NameAndType entry", index)
	}
	return raw.NameAndTypes[entry.Slot]
}
