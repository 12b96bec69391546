/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"
	"strings"

	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/descriptor"
)

// MethodId uniquely identifies a method across every class in a program:
// each one corresponds to exactly one function in the output wasm module.
type MethodId struct {
	ClassName  string
	Name       string
	Descriptor descriptor.MethodDescriptor
}

// WasmName returns the wasm function name for this method. The wasm text
// format doesn't allow '(' and ')' in names without extra annotations, so
// param kinds are concatenated directly and joined to the return kind by
// underscores, e.g. "Class.method_IF_V".
func (id MethodId) WasmName() string {
	var params strings.Builder
	for _, p := range id.Descriptor.Params {
		params.WriteString(p.String())
	}
	return fmt.Sprintf("%s.%s_%s_%s", id.ClassName, id.Name, params.String(), id.Descriptor.Returns.String())
}

func (id MethodId) String() string {
	return fmt.Sprintf("%s.%s%s", id.ClassName, id.Name, id.Descriptor.String())
}

// FieldId uniquely identifies a field across every class in a program.
type FieldId struct {
	ClassName  string
	Name       string
	Descriptor descriptor.FieldDescriptor
}

func (id FieldId) String() string {
	return fmt.Sprintf("%s.%s%s", id.ClassName, id.Name, id.Descriptor.String())
}

// Function is a parsed, not-yet-structured method: its identity, its
// constant pool (shared with the rest of its class), and its raw
// byte-code. Code is consumed (moved out, not copied) exactly once by the
// structuring pipeline (component D), matching spec.md §5's "a function's
// structuring only reads its own byte-code, taken exclusively out of the
// function" contract — TakeCode enforces the "exclusively" part.
type Function struct {
	Id       MethodId
	IsStatic bool
	CP       *ConstantPool

	code     RawMethodCode
	codeTaken bool
}

// TakeCode returns this function's byte-code and clears it, so a second
// call (or concurrent structuring of the same function) fails loudly
// instead of silently racing.
func (f *Function) TakeCode() RawMethodCode {
	if f.codeTaken {
		compileerr.Invariant("classfile: code for %s already taken", f.Id)
	}
	f.codeTaken = true
	code := f.code
	f.code = RawMethodCode{}
	return code
}

// Class is a fully resolved class: its constant pool, field layout, and
// parsed methods.
type Class struct {
	ClassName      string
	SuperClassName string
	// Size is the number of bytes this class allocates for its own
	// fields, excluding inherited fields. FieldOffsets are byte offsets
	// within that span; add 4 (virtual-class-id) plus every superclass's
	// own Size to get the absolute offset from an object pointer.
	Size         uint32
	FieldOffsets map[string]uint32
	ConstPool    *ConstantPool
	Methods      []*Function
}

// NewClass resolves a RawClass into a Class: builds its constant pool,
// lays out its declared instance fields, and wraps each method as a
// Function. Static fields are rejected — this compiler's subset has no
// notion of a <clinit>-initialized static store, matching
// original_source/src/class/parser.rs's parse_fields, which rejects them
// the same way.
func NewClass(raw RawClass) (*Class, error) {
	cp := NewConstantPool(raw.CP)

	fieldOffsets := make(map[string]uint32, len(raw.Fields))
	var size uint32
	for _, f := range raw.Fields {
		if f.IsStatic {
			return nil, compileerr.Unsupported("classfile: static fields are not supported (class %s)", raw.Name)
		}
		name := cp.Str(f.NameIndex)
		descStr := cp.Str(f.DescIndex)
		fd, err := descriptor.ParseField(descStr)
		if err != nil {
			return nil, compileerr.Parse("classfile: invalid field descriptor %q for %s.%s: %v", descStr, raw.Name, name, err)
		}
		if fd.Kind == descriptor.Array {
			return nil, compileerr.Unsupported("classfile: array field %s.%s is not supported", raw.Name, name)
		}
		fieldOffsets[name] = size
		size += fd.Size()
	}

	superName := raw.SuperName
	if superName == "" {
		superName = JavaLangObject
	}

	methods := make([]*Function, 0, len(raw.Methods))
	for _, m := range raw.Methods {
		name := cp.Str(m.NameIndex)
		descStr := cp.Str(m.DescIndex)
		md, err := descriptor.ParseMethod(descStr)
		if err != nil {
			return nil, compileerr.Parse("classfile: invalid method descriptor %q for %s.%s: %v", descStr, raw.Name, name, err)
		}
		methods = append(methods, &Function{
			Id: MethodId{
				ClassName:  raw.Name,
				Name:       name,
				Descriptor: md,
			},
			IsStatic: m.IsStatic,
			CP:       cp,
			code:     m.Code,
		})
	}

	return &Class{
		ClassName:      raw.Name,
		SuperClassName: superName,
		Size:           size,
		FieldOffsets:   fieldOffsets,
		ConstPool:      cp,
		Methods:        methods,
	}, nil
}
