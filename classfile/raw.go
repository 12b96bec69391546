/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile is the boundary between the (out-of-scope) on-disk
// .class parser and the rest of this compiler. RawClass/RawCP/RawMethod
// are the shape that parser hands us; Class/ConstantPool/Function are
// what this package builds from it for every downstream component.
package classfile

// RawKind discriminates RawCP entries by their JVMS §4.4 tag value. Named
// to match jacobin's commented constant-pool tag table.
type RawKind uint16

const (
	RawUTF8       RawKind = 1
	RawIntConst   RawKind = 3
	RawFloatConst RawKind = 4
	RawLongConst  RawKind = 5
	RawDoubleConst RawKind = 6
	RawClassRef   RawKind = 7
	RawStringConst RawKind = 8
	RawFieldRef   RawKind = 9
	RawMethodRef  RawKind = 10
	RawNameAndType RawKind = 12
	// RawUnusable covers every tag this compiler's subset ignores
	// (interface method refs, method handles, method types,
	// invokedynamic, module, package).
	RawUnusable RawKind = 0
)

// RawCPEntry is one slot in RawCP.CPIndex: a tag plus an index into the
// per-kind slice that actually holds the value, mirroring jacobin's
// CpEntry{Type, Slot}.
type RawCPEntry struct {
	Type RawKind
	Slot uint16
}

// RawFieldRefEntry and RawMethodRefEntry hold CP indices (not slots) of
// their class and name-and-type entries, exactly as stored on disk.
type RawFieldRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type RawMethodRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// RawNameAndTypeEntry holds CP indices of its name and descriptor utf8
// entries.
type RawNameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

// RawCP is the already-parsed constant pool, indexed from 1 (index 0 is a
// dummy entry, per JVMS §4.4.1). It carries no behaviour: NewConstantPool
// consumes it once to build the richer, typed pool this compiler works
// with.
type RawCP struct {
	CPIndex      []RawCPEntry
	Utf8Refs     []string
	IntConsts    []int32
	FloatConsts  []float32
	LongConsts   []int64
	DoubleConsts []float64
	// ClassRefs holds, for each class-ref slot, the CP index of its name
	// utf8 entry.
	ClassRefs []uint16
	// StringRefs holds, for each string-const slot, the CP index of its
	// utf8 entry.
	StringRefs   []uint16
	FieldRefs    []RawFieldRefEntry
	MethodRefs   []RawMethodRefEntry
	NameAndTypes []RawNameAndTypeEntry
}

// Opcode enumerates the byte-code instructions this compiler's Java
// subset lowers. It is a closed set: anything outside it (switch,
// invokedynamic, arrays, monitors, stack-polymorphic dup/swap) is
// rejected upstream of RawClass, per spec.md's Non-goals.
type Opcode int

const (
	OpNop Opcode = iota

	// Control flow. BranchTarget on a RawInstruction is an absolute byte
	// offset into the same method's code, already resolved by the
	// upstream parser (no relative-offset arithmetic happens here).
	OpGoto
	OpIfEq // compares top-of-stack int to zero
	OpIfNe
	OpIfLt
	OpIfGe
	OpIfGt
	OpIfLe
	OpIfIcmpEq // compares top two ints
	OpIfIcmpNe
	OpIfIcmpLt
	OpIfIcmpGe
	OpIfIcmpGt
	OpIfIcmpLe
	OpIfAcmpEq // compares top two references
	OpIfAcmpNe
	OpIfNull // compares top-of-stack reference to null
	OpIfNonNull

	OpReturn // Type is the ValTypeTag for non-void returns; IsVoid for void

	// Locals. Slot is the byte-code local-variable index (H renumbers
	// this into a wasm local); Type is the value's ValTypeTag.
	OpLoad
	OpStore
	OpIInc // Slot + IntImmediate (the increment)

	// Constants. Type says which wasm type the immediate/CP entry
	// produces.
	OpIConst   // IntImmediate holds the i32 value (iconst_*, bipush, sipush)
	OpLConst   // IntImmediate holds the i64 value, truncated/sign-extended by caller
	OpFConst   // FloatImmediate holds the f32 value
	OpDConst   // FloatImmediate holds the f64 value
	OpAConstNull
	OpLdc // ConstIndex: numeric constant, string, or class (string/class rejected downstream)

	// Arithmetic (Kind + Type together select the wasm opcode).
	OpArith
	OpNeg

	// Comparisons producing a {-1,0,1} int (component L's Compare
	// built-ins). NaNGreater carries the l/g-suffix NaN-direction for float
	// and double variants; ignored for long.
	OpCmp

	OpDup
	OpPop

	// Type conversions (i2l, i2f, ..., d2f). Type/ToType are the source
	// and result ValTypeTag.
	OpConvert

	OpNew         // ConstIndex: class ref
	OpInstanceOf  // ConstIndex: class ref
	OpGetField    // ConstIndex: field ref
	OpPutField    // ConstIndex: field ref
	OpInvokeStatic
	OpInvokeVirtual
	// OpInvokeSpecial models JVM invokespecial, which in this subset only
	// ever targets a constructor: it is lowered to a direct call exactly
	// like OpInvokeStatic except that a call targeting the root class's
	// <init> becomes a no-op dropping the receiver (spec.md §4.I).
	OpInvokeSpecial

	// OpAthrow models JVM athrow. The only throw site this subset
	// recognizes is the `new AssertionError; ...; athrow` sequence javac
	// emits for a failed `assert`; it carries no operand and is lowered
	// to a wasm trap (component I), not to real exception unwinding.
	OpAthrow
)

// ArithKind selects the operator for an OpArith instruction.
type ArithKind int

const (
	ArithAdd ArithKind = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithRem
	ArithAnd
	ArithOr
	ArithXor
	ArithShl
	ArithShr
	ArithUshr
)

// RawInstruction is one byte-code instruction, already decoded by the
// upstream parser into a fixed-shape record rather than a raw byte
// stream: this compiler never walks variable-length encodings itself.
type RawInstruction struct {
	// Offset is this instruction's absolute byte offset within its
	// method's code array; it is also the value branch targets resolve
	// to, and what the basic-block builder uses as a leader key.
	Offset int

	Op Opcode

	Slot         uint16 // local-variable index (OpLoad/OpStore/OpIInc)
	IntImmediate int32  // OpIConst, OpLConst (truncated), OpIInc increment
	FloatImmediate float64 // OpFConst, OpDConst

	ConstIndex uint16 // CP index: OpLdc, OpNew, OpInstanceOf, OpGetField,
	// OpPutField, OpInvokeStatic/Virtual/Special

	BranchTarget int // absolute byte offset: OpGoto, OpIf*

	Arith ArithKind // OpArith

	// Value type context, carried by the upstream parser rather than
	// re-derived from a mnemonic table: OpLoad/OpStore/OpIInc's slot
	// type, OpReturn's return type (ignored if void), OpArith/OpNeg/
	// OpConvert's operand type(s).
	Type     ValTypeTag
	ToType   ValTypeTag // OpConvert's result type
	IsVoid   bool       // OpReturn only
	NaNGreater bool     // OpCmp: true selects fcmpg/dcmpg NaN-greater semantics
}

// ValTypeTag mirrors descriptor.ValType without importing the descriptor
// package from classfile's raw input boundary, which models exactly what
// an upstream parser would hand us (it has no notion of this compiler's
// wasm mapping, only of JVM primitive types).
type ValTypeTag int

const (
	TagInt ValTypeTag = iota
	TagLong
	TagFloat
	TagDouble
	TagRef
)

// RawMethodCode is a method's decoded instruction stream plus its
// declared local-variable budget.
type RawMethodCode struct {
	MaxLocals    int
	Instructions []RawInstruction
}

// RawMethod is one method as the upstream parser hands it: access flags
// plus indices into the owning RawClass's constant pool for its name and
// descriptor, and its code (absent for abstract/native methods, neither
// of which this compiler's subset supports, so Code is always present).
type RawMethod struct {
	IsStatic  bool
	NameIndex uint16
	DescIndex uint16
	Code      RawMethodCode
}

// RawField is a declared field. Per original_source/src/class/parser.rs,
// static fields are rejected upstream as unsupported; IsStatic is carried
// through only so that rejection can happen at the RawClass boundary
// with a clear message rather than silently miscomputing an instance
// layout.
type RawField struct {
	IsStatic  bool
	NameIndex uint16
	DescIndex uint16
}

// RawClass is a whole parsed .class file: the input contract handed to
// NewClass. SuperName may be empty when the class declares no superclass;
// NewClass then defaults it to JavaLangObject, the distinguished root
// class (spec.md §4.J).
type RawClass struct {
	Name      string
	SuperName string
	CP        RawCP
	Fields    []RawField
	Methods   []RawMethod
}
