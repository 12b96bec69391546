package classfile

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/descriptor"
)

func TestMethodIdWasmName(t *testing.T) {
	id := MethodId{
		ClassName: "Class",
		Name:      "method",
		Descriptor: descriptor.NewMethodDescriptor(
			[]descriptor.FieldDescriptor{{Kind: descriptor.Int}, {Kind: descriptor.Float}},
			descriptor.ReturnDescriptor{Kind: descriptor.Void},
		),
	}
	if got, want := id.WasmName(), "Class.method_IF_V"; got != want {
		t.Errorf("WasmName() = %q, want %q", got, want)
	}
}

func TestMethodIdString(t *testing.T) {
	id := MethodId{
		ClassName: "Class",
		Name:      "method",
		Descriptor: descriptor.NewMethodDescriptor(
			[]descriptor.FieldDescriptor{{Kind: descriptor.Long}, {Kind: descriptor.Double}},
			descriptor.ReturnDescriptor{Kind: descriptor.Field, Field: descriptor.FieldDescriptor{Kind: descriptor.Boolean}},
		),
	}
	if got, want := id.String(), "Class.method(JD)Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFieldIdString(t *testing.T) {
	id := FieldId{
		ClassName:  "Class",
		Name:       "field",
		Descriptor: descriptor.FieldDescriptor{Kind: descriptor.Int},
	}
	if got, want := id.String(), "Class.fieldI"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewClassComputesFieldOffsetsAndSize(t *testing.T) {
	cp := utf8Pool("Test", "i", "I", "d", "D")
	raw := RawClass{
		Name:      "Test",
		SuperName: "",
		CP:        cp,
		Fields: []RawField{
			{NameIndex: 2, DescIndex: 3}, // i : I, 4 bytes at offset 0
			{NameIndex: 4, DescIndex: 5}, // d : D, 8 bytes at offset 4
		},
	}
	class, err := NewClass(raw)
	if err != nil {
		t.Fatalf("NewClass failed: %v", err)
	}
	if class.SuperClassName != JavaLangObject {
		t.Fatalf("SuperClassName = %q, want %q (default root)", class.SuperClassName, JavaLangObject)
	}
	if class.FieldOffsets["i"] != 0 {
		t.Errorf("offset of i = %d, want 0", class.FieldOffsets["i"])
	}
	if class.FieldOffsets["d"] != 4 {
		t.Errorf("offset of d = %d, want 4", class.FieldOffsets["d"])
	}
	if class.Size != 12 {
		t.Errorf("Size = %d, want 12", class.Size)
	}
}

func TestNewClassRejectsStaticFields(t *testing.T) {
	cp := utf8Pool("Test", "i", "I")
	raw := RawClass{
		Name: "Test",
		CP:   cp,
		Fields: []RawField{
			{NameIndex: 2, DescIndex: 3, IsStatic: true},
		},
	}
	if _, err := NewClass(raw); err == nil {
		t.Fatalf("expected error for static field")
	}
}

func TestFunctionTakeCodeCanOnlyHappenOnce(t *testing.T) {
	cp := utf8Pool("<init>", "()V")
	raw := RawClass{
		Name: "Test",
		CP:   cp,
		Methods: []RawMethod{
			{IsStatic: false, NameIndex: 1, DescIndex: 2, Code: RawMethodCode{MaxLocals: 1}},
		},
	}
	class, err := NewClass(raw)
	if err != nil {
		t.Fatalf("NewClass failed: %v", err)
	}
	fn := class.Methods[0]
	_ = fn.TakeCode()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second TakeCode")
		}
	}()
	_ = fn.TakeCode()
}
