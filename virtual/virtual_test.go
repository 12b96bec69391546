package virtual

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/descriptor"
)

func method(className, name string, params []descriptor.FieldDescriptor, returns descriptor.ReturnDescriptor) *classfile.Function {
	return &classfile.Function{
		Id: classfile.MethodId{
			ClassName:  className,
			Name:       name,
			Descriptor: descriptor.NewMethodDescriptor(params, returns),
		},
	}
}

func voidReturn() descriptor.ReturnDescriptor { return descriptor.ReturnDescriptor{Kind: descriptor.Void} }

// class A extends Object { void foo() {} }
// class B extends A { void foo() {} void bar() {} }  -- overrides foo, adds bar
// class C extends A {}                                -- inherits foo unchanged
func TestVirtualTableAssignsStableOverrideOffsets(t *testing.T) {
	classes := map[string]*classfile.Class{
		"A": {
			ClassName:      "A",
			SuperClassName: classfile.JavaLangObject,
			Methods: []*classfile.Function{
				method("A", "<init>", nil, voidReturn()),
				method("A", "foo", nil, voidReturn()),
			},
		},
		"B": {
			ClassName:      "B",
			SuperClassName: "A",
			Methods: []*classfile.Function{
				method("B", "<init>", nil, voidReturn()),
				method("B", "foo", nil, voidReturn()),
				method("B", "bar", nil, voidReturn()),
			},
		},
		"C": {
			ClassName:      "C",
			SuperClassName: "A",
		},
	}

	table := NewTable(classes)

	fooA := classfile.MethodId{ClassName: "A", Name: "foo", Descriptor: descriptor.NewMethodDescriptor(nil, voidReturn())}
	fooB := classfile.MethodId{ClassName: "B", Name: "foo", Descriptor: descriptor.NewMethodDescriptor(nil, voidReturn())}
	fooC := classfile.MethodId{ClassName: "C", Name: "foo", Descriptor: descriptor.NewMethodDescriptor(nil, voidReturn())}
	barB := classfile.MethodId{ClassName: "B", Name: "bar", Descriptor: descriptor.NewMethodDescriptor(nil, voidReturn())}

	if off := table.MethodOffset(fooA); off != 1 {
		t.Errorf("MethodOffset(A.foo) = %d, want 1", off)
	}
	if off := table.MethodOffset(fooB); off != 1 {
		t.Errorf("MethodOffset(B.foo) = %d, want 1 (must stay stable across the override)", off)
	}
	if off := table.MethodOffset(fooC); off != 1 {
		t.Errorf("MethodOffset(C.foo) = %d, want 1 (inherited unchanged from A)", off)
	}
	if off := table.MethodOffset(barB); off != 2 {
		t.Errorf("MethodOffset(B.bar) = %d, want 2", off)
	}

	bNode := table.ClassIndices["B"].Node
	bMethods := table.InheritanceTree.MustNode(bNode).Value.Methods
	if len(bMethods) != 2 {
		t.Fatalf("B should have 2 dispatchable methods (foo, bar), got %d: %v", len(bMethods), bMethods)
	}
	if bMethods[0].ClassName != "B" {
		t.Errorf("B's foo entry should point at B's override, got %s", bMethods[0].ClassName)
	}

	cNode := table.ClassIndices["C"].Node
	cMethods := table.InheritanceTree.MustNode(cNode).Value.Methods
	if len(cMethods) != 1 || cMethods[0].ClassName != "A" {
		t.Fatalf("C should inherit A's foo unchanged, got %v", cMethods)
	}
}

// Table offsets must be assigned in the tree's deterministic node order
// (root first, then every class sorted by name) regardless of map
// iteration order, so two runs over the same classes produce identical
// table layouts.
func TestVirtualTableOffsetsAreDeterministic(t *testing.T) {
	classes := map[string]*classfile.Class{
		"Zebra": {ClassName: "Zebra", SuperClassName: classfile.JavaLangObject},
		"Apple": {ClassName: "Apple", SuperClassName: classfile.JavaLangObject},
	}

	first := NewTable(classes)
	second := NewTable(classes)

	if first.ClassIndices["Apple"].Offset != second.ClassIndices["Apple"].Offset {
		t.Fatalf("Apple offset not deterministic: %d vs %d",
			first.ClassIndices["Apple"].Offset, second.ClassIndices["Apple"].Offset)
	}
	if first.ClassID(classfile.JavaLangObject) != 0 {
		t.Fatalf("java/lang/Object must be the tree's root with offset 0, got %d", first.ClassID(classfile.JavaLangObject))
	}
	if first.ClassID("Apple") >= first.ClassID("Zebra") {
		t.Fatalf("Apple should be indexed before Zebra (sorted by name): Apple=%d Zebra=%d",
			first.ClassID("Apple"), first.ClassID("Zebra"))
	}
}
