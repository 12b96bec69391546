package builtin

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/descriptor"
)

func TestConstructAllocateSignature(t *testing.T) {
	ft, code := ConstructAllocate(3)
	if len(ft.Params) != 2 || ft.Params[0] != descriptor.I32 || ft.Params[1] != descriptor.I32 {
		t.Fatalf("Allocate params = %v, want [i32, i32]", ft.Params)
	}
	if len(ft.Results) != 1 || ft.Results[0] != descriptor.I32 {
		t.Fatalf("Allocate results = %v, want [i32]", ft.Results)
	}
	if len(code) == 0 {
		t.Fatal("expected non-empty code")
	}
	if code[len(code)-1] != 0x0B {
		t.Fatalf("expected code to end in End (0x0B), got %#x", code[len(code)-1])
	}
}

func TestConstructCompareI64HasNoNaNParam(t *testing.T) {
	ft, _ := ConstructCompare(descriptor.I64)
	if len(ft.Params) != 2 {
		t.Fatalf("i64 compare params = %v, want 2 (no nan_greater)", ft.Params)
	}
}

func TestConstructCompareFloatHasNaNParam(t *testing.T) {
	ft, _ := ConstructCompare(descriptor.F32)
	if len(ft.Params) != 3 || ft.Params[2] != descriptor.I32 {
		t.Fatalf("f32 compare params = %v, want [f32, f32, i32]", ft.Params)
	}
}

func TestConstructInstanceOfSignature(t *testing.T) {
	ft, code := ConstructInstanceOf(7)
	if len(ft.Params) != 2 || len(ft.Results) != 1 {
		t.Fatalf("instanceof signature = %+v, want 2 params 1 result", ft)
	}
	if len(code) == 0 {
		t.Fatal("expected non-empty code")
	}
}

func TestKindNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range []Kind{Allocate, InstanceOf, LongCmp, FloatCmp, DoubleCmp} {
		name := k.Name()
		if seen[name] {
			t.Fatalf("duplicate builtin name %q", name)
		}
		seen[name] = true
	}
}
