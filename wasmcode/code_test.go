package wasmcode

import "testing"

func TestAppendUvarintMultiByte(t *testing.T) {
	got := AppendUvarint(nil, 300)
	want := []byte{0xAC, 0x02}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("AppendUvarint(300) = %v, want %v", got, want)
	}
}

func TestAppendVarintNegative(t *testing.T) {
	got := AppendVarint(nil, -1)
	if len(got) != 1 || got[0] != 0x7F {
		t.Fatalf("AppendVarint(-1) = %v, want [0x7F]", got)
	}
}

func TestAppendName(t *testing.T) {
	got := AppendName(nil, "hi")
	want := []byte{2, 'h', 'i'}
	if len(got) != len(want) {
		t.Fatalf("AppendName(hi) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AppendName(hi) = %v, want %v", got, want)
		}
	}
}

func TestCodeBuilderLocalGetSet(t *testing.T) {
	c := NewCodeBuilder()
	c.LocalGet(1).LocalSet(2).End()
	got := c.Bytes()
	want := []byte{opLocalGet, 1, opLocalSet, 2, opEnd}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCodeBuilderI32ConstNegative(t *testing.T) {
	c := NewCodeBuilder()
	c.I32Const(-1)
	got := c.Bytes()
	if len(got) != 2 || got[0] != opI32Const || got[1] != 0x7F {
		t.Fatalf("I32Const(-1) = %v, want [0x41, 0x7F]", got)
	}
}

func TestCodeBuilderBlockTypeByte(t *testing.T) {
	c := NewCodeBuilder()
	c.Block(Empty)
	got := c.Bytes()
	if len(got) != 2 || got[0] != opBlock || got[1] != 0x40 {
		t.Fatalf("Block(Empty) = %v, want [0x02, 0x40]", got)
	}
}

func TestCodeBuilderCallIndirectWritesTableZero(t *testing.T) {
	c := NewCodeBuilder()
	c.CallIndirect(5)
	got := c.Bytes()
	want := []byte{opCallIndirect, 5, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
