package function

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/graph"
)

func compoundConditionalFixture() (*ControlFlowGraph, graph.NodeID, graph.NodeID, graph.NodeID, graph.NodeID) {
	g := graph.New[Structure]()
	x := g.AddNode(Structure{Kind: Block, Instructions: []classfile.RawInstruction{
		ins(0, classfile.OpLoad),
		ins(1, classfile.OpIConst),
		branch(2, classfile.OpIfIcmpLe, 0),
	}})
	y := g.AddNode(Structure{Kind: Block, Instructions: []classfile.RawInstruction{
		ins(0, classfile.OpLoad),
		ins(1, classfile.OpIConst),
		branch(2, classfile.OpIfIcmpLe, 0),
	}})
	f := g.AddNode(Structure{Kind: Block, Instructions: []classfile.RawInstruction{
		ins(0, classfile.OpIConst),
		ins(1, classfile.OpReturn),
	}})
	tr := g.AddNode(Structure{Kind: Block, Instructions: []classfile.RawInstruction{
		ins(0, classfile.OpIConst),
		ins(1, classfile.OpReturn),
	}})
	return g, x, y, f, tr
}

// a && b
func TestStructureCompoundConditionalsConjunction(t *testing.T) {
	g, x, y, f, tr := compoundConditionalFixture()
	must(g.AddEdge(x, f))
	must(g.AddEdge(x, y))
	must(g.AddEdge(y, f))
	must(g.AddEdge(y, tr))

	if err := StructureCompoundConditionals(g); err != nil {
		t.Fatalf("StructureCompoundConditionals: %v", err)
	}

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
	entry, _ := g.EntryID()
	n := g.MustNode(entry)
	if len(n.Successors) != 2 || n.Successors[0] != f || n.Successors[1] != tr {
		t.Fatalf("entry successors = %v, want [%v %v]", n.Successors, f, tr)
	}
	if n.Value.Kind != CompoundConditional || n.Value.CondKind != Conjunction || n.Value.LeftNegated {
		t.Fatalf("entry value = %+v, want unnegated Conjunction", n.Value)
	}
}

// !a && b
func TestStructureCompoundConditionalsNegatedConjunction(t *testing.T) {
	g, x, y, f, tr := compoundConditionalFixture()
	must(g.AddEdge(x, y))
	must(g.AddEdge(x, f))
	must(g.AddEdge(y, f))
	must(g.AddEdge(y, tr))

	if err := StructureCompoundConditionals(g); err != nil {
		t.Fatalf("StructureCompoundConditionals: %v", err)
	}

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
	entry, _ := g.EntryID()
	n := g.MustNode(entry)
	if len(n.Successors) != 2 || n.Successors[0] != f || n.Successors[1] != tr {
		t.Fatalf("entry successors = %v, want [%v %v]", n.Successors, f, tr)
	}
	if n.Value.Kind != CompoundConditional || n.Value.CondKind != Conjunction || !n.Value.LeftNegated {
		t.Fatalf("entry value = %+v, want negated Conjunction", n.Value)
	}
}

// a || b
func TestStructureCompoundConditionalsDisjunction(t *testing.T) {
	g, x, y, f, tr := compoundConditionalFixture()
	must(g.AddEdge(x, y))
	must(g.AddEdge(x, tr))
	must(g.AddEdge(y, f))
	must(g.AddEdge(y, tr))

	if err := StructureCompoundConditionals(g); err != nil {
		t.Fatalf("StructureCompoundConditionals: %v", err)
	}

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
	entry, _ := g.EntryID()
	n := g.MustNode(entry)
	if len(n.Successors) != 2 || n.Successors[0] != f || n.Successors[1] != tr {
		t.Fatalf("entry successors = %v, want [%v %v]", n.Successors, f, tr)
	}
	if n.Value.Kind != CompoundConditional || n.Value.CondKind != Disjunction || n.Value.LeftNegated {
		t.Fatalf("entry value = %+v, want unnegated Disjunction", n.Value)
	}
}

// !a || b
func TestStructureCompoundConditionalsNegatedDisjunction(t *testing.T) {
	g, x, y, f, tr := compoundConditionalFixture()
	must(g.AddEdge(x, tr))
	must(g.AddEdge(x, y))
	must(g.AddEdge(y, f))
	must(g.AddEdge(y, tr))

	if err := StructureCompoundConditionals(g); err != nil {
		t.Fatalf("StructureCompoundConditionals: %v", err)
	}

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
	entry, _ := g.EntryID()
	n := g.MustNode(entry)
	if len(n.Successors) != 2 || n.Successors[0] != f || n.Successors[1] != tr {
		t.Fatalf("entry successors = %v, want [%v %v]", n.Successors, f, tr)
	}
	if n.Value.Kind != CompoundConditional || n.Value.CondKind != Disjunction || !n.Value.LeftNegated {
		t.Fatalf("entry value = %+v, want negated Disjunction", n.Value)
	}
}
