package function

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/graph"
)

// while (x) { A } ; follow -- a pre-tested loop: the header branches,
// the body has a single, unconditional back edge.
func TestFindLoopsPreTested(t *testing.T) {
	g := graph.New[Structure]()
	header := g.AddNode(NewBlock())
	body := g.AddNode(NewBlock())
	follow := g.AddNode(NewBlock())

	must(g.AddEdge(header, body))
	must(g.AddEdge(header, follow))
	must(g.AddEdge(body, header))

	loops, err := FindLoops(g)
	if err != nil {
		t.Fatalf("FindLoops: %v", err)
	}
	l, ok := loops[header]
	if !ok {
		t.Fatalf("expected a loop headed at %v, got %v", header, loops)
	}
	if l.Kind != PreTested {
		t.Fatalf("Kind = %v, want PreTested", l.Kind)
	}
	if l.Latching != body {
		t.Fatalf("Latching = %v, want %v", l.Latching, body)
	}
	if l.Follow != follow {
		t.Fatalf("Follow = %v, want %v", l.Follow, follow)
	}
}

// do { A } while (x) ; follow -- a post-tested loop: the header is not
// itself conditional, but the latching node (A's trailing test) is.
func TestFindLoopsPostTested(t *testing.T) {
	g := graph.New[Structure]()
	header := g.AddNode(NewBlock())
	latch := g.AddNode(NewBlock())
	follow := g.AddNode(NewBlock())

	must(g.AddEdge(header, latch))
	must(g.AddEdge(latch, follow)) // x false -> exit
	must(g.AddEdge(latch, header)) // x true -> loop again

	loops, err := FindLoops(g)
	if err != nil {
		t.Fatalf("FindLoops: %v", err)
	}
	l, ok := loops[header]
	if !ok {
		t.Fatalf("expected a loop headed at %v, got %v", header, loops)
	}
	if l.Kind != PostTested {
		t.Fatalf("Kind = %v, want PostTested", l.Kind)
	}
	if l.Latching != latch {
		t.Fatalf("Latching = %v, want %v", l.Latching, latch)
	}
	if l.Follow != follow {
		t.Fatalf("Follow = %v, want %v", l.Follow, follow)
	}
}
