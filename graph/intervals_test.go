package graph

import "testing"

func intervalEquals(iv Interval, want ...NodeID) bool {
	if len(iv) != len(want) {
		return false
	}
	for i := range iv {
		if iv[i] != want[i] {
			return false
		}
	}
	return true
}

// TestIntervalsCifuentes checks against Cifuentes' thesis fig 6.9: exactly
// two intervals, [n1] and [n2,n3,n4,n5,n6].
func TestIntervalsCifuentes(t *testing.T) {
	g := fixtureCifuentes()
	ivs, err := Intervals(g)
	if err != nil {
		t.Fatalf("Intervals failed: %v", err)
	}
	if len(ivs) != 2 {
		t.Fatalf("got %d intervals, want 2: %v", len(ivs), ivs)
	}
	if !intervalEquals(ivs[0], 0) {
		t.Errorf("first interval = %v, want [n1]", ivs[0])
	}
	if !intervalEquals(ivs[1], 1, 2, 3, 4, 5) {
		t.Errorf("second interval = %v, want [n2,n3,n4,n5,n6]", ivs[1])
	}
}

// TestIntervalsAllen checks against Allen 1970 fig 2: four intervals,
// [n1], [n2], [n3,n4,n5,n6], [n7,n8].
func TestIntervalsAllen(t *testing.T) {
	g := fixtureAllen()
	ivs, err := Intervals(g)
	if err != nil {
		t.Fatalf("Intervals failed: %v", err)
	}
	if len(ivs) != 4 {
		t.Fatalf("got %d intervals, want 4: %v", len(ivs), ivs)
	}
	if !intervalEquals(ivs[0], 0) {
		t.Errorf("interval 0 = %v, want [n1]", ivs[0])
	}
	if !intervalEquals(ivs[1], 1) {
		t.Errorf("interval 1 = %v, want [n2]", ivs[1])
	}
	if !intervalEquals(ivs[2], 2, 3, 4, 5) {
		t.Errorf("interval 2 = %v, want [n3,n4,n5,n6]", ivs[2])
	}
	if !intervalEquals(ivs[3], 6, 7) {
		t.Errorf("interval 3 = %v, want [n7,n8]", ivs[3])
	}
}

func TestIntervalsDerivedSequenceCertifiesReducibility(t *testing.T) {
	g := fixtureAllen()
	graphs, partitions, err := IntervalsDerivedSequence(g)
	if err != nil {
		t.Fatalf("IntervalsDerivedSequence failed: %v", err)
	}
	if len(graphs) != len(partitions) {
		t.Fatalf("graphs/partitions length mismatch: %d vs %d", len(graphs), len(partitions))
	}
	last := graphs[len(graphs)-1]
	if last.Len() != 1 {
		t.Fatalf("Allen's graph is reducible and should collapse to a single node, got %d", last.Len())
	}

	reducible, err := IsReducible(g)
	if err != nil {
		t.Fatalf("IsReducible failed: %v", err)
	}
	if !reducible {
		t.Fatalf("Allen's graph is reducible")
	}
}

func TestIntervalsDerivedSequenceLine(t *testing.T) {
	g := fixtureLine()
	graphs, _, err := IntervalsDerivedSequence(g)
	if err != nil {
		t.Fatalf("IntervalsDerivedSequence failed: %v", err)
	}
	// A straight-line graph has no back edges, so a single pass of
	// interval derivation already yields one interval covering every node,
	// collapsing directly to a 1-node graph.
	first := graphs[0]
	if first.Len() != 3 {
		t.Fatalf("G_0 must have one node per original node, got %d", first.Len())
	}
	last := graphs[len(graphs)-1]
	if last.Len() != 1 {
		t.Fatalf("a line graph must collapse to a single node, got %d", last.Len())
	}
}
