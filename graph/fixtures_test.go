package graph

// Test fixtures translated from the Rust original's graph test suite.
// Node n_k is always added k-th, so NodeID(k-1) == n_k throughout.

// fixtureCifuentes is Cifuentes' thesis, fig 6.9: a 6-node cyclic graph.
func fixtureCifuentes() *Graph[string] {
	g := New[string]()
	for i := 1; i <= 6; i++ {
		g.AddNode(nodeName(i))
	}
	edges := [][2]int{{1, 2}, {2, 3}, {3, 4}, {4, 2}, {2, 5}, {5, 6}, {5, 1}}
	for _, e := range edges {
		g.AddEdge(NodeID(e[0]-1), NodeID(e[1]-1))
	}
	return g
}

// fixtureAllen is Allen 1970, fig 2: an 8-node graph with two back edges.
func fixtureAllen() *Graph[string] {
	g := New[string]()
	for i := 1; i <= 8; i++ {
		g.AddNode(nodeName(i))
	}
	edges := [][2]int{
		{1, 2}, {2, 3}, {3, 4}, {4, 3}, {3, 5}, {4, 6},
		{5, 6}, {6, 7}, {2, 7}, {7, 2}, {7, 8},
	}
	for _, e := range edges {
		g.AddEdge(NodeID(e[0]-1), NodeID(e[1]-1))
	}
	return g
}

// fixtureLine is a trivial 3-node straight line: 1 -> 2 -> 3.
func fixtureLine() *Graph[string] {
	g := New[string]()
	for i := 1; i <= 3; i++ {
		g.AddNode(nodeName(i))
	}
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	return g
}

// fixtureCyclic is a 2-node graph with a self-loop on the entry: 1 -> 1,
// 1 -> 2, 2 -> 1.
func fixtureCyclic() *Graph[string] {
	g := New[string]()
	g.AddNode(nodeName(1))
	g.AddNode(nodeName(2))
	g.AddEdge(0, 0)
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	return g
}

func nodeName(i int) string {
	names := []string{"n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8"}
	return names[i-1]
}
