/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package function

import "github.com/jacobin-authors/j2wasm/graph"

// IgnoredLoopHeaders returns the set of nodes that must be excluded from
// two-way conditional structuring because they are already spoken for by a
// loop: a pre-tested loop's header node, or a post-tested loop's latching
// node.
//
// A post-tested loop may still have an if-statement as its header (e.g.
// `do { if (...) {`). A pre-tested loop may have an if-statement as its
// latching node, but InsertPlaceholderNodes will have already spliced a
// placeholder there.
func IgnoredLoopHeaders(loops map[graph.NodeID]Loop) map[graph.NodeID]bool {
	out := make(map[graph.NodeID]bool, len(loops))
	for _, l := range loops {
		switch l.Kind {
		case PreTested:
			out[l.Header] = true
		case PostTested:
			out[l.Latching] = true
		}
	}
	return out
}

// Find2WayConditionals identifies every 2-way conditional (if-statement) in
// g, using the algorithm of Figure 6.31 in Cristina Cifuentes' "Reverse
// Compilation Techniques" (PhD thesis, Queensland University of Technology,
// 1994). It returns a map of header nodes to their follow nodes, where
// execution rejoins after the conditional. Multiple headers may share the
// same follow node when they are nested.
//
// This must be called after StructureCompoundConditionals, since a
// short-circuit rewrite can turn what looks like two nested conditionals
// into the header of a single one (e.g. `if (a && b) { ... }`).
//
// The graph is traversed in post order so nested structures resolve before
// their enclosing ones. unresolved collects header nodes whose follow node
// hasn't been found yet; the follow node is the "lowest" (maximum post-order
// position) node immediately dominated by the header with at least two
// predecessors. Once a follow node is found for some header, every node
// still in unresolved is assigned that same follow node.
func Find2WayConditionals(g *ControlFlowGraph, ignoredHeaders map[graph.NodeID]bool) (map[graph.NodeID]graph.NodeID, error) {
	idom, err := graph.ImmediateDominators(g)
	if err != nil {
		return nil, err
	}

	postOrder, err := graph.DepthFirst(g, graph.PostOrder)
	if err != nil {
		return nil, err
	}

	unresolved := make(map[graph.NodeID]bool)
	follow := make(map[graph.NodeID]graph.NodeID)

	for _, m := range postOrder.Traversal() {
		if g.MustNode(m).OutDegree() != 2 || ignoredHeaders[m] {
			continue
		}

		var n graph.NodeID
		found := false
		for _, i := range g.IterID() {
			if idom[i] != m || g.MustNode(i).InDegree() < 2 {
				continue
			}
			if !found || postOrder.Compare(i, n) > 0 {
				n = i
				found = true
			}
		}

		if found {
			follow[m] = n
			for x := range unresolved {
				follow[x] = n
			}
			unresolved = make(map[graph.NodeID]bool)
		} else {
			unresolved[m] = true
		}
	}

	return follow, nil
}
