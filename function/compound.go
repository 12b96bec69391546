/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package function

import "github.com/jacobin-authors/j2wasm/graph"

// rewriteCompoundConditional replaces the node at leftID with a
// CompoundConditional combining its current value (left) with the value
// at rightID (right), removes rightID from the graph, and rewires the
// new node's two successors to falseID (index 0) and trueID (index 1).
func rewriteCompoundConditional(
	g *ControlFlowGraph,
	kind ConditionalKind,
	leftNegated bool,
	leftID, rightID, falseID, trueID graph.NodeID,
) error {
	leftNode := g.MustNode(leftID)
	rightNode := g.MustNode(rightID)
	leftValue := leftNode.Value
	rightValue := rightNode.Value

	leftNode.Value = Structure{
		Kind:        CompoundConditional,
		CondKind:    kind,
		LeftNegated: leftNegated,
		Left:        &leftValue,
		Right:       &rightValue,
	}

	if err := g.RemoveNode(rightID); err != nil {
		return err
	}
	if err := g.RemoveAllSuccessors(leftID); err != nil {
		return err
	}
	// Order matters: index 0 is the false edge, index 1 the true edge.
	if err := g.AddEdge(leftID, falseID); err != nil {
		return err
	}
	return g.AddEdge(leftID, trueID)
}

// StructureCompoundConditionals repeatedly rewrites every short-circuit
// && / || pattern in g into a single CompoundConditional node, per Figure
// 6.34 of Cifuentes' thesis. Short-circuit constructs produce irreducible
// flow graphs that would otherwise require code duplication to express in
// a structured language like WebAssembly.
//
// Must run before loop and two-way conditional structuring, since those
// may find compound conditionals sitting in a header or latching node.
func StructureCompoundConditionals(g *ControlFlowGraph) error {
	changed := true
	for changed {
		changed = false

		order, err := graph.DepthFirst(g, graph.PostOrder)
		if err != nil {
			return err
		}

		for _, n := range order.Traversal() {
			nNode := g.MustNode(n)
			if nNode.OutDegree() != 2 {
				continue
			}
			f := nNode.Successors[0] // false branch
			e := nNode.Successors[1] // true branch

			fNode := g.MustNode(f)
			eNode := g.MustNode(e)

			switch {
			case fNode.OutDegree() == 2 && isConditionalBranch(fNode) && fNode.InDegree() == 1 && f != n:
				switch e {
				case fNode.Successors[0]:
					// !n && f
					changed = true
					otherEdge := fNode.Successors[1]
					if err := rewriteCompoundConditional(g, Conjunction, true, n, f, e, otherEdge); err != nil {
						return err
					}
				case fNode.Successors[1]:
					// n || f
					changed = true
					otherEdge := fNode.Successors[0]
					if err := rewriteCompoundConditional(g, Disjunction, false, n, f, otherEdge, e); err != nil {
						return err
					}
				}
			case eNode.OutDegree() == 2 && isConditionalBranch(eNode) && eNode.InDegree() == 1 && e != n:
				switch f {
				case eNode.Successors[0]:
					// n && e
					changed = true
					otherEdge := eNode.Successors[1]
					if err := rewriteCompoundConditional(g, Conjunction, false, n, e, f, otherEdge); err != nil {
						return err
					}
				case eNode.Successors[1]:
					// !n || e
					changed = true
					otherEdge := eNode.Successors[0]
					if err := rewriteCompoundConditional(g, Disjunction, true, n, e, otherEdge, f); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
