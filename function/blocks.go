/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package function

import (
	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/graph"
)

// ensureLeader returns the node for the basic block starting at the given
// byte offset, creating an empty Block node the first time offset is seen.
func ensureLeader(g *ControlFlowGraph, leaders map[int]graph.NodeID, offset int) graph.NodeID {
	if id, ok := leaders[offset]; ok {
		return id
	}
	id := g.AddNode(NewBlock())
	leaders[offset] = id
	return id
}

// InsertBasicBlocks builds g's nodes and edges from code, a method's
// flat byte-code stream in program order. Two passes: first find every
// leader offset (entry, every branch target, every fall-through after a
// branch), then walk the stream again assigning each instruction to its
// block and wiring fall-through/branch edges between blocks.
func InsertBasicBlocks(g *ControlFlowGraph, code []classfile.RawInstruction) {
	leaders := make(map[int]graph.NodeID)
	ensureLeader(g, leaders, 0)

	for i, ins := range code {
		switch {
		case isUnconditionalBranch(ins.Op):
			ensureLeader(g, leaders, branchTarget(ins))
		case conditionalBranchOps[ins.Op]:
			if i+1 < len(code) {
				ensureLeader(g, leaders, code[i+1].Offset)
			}
			ensureLeader(g, leaders, branchTarget(ins))
		}
	}

	current := leaders[0]
	for i, ins := range code {
		if id, ok := leaders[ins.Offset]; ok {
			current = id
		}

		switch {
		case isUnconditionalBranch(ins.Op):
			g.AddEdge(current, leaders[branchTarget(ins)])
		case conditionalBranchOps[ins.Op]:
			if i+1 < len(code) {
				g.AddEdge(current, leaders[code[i+1].Offset])
			}
			g.AddEdge(current, leaders[branchTarget(ins)])
		default:
			if i+1 < len(code) {
				if nextID, ok := leaders[code[i+1].Offset]; ok {
					g.AddEdge(current, nextID)
				}
			}
		}

		n := g.MustNode(current)
		n.Value.Instructions = append(n.Value.Instructions, ins)
	}
}

// findLatchingNodesFor returns header's predecessors that come before it
// in post-order — i.e. back edges into header.
func findLatchingNodesFor(g *ControlFlowGraph, postOrder *graph.NodeOrder, header graph.NodeID) []graph.NodeID {
	n := g.MustNode(header)
	var out []graph.NodeID
	for _, pred := range n.Predecessors {
		if postOrder.Compare(pred, header) < 0 {
			out = append(out, pred)
		}
	}
	return out
}

func removeFromSlice(xs []graph.NodeID, v graph.NodeID) []graph.NodeID {
	for i, x := range xs {
		if x == v {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}

// InsertPlaceholderNodes splices empty placeholder blocks above any
// header with two or more back edges, so that every loop in g ends up
// with a single, unique back edge and no two-way conditional's follow
// node is itself a loop header (spec.md §4.D).
//
// Two cases produce multiple back edges into one header:
//  1. A pre-tested loop's header is also a post-tested loop's header
//     (e.g. a while loop at the top of a do-while body) — the
//     post-tested latching's back edge is distinguished from the
//     pre-tested structure by checking immediate post-dominance: if the
//     header is not the latching's immediate post-dominator, the
//     latching belongs to an inner post-tested loop.
//  2. A two-way conditional's two branches both converge onto a loop
//     header via back edges.
//
// Both cases are handled per header, in post-order so nested structures
// are fixed first.
func InsertPlaceholderNodes(g *ControlFlowGraph) error {
	postOrder, err := graph.DepthFirst(g, graph.PostOrder)
	if err != nil {
		return err
	}
	ipdom, err := graph.ImmediatePostDominators(g)
	if err != nil {
		return err
	}

	for _, header := range postOrder.Traversal() {
		latching := findLatchingNodesFor(g, postOrder, header)

		if len(latching) >= 2 {
			var loopLatching graph.NodeID
			found := false
			for _, x := range latching {
				if ipdom[x] != header {
					loopLatching = x
					found = true
					break
				}
			}
			if found {
				placeholder := g.AddNode(NewBlock())
				if err := g.SwapEdge(loopLatching, header, placeholder); err != nil {
					return err
				}
				if g.IsEntry(header) {
					if err := g.SetEntry(placeholder); err != nil {
						return err
					}
				} else {
					preds := append([]graph.NodeID(nil), g.MustNode(header).Predecessors...)
					for _, pred := range preds {
						if postOrder.Compare(pred, header) >= 0 {
							if err := g.SwapEdge(pred, header, placeholder); err != nil {
								return err
							}
						}
					}
				}
				if err := g.AddEdge(placeholder, header); err != nil {
					return err
				}
				latching = removeFromSlice(latching, loopLatching)
			}
		}

		if len(latching) >= 2 {
			placeholder := g.AddNode(NewBlock())
			for _, x := range latching {
				if err := g.SwapEdge(x, header, placeholder); err != nil {
					return err
				}
			}
			if err := g.AddEdge(placeholder, header); err != nil {
				return err
			}
		}
	}
	return nil
}
