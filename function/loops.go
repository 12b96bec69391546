/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package function

import (
	"fmt"

	"github.com/jacobin-authors/j2wasm/graph"
)

// LoopKind distinguishes the two loop shapes this compiler structures.
// Endless loops (no conditional latching node) are not supported.
type LoopKind int

const (
	PreTested LoopKind = iota
	PostTested
)

func (k LoopKind) String() string {
	if k == PreTested {
		return "pre-tested"
	}
	return "post-tested"
}

// Loop records one natural loop found by FindLoops: its header, its
// unique latching (back-edge source) node, and the follow node execution
// continues at once the loop exits.
type Loop struct {
	Kind     LoopKind
	Header   graph.NodeID
	Latching graph.NodeID
	Follow   graph.NodeID
}

func (l Loop) String() string {
	return fmt.Sprintf("%d -> %d => %d (%s)", l.Header, l.Latching, l.Follow, l.Kind)
}

// FindLoops locates every natural loop in g using Cifuentes' interval-based
// algorithm (Figure 7.3/7.4 of her thesis): derive the interval-nesting
// sequence, then for each interval at each level look for a node with a
// back edge to that interval's header. g must be reducible — irreducible
// flow graphs (arising only from unstructured gotos this compiler's Java
// subset cannot produce) are rejected.
func FindLoops(g *ControlFlowGraph) (map[graph.NodeID]Loop, error) {
	inLoop := make(map[graph.NodeID]bool)
	loops := make(map[graph.NodeID]Loop)

	rpo, err := graph.DepthFirst(g, graph.ReversePostOrder)
	if err != nil {
		return nil, err
	}

	derivedGraphs, derivedIntervals, err := graph.IntervalsDerivedSequence(g)
	if err != nil {
		return nil, err
	}
	if derivedGraphs[len(derivedGraphs)-1].Len() != 1 {
		return nil, fmt.Errorf("function: irreducible flow graphs are not supported")
	}

	for i, gi := range derivedGraphs {
		for _, interval := range derivedIntervals[i] {
			headerDerived := interval.Header()
			hj := gi.MustNode(headerDerived).Value[0]

			// Flatten this interval's derived nodes back to original NodeIDs.
			intervalOriginals := make(map[graph.NodeID]bool)
			for _, xDerived := range interval {
				for _, orig := range gi.MustNode(xDerived).Value {
					intervalOriginals[orig] = true
				}
			}

			for _, xDerived := range interval {
				// Find the first original node in this derived node's
				// collapsed list with a back edge to hj.
				var x graph.NodeID
				found := false
				for _, orig := range gi.MustNode(xDerived).Value {
					for _, s := range g.MustNode(orig).Successors {
						if s == hj {
							x = orig
							found = true
							break
						}
					}
					if found {
						break
					}
				}
				if !found {
					continue
				}

				hasDerivedEdge := false
				for _, s := range gi.MustNode(xDerived).Successors {
					if s == headerDerived {
						hasDerivedEdge = true
						break
					}
				}
				if !hasDerivedEdge || inLoop[x] {
					continue
				}

				body := map[graph.NodeID]bool{hj: true}
				for _, n := range rpo.Range(x, hj) {
					if intervalOriginals[n] {
						inLoop[n] = true
						body[n] = true
					}
				}

				kind, err := findLoopKind(g, hj, x, body)
				if err != nil {
					return nil, err
				}
				follow := findLoopFollow(g, hj, x, body, kind)

				loops[hj] = Loop{Kind: kind, Header: hj, Latching: x, Follow: follow}
			}
		}
	}

	return loops, nil
}

func findLoopKind(g *ControlFlowGraph, hj, x graph.NodeID, body map[graph.NodeID]bool) (LoopKind, error) {
	xNode := g.MustNode(x)
	hjNode := g.MustNode(hj)

	if xNode.OutDegree() == 2 {
		if hjNode.OutDegree() == 2 {
			allInBody := true
			for _, s := range hjNode.Successors {
				if !body[s] {
					allInBody = false
					break
				}
			}
			if allInBody {
				return PostTested, nil
			}
			return PreTested, nil
		}
		return PostTested, nil
	}

	// 1-way latching node.
	if hjNode.OutDegree() == 2 {
		return PreTested, nil
	}
	return 0, fmt.Errorf("function: endless loops are not supported")
}

func findLoopFollow(g *ControlFlowGraph, hj, x graph.NodeID, body map[graph.NodeID]bool, kind LoopKind) graph.NodeID {
	switch kind {
	case PreTested:
		succs := g.MustNode(hj).Successors
		if body[succs[0]] {
			return succs[1]
		}
		return succs[0]
	default: // PostTested
		succs := g.MustNode(x).Successors
		if body[succs[0]] {
			return succs[1]
		}
		return succs[0]
	}
}
