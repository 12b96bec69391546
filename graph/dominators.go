/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

// ImmediateDominators computes the immediate-dominator map for g using the
// Cooper-Harvey-Kennedy iterative algorithm: a fixed-point pass over nodes
// in reverse post order, intersecting each node's currently-known
// dominator chain with that of every already-processed predecessor.
// Positions for the intersection walk are taken from the plain post-order
// numbering (not the reversed list) — a node's immediate dominator always
// has a strictly higher post-order number, since it finishes later.
//
// The entry node dominates itself. Nodes unreachable from the entry are
// omitted from the result.
func ImmediateDominators[T any](g *Graph[T]) (map[NodeID]NodeID, error) {
	entry, err := g.EntryID()
	if err != nil {
		return nil, err
	}

	postOrder, err := DepthFirst(g, PostOrder)
	if err != nil {
		return nil, err
	}
	reversed := append([]NodeID(nil), postOrder.Traversal()...)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	doms := make(map[NodeID]NodeID, len(reversed))
	doms[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, id := range reversed {
			if id == entry {
				continue
			}
			n := g.MustNode(id)
			var newIdom NodeID
			haveIdom := false
			for _, pred := range n.Predecessors {
				if _, ok := doms[pred]; !ok {
					continue
				}
				if !haveIdom {
					newIdom = pred
					haveIdom = true
					continue
				}
				newIdom = intersect(postOrder, doms, newIdom, pred)
			}
			if !haveIdom {
				continue
			}
			if cur, ok := doms[id]; !ok || cur != newIdom {
				doms[id] = newIdom
				changed = true
			}
		}
	}
	return doms, nil
}

// intersect walks two nodes' idom chains upward, by plain post-order
// position, until it finds their common dominator. The finger with the
// smaller post-order number (further from the root) always climbs.
func intersect(order *NodeOrder, doms map[NodeID]NodeID, a, b NodeID) NodeID {
	for a != b {
		pa, _ := order.Position(a)
		pb, _ := order.Position(b)
		for pa < pb {
			a = doms[a]
			pa, _ = order.Position(a)
		}
		for pb < pa {
			b = doms[b]
			pb, _ = order.Position(b)
		}
	}
	return a
}

// ImmediatePostDominators computes the immediate-post-dominator map: the
// immediate-dominator map of g with every edge reversed and its unique
// exit node promoted to the entry.
func ImmediatePostDominators[T any](g *Graph[T]) (map[NodeID]NodeID, error) {
	reversed, err := MapReversed(g, func(id NodeID, v T) struct{} { return struct{}{} })
	if err != nil {
		return nil, err
	}
	return ImmediateDominators(reversed)
}
