/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

// Order selects a depth-first traversal order.
type Order int

const (
	PreOrder Order = iota
	PostOrder
	ReversePreOrder
	ReversePostOrder
)

// NodeOrder is the fixed sequence of NodeIDs produced by a single
// depth-first walk, plus lazily-built position lookup for Compare/Range.
type NodeOrder struct {
	traversal []NodeID
	positions map[NodeID]int
}

// Traversal returns the underlying sequence of NodeIDs.
func (o *NodeOrder) Traversal() []NodeID {
	return o.traversal
}

func (o *NodeOrder) ensurePositions() map[NodeID]int {
	if o.positions == nil {
		o.positions = make(map[NodeID]int, len(o.traversal))
		for i, id := range o.traversal {
			o.positions[id] = i
		}
	}
	return o.positions
}

// Position returns the index of id within the traversal, or ok=false if id
// never appeared (e.g. it was unreachable from the entry).
func (o *NodeOrder) Position(id NodeID) (int, bool) {
	p, ok := o.ensurePositions()[id]
	return p, ok
}

// Compare returns -1, 0 or 1 according to a's and b's relative position in
// the traversal. Nodes missing from the traversal sort after every present
// node.
func (o *NodeOrder) Compare(a, b NodeID) int {
	pa, oka := o.Position(a)
	pb, okb := o.Position(b)
	switch {
	case oka && okb:
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		default:
			return 0
		}
	case oka && !okb:
		return -1
	case !oka && okb:
		return 1
	default:
		return 0
	}
}

// Range returns the NodeIDs at traversal positions [a, b) — a's position up
// to but excluding b's. Used to collect a loop body's nodes between a
// header and its latching node in reverse-post-order.
func (o *NodeOrder) Range(a, b NodeID) []NodeID {
	pa, _ := o.Position(a)
	pb, _ := o.Position(b)
	if pa >= pb {
		return nil
	}
	return o.traversal[pa:pb]
}

// Between reports whether b's traversal position lies strictly between
// a's and c's (in either direction).
func (o *NodeOrder) Between(a, b, c NodeID) bool {
	pa, oka := o.Position(a)
	pb, okb := o.Position(b)
	pc, okc := o.Position(c)
	if !oka || !okb || !okc {
		return false
	}
	lo, hi := pa, pc
	if lo > hi {
		lo, hi = hi, lo
	}
	return pb > lo && pb < hi
}

func depthFirstWalk[T any](g *Graph[T], id NodeID, order Order, visited map[NodeID]bool, out *[]NodeID) {
	if visited[id] {
		return
	}
	visited[id] = true

	pre := order == PreOrder || order == ReversePreOrder
	if pre {
		*out = append(*out, id)
	}

	n := g.MustNode(id)
	succs := n.Successors
	if order == ReversePreOrder || order == ReversePostOrder {
		for i := len(succs) - 1; i >= 0; i-- {
			depthFirstWalk(g, succs[i], order, visited, out)
		}
	} else {
		for _, s := range succs {
			depthFirstWalk(g, s, order, visited, out)
		}
	}

	if !pre {
		*out = append(*out, id)
	}
}

// DepthFirst walks g from its entry node in the given order and returns the
// resulting NodeOrder. It is an error if g has no entry.
func DepthFirst[T any](g *Graph[T], order Order) (*NodeOrder, error) {
	entry, err := g.EntryID()
	if err != nil {
		return nil, err
	}
	var out []NodeID
	visited := make(map[NodeID]bool)
	depthFirstWalk(g, entry, order, visited, &out)
	return &NodeOrder{traversal: out}, nil
}
