/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package graph implements the arena-indexed directed graph substrate that
// every control-flow structuring phase operates on: node/edge mutation with
// stable IDs, deterministic traversals, dominators and interval derivation.
// See https://docs.oracle.com/javase/specs/jvms/se17/html/jvms-4.html#jvms-4.10
// for the class of byte-code shapes this graph is built to structure.
package graph

import "errors"

// ErrNoEntry is returned by operations that require an entrypoint on an
// empty graph.
var ErrNoEntry = errors.New("graph: no entrypoint")

// ErrNotFound is returned when a NodeID, or an edge between two NodeIDs,
// does not exist in the graph.
var ErrNotFound = errors.New("graph: not found")

// NodeID is an opaque index into a Graph's node arena. The first node
// AddNode inserts gets NodeID(0); callers treat NodeID as opaque and
// compare only for equality.
type NodeID int

// Node is a single vertex, carrying an arbitrary Value plus ordered
// predecessor/successor edge lists. For a two-way conditional branch,
// Successors[0] is always the fall-through (false) edge and
// Successors[1] the taken (true) edge; callers that mutate Successors
// directly must preserve this ordering.
type Node[T any] struct {
	ID           NodeID
	Value        T
	Predecessors []NodeID
	Successors   []NodeID
}

// InDegree returns the number of incoming edges.
func (n *Node[T]) InDegree() int { return len(n.Predecessors) }

// OutDegree returns the number of outgoing edges.
func (n *Node[T]) OutDegree() int { return len(n.Successors) }

// Graph is a directed, possibly cyclic graph stored as a dense arena of
// optional nodes. Deleting a node leaves a tombstone (a nil slot) so that
// every other NodeID remains a valid, stable array index. Entry is
// automatically set to the NodeID of the first node inserted.
type Graph[T any] struct {
	nodes []*Node[T]
	entry NodeID
	hasEntry bool
}

// New returns an empty Graph. It does not allocate until the first AddNode.
func New[T any]() *Graph[T] {
	return &Graph[T]{}
}

// EntryID returns the entrypoint NodeID, or ErrNoEntry if the graph is
// empty or its entry node has since been removed.
func (g *Graph[T]) EntryID() (NodeID, error) {
	if !g.hasEntry {
		return 0, ErrNoEntry
	}
	return g.entry, nil
}

// SetEntry reassigns the entrypoint to id, which must already be a live
// node. Used when a pass splices a new node above the current entry (e.g.
// placeholder insertion ahead of a loop header that was also the
// function's entry block).
func (g *Graph[T]) SetEntry(id NodeID) error {
	if _, err := g.node(id); err != nil {
		return err
	}
	g.entry = id
	g.hasEntry = true
	return nil
}

// IsEntry reports whether id is the graph's current entrypoint.
func (g *Graph[T]) IsEntry(id NodeID) bool {
	return g.hasEntry && g.entry == id
}

func (g *Graph[T]) node(id NodeID) (*Node[T], error) {
	if int(id) < 0 || int(id) >= len(g.nodes) || g.nodes[id] == nil {
		return nil, ErrNotFound
	}
	return g.nodes[id], nil
}

// Node returns the node stored at id, or ErrNotFound if it does not exist.
func (g *Graph[T]) Node(id NodeID) (*Node[T], error) {
	return g.node(id)
}

// MustNode returns the node stored at id, panicking if it does not exist.
// Used internally where the caller has already established id is live.
func (g *Graph[T]) MustNode(id NodeID) *Node[T] {
	n, err := g.node(id)
	if err != nil {
		panic(err)
	}
	return n
}

// AddNode appends a new, unconnected node holding value and returns its ID.
// If this is the first node added, it becomes the entry point.
func (g *Graph[T]) AddNode(value T) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node[T]{ID: id, Value: value})
	if !g.hasEntry {
		g.entry = id
		g.hasEntry = true
	}
	return id
}

// AddEdge adds a directed edge source -> target, appending to the end of
// both edge lists.
func (g *Graph[T]) AddEdge(source, target NodeID) error {
	s, err := g.node(source)
	if err != nil {
		return err
	}
	t, err := g.node(target)
	if err != nil {
		return err
	}
	s.Successors = append(s.Successors, target)
	t.Predecessors = append(t.Predecessors, source)
	return nil
}

func removeElement(xs []NodeID, v NodeID) ([]NodeID, error) {
	for i, x := range xs {
		if x == v {
			return append(xs[:i], xs[i+1:]...), nil
		}
	}
	return xs, ErrNotFound
}

// RemoveNode deletes id and all edges touching it, leaving a tombstone so
// every other NodeID stays valid. If id was the entrypoint, the entrypoint
// is cleared (subsequent EntryID calls fail with ErrNoEntry).
func (g *Graph[T]) RemoveNode(id NodeID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	for _, pred := range n.Predecessors {
		if pred == id {
			continue
		}
		p := g.nodes[pred]
		p.Successors, _ = removeElement(p.Successors, id)
	}
	for _, succ := range n.Successors {
		if succ == id {
			continue
		}
		s := g.nodes[succ]
		s.Predecessors, _ = removeElement(s.Predecessors, id)
	}
	g.nodes[id] = nil
	if g.hasEntry && g.entry == id {
		g.hasEntry = false
	}
	return nil
}

// RemoveEdge deletes the directed edge source -> target.
func (g *Graph[T]) RemoveEdge(source, target NodeID) error {
	s, err := g.node(source)
	if err != nil {
		return err
	}
	t, err := g.node(target)
	if err != nil {
		return err
	}
	var rerr error
	s.Successors, rerr = removeElement(s.Successors, target)
	if rerr != nil {
		return rerr
	}
	t.Predecessors, rerr = removeElement(t.Predecessors, source)
	return rerr
}

// SwapEdge replaces the edge source -> fromTarget with source -> toTarget,
// preserving the *position* of the edge in source's Successors list. This
// is load-bearing for two-way branches, where index 0/1 distinguish
// false/true edges.
func (g *Graph[T]) SwapEdge(source, fromTarget, toTarget NodeID) error {
	s, err := g.node(source)
	if err != nil {
		return err
	}
	if _, err := g.node(fromTarget); err != nil {
		return err
	}
	to, err := g.node(toTarget)
	if err != nil {
		return err
	}
	found := false
	for i, succ := range s.Successors {
		if succ == fromTarget {
			s.Successors[i] = toTarget
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	from := g.nodes[fromTarget]
	from.Predecessors, _ = removeElement(from.Predecessors, source)
	to.Predecessors = append(to.Predecessors, source)
	return nil
}

// RemoveAllSuccessors detaches every outgoing edge from source.
func (g *Graph[T]) RemoveAllSuccessors(source NodeID) error {
	s, err := g.node(source)
	if err != nil {
		return err
	}
	succs := s.Successors
	s.Successors = nil
	for _, succ := range succs {
		t := g.nodes[succ]
		t.Predecessors, _ = removeElement(t.Predecessors, source)
	}
	return nil
}

// Iter returns every live node in insertion order, skipping tombstones.
func (g *Graph[T]) Iter() []*Node[T] {
	out := make([]*Node[T], 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// IterID returns the NodeIDs of every live node, in insertion order.
func (g *Graph[T]) IterID() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n.ID)
		}
	}
	return out
}

// Len returns the number of live nodes.
func (g *Graph[T]) Len() int {
	n := 0
	for _, x := range g.nodes {
		if x != nil {
			n++
		}
	}
	return n
}

// Capacity returns the number of nodes ever inserted, including tombstones.
func (g *Graph[T]) Capacity() int { return len(g.nodes) }

// Map builds a new graph with identical topology, applying f to each live
// node's value. NodeIDs, edges and edge order are preserved.
func Map[T, U any](g *Graph[T], f func(NodeID, T) U) *Graph[U] {
	out := &Graph[U]{
		nodes: make([]*Node[U], len(g.nodes)),
		entry: g.entry,
		hasEntry: g.hasEntry,
	}
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		out.nodes[i] = &Node[U]{
			ID:           n.ID,
			Value:        f(n.ID, n.Value),
			Predecessors: append([]NodeID(nil), n.Predecessors...),
			Successors:   append([]NodeID(nil), n.Successors...),
		}
	}
	return out
}

// MapReversed builds a new graph with every edge flipped and the unique
// out-degree-0 exit node of g promoted to the new entrypoint, applying f
// to each live node's value. It is an error if g does not have exactly one
// exit node.
func MapReversed[T, U any](g *Graph[T], f func(NodeID, T) U) (*Graph[U], error) {
	var exit NodeID
	found := false
	for _, n := range g.nodes {
		if n == nil || n.OutDegree() != 0 {
			continue
		}
		if found {
			return nil, errors.New("graph: map-reversed expects exactly one exit node")
		}
		exit = n.ID
		found = true
	}
	if !found {
		return nil, errors.New("graph: map-reversed expects an exit node")
	}

	out := &Graph[U]{
		nodes:    make([]*Node[U], len(g.nodes)),
		entry:    exit,
		hasEntry: true,
	}
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		out.nodes[i] = &Node[U]{
			ID:           n.ID,
			Value:        f(n.ID, n.Value),
			Predecessors: append([]NodeID(nil), n.Successors...),
			Successors:   append([]NodeID(nil), n.Predecessors...),
		}
	}
	return out, nil
}
