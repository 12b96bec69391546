/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

// Interval is a maximal single-entry region of g: a header node plus every
// node reachable from it whose predecessors are all already inside the
// region. Index 0 is always the header.
type Interval []NodeID

// Header returns the interval's unique entry node.
func (iv Interval) Header() NodeID { return iv[0] }

func contains(xs []NodeID, id NodeID) bool {
	for _, x := range xs {
		if x == id {
			return true
		}
	}
	return false
}

// Intervals partitions g into the intervals rooted at its entry, per
// Cifuentes/Allen: starting from a queue of headers seeded with the entry,
// each interval grows to include every unpartitioned node whose
// predecessors are all already in it, then any node with a predecessor
// inside the closed interval but not itself inside it becomes a new
// header.
func Intervals[T any](g *Graph[T]) ([]Interval, error) {
	entry, err := g.EntryID()
	if err != nil {
		return nil, err
	}

	var headers []NodeID
	headers = append(headers, entry)
	var partitioned []NodeID
	var result []Interval

	for hi := 0; hi < len(headers); hi++ {
		h := headers[hi]
		if contains(partitioned, h) {
			continue
		}
		interval := Interval{h}
		partitioned = append(partitioned, h)

		for {
			added := false
			for _, n := range g.Iter() {
				if contains(partitioned, n.ID) {
					continue
				}
				if len(n.Predecessors) == 0 {
					continue
				}
				allIn := true
				for _, p := range n.Predecessors {
					if !contains(interval, p) {
						allIn = false
						break
					}
				}
				if allIn {
					interval = append(interval, n.ID)
					partitioned = append(partitioned, n.ID)
					added = true
				}
			}
			if !added {
				break
			}
		}

		for _, n := range g.Iter() {
			if contains(interval, n.ID) {
				continue
			}
			for _, p := range n.Predecessors {
				if contains(interval, p) && !contains(headers, n.ID) {
					headers = append(headers, n.ID)
					break
				}
			}
		}

		result = append(result, interval)
	}
	return result, nil
}

// collapse builds the next-level interval-derived graph G_{i+1} from G_i
// and its interval partition: each interval becomes a single node holding
// the list of original NodeIDs it collapsed, with an edge between two
// collapsed nodes whenever any node in the source interval had an edge to
// any node in the target interval.
func collapse(g *Graph[[]NodeID], intervals []Interval) *Graph[[]NodeID] {
	out := New[[]NodeID]()
	headerOf := make(map[NodeID]int, g.Len())
	newID := make(map[int]NodeID, len(intervals))

	for i, iv := range intervals {
		merged := []NodeID{}
		for _, id := range iv {
			n := g.MustNode(id)
			merged = append(merged, n.Value...)
		}
		nid := out.AddNode(merged)
		newID[i] = nid
		for _, id := range iv {
			headerOf[id] = i
		}
	}

	type edgeKey struct{ from, to int }
	seen := make(map[edgeKey]bool)
	for i, iv := range intervals {
		for _, id := range iv {
			n := g.MustNode(id)
			for _, s := range n.Successors {
				j, ok := headerOf[s]
				if !ok || j == i {
					continue
				}
				key := edgeKey{i, j}
				if seen[key] {
					continue
				}
				seen[key] = true
				out.AddEdge(newID[i], newID[j])
			}
		}
	}
	return out
}

// IntervalsDerivedSequence repeatedly derives interval partitions and
// collapses them into progressively smaller graphs, stopping when a level
// collapses to itself (no further reduction possible). It returns the
// sequence of derived graphs G_0, G_1, ... and the interval partition used
// to collapse each one. g is reducible if and only if the final derived
// graph has exactly one node.
func IntervalsDerivedSequence[T any](g *Graph[T]) ([]*Graph[[]NodeID], [][]Interval, error) {
	g0 := Map(g, func(id NodeID, _ T) []NodeID { return []NodeID{id} })

	graphs := []*Graph[[]NodeID]{g0}
	var partitions [][]Interval

	current := g0
	for {
		ivs, err := Intervals(current)
		if err != nil {
			return nil, nil, err
		}
		partitions = append(partitions, ivs)
		next := collapse(current, ivs)
		if graphsEqualNodeLists(current, next) {
			break
		}
		graphs = append(graphs, next)
		current = next
	}
	return graphs, partitions, nil
}

func graphsEqualNodeLists(a, b *Graph[[]NodeID]) bool {
	an, bn := a.Iter(), b.Iter()
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if len(an[i].Value) != len(bn[i].Value) {
			return false
		}
		for j := range an[i].Value {
			if an[i].Value[j] != bn[i].Value[j] {
				return false
			}
		}
		if len(an[i].Successors) != len(bn[i].Successors) {
			return false
		}
		for j := range an[i].Successors {
			if an[i].Successors[j] != bn[i].Successors[j] {
				return false
			}
		}
	}
	return true
}

// IsReducible reports whether g reduces to a single node under repeated
// interval derivation — the standard reducibility test used before loop
// structuring (spec.md §4.F).
func IsReducible[T any](g *Graph[T]) (bool, error) {
	graphs, _, err := IntervalsDerivedSequence(g)
	if err != nil {
		return false, err
	}
	last := graphs[len(graphs)-1]
	return last.Len() == 1, nil
}
