/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package virtual builds the single-inheritance virtual dispatch table
// every invokevirtual call site looks through: one flattened method list
// per class (inherited methods first, overridden in place so the same
// index dispatches correctly at every level of the tree), and the index
// each class's span of slots starts at within the program-wide wasm
// function table.
package virtual

import (
	"sort"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/graph"
)

// ClassIDSize is the number of bytes an object's virtual-class ID
// occupies ahead of its own fields.
const ClassIDSize = 4

// Class is one inheritance-tree node's payload: the class it represents,
// and the full method list any instance of it (or a subclass that
// doesn't override further) dispatches through. Index i+1 in the
// program-wide function table holds Methods[i]'s implementation; index 0
// is reserved for the class's generated super-ID function (see Render).
type Class struct {
	ClassName string
	Methods   []classfile.MethodId
}

// Tree is a class's graph specialized to Class payloads: edges run
// superclass -> subclass.
type Tree = graph.Graph[Class]

// ClassIndex locates one class within both the inheritance tree and the
// program-wide function table.
type ClassIndex struct {
	Node graph.NodeID
	// Offset is the function-table index of this class's super-ID
	// function; its methods occupy Offset+1 .. Offset+len(Methods).
	Offset uint32
}

// Table is the fully built virtual dispatch table for a whole program.
type Table struct {
	Classes       map[string]*classfile.Class
	InheritanceTree *Tree
	ClassIndices  map[string]ClassIndex
}

// ConstructInheritanceTree builds a Tree from every class in the
// program, including the implicit java/lang/Object root shared by any
// class with no declared superclass. Node insertion order is root first,
// then every other class sorted by name, so table layout is
// deterministic regardless of map iteration order.
func ConstructInheritanceTree(classes map[string]*classfile.Class) *Tree {
	g := graph.New[Class]()
	classNodes := make(map[string]graph.NodeID, len(classes)+1)

	root := g.AddNode(Class{ClassName: classfile.JavaLangObject})
	classNodes[classfile.JavaLangObject] = root

	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == classfile.JavaLangObject {
			continue
		}
		classNodes[name] = g.AddNode(Class{ClassName: name})
	}

	for _, name := range names {
		if name == classfile.JavaLangObject {
			continue
		}
		class := classes[name]
		superNode, ok := classNodes[class.SuperClassName]
		if !ok {
			compileerr.Invariant("virtual: class %s extends unresolved superclass %s", class.ClassName, class.SuperClassName)
		}
		g.AddEdge(superNode, classNodes[class.ClassName])
	}

	return g
}

// PopulateTreeMethods walks the tree from current downward, accumulating
// each class's declared methods (constructors excluded — invokespecial
// handles those separately) on top of what it inherits: a method already
// in the inherited list is updated in place to point at current's
// implementation (keeping its table index stable down the whole
// subtree); a newly declared one is appended.
func PopulateTreeMethods(classes map[string]*classfile.Class, g *Tree, current graph.NodeID, inherited []classfile.MethodId) {
	node := g.MustNode(current)
	className := node.Value.ClassName

	methods := append([]classfile.MethodId(nil), inherited...)
	if class, ok := classes[className]; ok {
		for _, m := range class.Methods {
			if m.Id.Name == "<init>" {
				continue
			}
			updated := false
			for i, existing := range methods {
				if existing.Name == m.Id.Name && existing.Descriptor.Compare(m.Id.Descriptor) == 0 {
					methods[i].ClassName = className
					updated = true
					break
				}
			}
			if !updated {
				methods = append(methods, classfile.MethodId{
					ClassName:  className,
					Name:       m.Id.Name,
					Descriptor: m.Id.Descriptor,
				})
			}
		}
	}

	for _, sub := range append([]graph.NodeID(nil), node.Successors...) {
		PopulateTreeMethods(classes, g, sub, methods)
	}

	g.MustNode(current).Value.Methods = methods
}

// IndexTree assigns every class a function-table offset, in the same
// deterministic node order ConstructInheritanceTree built the tree in.
func IndexTree(g *Tree) map[string]ClassIndex {
	indices := make(map[string]ClassIndex, g.Len())
	var offset uint32
	for _, node := range g.Iter() {
		indices[node.Value.ClassName] = ClassIndex{Node: node.ID, Offset: offset}
		offset += 1 + uint32(len(node.Value.Methods)) // +1 for the super-ID function
	}
	return indices
}

// NewTable builds the complete virtual dispatch table for a program's
// classes.
func NewTable(classes map[string]*classfile.Class) *Table {
	tree := ConstructInheritanceTree(classes)
	root, err := tree.EntryID()
	if err != nil {
		panic(err) // ConstructInheritanceTree always inserts a root first
	}
	PopulateTreeMethods(classes, tree, root, nil)

	return &Table{
		Classes:         classes,
		InheritanceTree: tree,
		ClassIndices:    IndexTree(tree),
	}
}

// ClassID returns the virtual-class ID stored ahead of every instance of
// className: its function-table offset, as an i32 for direct use in an
// i32.const instruction.
func (t *Table) ClassID(className string) int32 {
	return int32(t.ClassIndices[className].Offset)
}

// MethodOffset returns the function-table offset (relative to id's
// declaring class' ClassID) that a dynamic dispatch through id must add
// to the receiver's virtual-class ID to find its implementation.
func (t *Table) MethodOffset(id classfile.MethodId) int32 {
	idx := t.ClassIndices[id.ClassName]
	methods := t.InheritanceTree.MustNode(idx.Node).Value.Methods
	for i, m := range methods {
		if m.Name == id.Name && m.Descriptor.Compare(id.Descriptor) == 0 {
			return int32(i) + 1 // +1 for the super-ID function
		}
	}
	panic("virtual: method " + id.String() + " not found in its own class' virtual table")
}
