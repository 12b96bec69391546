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

// StructuredCode is the fully-structured result of running one function's
// byte-code through every structuring pass: a control-flow graph whose
// nodes are leader-based blocks (with short-circuit conditionals already
// collapsed), plus the loop and 2-way-conditional maps the emitter walks
// to reconstruct wasm block/loop/if nesting without any gotos.
type StructuredCode struct {
	G            *ControlFlowGraph
	Loops        map[graph.NodeID]Loop
	Conditionals map[graph.NodeID]graph.NodeID
}

// StructureCode runs the whole structuring pipeline over one method's
// byte-code: basic-block construction, placeholder insertion (so every
// loop has a single unique latching node), short-circuit compound-
// conditional rewriting, natural-loop structuring, and two-way
// conditional structuring. The resulting graph is reducible and
// gotos-free by construction — FindLoops rejects anything else.
func StructureCode(code []classfile.RawInstruction) (*StructuredCode, error) {
	g := graph.New[Structure]()
	InsertBasicBlocks(g, code)

	if err := InsertPlaceholderNodes(g); err != nil {
		return nil, err
	}

	if err := StructureCompoundConditionals(g); err != nil {
		return nil, err
	}

	loops, err := FindLoops(g)
	if err != nil {
		return nil, err
	}

	ignoredHeaders := IgnoredLoopHeaders(loops)
	conditionals, err := Find2WayConditionals(g, ignoredHeaders)
	if err != nil {
		return nil, err
	}

	return &StructuredCode{G: g, Loops: loops, Conditionals: conditionals}, nil
}
