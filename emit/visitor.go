/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package emit

import (
	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/compileerr"
	"github.com/jacobin-authors/j2wasm/function"
	"github.com/jacobin-authors/j2wasm/graph"
)

// Visitor recursively walks a function.StructuredCode and produces its
// pseudo-IR instruction stream. It never sees a goto: every control-flow
// shape it emits (loop block/loop, if/else, short-circuit if) comes
// straight from the structuring passes' maps rather than from branch
// offsets.
type Visitor struct {
	ConstPool *classfile.ConstantPool
	Locals    *function.LocalInterpretation
	Code      *function.StructuredCode
}

// visitStruct appends one node's payload: a straight-line Block, or a
// CompoundConditional's short-circuit if/else nesting (see
// function.StructureCompoundConditionals for how the CondKind/LeftNegated
// combination arises).
func (v *Visitor) visitStruct(out []Instruction, s *function.Structure) []Instruction {
	switch s.Kind {
	case function.Block:
		for _, ins := range s.Instructions {
			out = Visit(out, v.ConstPool, v.Locals, ins)
		}
		return out

	default: // CompoundConditional
		out = v.visitStruct(out, s.Left)
		out = append(out, instrOp(Op{Code: If, HasResult: true}))

		switch {
		case !s.LeftNegated && s.CondKind == function.Conjunction:
			// if left && right: left true, check right too.
			out = v.visitStruct(out, s.Right)
			out = append(out, instrOp(op(Else)))
			out = append(out, instrOp(opI32(0)))
		case s.LeftNegated && s.CondKind == function.Conjunction:
			// if !left && right: negated-condition true means left
			// false, conjunction is false, short-circuit.
			out = append(out, instrOp(opI32(0)))
			out = append(out, instrOp(op(Else)))
			out = v.visitStruct(out, s.Right)
		case !s.LeftNegated && s.CondKind == function.Disjunction:
			// if left || right: left true, disjunction is true,
			// short-circuit.
			out = append(out, instrOp(opI32(1)))
			out = append(out, instrOp(op(Else)))
			out = v.visitStruct(out, s.Right)
		default: // left_negated && Disjunction
			// if !left || right: negated-condition true means left
			// false, check right too.
			out = v.visitStruct(out, s.Right)
			out = append(out, instrOp(op(Else)))
			out = append(out, instrOp(opI32(1)))
		}

		return append(out, instrOp(op(End)))
	}
}

func (v *Visitor) visitNode(out []Instruction, n *graph.Node[function.Structure]) []Instruction {
	return v.visitStruct(out, &n.Value)
}

// visitLoop emits one loop's wasm block/loop scaffolding: the outer
// block gives a break target, the inner loop a continue target.
func (v *Visitor) visitLoop(out []Instruction, l function.Loop) []Instruction {
	out = append(out, instrOp(Op{Code: Block}))
	out = append(out, instrOp(Op{Code: Loop}))

	switch l.Kind {
	case function.PreTested:
		header := v.Code.G.MustNode(l.Header)
		if header.OutDegree() != 2 {
			compileerr.Invariant("emit: pre-tested loop header %d must be a 2-way conditional", l.Header)
		}
		out = v.visitNode(out, header)

		if l.Header == l.Latching && header.Successors[1] == l.Header {
			// Single-node post-tested-looking loop: branch back to the
			// loop start if true, otherwise fall out of the block.
			out = append(out, instrOp(opBrIf(0)))
		} else {
			if header.Successors[1] != l.Follow {
				compileerr.Invariant("emit: pre-tested loop header %d's true branch must be its follow node", l.Header)
			}
			body := header.Successors[0]

			out = append(out, instrOp(opBrIf(1)))
			out = v.visitUntil(out, body, l.Header, true, false)
			out = append(out, instrOp(opBr(0)))
		}

	case function.PostTested:
		latching := v.Code.G.MustNode(l.Latching)
		if latching.OutDegree() != 2 {
			compileerr.Invariant("emit: post-tested loop latching node %d must be a 2-way conditional", l.Latching)
		}

		out = v.visitUntil(out, l.Header, l.Latching, true, true)
		out = v.visitNode(out, latching)

		if latching.Successors[0] != l.Follow || latching.Successors[1] != l.Header {
			compileerr.Invariant("emit: post-tested loop latching node %d's branches must be (follow, header)", l.Latching)
		}
		out = append(out, instrOp(opBrIf(0)))
	}

	out = append(out, instrOp(op(End)))
	return append(out, instrOp(op(End)))
}

// visitConditional emits one 2-way conditional's if/else, visiting each
// arm until it rejoins follow.
func (v *Visitor) visitConditional(out []Instruction, header, follow graph.NodeID) []Instruction {
	n := v.Code.G.MustNode(header)
	if n.OutDegree() != 2 {
		compileerr.Invariant("emit: conditional header %d must be a 2-way conditional", header)
	}
	trueBranch := n.Successors[1]
	falseBranch := n.Successors[0]

	out = v.visitNode(out, n)
	out = append(out, instrOp(Op{Code: If}))
	out = v.visitUntil(out, trueBranch, follow, true, false)
	out = append(out, instrOp(op(Else)))
	out = v.visitUntil(out, falseBranch, follow, true, false)
	return append(out, instrOp(op(End)))
}

// visitUntil walks n, n's successor, and so on until it reaches until (or
// runs out of successors), dispatching each node to visitLoop or
// visitConditional as the structuring passes' maps say it must be.
// hasUntil is false only for the top-level call from VisitAll, where
// there is no follow node to stop at.
func (v *Visitor) visitUntil(out []Instruction, n graph.NodeID, until graph.NodeID, hasUntil bool, ignoreFirstLoop bool) []Instruction {
	for !hasUntil || n != until {
		if !ignoreFirstLoop {
			if l, ok := v.Code.Loops[n]; ok {
				out = v.visitLoop(out, l)
				n = l.Follow
				continue
			}
		}
		ignoreFirstLoop = false

		if follow, ok := v.Code.Conditionals[n]; ok {
			out = v.visitConditional(out, n, follow)
			n = follow
			continue
		}

		node := v.Code.G.MustNode(n)
		if node.OutDegree() > 1 {
			compileerr.Invariant("emit: node %d outside any structured region must have at most one successor", n)
		}
		out = v.visitNode(out, node)
		if node.OutDegree() == 0 {
			break
		}
		n = node.Successors[0]
	}
	return out
}

// VisitAll produces the full pseudo-IR instruction stream for this
// function, starting at its graph's entry node.
func (v *Visitor) VisitAll() []Instruction {
	entry, err := v.Code.G.EntryID()
	if err != nil {
		compileerr.Invariant("emit: VisitAll needs an entry node: %v", err)
	}
	out := v.visitUntil(nil, entry, 0, false, false)
	return append(out, instrOp(op(End)))
}
