/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package scheduler

import (
	"testing"

	"github.com/jacobin-authors/j2wasm/classfile"
)

// utf8Pool builds a RawCP whose index i (1-based) holds the utf8 string
// strs[i-1], mirroring classfile's own test helper of the same name.
func utf8Pool(strs ...string) classfile.RawCP {
	cp := classfile.RawCP{CPIndex: make([]classfile.RawCPEntry, len(strs)+1)}
	for i, s := range strs {
		cp.Utf8Refs = append(cp.Utf8Refs, s)
		cp.CPIndex[i+1] = classfile.RawCPEntry{Type: classfile.RawUTF8, Slot: uint16(len(cp.Utf8Refs) - 1)}
	}
	return cp
}

// constReturn builds a trivial static int method: iconst <n>; ireturn.
func constReturn(n int32) []classfile.RawInstruction {
	return []classfile.RawInstruction{
		{Offset: 0, Op: classfile.OpIConst, IntImmediate: n, Type: classfile.TagInt},
		{Offset: 1, Op: classfile.OpReturn, Type: classfile.TagInt},
	}
}

// answerClass builds a one-method class (Answer.get()I, returning 42)
// through classfile.NewClass, the only way to populate a Function's
// private byte-code from outside the classfile package.
func answerClass(t *testing.T) *classfile.Class {
	t.Helper()
	raw := classfile.RawClass{
		Name: "Answer",
		CP:   utf8Pool("get", "()I"),
		Methods: []classfile.RawMethod{
			{IsStatic: true, NameIndex: 1, DescIndex: 2, Code: classfile.RawMethodCode{Instructions: constReturn(42)}},
		},
	}
	class, err := classfile.NewClass(raw)
	if err != nil {
		t.Fatalf("NewClass failed: %v", err)
	}
	return class
}

func thingClass(t *testing.T) *classfile.Class {
	t.Helper()
	raw := classfile.RawClass{
		Name: "Thing",
		CP:   utf8Pool("<init>", "()V", "doIt", "()V"),
		Methods: []classfile.RawMethod{
			{IsStatic: false, NameIndex: 1, DescIndex: 2, Code: classfile.RawMethodCode{
				Instructions: []classfile.RawInstruction{{Offset: 0, Op: classfile.OpReturn, IsVoid: true}},
			}},
			{IsStatic: true, NameIndex: 3, DescIndex: 4, Code: classfile.RawMethodCode{
				Instructions: []classfile.RawInstruction{{Offset: 0, Op: classfile.OpReturn, IsVoid: true}},
			}},
		},
	}
	class, err := classfile.NewClass(raw)
	if err != nil {
		t.Fatalf("NewClass failed: %v", err)
	}
	return class
}

func TestJobsForSkipsConstructors(t *testing.T) {
	class := thingClass(t)
	jobs := JobsFor(map[string]*classfile.Class{"Thing": class})
	if len(jobs) != 1 {
		t.Fatalf("JobsFor returned %d jobs, want 1 (constructor skipped)", len(jobs))
	}
	if jobs[0].Function.Id.Name != "doIt" {
		t.Fatalf("JobsFor kept %q, want doIt", jobs[0].Function.Id.Name)
	}
}

func TestCompileAllCompilesAConstReturn(t *testing.T) {
	class := answerClass(t)
	jobs := []Job{{Class: class, Function: class.Methods[0]}}

	compiled, err := CompileAll(jobs)
	if err != nil {
		t.Fatalf("CompileAll failed: %v", err)
	}
	if len(compiled) != 1 {
		t.Fatalf("len(compiled) = %d, want 1", len(compiled))
	}
	cf := compiled[0]
	if !cf.IsStatic || !cf.IsExport {
		t.Fatalf("Answer.get should be static and exported, got IsStatic=%v IsExport=%v", cf.IsStatic, cf.IsExport)
	}
	if len(cf.Code) == 0 {
		t.Fatal("expected a non-empty emitted instruction stream")
	}
}
