/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package scheduler runs one program's worth of per-function compile jobs
// across a bounded pool of goroutines, then hands the results to the
// single-threaded module assembler in program order. It generalizes
// jacobin's classloader.LoadFromLoaderChannel, which fans a channel of
// class names out across worker goroutines and waits on a WaitGroup for
// them to drain, into a fan-out/collect pair built on errgroup instead
// of a raw channel and WaitGroup.
package scheduler

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/emit"
	"github.com/jacobin-authors/j2wasm/function"
	"github.com/jacobin-authors/j2wasm/trace"
	"github.com/jacobin-authors/j2wasm/wasmmod"
)

// Job is one function awaiting compilation: its declaring class (for
// IsStatic and logging context) and the function itself.
type Job struct {
	Class    *classfile.Class
	Function *classfile.Function
}

// CompileAll runs the full per-function pipeline (locals → structuring →
// emission) for every job, bounded to GOMAXPROCS concurrent workers, and
// returns the compiled functions sorted into the same order
// wasmmod.Renderer itself re-sorts them into (by MethodId.String()), so
// the order CompileAll returns them in is not itself load-bearing — but
// keeping it deterministic makes a failing run's log trace reproducible.
func CompileAll(jobs []Job) ([]wasmmod.CompiledFunction, error) {
	results := make([]wasmmod.CompiledFunction, len(jobs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			trace.Trace("compiling " + job.Function.Id.String())
			cf, err := compileOne(job)
			if err != nil {
				trace.Error("failed to compile " + job.Function.Id.String() + ": " + err.Error())
				return err
			}
			results[i] = cf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Id.String() < results[j].Id.String()
	})
	return results, nil
}

// compileOne runs one function through components D-I: local-slot
// remapping, CFG structuring (placeholder insertion, compound-
// conditional rewriting, loop and two-way-conditional structuring), and
// pseudo-IR emission. A static method is exported under its
// descriptor-qualified name; this subset carries no access-flag
// narrower than static/instance, so every static method stands in for
// spec.md's "every public static method" export rule.
func compileOne(job Job) (wasmmod.CompiledFunction, error) {
	fn := job.Function
	code := fn.TakeCode()

	params := fn.Id.Descriptor.Params
	locals := function.FromCode(fn.IsStatic, params, code.Instructions)

	structured, err := function.StructureCode(code.Instructions)
	if err != nil {
		return wasmmod.CompiledFunction{}, err
	}

	v := emit.Visitor{ConstPool: fn.CP, Locals: locals, Code: structured}
	instructions := v.VisitAll()

	return wasmmod.CompiledFunction{
		Id:       fn.Id,
		IsStatic: fn.IsStatic,
		IsExport: fn.IsStatic,
		Locals:   locals,
		Code:     instructions,
	}, nil
}

// JobsFor expands every class's methods (minus constructors, which are
// never called through a function index of their own in this subset —
// KindNew's Allocate built-in stands in for object construction) into
// compile jobs.
func JobsFor(classes map[string]*classfile.Class) []Job {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	var jobs []Job
	for _, name := range names {
		class := classes[name]
		for _, fn := range class.Methods {
			if fn.Id.Name == "<init>" {
				continue
			}
			jobs = append(jobs, Job{Class: class, Function: fn})
		}
	}
	return jobs
}
