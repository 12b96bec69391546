/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command j2wasm compiles a set of already-parsed class fixtures to a
// single WebAssembly module. The real .class-file parser is an
// out-of-scope external collaborator (spec.md §6); in its place, each
// input path is a JSON-encoded classfile.RawClass fixture, decoded
// straight off disk rather than produced by parsing bytecode.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jacobin-authors/j2wasm/classfile"
	"github.com/jacobin-authors/j2wasm/globals"
	"github.com/jacobin-authors/j2wasm/scheduler"
	"github.com/jacobin-authors/j2wasm/shutdown"
	"github.com/jacobin-authors/j2wasm/trace"
	"github.com/jacobin-authors/j2wasm/wasmmod"
)

var (
	outputPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "j2wasm <fixture.json>...",
		Short: "Compiles a Java-subset class fixture set to WebAssembly",
		Long:  "j2wasm ahead-of-time compiles a Java-subset class fixture set (pre-parsed classfile.RawClass JSON) to a single WebAssembly binary module.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write the output .wasm module")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level tracing")
	_ = rootCmd.MarkFlagRequired("output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Exit(shutdown.UsageError)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			trace.Init(l)
		}
	}
	defer trace.Sync()

	g := globals.GetGlobalRef()
	g.Verbose = verbose
	g.StartingClasses = args

	classes, err := loadFixtures(args)
	if err != nil {
		trace.Error(err.Error())
		shutdown.Exit(shutdown.CompileError)
		return err
	}

	jobs := scheduler.JobsFor(classes)
	compiled, err := scheduler.CompileAll(jobs)
	if err != nil {
		trace.Error("compilation failed: " + err.Error())
		shutdown.Exit(shutdown.CompileError)
		return err
	}

	renderer := wasmmod.NewRenderer(classes, compiled)
	module := wasmmod.NewModule()
	renderer.RenderAll(module)
	wasmBytes := module.Finish()

	if err := os.WriteFile(outputPath, wasmBytes, 0o644); err != nil {
		trace.Error("unable to write output module: " + err.Error())
		shutdown.Exit(shutdown.IOError)
		return err
	}

	trace.Trace(fmt.Sprintf("wrote %s (%d bytes)", outputPath, len(wasmBytes)))
	return nil
}

// loadFixtures reads every fixture path as a JSON-encoded
// classfile.RawClass and resolves it into a classfile.Class, keyed by its
// class name for the virtual-table builder and scheduler.
func loadFixtures(paths []string) (map[string]*classfile.Class, error) {
	classes := make(map[string]*classfile.Class, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", path, err)
		}

		var raw classfile.RawClass
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
		}

		class, err := classfile.NewClass(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving class in %s: %w", path, err)
		}
		classes[class.ClassName] = class
	}
	return classes, nil
}
