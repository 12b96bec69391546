/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds process-wide compiler state, mirroring jacobin's
// globals.GetGlobalRef() singleton.
package globals

import "sync"

// Globals is the process-wide mutable compiler state. It is deliberately
// small: the core pipeline (graph/descriptor/classfile/function/emit) is
// pure and takes everything it needs as arguments; this singleton exists
// for ambient concerns the CLI and scheduler share.
type Globals struct {
	// RootClassName is the class with no declared superclass; its
	// virtual-class id is always 0 (spec.md §4.J).
	RootClassName string
	// Verbose enables debug-level tracing.
	Verbose bool
	// StartingClasses are the RawClass fixtures the CLI was invoked with.
	StartingClasses []string
}

var (
	once sync.Once
	ref  *Globals
)

// GetGlobalRef returns the process-wide Globals, initializing it with
// RootClassName set to "java/lang/Object" on first call.
func GetGlobalRef() *Globals {
	once.Do(func() {
		ref = &Globals{RootClassName: "java/lang/Object"}
	})
	return ref
}

// InitGlobals resets the singleton, for test isolation between cases that
// each need a fresh Globals.
func InitGlobals() *Globals {
	once = sync.Once{}
	return GetGlobalRef()
}
