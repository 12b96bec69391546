/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package compileerr defines the small closed set of error kinds the
// compiler ever returns, mirroring the cfe()-style per-class constructor
// jacobin's classloader package uses for Class Format Errors.
package compileerr

import "fmt"

// ParseError reports a malformed descriptor, constant-pool reference, or
// raw class shape: something the (out-of-scope) upstream parser should
// have already rejected but didn't.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "parse error: " + e.Msg }

// Parse constructs a ParseError, formatting like fmt.Errorf.
func Parse(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports a construct this compiler deliberately does
// not implement (arrays, switch, invokedynamic, monitors, frem/drem, ...).
type UnsupportedError struct {
	Msg string
}

func (e *UnsupportedError) Error() string { return "unsupported: " + e.Msg }

// Unsupported constructs an UnsupportedError.
func Unsupported(format string, args ...any) error {
	return &UnsupportedError{Msg: fmt.Sprintf(format, args...)}
}

// RangeError reports an index or offset outside its expected bounds
// (constant-pool index, local-slot index, byte-code offset).
type RangeError struct {
	Msg string
}

func (e *RangeError) Error() string { return "range error: " + e.Msg }

// Range constructs a RangeError.
func Range(format string, args ...any) error {
	return &RangeError{Msg: fmt.Sprintf(format, args...)}
}

// InvariantError indicates a broken internal invariant — a programmer
// error in this compiler, not a malformed input. Callers should not try
// to recover from it; Invariant panics rather than returning an error,
// matching spec.md's framing of graph invariants as unrecoverable.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.Msg }

// Invariant panics with an InvariantError. Used at component boundaries
// where an upstream pass promised a precondition that didn't hold.
func Invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}
