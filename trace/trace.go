/*
 * j2wasm - a Java-subset to WebAssembly ahead-of-time compiler
 * Copyright (c) 2024 by the j2wasm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the compiler-wide logging facade, called before an
// error propagates up the stack the way jacobin's trace.Trace/trace.Error
// are called at every classloader failure site. Backed by zap rather than
// a bespoke writer.
package trace

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

func get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	}
	return logger
}

// Init replaces the package logger, for CLI startup (verbose/quiet flags)
// and tests (an observer core).
func Init(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Trace logs an informational message at debug level.
func Trace(msg string) {
	get().Debug(msg)
}

// Warning logs a recoverable anomaly.
func Warning(msg string) {
	get().Warn(msg)
}

// Error logs a failure that is about to be returned to the caller as an
// error value.
func Error(msg string) {
	get().Error(msg)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = get().Sync()
}
