// Package diag provides the package-level logger and per-file diagnostic traces.
package diag

import "log"

// Logf is the shared diagnostic logger. It defaults to log.Printf but may be
// replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
