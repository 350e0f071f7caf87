// Package xlog provides the package-level, overridable structured
// logger used throughout this module, generalizing the teacher's bare
// log.Printf/log.Panicf calls to log/slog (spec §5.2).
package xlog

import "log/slog"

var logger = slog.Default()

// SetLogger replaces the package-level logger. Callers embedding this
// module in a larger service can redirect its output without the core
// depending on any particular logging backend.
func SetLogger(l *slog.Logger) { logger = l }

// L returns the current logger.
func L() *slog.Logger { return logger }
