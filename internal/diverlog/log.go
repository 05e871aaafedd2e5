// Package diverlog holds the process-wide logger used by the storage,
// toc and chain packages to report non-fatal conditions (ToC update
// failures, write-back failures, settings mutation) without forcing
// every caller to thread a logger through constructors.
package diverlog

import (
	"log/slog"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.Default())
}

// Logger returns the logger currently in use.
func Logger() *slog.Logger {
	return current.Load()
}

// SetLogger replaces the logger used by the library. Passing nil
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	current.Store(l)
}
