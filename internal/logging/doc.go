// Package logging assembles structured slog loggers and formatting helpers used
// across floatsync components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so discovery code can tag log
// lines with run IDs, creator IDs, and stages. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
