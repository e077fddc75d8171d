// Package logging assembles structured slog loggers used across Vellum
// components.
//
// It centralizes level and output plumbing and exposes context-aware helpers
// so stage code can automatically tag log lines with entry IDs, stages, and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
