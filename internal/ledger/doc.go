// Package ledger persists per-file processing entries in SQLite and exposes
// helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, lease admission control, and stage transitions that mirror the
// public Stage enum. Exactly one entry exists per file path; entries capture
// the format verdict, extraction results, classification, index reference,
// and structured error detail so stages can resume after a crash without
// redoing completed work.
//
// TryAcquireLease is the sole admission-control primitive the workflow relies
// on for the at-most-one-concurrent-attempt invariant: it is a single
// conditional UPDATE, so concurrent callers racing on one identity see
// exactly one success.
//
// Treat this package as the single source of truth for entry semantics; when
// you add stages or fields, update schema.sql and bump schemaVersion.
package ledger
