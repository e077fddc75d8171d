// Package api exposes read-only status queries and CLI-facing workflows
// over the ledger in transport-friendly DTO form. The daemon's HTTP surface
// and the command line both consume this package so the two views of an
// entry never drift apart.
package api
