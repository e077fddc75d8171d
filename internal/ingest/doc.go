// Package ingest produces file-identity events for the workflow manager.
//
// Two sources feed the same orchestrator entry point: Batch enumerates a
// fixed input set once and terminates, while Watch emits an unbounded
// sequence of debounced arrival events from a monitored directory. A watched
// file is reported only after its size and modification time have held still
// for the debounce window, so partially-written files never enter the
// pipeline.
package ingest
