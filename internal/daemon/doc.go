// Package daemon hosts the long-running pipeline process: single-instance
// locking, the workflow manager lifecycle, and the read-only HTTP status
// surface.
package daemon
