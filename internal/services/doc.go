// Package services defines the shared error taxonomy and context plumbing for
// the pipeline gateways.
//
// Every gateway call resolves to one of three outcomes: success, a transient
// failure the workflow may retry, or a permanent failure inherent to the
// input. Gateways tag errors with the sentinel markers here via Wrap; the
// workflow manager classifies them with IsTransient/IsPermanent and persists
// the matching failure kind. Collaborator-internal error detail never crosses
// this seam.
package services
