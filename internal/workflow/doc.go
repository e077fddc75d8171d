// Package workflow coordinates entry processing across the pipeline stages.
//
// The Manager owns the worker pool, lease acquisition, stage transitions,
// retry scheduling, and terminal-state bookkeeping. Stage handlers perform
// the gateway calls and write results onto the entry; the Manager persists
// every transition so a restart resumes each file from its recorded stage.
package workflow
