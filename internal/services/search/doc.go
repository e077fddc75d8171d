// Package search implements the index gateway over Elasticsearch.
//
// Documents are indexed under their ledger entry ID, which makes stage
// retries idempotent on the index side. When indexing is disabled the
// Disabled gateway keeps the pipeline shape intact without external calls.
package search
