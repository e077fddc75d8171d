package testsupport

import (
	"context"
	"testing"

	"vellum/internal/config"
	"vellum/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEntry registers a file path in the ledger for tests.
func NewEntry(t testing.TB, store *ledger.Store, path string) *ledger.Entry {
	t.Helper()

	entry, _, err := store.NewEntry(context.Background(), path)
	if err != nil {
		t.Fatalf("store.NewEntry: %v", err)
	}
	return entry
}
