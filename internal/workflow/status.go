package workflow

import (
	"context"

	"vellum/internal/ledger"
)

// Status is a point-in-time snapshot of pipeline occupancy.
type Status struct {
	Summary ledger.Summary
	Stages  map[ledger.Stage]int
}

// Status reports aggregate entry counts from the ledger.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	summary, err := m.store.Summarize(ctx)
	if err != nil {
		return Status{}, err
	}
	stages, err := m.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Summary: summary, Stages: stages}, nil
}
