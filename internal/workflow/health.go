package workflow

import (
	"context"

	"vellum/internal/ledger"
	"vellum/internal/stage"
)

// HealthChecks probes every registered stage handler in pipeline order.
func (m *Manager) HealthChecks(ctx context.Context) []stage.Health {
	order := []ledger.Stage{
		ledger.StageFormatDetection,
		ledger.StageExtraction,
		ledger.StageClassification,
		ledger.StageIndexing,
	}
	results := make([]stage.Health, 0, len(order))
	for _, s := range order {
		handler, ok := m.handlers[s]
		if !ok {
			results = append(results, stage.Unhealthy(string(s), "no handler registered"))
			continue
		}
		results = append(results, handler.HealthCheck(ctx))
	}
	return results
}
