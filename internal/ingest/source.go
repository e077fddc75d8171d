package ingest

import "context"

// Event identifies a candidate file reported by an ingestion source.
type Event struct {
	Path string
}

// Source produces a sequence of file-identity events. Start returns the
// event channel; the source closes it when the sequence ends (batch
// exhaustion) or the context is cancelled. The orchestrator does not
// distinguish source origins beyond logging.
type Source interface {
	Start(ctx context.Context) (<-chan Event, error)
	Name() string
}
