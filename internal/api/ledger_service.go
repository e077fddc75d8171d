package api

import (
	"context"
	"fmt"

	"vellum/internal/ledger"
)

// LedgerReader abstracts the ledger interactions needed for status queries.
type LedgerReader interface {
	List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error)
	GetByID(ctx context.Context, id string) (*ledger.Entry, error)
	Stats(ctx context.Context) (map[ledger.Stage]int, error)
	Summarize(ctx context.Context) (ledger.Summary, error)
}

// LedgerService exposes read-only ledger queries returning API DTOs.
type LedgerService struct {
	store LedgerReader
}

// NewLedgerService constructs a LedgerService around the provided reader.
func NewLedgerService(store LedgerReader) *LedgerService {
	if store == nil {
		return nil
	}
	return &LedgerService{store: store}
}

// ListRequest narrows and pages a List call. Stages holds raw stage names;
// unknown names are rejected rather than silently ignored.
type ListRequest struct {
	Stages []string
	Limit  int
	Offset int
}

// List returns a page of entries, newest first.
func (s *LedgerService) List(ctx context.Context, req ListRequest) (EntryListResponse, error) {
	if s == nil || s.store == nil {
		return EntryListResponse{}, nil
	}
	filter := ledger.ListFilter{Limit: req.Limit, Offset: req.Offset}
	for _, raw := range req.Stages {
		parsed, ok := ledger.ParseStage(raw)
		if !ok {
			return EntryListResponse{}, fmt.Errorf("unknown stage %q", raw)
		}
		filter.Stages = append(filter.Stages, parsed)
	}
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return EntryListResponse{}, err
	}
	return EntryListResponse{
		Entries: FromEntries(entries),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}, nil
}

// Describe fetches a single entry by identifier. A missing entry returns
// nil without error so callers can shape their own not-found handling.
func (s *LedgerService) Describe(ctx context.Context, id string) (*EntryResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.GetByID(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromEntry(entry)
	return &EntryResponse{Entry: dto}, nil
}

// Stats returns per-stage entry counts keyed by stage name.
func (s *LedgerService) Stats(ctx context.Context) (StatsResponse, error) {
	if s == nil || s.store == nil {
		return StatsResponse{}, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{Counts: MergeStageStats(stats)}, nil
}

// Summary returns aggregate pipeline counts with the success rate.
func (s *LedgerService) Summary(ctx context.Context) (Summary, error) {
	if s == nil || s.store == nil {
		return Summary{}, nil
	}
	summary, err := s.store.Summarize(ctx)
	if err != nil {
		return Summary{}, err
	}
	return FromSummary(summary), nil
}
