package api

import (
	"vellum/internal/deps"
	"vellum/internal/ledger"
	"vellum/internal/stage"
)

// FromEntry converts a ledger entry into its API representation.
func FromEntry(entry *ledger.Entry) Entry {
	if entry == nil {
		return Entry{}
	}
	dto := Entry{
		ID:                  entry.ID,
		FilePath:            entry.FilePath,
		FileName:            entry.FileName,
		FileSize:            entry.FileSize,
		Stage:               string(entry.Stage),
		DocumentType:        string(entry.DocumentType),
		DetectionConfidence: entry.DetectionConfidence,
		PageCount:           entry.PageCount,
		ExtractionFallback:  entry.ExtractionFallback,
		Category:            entry.Category,
		CategoryConfidence:  entry.CategoryConfidence,
		IndexRef:            entry.IndexRef,
		Attempts:            entry.Attempts,
		DurationMs:          entry.ProcessingDurationMs,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.Format(dateTimeFormat)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.Format(dateTimeFormat)
	}
	if entry.Error != nil {
		dto.Error = &EntryError{
			Kind:    entry.Error.Kind,
			Message: entry.Error.Message,
			Stage:   string(entry.Error.Stage),
		}
	}
	return dto
}

// FromEntries converts a slice of ledger entries, preserving order.
func FromEntries(entries []*ledger.Entry) []Entry {
	dtos := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, FromEntry(entry))
	}
	return dtos
}

// FromSummary converts the ledger summary, folding in the success rate.
func FromSummary(summary ledger.Summary) Summary {
	return Summary{
		Total:       summary.Total,
		Discovered:  summary.Discovered,
		InFlight:    summary.InFlight,
		Completed:   summary.Completed,
		Failed:      summary.Failed,
		SuccessRate: summary.SuccessRate(),
	}
}

// MergeStageStats normalizes raw stage counts so every known stage is
// present, zero-valued when empty.
func MergeStageStats(stats map[ledger.Stage]int) map[string]int {
	merged := make(map[string]int, len(ledger.AllStages()))
	for _, s := range ledger.AllStages() {
		merged[string(s)] = 0
	}
	for s, count := range stats {
		merged[string(s)] = count
	}
	return merged
}

// FromStageHealth converts stage readiness records.
func FromStageHealth(checks []stage.Health) []StageHealth {
	dtos := make([]StageHealth, 0, len(checks))
	for _, check := range checks {
		dtos = append(dtos, StageHealth{
			Name:   check.Name,
			Ready:  check.Ready,
			Detail: check.Detail,
		})
	}
	return dtos
}

// FromDependencyStatuses converts external dependency probes.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	dtos := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		dtos = append(dtos, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return dtos
}
