package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const entryColumns = `id, file_path, file_name, file_size, stage, document_type,
    detection_confidence, extracted_text, page_count, extraction_fallback,
    category, category_confidence, index_ref, error_kind, error_message,
    error_stage, attempts, processing_duration_ms, lease_owner, leased_at,
    created_at, updated_at`

// NewEntry inserts a newly discovered file, or returns the existing entry
// when the path is already under management. Existing entries are returned
// untouched so re-discovery of terminal files stays a no-op.
func (s *Store) NewEntry(ctx context.Context, filePath string) (*Entry, bool, error) {
	ctx = ensureContext(ctx)

	if existing, err := s.GetByPath(ctx, filePath); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	var size int64
	if info, err := os.Stat(filePath); err == nil {
		size = info.Size()
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)
	id := ulid.Make().String()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO entries (
            id, file_path, file_name, file_size, stage, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		filePath,
		filepath.Base(filePath),
		size,
		StageDiscovered,
		timestamp,
		timestamp,
	)
	if err != nil {
		// A concurrent discovery of the same path loses the unique race;
		// fold it into the existing-entry return.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, getErr := s.GetByPath(ctx, filePath)
			if getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert entry: %w", err)
	}

	entry, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// GetByID fetches a single entry by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// GetByPath fetches a single entry by source file path.
func (s *Store) GetByPath(ctx context.Context, filePath string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM entries WHERE file_path = ?`, filePath)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// Update persists all mutable fields of an entry. The error detail columns
// are written only for failed entries and cleared otherwise, keeping the
// error-iff-failed invariant inside the store.
func (s *Store) Update(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is required")
	}
	if _, ok := stageSet[entry.Stage]; !ok {
		return fmt.Errorf("unknown stage %q", entry.Stage)
	}
	if entry.Stage == StageFailed && entry.Error == nil {
		return errors.New("failed entry requires error detail")
	}

	now := time.Now().UTC()
	entry.UpdatedAt = now

	var errKind, errMessage, errStage any
	if entry.Stage == StageFailed {
		errKind = entry.Error.Kind
		errMessage = entry.Error.Message
		errStage = string(entry.Error.Stage)
	} else {
		entry.Error = nil
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE entries SET
            file_path = ?, file_name = ?, file_size = ?, stage = ?,
            document_type = ?, detection_confidence = ?,
            extracted_text = ?, page_count = ?, extraction_fallback = ?,
            category = ?, category_confidence = ?, index_ref = ?,
            error_kind = ?, error_message = ?, error_stage = ?,
            attempts = ?, processing_duration_ms = ?, updated_at = ?
        WHERE id = ?`,
		entry.FilePath,
		entry.FileName,
		entry.FileSize,
		entry.Stage,
		nullableString(string(entry.DocumentType)),
		entry.DetectionConfidence,
		nullableString(entry.ExtractedText),
		entry.PageCount,
		boolToInt(entry.ExtractionFallback),
		nullableString(entry.Category),
		entry.CategoryConfidence,
		nullableString(entry.IndexRef),
		errKind,
		errMessage,
		errStage,
		entry.Attempts,
		entry.ProcessingDurationMs,
		formatTime(now),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s not found", entry.ID)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Stages []Stage
	Limit  int
	Offset int
}

// List returns entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	args := make([]any, 0, len(filter.Stages)+2)
	if len(filter.Stages) > 0 {
		placeholders := make([]string, len(filter.Stages))
		for i, stage := range filter.Stages {
			placeholders[i] = "?"
			args = append(args, stage)
		}
		query += ` WHERE stage IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByStage returns all entries currently at the given stage.
func (s *Store) ListByStage(ctx context.Context, stage Stage) ([]*Entry, error) {
	return s.List(ctx, ListFilter{Stages: []Stage{stage}})
}

// NonTerminal returns entries that have not reached a terminal stage, oldest
// first, for crash-resume scheduling.
func (s *Store) NonTerminal(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM entries
         WHERE stage NOT IN (?, ?) ORDER BY created_at ASC`,
		StageCompleted, StageFailed)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Stats returns entry counts keyed by stage.
func (s *Store) Stats(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT stage, COUNT(1) FROM entries GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats[Stage(stage)] = count
	}
	return stats, rows.Err()
}

// Summarize aggregates stats into the summary used by status surfaces.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		Discovered: stats[StageDiscovered],
		Completed:  stats[StageCompleted],
		Failed:     stats[StageFailed],
	}
	for stage, count := range stats {
		summary.Total += count
		switch stage {
		case StageDiscovered, StageCompleted, StageFailed:
		default:
			summary.InFlight += count
		}
	}
	return summary, nil
}

// ResetForRetry moves failed entries back to discovered for reprocessing,
// clearing error detail, stage results, and attempt counts. With no IDs it
// resets every failed entry. Returns the number of entries reset.
func (s *Store) ResetForRetry(ctx context.Context, ids ...string) (int64, error) {
	base := `UPDATE entries
        SET stage = ?, document_type = NULL, detection_confidence = 0,
            extracted_text = NULL, page_count = 0, extraction_fallback = 0,
            category = NULL, category_confidence = 0, index_ref = NULL,
            error_kind = NULL, error_message = NULL, error_stage = NULL,
            attempts = 0, processing_duration_ms = 0,
            lease_owner = NULL, leased_at = NULL, updated_at = ?
        WHERE stage = ?`
	args := []any{StageDiscovered, formatTime(time.Now()), StageFailed}
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		base += ` AND id IN (` + strings.Join(placeholders, ", ") + `)`
	}

	res, err := s.execWithRetry(ctx, base, args...)
	if err != nil {
		return 0, fmt.Errorf("reset failed entries: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry                             Entry
		docType, text, category, indexRef sql.NullString
		errKind, errMessage, errStage     sql.NullString
		leaseOwner, leasedAt              sql.NullString
		fallback                          int
		createdAt, updatedAt              string
	)
	err := row.Scan(
		&entry.ID,
		&entry.FilePath,
		&entry.FileName,
		&entry.FileSize,
		&entry.Stage,
		&docType,
		&entry.DetectionConfidence,
		&text,
		&entry.PageCount,
		&fallback,
		&category,
		&entry.CategoryConfidence,
		&indexRef,
		&errKind,
		&errMessage,
		&errStage,
		&entry.Attempts,
		&entry.ProcessingDurationMs,
		&leaseOwner,
		&leasedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.DocumentType = DocumentType(docType.String)
	entry.ExtractedText = text.String
	entry.ExtractionFallback = fallback != 0
	entry.Category = category.String
	entry.IndexRef = indexRef.String
	entry.LeaseOwner = leaseOwner.String

	if errKind.Valid {
		entry.Error = &ErrorDetail{
			Kind:    errKind.String,
			Message: errMessage.String,
			Stage:   Stage(errStage.String),
		}
	}

	if leasedAt.Valid {
		t, err := parseTime(leasedAt.String)
		if err != nil {
			return nil, err
		}
		entry.LeasedAt = &t
	}

	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
