package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TryAcquireLease attempts to take the exclusive processing lease for an
// entry. It never blocks: the single conditional UPDATE means concurrent
// callers racing on the same identity see exactly one success. Terminal
// entries cannot be leased.
func (s *Store) TryAcquireLease(ctx context.Context, id, owner string) (bool, error) {
	if owner == "" {
		return false, errors.New("lease owner is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE entries SET lease_owner = ?, leased_at = ?
         WHERE id = ? AND lease_owner IS NULL AND stage NOT IN (?, ?)`,
		owner,
		formatTime(time.Now()),
		id,
		StageCompleted,
		StageFailed,
	)
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lease rows: %w", err)
	}
	return affected == 1, nil
}

// ReleaseLease relinquishes the processing lease for an entry. Only the
// current owner may release; a stale owner's release is a no-op.
func (s *Store) ReleaseLease(ctx context.Context, id, owner string) error {
	if owner == "" {
		return errors.New("lease owner is required")
	}
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE entries SET lease_owner = NULL, leased_at = NULL
         WHERE id = ? AND lease_owner = ?`,
		id,
		owner,
	); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

// ReleaseAllLeases clears every held lease. Called at daemon startup, when
// the instance flock guarantees no other process holds live work, so any
// recorded lease belongs to a crashed run and its entry is eligible for
// resume from its persisted stage.
func (s *Store) ReleaseAllLeases(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE entries SET lease_owner = NULL, leased_at = NULL
         WHERE lease_owner IS NOT NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("release stale leases: %w", err)
	}
	return res.RowsAffected()
}
