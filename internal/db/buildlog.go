package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/recgfi/dataset/internal/models"
)

// AcquireBuildLog opens a build log for the given key, acting as an
// advisory lock. The partial unique index on active records makes the
// check-and-insert atomic: a second caller gets ErrBuildInProgress.
// An active record older than maxAge is closed as stale first, so a
// crashed run cannot block its key forever (maxAge <= 0 disables the
// takeover).
func (db *DB) AcquireBuildLog(ctx context.Context, owner, name string, pid int, login string, maxAge time.Duration) (*models.BuildLog, error) {
	now := time.Now().UTC()

	if maxAge > 0 {
		_, err := db.ExecContext(ctx, `
		UPDATE build_logs SET update_end = ?
		WHERE owner = ? AND name = ? AND update_end IS NULL AND update_begin < ?`,
			now, owner, name, now.Add(-maxAge))
		if err != nil {
			return nil, fmt.Errorf("failed to expire stale build logs: %w", err)
		}
	}

	res, err := db.ExecContext(ctx, `
	INSERT INTO build_logs (owner, name, pid, github_login, update_begin)
	VALUES (?, ?, ?, ?, ?)`,
		owner, name, pid, login, now)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrBuildInProgress
		}
		return nil, fmt.Errorf("failed to open build log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read build log id: %w", err)
	}

	return &models.BuildLog{
		ID:          id,
		Owner:       owner,
		Name:        name,
		PID:         pid,
		GitHubLogin: login,
		UpdateBegin: now,
	}, nil
}

// CloseBuildLog marks a build log finished and records its counters.
func (db *DB) CloseBuildLog(ctx context.Context, log *models.BuildLog) error {
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, `
	UPDATE build_logs
	SET update_end = ?, updated_open_issues = ?, updated_resolved_issues = ?
	WHERE id = ?`,
		now, log.UpdatedOpenIssues, log.UpdatedResolvedIssues, log.ID)
	if err != nil {
		return fmt.Errorf("failed to close build log: %w", err)
	}

	log.UpdateEnd = &now
	return nil
}
