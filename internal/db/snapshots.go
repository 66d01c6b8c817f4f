package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return string(b), nil
}

func fromJSON(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}

// SaveSnapshot persists a computed snapshot. The UNIQUE constraint on
// (owner, name, number, before) rejects duplicates.
func (db *DB) SaveSnapshot(ctx context.Context, s *models.Snapshot) error {
	cols := make([]string, 0, 9)
	for _, v := range []any{
		s.Labels, s.LabelCategory, s.ReporterFeat, s.OwnerFeat,
		s.PrevResolverCommits, s.Comments, s.Events, s.CommentUsers, s.EventUsers,
	} {
		enc, err := toJSON(v)
		if err != nil {
			return err
		}
		cols = append(cols, enc)
	}

	query := `
	INSERT INTO snapshots (
		owner, name, number, before, created_at, closed_at, resolver_commit_num,
		title, body, title_words, body_words, code_snippets, urls, images,
		coleman_liau, flesch_reading_ease, flesch_kincaid_grade, automated_readability,
		labels, label_category, reporter_feat, owner_feat, prev_resolver_commits,
		stars, pulls, commits, contributors, closed_issues, open_issues,
		open_issue_ratio, issue_close_time, comments, events, comment_users, event_users
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		s.Owner, s.Name, s.Number, s.Before.UTC(), s.CreatedAt.UTC(),
		nullableTime(s.ClosedAt), s.ResolverCommitNum,
		s.Title, s.Body, s.TitleWords, s.BodyWords, s.CodeSnippets, s.URLs, s.Images,
		s.Readability.ColemanLiau, s.Readability.FleschReadingEase,
		s.Readability.FleschKincaidGrade, s.Readability.AutomatedReadability,
		cols[0], cols[1], cols[2], cols[3], cols[4],
		s.Stars, s.Pulls, s.Commits, s.Contributors, s.ClosedIssues, s.OpenIssues,
		s.OpenIssueRatio, s.IssueCloseTime, cols[5], cols[6], cols[7], cols[8])
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Snapshot gets the snapshot for one issue at one cutoff, or nil if
// none exists.
func (db *DB) Snapshot(ctx context.Context, owner, name string, number int, before time.Time) (*models.Snapshot, error) {
	query := `
	SELECT owner, name, number, before, created_at, closed_at, resolver_commit_num,
		title, body, title_words, body_words, code_snippets, urls, images,
		coleman_liau, flesch_reading_ease, flesch_kincaid_grade, automated_readability,
		labels, label_category, reporter_feat, owner_feat, prev_resolver_commits,
		stars, pulls, commits, contributors, closed_issues, open_issues,
		open_issue_ratio, issue_close_time, comments, events, comment_users, event_users
	FROM snapshots
	WHERE owner = ? AND name = ? AND number = ? AND before = ?
	`

	var s models.Snapshot
	var closedAt sql.NullTime
	var labels, labelCat, reporter, ownerFeat, prevResolver string
	var comments, events, commentUsers, eventUsers string

	err := db.QueryRowContext(ctx, query, owner, name, number, before.UTC()).Scan(
		&s.Owner, &s.Name, &s.Number, &s.Before, &s.CreatedAt, &closedAt, &s.ResolverCommitNum,
		&s.Title, &s.Body, &s.TitleWords, &s.BodyWords, &s.CodeSnippets, &s.URLs, &s.Images,
		&s.Readability.ColemanLiau, &s.Readability.FleschReadingEase,
		&s.Readability.FleschKincaidGrade, &s.Readability.AutomatedReadability,
		&labels, &labelCat, &reporter, &ownerFeat, &prevResolver,
		&s.Stars, &s.Pulls, &s.Commits, &s.Contributors, &s.ClosedIssues, &s.OpenIssues,
		&s.OpenIssueRatio, &s.IssueCloseTime, &comments, &events, &commentUsers, &eventUsers)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	for _, pair := range []struct {
		data string
		dst  any
	}{
		{labels, &s.Labels}, {labelCat, &s.LabelCategory},
		{reporter, &s.ReporterFeat}, {ownerFeat, &s.OwnerFeat},
		{prevResolver, &s.PrevResolverCommits}, {comments, &s.Comments},
		{events, &s.Events}, {commentUsers, &s.CommentUsers}, {eventUsers, &s.EventUsers},
	} {
		if err := fromJSON(pair.data, pair.dst); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// LatestSnapshotCutoff returns the most recent cutoff among an issue's
// snapshots, and whether any snapshot exists.
func (db *DB) LatestSnapshotCutoff(ctx context.Context, owner, name string, number int) (time.Time, bool, error) {
	query := `
	SELECT before FROM snapshots
	WHERE owner = ? AND name = ? AND number = ?
	ORDER BY before DESC LIMIT 1
	`

	var latest time.Time
	err := db.QueryRowContext(ctx, query, owner, name, number).Scan(&latest)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get latest snapshot cutoff: %w", err)
	}

	return latest, true, nil
}

// DeleteSpeculativeSnapshots removes snapshots for an issue that were
// computed while its resolution outcome was still unknown.
func (db *DB) DeleteSpeculativeSnapshots(ctx context.Context, owner, name string, number int) error {
	query := `
	DELETE FROM snapshots
	WHERE owner = ? AND name = ? AND number = ? AND resolver_commit_num = -1
	`

	_, err := db.ExecContext(ctx, query, owner, name, number)
	if err != nil {
		return fmt.Errorf("failed to delete speculative snapshots: %w", err)
	}

	return nil
}
