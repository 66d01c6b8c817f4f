package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

// All timestamps are normalized to UTC on write so that SQLite's
// lexical TIMESTAMP comparisons order them correctly.

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// SaveRepo saves a repository and its monthly series to the database
func (db *DB) SaveRepo(ctx context.Context, repo *models.Repo) error {
	query := `
	INSERT INTO repos (owner, name, language)
	VALUES (?, ?, ?)
	ON CONFLICT(owner, name) DO UPDATE SET
		language = excluded.language
	`

	_, err := db.ExecContext(ctx, query, repo.Owner, repo.Name, repo.Language)
	if err != nil {
		return fmt.Errorf("failed to save repo: %w", err)
	}

	series := map[string][]models.MonthCount{
		"stars":   repo.MonthlyStars,
		"pulls":   repo.MonthlyPulls,
		"commits": repo.MonthlyCommits,
	}
	for kind, points := range series {
		for _, p := range points {
			_, err := db.ExecContext(ctx, `
			INSERT INTO repo_month_counts (owner, name, kind, month, count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(owner, name, kind, month) DO UPDATE SET
				count = excluded.count`,
				repo.Owner, repo.Name, kind, p.Month.UTC(), p.Count)
			if err != nil {
				return fmt.Errorf("failed to save %s series: %w", kind, err)
			}
		}
	}

	return nil
}

// SaveRepoIssue saves a raw issue record to the database
func (db *DB) SaveRepoIssue(ctx context.Context, issue *models.RepoIssue) error {
	query := `
	INSERT INTO repo_issues (owner, name, number, user, title, body, state, is_pull, created_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner, name, number) DO UPDATE SET
		user = excluded.user,
		title = excluded.title,
		body = excluded.body,
		state = excluded.state,
		is_pull = excluded.is_pull,
		closed_at = excluded.closed_at
	`

	_, err := db.ExecContext(ctx, query,
		issue.Owner, issue.Name, issue.Number, issue.User, issue.Title,
		issue.Body, issue.State, issue.IsPull,
		issue.CreatedAt.UTC(), nullableTime(issue.ClosedAt))
	if err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}

	return nil
}

// SaveRepoCommit saves a raw commit record to the database
func (db *DB) SaveRepoCommit(ctx context.Context, commit *models.RepoCommit) error {
	query := `
	INSERT INTO repo_commits (owner, name, sha, author, committer, authored_at, committed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner, name, sha) DO NOTHING
	`

	_, err := db.ExecContext(ctx, query,
		commit.Owner, commit.Name, commit.SHA, commit.Author,
		commit.Committer, commit.AuthoredAt.UTC(), commit.CommittedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save commit: %w", err)
	}

	return nil
}

// SaveIssueEvent appends an event to an issue's timeline
func (db *DB) SaveIssueEvent(ctx context.Context, owner, name string, number int, event models.IssueEvent) error {
	query := `
	INSERT INTO issue_events (owner, name, number, type, actor, time, label, comment)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		owner, name, number, event.Type, event.Actor,
		event.Time.UTC(), event.Label, event.Comment)
	if err != nil {
		return fmt.Errorf("failed to save issue event: %w", err)
	}

	return nil
}

// SaveResolvedIssue saves a resolved-issue record; the issue's events
// live in issue_events and are not written here.
func (db *DB) SaveResolvedIssue(ctx context.Context, issue *models.ResolvedIssue) error {
	query := `
	INSERT INTO resolved_issues (owner, name, number, created_at, resolved_at, resolver_commit_num)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner, name, number) DO UPDATE SET
		resolved_at = excluded.resolved_at,
		resolver_commit_num = excluded.resolver_commit_num
	`

	_, err := db.ExecContext(ctx, query,
		issue.Owner, issue.Name, issue.Number,
		issue.CreatedAt.UTC(), issue.ResolvedAt.UTC(), issue.ResolverCommitNum)
	if err != nil {
		return fmt.Errorf("failed to save resolved issue: %w", err)
	}

	return nil
}

// SaveOpenIssue saves an open-issue record
func (db *DB) SaveOpenIssue(ctx context.Context, issue *models.OpenIssue) error {
	query := `
	INSERT INTO open_issues (owner, name, number, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(owner, name, number) DO UPDATE SET
		updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		issue.Owner, issue.Name, issue.Number,
		issue.CreatedAt.UTC(), issue.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save open issue: %w", err)
	}

	return nil
}

// DeleteOpenIssue removes an open-issue record, typically after the
// issue resolves and a resolved_issues record replaces it.
func (db *DB) DeleteOpenIssue(ctx context.Context, owner, name string, number int) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM open_issues WHERE owner = ? AND name = ? AND number = ?`,
		owner, name, number)
	if err != nil {
		return fmt.Errorf("failed to delete open issue: %w", err)
	}

	return nil
}

func scanRepoIssue(row interface{ Scan(...any) error }) (*models.RepoIssue, error) {
	var issue models.RepoIssue
	var closedAt sql.NullTime
	err := row.Scan(&issue.Owner, &issue.Name, &issue.Number, &issue.User,
		&issue.Title, &issue.Body, &issue.State, &issue.IsPull,
		&issue.CreatedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		issue.ClosedAt = &t
	}
	return &issue, nil
}

// RepoIssue gets the canonical record of one issue, or nil if unknown
func (db *DB) RepoIssue(ctx context.Context, owner, name string, number int) (*models.RepoIssue, error) {
	query := `
	SELECT owner, name, number, user, title, body, state, is_pull, created_at, closed_at
	FROM repo_issues
	WHERE owner = ? AND name = ? AND number = ?
	`

	issue, err := scanRepoIssue(db.QueryRowContext(ctx, query, owner, name, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	return issue, nil
}

// Repo gets repository metadata with its monthly series, or nil if unknown
func (db *DB) Repo(ctx context.Context, owner, name string) (*models.Repo, error) {
	var repo models.Repo
	err := db.QueryRowContext(ctx,
		`SELECT owner, name, language FROM repos WHERE owner = ? AND name = ?`,
		owner, name).Scan(&repo.Owner, &repo.Name, &repo.Language)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repo: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
	SELECT kind, month, count FROM repo_month_counts
	WHERE owner = ? AND name = ?
	ORDER BY month`, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var p models.MonthCount
		if err := rows.Scan(&kind, &p.Month, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly series: %w", err)
		}
		switch kind {
		case "stars":
			repo.MonthlyStars = append(repo.MonthlyStars, p)
		case "pulls":
			repo.MonthlyPulls = append(repo.MonthlyPulls, p)
		case "commits":
			repo.MonthlyCommits = append(repo.MonthlyCommits, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly series: %w", err)
	}

	return &repo, nil
}
