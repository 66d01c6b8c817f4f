package db

import (
	"context"
	"fmt"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

// UserCommitCount counts commits credited to a user at or before the
// cutoff. A commit counts when the user committed it, or authored it
// and the platform's web-flow identity performed the merge.
func (db *DB) UserCommitCount(ctx context.Context, owner, name, user string, before time.Time) (int, error) {
	query := `
	SELECT COUNT(*) FROM repo_commits
	WHERE owner = ? AND name = ?
	  AND authored_at <= ? AND committed_at <= ?
	  AND (committer = ? OR (author = ? AND committer = ?))
	`

	var n int
	err := db.QueryRowContext(ctx, query,
		owner, name, before.UTC(), before.UTC(), user, user, models.WebFlowUser).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count user commits: %w", err)
	}

	return n, nil
}

// UserIssueCount counts issues or pull requests a user created at or
// before the cutoff.
func (db *DB) UserIssueCount(ctx context.Context, owner, name, user string, before time.Time, isPull bool) (int, error) {
	query := `
	SELECT COUNT(*) FROM repo_issues
	WHERE owner = ? AND name = ? AND user = ? AND is_pull = ? AND created_at <= ?
	`

	var n int
	err := db.QueryRowContext(ctx, query, owner, name, user, isPull, before.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count user issues: %w", err)
	}

	return n, nil
}

// UserResolverCommits collects the resolver commit counts of the
// user's own non-pull issues that were closed at or before the cutoff.
func (db *DB) UserResolverCommits(ctx context.Context, owner, name, user string, before time.Time) ([]int, error) {
	query := `
	SELECT r.resolver_commit_num
	FROM resolved_issues r
	JOIN repo_issues i
	  ON i.owner = r.owner AND i.name = r.name AND i.number = r.number
	WHERE r.owner = ? AND r.name = ?
	  AND i.user = ? AND i.is_pull = 0 AND i.created_at <= ?
	  AND i.state = 'closed' AND i.closed_at IS NOT NULL AND i.closed_at <= ?
	`

	rows, err := db.QueryContext(ctx, query, owner, name, user, before.UTC(), before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get user resolver commits: %w", err)
	}
	defer rows.Close()

	var nums []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan resolver commits: %w", err)
		}
		nums = append(nums, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolver commits: %w", err)
	}

	return nums, nil
}

// IssuesCreatedBefore returns all non-pull issues created at or before
// the cutoff.
func (db *DB) IssuesCreatedBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoIssue, error) {
	query := `
	SELECT owner, name, number, user, title, body, state, is_pull, created_at, closed_at
	FROM repo_issues
	WHERE owner = ? AND name = ? AND is_pull = 0 AND created_at <= ?
	`

	rows, err := db.QueryContext(ctx, query, owner, name, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get issues: %w", err)
	}
	defer rows.Close()

	var issues []models.RepoIssue
	for rows.Next() {
		issue, err := scanRepoIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read issues: %w", err)
	}

	return issues, nil
}

// CommitsBefore returns all commits authored and committed at or
// before the cutoff.
func (db *DB) CommitsBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoCommit, error) {
	query := `
	SELECT owner, name, sha, author, committer, authored_at, committed_at
	FROM repo_commits
	WHERE owner = ? AND name = ? AND authored_at <= ? AND committed_at <= ?
	`

	rows, err := db.QueryContext(ctx, query, owner, name, before.UTC(), before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get commits: %w", err)
	}
	defer rows.Close()

	var commits []models.RepoCommit
	for rows.Next() {
		var c models.RepoCommit
		if err := rows.Scan(&c.Owner, &c.Name, &c.SHA, &c.Author, &c.Committer,
			&c.AuthoredAt, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commits: %w", err)
	}

	return commits, nil
}

// PrevResolverCommits returns the resolver commit counts of every
// issue in the repository resolved at or before the cutoff.
func (db *DB) PrevResolverCommits(ctx context.Context, owner, name string, before time.Time) ([]int, error) {
	query := `
	SELECT resolver_commit_num FROM resolved_issues
	WHERE owner = ? AND name = ? AND resolved_at <= ?
	`

	rows, err := db.QueryContext(ctx, query, owner, name, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get prior resolver commits: %w", err)
	}
	defer rows.Close()

	var nums []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan resolver commits: %w", err)
		}
		nums = append(nums, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolver commits: %w", err)
	}

	return nums, nil
}

// IssueEvents returns an issue's event log in chronological order.
func (db *DB) IssueEvents(ctx context.Context, owner, name string, number int) ([]models.IssueEvent, error) {
	query := `
	SELECT type, actor, time, label, comment FROM issue_events
	WHERE owner = ? AND name = ? AND number = ?
	ORDER BY time, id
	`

	rows, err := db.QueryContext(ctx, query, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue events: %w", err)
	}
	defer rows.Close()

	var events []models.IssueEvent
	for rows.Next() {
		var e models.IssueEvent
		if err := rows.Scan(&e.Type, &e.Actor, &e.Time, &e.Label, &e.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan issue event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read issue events: %w", err)
	}

	return events, nil
}

// ResolvedIssuesSince returns a repository's issues resolved at or
// after the watermark, each with its event log. A zero owner and name
// select every repository; a zero watermark selects everything.
func (db *DB) ResolvedIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.ResolvedIssue, error) {
	query := `
	SELECT owner, name, number, created_at, resolved_at, resolver_commit_num
	FROM resolved_issues
	WHERE (? = '' OR (owner = ? AND name = ?)) AND resolved_at >= ?
	ORDER BY owner, name, number
	`

	rows, err := db.QueryContext(ctx, query, owner, owner, name, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get resolved issues: %w", err)
	}
	defer rows.Close()

	var issues []models.ResolvedIssue
	for rows.Next() {
		var i models.ResolvedIssue
		if err := rows.Scan(&i.Owner, &i.Name, &i.Number, &i.CreatedAt,
			&i.ResolvedAt, &i.ResolverCommitNum); err != nil {
			return nil, fmt.Errorf("failed to scan resolved issue: %w", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolved issues: %w", err)
	}

	for idx := range issues {
		events, err := db.IssueEvents(ctx, issues[idx].Owner, issues[idx].Name, issues[idx].Number)
		if err != nil {
			return nil, err
		}
		issues[idx].Events = events
	}

	return issues, nil
}

// OpenIssuesSince returns a repository's open issues last updated at
// or after the watermark, each with its event log. A zero owner and
// name select every repository; a zero watermark selects everything.
func (db *DB) OpenIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.OpenIssue, error) {
	query := `
	SELECT owner, name, number, created_at, updated_at
	FROM open_issues
	WHERE (? = '' OR (owner = ? AND name = ?)) AND updated_at >= ?
	ORDER BY owner, name, number
	`

	rows, err := db.QueryContext(ctx, query, owner, owner, name, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get open issues: %w", err)
	}
	defer rows.Close()

	var issues []models.OpenIssue
	for rows.Next() {
		var i models.OpenIssue
		if err := rows.Scan(&i.Owner, &i.Name, &i.Number, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan open issue: %w", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read open issues: %w", err)
	}

	for idx := range issues {
		events, err := db.IssueEvents(ctx, issues[idx].Owner, issues[idx].Name, issues[idx].Number)
		if err != nil {
			return nil, err
		}
		issues[idx].Events = events
	}

	return issues, nil
}
