// Package dataset computes point-in-time feature snapshots for
// repository issues. Every feature observes only records dated at or
// before its cutoff; an issue's time-varying label state is
// reconstructed by replaying its event log up to that instant.
package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

// ErrIsPullRequest is returned by Build when the requested issue turns
// out to be a pull request, which this feature set excludes. It is
// per-item: callers log it and continue.
var ErrIsPullRequest = errors.New("issue is a pull request")

// Store is the record store the pipeline reads raw records from and
// persists snapshots and build logs to. *db.DB implements it.
type Store interface {
	RepoIssue(ctx context.Context, owner, name string, number int) (*models.RepoIssue, error)
	Repo(ctx context.Context, owner, name string) (*models.Repo, error)

	UserCommitCount(ctx context.Context, owner, name, user string, before time.Time) (int, error)
	UserIssueCount(ctx context.Context, owner, name, user string, before time.Time, isPull bool) (int, error)
	UserResolverCommits(ctx context.Context, owner, name, user string, before time.Time) ([]int, error)

	IssuesCreatedBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoIssue, error)
	CommitsBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoCommit, error)
	PrevResolverCommits(ctx context.Context, owner, name string, before time.Time) ([]int, error)

	ResolvedIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.ResolvedIssue, error)
	OpenIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.OpenIssue, error)

	Snapshot(ctx context.Context, owner, name string, number int, before time.Time) (*models.Snapshot, error)
	LatestSnapshotCutoff(ctx context.Context, owner, name string, number int) (time.Time, bool, error)
	SaveSnapshot(ctx context.Context, s *models.Snapshot) error
	DeleteSpeculativeSnapshots(ctx context.Context, owner, name string, number int) error

	AcquireBuildLog(ctx context.Context, owner, name string, pid int, login string, maxAge time.Duration) (*models.BuildLog, error)
	CloseBuildLog(ctx context.Context, log *models.BuildLog) error
}

// LabelCategorizer maps free-text labels to category counts.
// *labels.Categorizer implements it.
type LabelCategorizer interface {
	Categorize(labels []string) models.LabelCategory
}

// ReadabilityScorer computes readability metrics for a text blob.
// text.Scorer implements it.
type ReadabilityScorer interface {
	Score(s string) models.Readability
}
