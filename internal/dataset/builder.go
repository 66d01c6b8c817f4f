package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recgfi/dataset/internal/models"
	"github.com/recgfi/dataset/internal/text"
)

// Builder composes one feature snapshot per (issue, cutoff) from the
// record store and persists it. Building is idempotent: an existing
// snapshot for the same key and cutoff is returned unchanged.
type Builder struct {
	store       Store
	categorizer LabelCategorizer
	scorer      ReadabilityScorer
	logger      *slog.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(store Store, categorizer LabelCategorizer, scorer ReadabilityScorer, logger *slog.Logger) *Builder {
	return &Builder{
		store:       store,
		categorizer: categorizer,
		scorer:      scorer,
		logger:      logger,
	}
}

// Build computes the feature snapshot for an issue as of the cutoff.
// Resolved issues first supersede any snapshot computed while the
// issue was still open. Pull requests yield ErrIsPullRequest and no
// snapshot.
func (b *Builder) Build(ctx context.Context, issue models.TrainingIssue, before time.Time) (*models.Snapshot, error) {
	key := issue.Key()

	// A definitive resolution supersedes earlier speculative snapshots.
	if issue.Resolved() {
		if err := b.store.DeleteSpeculativeSnapshots(ctx, key.Owner, key.Name, key.Number); err != nil {
			return nil, err
		}
	}

	existing, err := b.store.Snapshot(ctx, key.Owner, key.Name, key.Number, before)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		b.logger.Info("already in dataset", "issue", key.String(), "before", before)
		return existing, nil
	}

	repoIssue, err := b.store.RepoIssue(ctx, key.Owner, key.Name, key.Number)
	if err != nil {
		return nil, err
	}
	if repoIssue == nil {
		return nil, fmt.Errorf("no raw record for issue %s", key)
	}
	if repoIssue.IsPull {
		return nil, fmt.Errorf("%s: %w", key, ErrIsPullRequest)
	}

	b.logger.Info("building snapshot", "issue", key.String(), "before", before)

	repo, err := b.store.Repo(ctx, key.Owner, key.Name)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("no repo record for %s/%s", key.Owner, key.Name)
	}

	bg, err := b.backgroundData(ctx, key.Owner, key.Name, before)
	if err != nil {
		return nil, err
	}

	prevResolverCommits, err := b.store.PrevResolverCommits(ctx, key.Owner, key.Name, before)
	if err != nil {
		return nil, err
	}
	if prevResolverCommits == nil {
		prevResolverCommits = []int{}
	}

	dyn, err := b.dynamicsData(ctx, key.Owner, key.Name, issue.EventLog(), before)
	if err != nil {
		return nil, err
	}

	reporterFeat, err := b.userFeature(ctx, key.Owner, key.Name, repoIssue.User, before)
	if err != nil {
		return nil, err
	}
	ownerFeat, err := b.userFeature(ctx, key.Owner, key.Name, key.Owner, before)
	if err != nil {
		return nil, err
	}

	// Label features come from the replayed label set, not the issue's
	// current labels: the cutoff may be far in the past.
	cleanBody := text.CleanBody(repoIssue.Body)
	labelList := dyn.labels
	if labelList == nil {
		labelList = []string{}
	}

	// Only the event-type history uses a strict cutoff.
	eventTypes := []string{}
	for _, e := range issue.EventLog() {
		if e.Time.Before(before) {
			eventTypes = append(eventTypes, e.Type)
		}
	}

	s := &models.Snapshot{
		Owner:             key.Owner,
		Name:              key.Name,
		Number:            key.Number,
		CreatedAt:         repoIssue.CreatedAt,
		ClosedAt:          repoIssue.ClosedAt,
		Before:            before,
		ResolverCommitNum: issue.Resolution(),

		Title:         repoIssue.Title,
		Body:          cleanBody,
		TitleWords:    text.CountWords(repoIssue.Title),
		BodyWords:     text.CountWords(cleanBody),
		CodeSnippets:  text.CountCodeSnippets(repoIssue.Body),
		URLs:          text.CountURLs(repoIssue.Body),
		Images:        text.CountImages(repoIssue.Body),
		Readability:   b.scorer.Score(cleanBody),
		Labels:        labelList,
		LabelCategory: b.categorizer.Categorize(labelList),

		ReporterFeat:        reporterFeat,
		OwnerFeat:           ownerFeat,
		PrevResolverCommits: prevResolverCommits,
		Stars:               sumThroughMonth(repo.MonthlyStars, before),
		Pulls:               sumThroughMonth(repo.MonthlyPulls, before),
		Commits:             sumThroughMonth(repo.MonthlyCommits, before),
		Contributors:        len(bg.contributors),
		ClosedIssues:        bg.closedIssues,
		OpenIssues:          bg.openIssues,
		OpenIssueRatio:      openIssueRatio(bg.openIssues, bg.closedIssues),
		IssueCloseTime:      median(bg.closeTimes),

		Comments:     emptyIfNil(dyn.comments),
		Events:       eventTypes,
		CommentUsers: dyn.commentUsers,
		EventUsers:   dyn.eventUsers,
	}

	if err := b.store.SaveSnapshot(ctx, s); err != nil {
		return nil, err
	}

	b.logger.Info("snapshot done", "issue", key.String(), "before", before)
	return s, nil
}

func sumThroughMonth(series []models.MonthCount, before time.Time) int {
	sum := 0
	for _, p := range series {
		if !p.Month.After(before) {
			sum += p.Count
		}
	}
	return sum
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
