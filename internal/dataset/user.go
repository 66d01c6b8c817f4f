package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

// userFeature summarizes one user's history in the repository as of
// the cutoff: commits credited to them (including web-flow merges of
// their commits), issues and pulls they created, and the resolver
// commit counts of their own issues already closed by then. The ghost
// sentinel for deleted accounts short-circuits to all zeros.
func (b *Builder) userFeature(ctx context.Context, owner, name, user string, before time.Time) (models.UserFeature, error) {
	if user == models.GhostUser {
		return models.UserFeature{Name: user, ResolverCommits: []int{}}, nil
	}

	commits, err := b.store.UserCommitCount(ctx, owner, name, user, before)
	if err != nil {
		return models.UserFeature{}, fmt.Errorf("failed to aggregate commits for %s: %w", user, err)
	}

	issues, err := b.store.UserIssueCount(ctx, owner, name, user, before, false)
	if err != nil {
		return models.UserFeature{}, fmt.Errorf("failed to aggregate issues for %s: %w", user, err)
	}

	pulls, err := b.store.UserIssueCount(ctx, owner, name, user, before, true)
	if err != nil {
		return models.UserFeature{}, fmt.Errorf("failed to aggregate pulls for %s: %w", user, err)
	}

	resolverCommits, err := b.store.UserResolverCommits(ctx, owner, name, user, before)
	if err != nil {
		return models.UserFeature{}, fmt.Errorf("failed to aggregate resolver commits for %s: %w", user, err)
	}
	if resolverCommits == nil {
		resolverCommits = []int{}
	}

	return models.UserFeature{
		Name:            user,
		Commits:         commits,
		Issues:          issues,
		Pulls:           pulls,
		ResolverCommits: resolverCommits,
	}, nil
}
