package dataset

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// background holds community-wide aggregates of a repository as of a
// cutoff.
type background struct {
	contributors map[string]struct{}
	closedIssues int
	openIssues   int
	closeTimes   []float64 // resolution latency in seconds
}

// backgroundData scans all non-pull issues created at or before the
// cutoff, partitioning them into closed-by-then and still-open, and
// unions every commit's author and committer into the contributor set.
func (b *Builder) backgroundData(ctx context.Context, owner, name string, before time.Time) (background, error) {
	bg := background{contributors: make(map[string]struct{})}

	issues, err := b.store.IssuesCreatedBefore(ctx, owner, name, before)
	if err != nil {
		return background{}, fmt.Errorf("failed to aggregate background issues: %w", err)
	}
	for _, i := range issues {
		if i.State == "closed" && i.ClosedAt != nil && !i.ClosedAt.After(before) {
			bg.closedIssues++
			bg.closeTimes = append(bg.closeTimes, i.ClosedAt.Sub(i.CreatedAt).Seconds())
		} else {
			bg.openIssues++
		}
	}

	commits, err := b.store.CommitsBefore(ctx, owner, name, before)
	if err != nil {
		return background{}, fmt.Errorf("failed to aggregate background commits: %w", err)
	}
	for _, c := range commits {
		bg.contributors[c.Author] = struct{}{}
		bg.contributors[c.Committer] = struct{}{}
	}

	return bg, nil
}

// openIssueRatio is open / (open + closed), 0 when both are 0.
func openIssueRatio(open, closed int) float64 {
	if open+closed == 0 {
		return 0
	}
	return float64(open) / float64(open+closed)
}

// median returns the median of vs, averaging the two middle values for
// even lengths. The median of an empty list is 0.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
