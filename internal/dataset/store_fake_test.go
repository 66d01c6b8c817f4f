package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recgfi/dataset/internal/db"
	"github.com/recgfi/dataset/internal/models"
)

// fakeStore is an in-memory Store with the same query semantics as the
// SQLite implementation, safe for the updater's worker pool.
type fakeStore struct {
	mu        sync.Mutex
	repos     map[string]*models.Repo
	issues    map[string]*models.RepoIssue
	commits   []models.RepoCommit
	resolved  map[string]*models.ResolvedIssue
	open      map[string]*models.OpenIssue
	snapshots []*models.Snapshot
	buildLogs []*models.BuildLog
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		repos:    make(map[string]*models.Repo),
		issues:   make(map[string]*models.RepoIssue),
		resolved: make(map[string]*models.ResolvedIssue),
		open:     make(map[string]*models.OpenIssue),
	}
}

func repoKey(owner, name string) string         { return owner + "/" + name }
func issueKey(owner, name string, n int) string { return fmt.Sprintf("%s/%s#%d", owner, name, n) }

func (f *fakeStore) RepoIssue(ctx context.Context, owner, name string, number int) (*models.RepoIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueKey(owner, name, number)]
	if !ok {
		return nil, nil
	}
	cp := *issue
	return &cp, nil
}

func (f *fakeStore) Repo(ctx context.Context, owner, name string) (*models.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	repo, ok := f.repos[repoKey(owner, name)]
	if !ok {
		return nil, nil
	}
	cp := *repo
	return &cp, nil
}

func (f *fakeStore) UserCommitCount(ctx context.Context, owner, name, user string, before time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commits {
		if c.Owner != owner || c.Name != name {
			continue
		}
		if c.AuthoredAt.After(before) || c.CommittedAt.After(before) {
			continue
		}
		if c.Committer == user || (c.Author == user && c.Committer == models.WebFlowUser) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UserIssueCount(ctx context.Context, owner, name, user string, before time.Time, isPull bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, i := range f.issues {
		if i.Owner == owner && i.Name == name && i.User == user &&
			i.IsPull == isPull && !i.CreatedAt.After(before) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UserResolverCommits(ctx context.Context, owner, name, user string, before time.Time) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var nums []int
	for _, i := range f.issues {
		if i.Owner != owner || i.Name != name || i.User != user || i.IsPull ||
			i.CreatedAt.After(before) {
			continue
		}
		if i.State != "closed" || i.ClosedAt == nil || i.ClosedAt.After(before) {
			continue
		}
		if r, ok := f.resolved[issueKey(owner, name, i.Number)]; ok {
			nums = append(nums, r.ResolverCommitNum)
		}
	}
	return nums, nil
}

func (f *fakeStore) IssuesCreatedBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var issues []models.RepoIssue
	for _, i := range f.issues {
		if i.Owner == owner && i.Name == name && !i.IsPull && !i.CreatedAt.After(before) {
			issues = append(issues, *i)
		}
	}
	return issues, nil
}

func (f *fakeStore) CommitsBefore(ctx context.Context, owner, name string, before time.Time) ([]models.RepoCommit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var commits []models.RepoCommit
	for _, c := range f.commits {
		if c.Owner == owner && c.Name == name &&
			!c.AuthoredAt.After(before) && !c.CommittedAt.After(before) {
			commits = append(commits, c)
		}
	}
	return commits, nil
}

func (f *fakeStore) PrevResolverCommits(ctx context.Context, owner, name string, before time.Time) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var nums []int
	for _, r := range f.resolved {
		if r.Owner == owner && r.Name == name && !r.ResolvedAt.After(before) {
			nums = append(nums, r.ResolverCommitNum)
		}
	}
	return nums, nil
}

func (f *fakeStore) ResolvedIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.ResolvedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var issues []models.ResolvedIssue
	for _, r := range f.resolved {
		if owner != "" && (r.Owner != owner || r.Name != name) {
			continue
		}
		if r.ResolvedAt.Before(since) {
			continue
		}
		issues = append(issues, *r)
	}
	return issues, nil
}

func (f *fakeStore) OpenIssuesSince(ctx context.Context, owner, name string, since time.Time) ([]models.OpenIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var issues []models.OpenIssue
	for _, o := range f.open {
		if owner != "" && (o.Owner != owner || o.Name != name) {
			continue
		}
		if o.UpdatedAt.Before(since) {
			continue
		}
		issues = append(issues, *o)
	}
	return issues, nil
}

func (f *fakeStore) Snapshot(ctx context.Context, owner, name string, number int, before time.Time) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.snapshots {
		if s.Owner == owner && s.Name == name && s.Number == number && s.Before.Equal(before) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) LatestSnapshotCutoff(ctx context.Context, owner, name string, number int) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest time.Time
	found := false
	for _, s := range f.snapshots {
		if s.Owner == owner && s.Name == name && s.Number == number {
			if !found || s.Before.After(latest) {
				latest = s.Before
				found = true
			}
		}
	}
	return latest, found, nil
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, s *models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.snapshots {
		if existing.Owner == s.Owner && existing.Name == s.Name &&
			existing.Number == s.Number && existing.Before.Equal(s.Before) {
			return fmt.Errorf("duplicate snapshot for %s/%s#%d", s.Owner, s.Name, s.Number)
		}
	}
	cp := *s
	f.snapshots = append(f.snapshots, &cp)
	f.saveCalls++
	return nil
}

func (f *fakeStore) DeleteSpeculativeSnapshots(ctx context.Context, owner, name string, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.snapshots[:0]
	for _, s := range f.snapshots {
		if s.Owner == owner && s.Name == name && s.Number == number && s.ResolverCommitNum == -1 {
			continue
		}
		kept = append(kept, s)
	}
	f.snapshots = kept
	return nil
}

func (f *fakeStore) AcquireBuildLog(ctx context.Context, owner, name string, pid int, login string, maxAge time.Duration) (*models.BuildLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, l := range f.buildLogs {
		if l.Owner != owner || l.Name != name || l.UpdateEnd != nil {
			continue
		}
		if maxAge > 0 && l.UpdateBegin.Before(now.Add(-maxAge)) {
			end := now
			l.UpdateEnd = &end
			continue
		}
		return nil, db.ErrBuildInProgress
	}
	log := &models.BuildLog{
		ID:          int64(len(f.buildLogs) + 1),
		Owner:       owner,
		Name:        name,
		PID:         pid,
		GitHubLogin: login,
		UpdateBegin: now,
	}
	f.buildLogs = append(f.buildLogs, log)
	return log, nil
}

func (f *fakeStore) CloseBuildLog(ctx context.Context, log *models.BuildLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, l := range f.buildLogs {
		if l.ID == log.ID {
			l.UpdateEnd = &now
			l.UpdatedOpenIssues = log.UpdatedOpenIssues
			l.UpdatedResolvedIssues = log.UpdatedResolvedIssues
		}
	}
	log.UpdateEnd = &now
	return nil
}

var _ Store = (*fakeStore)(nil)
