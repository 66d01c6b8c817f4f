package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/recgfi/dataset/internal/db"
	"github.com/recgfi/dataset/internal/models"
)

// Updater drives incremental snapshot recomputation, per repository or
// for the whole corpus. Each run is guarded by a build-log record so
// the same key is never processed by two runs at once.
type Updater struct {
	store   Store
	builder *Builder
	logger  *slog.Logger
	// Number of workers for the per-issue loop; each issue's
	// snapshots are independent.
	workers    int
	lockMaxAge time.Duration
}

// NewUpdater creates an updater with default worker count and lock
// expiry.
func NewUpdater(store Store, builder *Builder, logger *slog.Logger) *Updater {
	return &Updater{
		store:      store,
		builder:    builder,
		logger:     logger,
		workers:    5,
		lockMaxAge: 24 * time.Hour,
	}
}

// SetWorkers sets the number of parallel workers
func (u *Updater) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	if workers > 10 {
		workers = 10
	}
	u.workers = workers
}

// SetLockMaxAge sets how old an active build log may be before a new
// run closes it as stale. Zero disables the takeover.
func (u *Updater) SetLockMaxAge(maxAge time.Duration) {
	u.lockMaxAge = maxAge
}

// UpdateRepo recomputes snapshots for one repository's issues resolved
// or updated at or after since (zero since means all). It returns nil
// without processing when another run holds the repository's build
// log.
func (u *Updater) UpdateRepo(ctx context.Context, owner, name string, since time.Time, login string) error {
	return u.update(ctx, owner, name, since, login)
}

// UpdateAll recomputes snapshots across all repositories, guarded by
// the global build log.
func (u *Updater) UpdateAll(ctx context.Context, since time.Time) error {
	return u.update(ctx, "", "", since, "")
}

func (u *Updater) update(ctx context.Context, owner, name string, since time.Time, login string) error {
	log, err := u.store.AcquireBuildLog(ctx, owner, name, os.Getpid(), login, u.lockMaxAge)
	if errors.Is(err, db.ErrBuildInProgress) {
		u.logger.Info("already being updated, skipping", "owner", owner, "name", name)
		return nil
	}
	if err != nil {
		return err
	}

	resolved, err := u.store.ResolvedIssuesSince(ctx, owner, name, since)
	if err != nil {
		return err
	}
	open, err := u.store.OpenIssuesSince(ctx, owner, name, since)
	if err != nil {
		return err
	}

	u.logger.Info("updating dataset",
		"owner", owner, "name", name, "since", since,
		"resolved", len(resolved), "open", len(open))

	// A failure aborts the run and leaves the build log open; the
	// stale-lock takeover bounds how long the key stays blocked.
	if err := u.processIssues(ctx, resolved, open); err != nil {
		return err
	}

	log.UpdatedResolvedIssues = len(resolved)
	log.UpdatedOpenIssues = len(open)
	return u.store.CloseBuildLog(ctx, log)
}

type workItem struct {
	resolved *models.ResolvedIssue
	open     *models.OpenIssue
}

// processIssues runs the per-issue loop on a worker pool. Each
// resolved issue gets a snapshot at creation time and one at
// resolution time; each open issue gets a snapshot at its updated_at
// unless an existing snapshot already covers its latest activity.
func (u *Updater) processIssues(ctx context.Context, resolved []models.ResolvedIssue, open []models.OpenIssue) error {
	total := len(resolved) + len(open)
	if total == 0 {
		return nil
	}

	items := make(chan workItem, total)

	var wg sync.WaitGroup

	var progressMutex sync.Mutex
	processed := 0
	lastProgressUpdate := time.Now()
	progressInterval := 5 * time.Second

	errorsChan := make(chan error, 2*total)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < u.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for item := range items {
				if workerCtx.Err() != nil {
					return
				}

				if err := u.processItem(workerCtx, item); err != nil {
					errorsChan <- err
					// Storage failures are fatal for the whole run.
					cancelWorkers()
				}

				progressMutex.Lock()
				processed++
				current := processed
				shouldLog := current == 1 || current == total ||
					time.Since(lastProgressUpdate) >= progressInterval
				if shouldLog {
					u.logger.Info("progress", "processed", current, "total", total)
					lastProgressUpdate = time.Now()
				}
				progressMutex.Unlock()
			}
		}()
	}

	for i := range resolved {
		items <- workItem{resolved: &resolved[i]}
	}
	for i := range open {
		items <- workItem{open: &open[i]}
	}
	close(items)

	wg.Wait()
	close(errorsChan)

	errorCount := len(errorsChan)
	if errorCount > 0 {
		err := <-errorsChan
		return fmt.Errorf("failed to process %d of %d issues: %w", errorCount, total, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

func (u *Updater) processItem(ctx context.Context, item workItem) error {
	if item.resolved != nil {
		i := item.resolved
		// Both the first-seen and the final feature states.
		for _, before := range []time.Time{i.CreatedAt, i.ResolvedAt} {
			if _, err := u.builder.Build(ctx, *i, before); err != nil {
				if errors.Is(err, ErrIsPullRequest) {
					u.logger.Error("skipping pull request", "issue", i.Key().String())
					return nil
				}
				return err
			}
		}
		return nil
	}

	i := item.open
	lastUpdated := i.CreatedAt
	for _, e := range i.Events {
		if e.Time.After(lastUpdated) {
			lastUpdated = e.Time
		}
	}

	cutoff, exists, err := u.store.LatestSnapshotCutoff(ctx, i.Owner, i.Name, i.Number)
	if err != nil {
		return err
	}
	if exists && !cutoff.Before(lastUpdated) {
		u.logger.Info("no need to update", "issue", i.Key().String())
		return nil
	}

	if _, err := u.builder.Build(ctx, *i, i.UpdatedAt); err != nil {
		if errors.Is(err, ErrIsPullRequest) {
			u.logger.Error("skipping pull request", "issue", i.Key().String())
			return nil
		}
		return err
	}
	return nil
}
