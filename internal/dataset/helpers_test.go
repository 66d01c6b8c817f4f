package dataset

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recgfi/dataset/internal/labels"
	"github.com/recgfi/dataset/internal/models"
	"github.com/recgfi/dataset/internal/text"
)

// suffixLemmatizer strips plural suffixes, enough for label keywords.
type suffixLemmatizer struct{}

func (suffixLemmatizer) Lemma(word string) string {
	if strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		return strings.TrimSuffix(word, "s")
	}
	return word
}

func newTestBuilder(t *testing.T, store Store) *Builder {
	t.Helper()
	categorizer, err := labels.NewCategorizer(suffixLemmatizer{})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBuilder(store, categorizer, text.Scorer{}, logger)
}

func newTestUpdater(t *testing.T, store Store) *Updater {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := NewUpdater(store, newTestBuilder(t, store), logger)
	u.SetWorkers(2)
	return u
}

// day returns a fixed instant offset by n days, so tests can phrase
// cutoffs relative to each other.
func day(n int) time.Time {
	base := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

// seedRepo registers a repository with empty monthly series.
func seedRepo(store *fakeStore, owner, name string) *models.Repo {
	repo := &models.Repo{Owner: owner, Name: name, Language: "Go"}
	store.repos[repoKey(owner, name)] = repo
	return repo
}

func seedIssue(store *fakeStore, issue models.RepoIssue) {
	cp := issue
	store.issues[issueKey(issue.Owner, issue.Name, issue.Number)] = &cp
}

func timePtr(t time.Time) *time.Time { return &t }
