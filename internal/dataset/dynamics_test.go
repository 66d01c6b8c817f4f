package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recgfi/dataset/internal/models"
)

func TestReplayUnlabeledWithoutPriorLabel(t *testing.T) {
	// Old issues do not carry their full label history; a dangling
	// unlabel is ignored.
	events := []models.IssueEvent{
		{Type: models.EventUnlabeled, Actor: "bob", Time: day(1), Label: "x"},
	}
	st := replayEvents(events, day(2))
	assert.Empty(t, st.labels)
}

func TestReplayLabelLifecycle(t *testing.T) {
	events := []models.IssueEvent{
		{Type: models.EventLabeled, Actor: "a", Time: day(1), Label: "bug"},
		{Type: models.EventLabeled, Actor: "a", Time: day(2), Label: "help wanted"},
		{Type: models.EventUnlabeled, Actor: "a", Time: day(3), Label: "bug"},
	}
	st := replayEvents(events, day(4))
	assert.Equal(t, []string{"help wanted"}, st.labels)
}

func TestReplayStopsAtCutoff(t *testing.T) {
	events := []models.IssueEvent{
		{Type: models.EventLabeled, Actor: "a", Time: day(1), Label: "bug"},
		{Type: models.EventUnlabeled, Actor: "a", Time: day(3), Label: "bug"},
	}
	st := replayEvents(events, day(2))
	assert.Equal(t, []string{"bug"}, st.labels)

	// Inclusive at the boundary.
	st = replayEvents(events, day(3))
	assert.Empty(t, st.labels)
}

func TestReplayDuplicateLabels(t *testing.T) {
	// A label applied twice survives one removal.
	events := []models.IssueEvent{
		{Type: models.EventLabeled, Actor: "a", Time: day(1), Label: "bug"},
		{Type: models.EventLabeled, Actor: "a", Time: day(2), Label: "bug"},
		{Type: models.EventUnlabeled, Actor: "a", Time: day(3), Label: "bug"},
	}
	st := replayEvents(events, day(4))
	assert.Equal(t, []string{"bug"}, st.labels)
}

func TestReplayActorsAndCommenters(t *testing.T) {
	events := []models.IssueEvent{
		{Type: models.EventLabeled, Actor: "alice", Time: day(1), Label: "bug"},
		{Type: models.EventCommented, Actor: "bob", Time: day(2), Comment: "same here"},
		{Type: models.EventCommented, Actor: models.GhostUser, Time: day(2), Comment: "gone"},
		{Type: "assigned", Actor: "carol", Time: day(3)},
		{Type: "milestoned", Actor: "", Time: day(3)},
	}
	st := replayEvents(events, day(4))

	assert.Equal(t, map[string]struct{}{"bob": {}}, st.commenters)
	assert.Equal(t, map[string]struct{}{"alice": {}, "bob": {}, "carol": {}}, st.actors)
	// The ghost comment text still counts as a comment.
	assert.Equal(t, []string{"same here", "gone"}, st.comments)
}

func TestReplayUnknownEventTypesOnlyContributeActors(t *testing.T) {
	events := []models.IssueEvent{
		{Type: "referenced", Actor: "dave", Time: day(1)},
	}
	st := replayEvents(events, day(2))
	assert.Empty(t, st.labels)
	assert.Empty(t, st.comments)
	assert.Equal(t, map[string]struct{}{"dave": {}}, st.actors)
}
