package dataset

import (
	"context"
	"sort"
	"time"

	"github.com/recgfi/dataset/internal/models"
)

// replayState accumulates the time-varying state of an issue while its
// event log is folded in chronological order.
type replayState struct {
	labels     []string
	comments   []string
	commenters map[string]struct{}
	actors     map[string]struct{}
}

// replayEvents folds events with time at or before the cutoff. Labeled
// events add to the label list; unlabeled events remove the first
// occurrence and are silently ignored when the label is absent, since
// old issues do not carry their complete label history. Commented
// events record the comment and its author. Every event's actor joins
// the actor set unless it is unknown or the ghost sentinel.
func replayEvents(events []models.IssueEvent, before time.Time) replayState {
	st := replayState{
		commenters: make(map[string]struct{}),
		actors:     make(map[string]struct{}),
	}
	for _, e := range events {
		if e.Time.After(before) {
			continue
		}
		if e.Actor != "" && e.Actor != models.GhostUser {
			st.actors[e.Actor] = struct{}{}
		}
		switch e.Type {
		case models.EventLabeled:
			st.labels = append(st.labels, e.Label)
		case models.EventUnlabeled:
			for i, l := range st.labels {
				if l == e.Label {
					st.labels = append(st.labels[:i], st.labels[i+1:]...)
					break
				}
			}
		case models.EventCommented:
			st.comments = append(st.comments, e.Comment)
			if e.Actor != "" && e.Actor != models.GhostUser {
				st.commenters[e.Actor] = struct{}{}
			}
		}
	}
	return st
}

// dynamics is the replayed state with its actors resolved to full user
// features as of the same cutoff.
type dynamics struct {
	labels       []string
	comments     []string
	commentUsers []models.UserFeature
	eventUsers   []models.UserFeature
}

func (b *Builder) dynamicsData(ctx context.Context, owner, name string, events []models.IssueEvent, before time.Time) (dynamics, error) {
	st := replayEvents(events, before)

	commentUsers, err := b.resolveUsers(ctx, owner, name, st.commenters, before)
	if err != nil {
		return dynamics{}, err
	}
	eventUsers, err := b.resolveUsers(ctx, owner, name, st.actors, before)
	if err != nil {
		return dynamics{}, err
	}

	return dynamics{
		labels:       st.labels,
		comments:     st.comments,
		commentUsers: commentUsers,
		eventUsers:   eventUsers,
	}, nil
}

func (b *Builder) resolveUsers(ctx context.Context, owner, name string, users map[string]struct{}, before time.Time) ([]models.UserFeature, error) {
	names := make([]string, 0, len(users))
	for u := range users {
		names = append(names, u)
	}
	sort.Strings(names)

	feats := make([]models.UserFeature, 0, len(names))
	for _, u := range names {
		f, err := b.userFeature(ctx, owner, name, u, before)
		if err != nil {
			return nil, err
		}
		feats = append(feats, f)
	}
	return feats, nil
}
