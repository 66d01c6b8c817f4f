package models

import (
	"fmt"
	"time"
)

const (
	// GhostUser is the login GitHub substitutes for deleted accounts.
	GhostUser = "ghost"

	// WebFlowUser is the committer identity for merges and edits made
	// through the GitHub web UI.
	WebFlowUser = "web-flow"
)

// IssueKey identifies one issue within one repository.
type IssueKey struct {
	Owner  string
	Name   string
	Number int
}

func (k IssueKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Owner, k.Name, k.Number)
}

// RepoIssue is the raw record of an issue or pull request.
type RepoIssue struct {
	Owner     string
	Name      string
	Number    int
	User      string
	Title     string
	Body      string
	State     string
	IsPull    bool
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// RepoCommit is the raw record of a commit.
type RepoCommit struct {
	Owner       string
	Name        string
	SHA         string
	Author      string
	Committer   string
	AuthoredAt  time.Time
	CommittedAt time.Time
}

// Event types consumed by the replayer; other types only contribute
// their actor.
const (
	EventLabeled   = "labeled"
	EventUnlabeled = "unlabeled"
	EventCommented = "commented"
)

// IssueEvent is one entry in an issue's append-only timeline. An empty
// Actor means the actor is unknown. Label and Comment are the payloads
// for the labeled/unlabeled and commented types respectively.
type IssueEvent struct {
	Type    string
	Actor   string
	Time    time.Time
	Label   string
	Comment string
}

// ResolvedIssue is an issue known to have been closed by a tracked
// resolution, together with its full event log.
type ResolvedIssue struct {
	Owner             string
	Name              string
	Number            int
	CreatedAt         time.Time
	ResolvedAt        time.Time
	ResolverCommitNum int
	Events            []IssueEvent
}

// OpenIssue is an issue with no known resolution yet.
type OpenIssue struct {
	Owner     string
	Name      string
	Number    int
	CreatedAt time.Time
	UpdatedAt time.Time
	Events    []IssueEvent
}

// TrainingIssue is the common view of resolved and open issues accepted
// by the snapshot builder.
type TrainingIssue interface {
	Key() IssueKey
	IssueCreatedAt() time.Time
	EventLog() []IssueEvent
	// Resolved reports whether the issue's resolution outcome is known.
	Resolved() bool
	// Resolution returns the resolver commit count, or -1 when the
	// outcome is still unknown.
	Resolution() int
}

func (i ResolvedIssue) Key() IssueKey             { return IssueKey{i.Owner, i.Name, i.Number} }
func (i ResolvedIssue) IssueCreatedAt() time.Time { return i.CreatedAt }
func (i ResolvedIssue) EventLog() []IssueEvent    { return i.Events }
func (i ResolvedIssue) Resolved() bool            { return true }
func (i ResolvedIssue) Resolution() int           { return i.ResolverCommitNum }

func (i OpenIssue) Key() IssueKey             { return IssueKey{i.Owner, i.Name, i.Number} }
func (i OpenIssue) IssueCreatedAt() time.Time { return i.CreatedAt }
func (i OpenIssue) EventLog() []IssueEvent    { return i.Events }
func (i OpenIssue) Resolved() bool            { return false }
func (i OpenIssue) Resolution() int           { return -1 }

// MonthCount is one point of a monthly time series.
type MonthCount struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// Repo is repository metadata plus its monthly activity series.
type Repo struct {
	Owner          string
	Name           string
	Language       string
	MonthlyStars   []MonthCount
	MonthlyPulls   []MonthCount
	MonthlyCommits []MonthCount
}

// UserFeature summarizes one user's history as of some cutoff.
type UserFeature struct {
	Name            string `json:"name"`
	Commits         int    `json:"n_commits"`
	Issues          int    `json:"n_issues"`
	Pulls           int    `json:"n_pulls"`
	ResolverCommits []int  `json:"resolver_commits"`
}

// LabelCategory counts how many of an issue's labels fall into each
// semantic category. Categories are not mutually exclusive.
type LabelCategory struct {
	Bug       int `json:"bug"`
	Feature   int `json:"feature"`
	Test      int `json:"test"`
	Build     int `json:"build"`
	Doc       int `json:"doc"`
	Coding    int `json:"coding"`
	Enhance   int `json:"enhance"`
	GFI       int `json:"gfi"`
	Medium    int `json:"medium"`
	Major     int `json:"major"`
	Triaged   int `json:"triaged"`
	Untriaged int `json:"untriaged"`
}

// Readability holds the four readability scores of a text blob.
type Readability struct {
	ColemanLiau          float64 `json:"coleman_liau_index"`
	FleschReadingEase    float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade   float64 `json:"flesch_kincaid_grade"`
	AutomatedReadability float64 `json:"automated_readability_index"`
}

// Snapshot is the persisted feature vector for one issue as of one
// cutoff. At most one exists per (owner, name, number, before).
type Snapshot struct {
	Owner             string
	Name              string
	Number            int
	CreatedAt         time.Time
	ClosedAt          *time.Time
	Before            time.Time
	ResolverCommitNum int

	// Content.
	Title         string
	Body          string
	TitleWords    int
	BodyWords     int
	CodeSnippets  int
	URLs          int
	Images        int
	Readability   Readability
	Labels        []string
	LabelCategory LabelCategory

	// Background.
	ReporterFeat        UserFeature
	OwnerFeat           UserFeature
	PrevResolverCommits []int
	Stars               int
	Pulls               int
	Commits             int
	Contributors        int
	ClosedIssues        int
	OpenIssues          int
	OpenIssueRatio      float64
	IssueCloseTime      float64

	// Dynamics.
	Comments     []string
	Events       []string
	CommentUsers []UserFeature
	EventUsers   []UserFeature
}

// BuildLog is the advisory lock and progress record for one pipeline
// run. The empty owner/name pair keys a global run. A record with
// UpdateEnd unset is active and blocks further runs for its key.
type BuildLog struct {
	ID                    int64
	Owner                 string
	Name                  string
	PID                   int
	GitHubLogin           string
	UpdateBegin           time.Time
	UpdateEnd             *time.Time
	UpdatedOpenIssues     int
	UpdatedResolvedIssues int
}
