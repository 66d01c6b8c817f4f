// Package db implements the record store for the snapshot pipeline on
// SQLite: raw repository records populated by the collector, computed
// snapshots, and the build-log lock records guarding pipeline runs.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrBuildInProgress is returned by AcquireBuildLog when an active
// build log already exists for the requested key.
var ErrBuildInProgress = errors.New("a dataset build is already in progress for this key")

// DB represents the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repos (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		language TEXT,
		PRIMARY KEY (owner, name)
	);

	CREATE TABLE IF NOT EXISTS repo_month_counts (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		month TIMESTAMP NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (owner, name, kind, month)
	);

	CREATE TABLE IF NOT EXISTS repo_issues (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		user TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		state TEXT NOT NULL,
		is_pull BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		PRIMARY KEY (owner, name, number)
	);

	CREATE TABLE IF NOT EXISTS repo_commits (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		sha TEXT NOT NULL,
		author TEXT NOT NULL,
		committer TEXT NOT NULL,
		authored_at TIMESTAMP NOT NULL,
		committed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (owner, name, sha)
	);

	CREATE TABLE IF NOT EXISTS issue_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		type TEXT NOT NULL,
		actor TEXT,
		time TIMESTAMP NOT NULL,
		label TEXT,
		comment TEXT
	);

	CREATE INDEX IF NOT EXISTS issue_events_by_issue
		ON issue_events (owner, name, number, time);

	CREATE TABLE IF NOT EXISTS resolved_issues (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP NOT NULL,
		resolver_commit_num INTEGER NOT NULL,
		PRIMARY KEY (owner, name, number)
	);

	CREATE TABLE IF NOT EXISTS open_issues (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (owner, name, number)
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		before TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		resolver_commit_num INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		title_words INTEGER NOT NULL,
		body_words INTEGER NOT NULL,
		code_snippets INTEGER NOT NULL,
		urls INTEGER NOT NULL,
		images INTEGER NOT NULL,
		coleman_liau REAL NOT NULL,
		flesch_reading_ease REAL NOT NULL,
		flesch_kincaid_grade REAL NOT NULL,
		automated_readability REAL NOT NULL,
		labels TEXT NOT NULL,
		label_category TEXT NOT NULL,
		reporter_feat TEXT NOT NULL,
		owner_feat TEXT NOT NULL,
		prev_resolver_commits TEXT NOT NULL,
		stars INTEGER NOT NULL,
		pulls INTEGER NOT NULL,
		commits INTEGER NOT NULL,
		contributors INTEGER NOT NULL,
		closed_issues INTEGER NOT NULL,
		open_issues INTEGER NOT NULL,
		open_issue_ratio REAL NOT NULL,
		issue_close_time REAL NOT NULL,
		comments TEXT NOT NULL,
		events TEXT NOT NULL,
		comment_users TEXT NOT NULL,
		event_users TEXT NOT NULL,
		UNIQUE (owner, name, number, before)
	);

	CREATE TABLE IF NOT EXISTS build_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		pid INTEGER NOT NULL,
		github_login TEXT,
		update_begin TIMESTAMP NOT NULL,
		update_end TIMESTAMP,
		updated_open_issues INTEGER NOT NULL DEFAULT 0,
		updated_resolved_issues INTEGER NOT NULL DEFAULT 0
	);

	CREATE UNIQUE INDEX IF NOT EXISTS build_logs_active
		ON build_logs (owner, name) WHERE update_end IS NULL;
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
