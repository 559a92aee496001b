package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "foldcount.db"

// ErrRunNotFound is returned when a run ID has no history row.
var ErrRunNotFound = errors.New("history: run not found")

type DB struct {
	*sql.DB
	path string
}

// Run is a recorded pipeline run, without its entries.
type Run struct {
	ID            uuid.UUID     `yaml:"run_id" json:"run_id"`
	Input         string        `yaml:"input" json:"input"`
	Folds         int           `yaml:"folds" json:"folds"`
	TopK          int           `yaml:"top_k" json:"top_k"`
	Chunks        int           `yaml:"chunks" json:"chunks"`
	Merged        int           `yaml:"merged" json:"merged"`
	DistinctWords int           `yaml:"distinct_words" json:"distinct_words"`
	TotalWords    int           `yaml:"total_words" json:"total_words"`
	SourceBytes   int64         `yaml:"source_bytes" json:"source_bytes"`
	Warnings      int           `yaml:"warnings" json:"warnings"`
	Elapsed       time.Duration `yaml:"elapsed" json:"elapsed"`
	CreatedAt     time.Time     `yaml:"created_at" json:"created_at"`
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the history database at path.
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultDBName
	}

	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the tables if they don't exist.
func (db *DB) InitSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordRun stores a finished run and its ranked entries.
func (db *DB) RecordRun(input string, folds, topK int, report *api.Report) error {
	if report == nil {
		return errors.New("history: report can't be nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, input, folds, top_k, chunks, merged, distinct_words,
			total_words, source_bytes, warnings, elapsed_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID.String(), input, folds, topK,
		report.Chunks, report.Merged, report.DistinctWords, report.TotalWords,
		report.SourceBytes, len(report.Warnings), int64(report.Elapsed),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_entries (run_id, rank, word, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range report.Entries {
		if _, err := stmt.Exec(report.RunID.String(), i+1, e.Word, e.Count); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", e.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT run_id, input, folds, top_k, chunks, merged, distinct_words,
		       total_words, source_bytes, warnings, elapsed_ns, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun returns a single run by ID.
func (db *DB) GetRun(id uuid.UUID) (Run, error) {
	row := db.QueryRow(`
		SELECT run_id, input, folds, top_k, chunks, merged, distinct_words,
		       total_words, source_bytes, warnings, elapsed_ns, created_at
		FROM runs WHERE run_id = ?`, id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// RunEntries returns the ranked entries of a run in rank order.
func (db *DB) RunEntries(id uuid.UUID) ([]api.Entry, error) {
	rows, err := db.Query(`
		SELECT word, count FROM run_entries
		WHERE run_id = ?
		ORDER BY rank`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []api.Entry{}
	for rows.Next() {
		var e api.Entry
		if err := rows.Scan(&e.Word, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run       Run
		id        string
		elapsed   int64
		createdAt int64
	)

	err := s.Scan(
		&id, &run.Input, &run.Folds, &run.TopK, &run.Chunks, &run.Merged,
		&run.DistinctWords, &run.TotalWords, &run.SourceBytes, &run.Warnings,
		&elapsed, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.Elapsed = time.Duration(elapsed)
	run.CreatedAt = time.Unix(0, createdAt)

	return run, nil
}
