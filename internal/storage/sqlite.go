// Package storage provides SQLite-based persistence for run history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Run lifecycle statuses recorded in the runs table.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusFailed    = "failed"
)

// Store manages the SQLite database connection for run-history persistence.
type Store struct {
	db *sql.DB
}

// RunEntry represents one simulation run, finished or in flight.
type RunEntry struct {
	ID             int64
	Scenario       string
	Nx, Ny, Nz     int
	TotalSteps     uint64
	CompletedSteps uint64
	Status         string
	StartedAt      time.Time
	FinishedAt     time.Time // zero while the run is in flight
}

// ExportEntry records one field-snapshot export during a run.
type ExportEntry struct {
	ID        int64
	RunID     int64
	Step      uint64
	Dir       string
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			nx INTEGER NOT NULL,
			ny INTEGER NOT NULL,
			nz INTEGER NOT NULL,
			total_steps INTEGER NOT NULL,
			completed_steps INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running',
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			step INTEGER NOT NULL,
			dir TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_exports_run_id ON exports(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(scenario string, nx, ny, nz int, totalSteps uint64) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (scenario, nx, ny, nz, total_steps, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		scenario, nx, ny, nz, totalSteps, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record run start: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// FinishRun records how a run ended and how far it got.
func (s *Store) FinishRun(id int64, completedSteps uint64, status string) error {
	_, err := s.db.Exec(
		`UPDATE runs
		 SET completed_steps = ?, status = ?, finished_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		completedSteps, status, id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run %d: %w", id, err)
	}
	return nil
}

// RecordExport records one snapshot export for a run.
// Returns the ID of the inserted record.
func (s *Store) RecordExport(runID int64, step uint64, dir string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO exports (run_id, step, dir) VALUES (?, ?, ?)",
		runID, step, dir,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record export: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns retrieves the most recently started runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, scenario, nx, ny, nz, total_steps, completed_steps, status, started_at, finished_at
		 FROM runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var startedAt, finishedAt any
		if err := rows.Scan(
			&e.ID, &e.Scenario, &e.Nx, &e.Ny, &e.Nz,
			&e.TotalSteps, &e.CompletedSteps, &e.Status,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.StartedAt = parseTimestamp(startedAt)
		e.FinishedAt = parseTimestamp(finishedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// RunExports retrieves all export records for a run in step order.
func (s *Store) RunExports(runID int64) ([]ExportEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, step, dir, created_at
		 FROM exports
		 WHERE run_id = ?
		 ORDER BY step ASC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query exports: %w", err)
	}
	defer rows.Close()

	var entries []ExportEntry
	for rows.Next() {
		var e ExportEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.RunID, &e.Step, &e.Dir, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// RunByID retrieves a single run, or nil if it does not exist.
func (s *Store) RunByID(id int64) (*RunEntry, error) {
	var e RunEntry
	var startedAt, finishedAt any
	err := s.db.QueryRow(
		`SELECT id, scenario, nx, ny, nz, total_steps, completed_steps, status, started_at, finished_at
		 FROM runs
		 WHERE id = ?`,
		id,
	).Scan(
		&e.ID, &e.Scenario, &e.Nx, &e.Ny, &e.Nz,
		&e.TotalSteps, &e.CompletedSteps, &e.Status,
		&startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	e.StartedAt = parseTimestamp(startedAt)
	e.FinishedAt = parseTimestamp(finishedAt)
	return &e, nil
}

// parseTimestamp handles both time.Time and string column representations.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
