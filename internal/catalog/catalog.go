// Package catalog persists a per-run audit trail of knowledge ingestion in
// a local SQLite database. It answers "when did we last ingest, what went
// in, and what was skipped" without querying the vector store.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Catalog is an append-only ledger of ingestion runs backed by SQLite.
type Catalog struct {
	db *sql.DB
}

// Run is one recorded ingestion run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Products   int
	QAs        int
	Skipped    int
}

// DefaultDBPath returns the default catalog location under the user's home
// directory (~/.finkb/catalog.db), falling back to the working directory
// when the home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "catalog.db"
	}
	return filepath.Join(home, ".finkb", "catalog.db")
}

// Open opens (or creates) the catalog database at path and applies the
// schema. The parent directory is created if needed.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	// modernc.org/sqlite serialises writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent use.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	status      TEXT NOT NULL,
	products    INTEGER NOT NULL DEFAULT 0,
	qas         INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_files (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   INTEGER NOT NULL REFERENCES runs(id),
	category TEXT NOT NULL,
	path     TEXT NOT NULL,
	status   TEXT NOT NULL,
	detail   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);
`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("catalog: apply schema: %w", err)
	}
	return nil
}

// StartRun records the beginning of an ingestion run and returns a RunLog
// for recording its files and outcome.
func (c *Catalog) StartRun(ctx context.Context) (*RunLog, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, status) VALUES (?, ?)`,
		time.Now().UTC(), RunStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("catalog: start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: start run: %w", err)
	}
	return &RunLog{catalog: c, runID: id}, nil
}

// LastRun returns the most recently started run, or sql.ErrNoRows when the
// catalog is empty.
func (c *Catalog) LastRun(ctx context.Context) (*Run, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, started_at), status, products, qas, skipped
		 FROM runs ORDER BY id DESC LIMIT 1`)

	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Products, &r.QAs, &r.Skipped); err != nil {
		return nil, err
	}
	return &r, nil
}

// Files returns the per-file records of a run in insertion order.
func (c *Catalog) Files(ctx context.Context, runID int64) ([]FileRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT category, path, status, detail FROM run_files WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Category, &f.Path, &f.Status, &f.Detail); err != nil {
			return nil, fmt.Errorf("catalog: scan file record: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Ping verifies the database is reachable. Used by readiness probes.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// FileRecord is one per-file entry of a run.
type FileRecord struct {
	Category string
	Path     string
	Status   string
	Detail   string
}

// RunLog records the files and outcome of a single in-flight run. It
// implements ingestion.Recorder.
type RunLog struct {
	catalog *Catalog
	runID   int64
}

// ID returns the run's catalog identifier.
func (l *RunLog) ID() int64 { return l.runID }

// RecordFile appends one file record to the run.
func (l *RunLog) RecordFile(ctx context.Context, category, path, status, detail string) error {
	_, err := l.catalog.db.ExecContext(ctx,
		`INSERT INTO run_files (run_id, category, path, status, detail) VALUES (?, ?, ?, ?, ?)`,
		l.runID, category, path, status, detail)
	if err != nil {
		return fmt.Errorf("catalog: record file: %w", err)
	}
	return nil
}

// Finish marks the run finished with the given counts. failed toggles the
// terminal status.
func (l *RunLog) Finish(ctx context.Context, products, qas, skipped int, failed bool) error {
	status := RunStatusComplete
	if failed {
		status = RunStatusFailed
	}
	_, err := l.catalog.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, products = ?, qas = ?, skipped = ? WHERE id = ?`,
		time.Now().UTC(), status, products, qas, skipped, l.runID)
	if err != nil {
		return fmt.Errorf("catalog: finish run: %w", err)
	}
	return nil
}
