// Package journal keeps a local sqlite history of extraction runs.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/s1f/internal/extract"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at  TEXT NOT NULL,
    input       TEXT NOT NULL,
    dest        TEXT NOT NULL,
    created     INTEGER NOT NULL DEFAULT 0,
    overwritten INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    cancelled   INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
    run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq      INTEGER NOT NULL,
    path     TEXT NOT NULL,
    status   TEXT NOT NULL,
    bytes    INTEGER NOT NULL DEFAULT 0,
    encoding TEXT NOT NULL DEFAULT '',
    checksum TEXT NOT NULL DEFAULT '',
    error    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS files_path ON files(path);
`

// schemaVersion is bumped when the tables change incompatibly.
const schemaVersion = "1"

const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	db *sql.DB
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	db.Exec("INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Run is one recorded extraction.
type Run struct {
	ID          int64
	StartedAt   time.Time
	Input       string
	Dest        string
	Created     int
	Overwritten int
	Failed      int
	Skipped     int
	Cancelled   bool
	Duration    time.Duration
}

// FileRow is one file of a recorded run.
type FileRow struct {
	Path     string
	Status   string
	Bytes    int
	Encoding string
	Checksum string
	Error    string
}

// Record stores res and its per-file outcomes in one transaction.
func (d *DB) Record(input, dest string, started time.Time, res *extract.Result) (int64, error) {
	cancelled := 0
	if res.Cancelled {
		cancelled = 1
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	out, err := tx.Exec(
		`INSERT INTO runs (started_at, input, dest, created, overwritten, failed, skipped, cancelled, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(timeLayout),
		input,
		dest,
		res.FilesCreated,
		res.FilesOverwritten,
		res.FilesFailed,
		res.FilesSkipped,
		cancelled,
		res.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO files (run_id, seq, path, status, bytes, encoding, checksum, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, f := range res.Files {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if _, err := stmt.Exec(id, i, f.Path, string(f.Status), f.Bytes, f.Encoding, f.Checksum.String(), msg); err != nil {
			return 0, fmt.Errorf("insert file %s: %w", f.Path, err)
		}
	}
	return id, tx.Commit()
}

// Recent returns the latest runs, newest first.
func (d *DB) Recent(limit int) ([]Run, error) {
	rows, err := d.db.Query(
		`SELECT id, started_at, input, dest, created, overwritten, failed, skipped, cancelled, duration_ms
		 FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var ms int64
		if err := rows.Scan(&r.ID, &started, &r.Input, &r.Dest, &r.Created, &r.Overwritten, &r.Failed, &r.Skipped, &r.Cancelled, &ms); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (d *DB) Files(runID int64) ([]FileRow, error) {
	rows, err := d.db.Query(
		"SELECT path, status, bytes, encoding, checksum, error FROM files WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Status, &f.Bytes, &f.Encoding, &f.Checksum, &f.Error); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

func (d *DB) FileCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

// SchemaVersion returns the version recorded when the journal was created.
func (d *DB) SchemaVersion() (string, error) {
	var v string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}
