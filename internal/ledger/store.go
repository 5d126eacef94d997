package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const entryColumns = "id, batch_id, input_path, output_path, output_format, status, error_kind, error_message, input_size, input_mtime, cue_count, duration_ms, finished_at"

// Store manages job history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// dataSourceName carries the pragmas in the DSN so every pooled connection
// gets them, not only the first one.
func dataSourceName(path string) string {
	query := url.Values{}
	query.Add("_pragma", "busy_timeout(5000)")
	query.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + query.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends a job outcome and returns its assigned ID.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if strings.TrimSpace(entry.Input) == "" {
		return 0, errors.New("entry input is empty")
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            batch_id, input_path, output_path, output_format, status, error_kind,
            error_message, input_size, input_mtime, cue_count, duration_ms, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.BatchID,
		entry.Input,
		nullableString(entry.Output),
		entry.Format,
		string(entry.Status),
		nullableString(entry.ErrorKind),
		nullableString(entry.ErrorMessage),
		entry.InputSize,
		nullableTime(entry.InputModTime),
		entry.Cues,
		entry.Duration.Milliseconds(),
		entry.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// LastSuccess returns the most recent successful entry for input, or nil.
func (s *Store) LastSuccess(ctx context.Context, input string) (*Entry, error) {
	var entry *Entry
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT `+entryColumns+` FROM jobs WHERE input_path = ? AND status = ? ORDER BY id DESC LIMIT 1`,
			input,
			string(StatusDone),
		)
		var scanErr error
		entry, scanErr = scanEntry(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last success: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM jobs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Batch returns the entries recorded for one batch in insertion order.
func (s *Store) Batch(ctx context.Context, batchID string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM jobs WHERE batch_id = ? ORDER BY id`, batchID)
}

// Prune deletes entries finished before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE finished_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return entries, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		output      sql.NullString
		status      string
		errorKind   sql.NullString
		errorMsg    sql.NullString
		mtimeRaw    sql.NullString
		durationMS  int64
		finishedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.BatchID,
		&entry.Input,
		&output,
		&entry.Format,
		&status,
		&errorKind,
		&errorMsg,
		&entry.InputSize,
		&mtimeRaw,
		&entry.Cues,
		&durationMS,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	entry.Output = output.String
	entry.Status = Status(status)
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMsg.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.InputModTime = parseTime(mtimeRaw.String)
	entry.FinishedAt = parseTime(finishedRaw)
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
