package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

const defaultRecentLimit = 20

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		sourcePath TEXT NOT NULL,
		mode TEXT NOT NULL,
		templateId TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		startedAt INTEGER NOT NULL,
		finishedAt INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_finished ON sessions(finishedAt DESC);
`

// Store keeps completed sessions in SQLite.
type Store struct {
	db *sql.DB
}

var _ ports.History = (*Store)(nil)

// DefaultPath returns the default database path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "scribe", "history.sqlite")
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts record, replacing an earlier record with the same id.
func (s *Store) Save(ctx context.Context, record domain.SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, sourcePath, mode, templateId, transcript, summary, startedAt, finishedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.SourcePath, string(record.Mode), record.TemplateID,
		record.Transcript, record.Summary, record.StartedAt, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sourcePath, mode, templateId, transcript, summary, startedAt, finishedAt
		FROM sessions
		ORDER BY finishedAt DESC, startedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []domain.SessionRecord
	for rows.Next() {
		var r domain.SessionRecord
		var mode string
		if err := rows.Scan(&r.ID, &r.SourcePath, &mode, &r.TemplateID,
			&r.Transcript, &r.Summary, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.Mode = domain.ProcessingMode(mode)
		records = append(records, r)
	}
	return records, rows.Err()
}
