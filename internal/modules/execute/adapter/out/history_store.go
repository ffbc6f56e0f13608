package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"magickd/internal/modules/execute/domain"
	executeout "magickd/internal/modules/execute/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(dbPath string) (executeout.HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  commands TEXT NOT NULL,
  exit_code INTEGER NOT NULL,
  stderr TEXT,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create batches table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) RecordBatch(ctx context.Context, record domain.BatchRecord) error {
	const stmt = `
INSERT INTO batches (id, commands, exit_code, stderr, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	lines := make([]string, 0, len(record.Commands))
	for _, command := range record.Commands {
		lines = append(lines, command.String())
	}
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID,
		strings.Join(lines, "\n"),
		record.ExitCode,
		record.Stderr,
		record.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		record.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}
