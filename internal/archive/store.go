// Package archive persists cleaned transcripts to SQLite so past pipeline
// runs can be listed and re-read without keeping the JSON outputs around.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chatstitch/internal/domain"

	_ "modernc.org/sqlite"
)

// Run is one archived pipeline run.
type Run struct {
	ID        int64
	Source    string
	Partner   string
	RawCount  int
	Final     int
	CreatedAt time.Time
}

// Store keeps archived transcripts in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT NOT NULL,
		partner     TEXT,
		raw_count   INTEGER DEFAULT 0,
		final_count INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		timestamp   TEXT,
		sender      TEXT NOT NULL,
		content     TEXT,
		type        TEXT NOT NULL,
		attachments TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_messages_run ON messages(run_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun archives one cleaned transcript and returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, run Run, messages []domain.Message) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, partner, raw_count, final_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Source, run.Partner, run.RawCount, run.Final, run.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (run_id, position, timestamp, sender, content, type, attachments)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, msg := range messages {
		var attachments sql.NullString
		if len(msg.Attachments) > 0 {
			data, err := json.Marshal(msg.Attachments)
			if err != nil {
				return 0, fmt.Errorf("cannot encode attachments for message %d: %w", i, err)
			}
			attachments = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, i, msg.Timestamp, msg.Sender, msg.Content, msg.Type, attachments); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.Info("archived run", "run_id", runID, "messages", len(messages))
	return runID, nil
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, partner, raw_count, final_count, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Partner, &r.RawCount, &r.Final, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Messages reads back one run's transcript in output order.
func (s *Store) Messages(ctx context.Context, runID int64) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, sender, content, type, attachments
		 FROM messages WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var attachments sql.NullString
		if err := rows.Scan(&m.Timestamp, &m.Sender, &m.Content, &m.Type, &attachments); err != nil {
			return nil, err
		}
		if attachments.Valid {
			if err := json.Unmarshal([]byte(attachments.String), &m.Attachments); err != nil {
				return nil, fmt.Errorf("corrupt attachments for run %d: %w", runID, err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
