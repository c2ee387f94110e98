// Package store provides a SQLite-backed record of generated podcasts.
// Each record carries the full conversation transcript and, when narration
// ran, the episode audio manifest as JSON. Records are persisted across
// server restarts and served by the status and listing routes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("store: podcast not found")

// Record is one persisted podcast generation.
type Record struct {
	// ID is the podcast identifier, assigned at generation time.
	ID string
	// DocumentID references the source document.
	DocumentID string
	// Title is the conversation title.
	Title string
	// Status is the terminal conversation status (completed/failed).
	Status string
	// Conversation is the full synthesized transcript.
	Conversation *dialogue.Conversation
	// Episode is the narrated audio manifest. Nil when narration was skipped.
	Episode *voice.Episode
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// PodcastStore persists and retrieves generated podcasts.
// Implementations must be safe for concurrent use.
type PodcastStore interface {
	// Save persists a record. Saving an existing id replaces the record.
	Save(ctx context.Context, rec *Record) error
	// Get returns the record for the id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a PodcastStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the podcast database.
// It resolves to ~/.pdfcast/podcasts.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".pdfcast")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "podcasts.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS podcasts (
    id            TEXT    PRIMARY KEY,
    document_id   TEXT    NOT NULL,
    title         TEXT    NOT NULL,
    status        TEXT    NOT NULL,
    conversation  TEXT    NOT NULL,  -- transcript JSON
    episode       TEXT,              -- narrated audio manifest JSON, NULL if not narrated
    created_at    INTEGER NOT NULL   -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_podcasts_created
    ON podcasts (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_podcasts_document
    ON podcasts (document_id);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Save persists a record, replacing any existing record with the same id.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("store: record must carry an id")
	}
	if rec.Conversation == nil {
		return fmt.Errorf("store: record must carry a conversation")
	}

	convJSON, err := json.Marshal(rec.Conversation)
	if err != nil {
		return fmt.Errorf("store: marshaling conversation: %w", err)
	}

	var episodeJSON sql.NullString
	if rec.Episode != nil {
		raw, err := json.Marshal(rec.Episode)
		if err != nil {
			return fmt.Errorf("store: marshaling episode: %w", err)
		}
		episodeJSON = sql.NullString{String: string(raw), Valid: true}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const q = `
INSERT INTO podcasts (id, document_id, title, status, conversation, episode, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    document_id = excluded.document_id,
    title       = excluded.title,
    status      = excluded.status,
    conversation = excluded.conversation,
    episode     = excluded.episode`
	if _, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.DocumentID, rec.Title, rec.Status,
		string(convJSON), episodeJSON, createdAt.Unix(),
	); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// Get returns the record for the id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	const q = `
SELECT id, document_id, title, status, conversation, episode, created_at
FROM   podcasts
WHERE  id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. limit defaults to 50.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, document_id, title, status, conversation, episode, created_at
FROM   podcasts
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return recs, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord decodes one podcast row, unmarshaling the JSON columns.
func scanRecord(sc scanner) (*Record, error) {
	var (
		rec      Record
		convJSON string
		episode  sql.NullString
		ts       int64
	)
	if err := sc.Scan(&rec.ID, &rec.DocumentID, &rec.Title, &rec.Status, &convJSON, &episode, &ts); err != nil {
		return nil, err
	}

	rec.Conversation = &dialogue.Conversation{}
	if err := json.Unmarshal([]byte(convJSON), rec.Conversation); err != nil {
		return nil, fmt.Errorf("unmarshaling conversation: %w", err)
	}
	if episode.Valid {
		rec.Episode = &voice.Episode{}
		if err := json.Unmarshal([]byte(episode.String), rec.Episode); err != nil {
			return nil, fmt.Errorf("unmarshaling episode: %w", err)
		}
	}
	rec.CreatedAt = time.Unix(ts, 0)
	return &rec, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
