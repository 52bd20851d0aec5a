package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/logging"
)

// SQLiteStore persists events in a SQLite database, one row per event
// keyed by the same content hash as the JSON backend. Duplicate upserts
// are suppressed with INSERT OR IGNORE.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SQLiteStore struct {
	db             *sql.DB
	mu             sync.RWMutex
	conversationID string
}

// OpenSQLite opens (or creates) the database at dbPath, scoped to one
// conversation ("global" when conversationID is empty).
// Uses WAL mode for file-based databases.
func OpenSQLite(dbPath, conversationID string) (*SQLiteStore, error) {
	if conversationID == "" {
		conversationID = "global"
	}

	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db, conversationID: conversationID}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	logging.Info("sqlite timeline store ready", "path", dbPath, "conversation", conversationID)
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		date TEXT NOT NULL,
		title TEXT NOT NULL,
		source TEXT NOT NULL,
		event_type TEXT NOT NULL,
		description TEXT,
		score REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (conversation_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	CREATE INDEX IF NOT EXISTS idx_events_conversation ON events(conversation_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Upsert inserts the event; an existing row with the same id is left
// untouched.
func (s *SQLiteStore) Upsert(ctx context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := ToStored(e)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO events (
			id, conversation_id, date, title, source, event_type, description, score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		EventID(e),
		s.conversationID,
		stored.Date,
		stored.Title,
		stored.Source,
		stored.EventType,
		stored.Description,
		stored.Score,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// LoadAll returns every stored payload for this conversation.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, title, source, event_type, description, score, created_at
		FROM events
		WHERE conversation_id = ?
	`, s.conversationID)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		var description sql.NullString
		var created time.Time
		if err := rows.Scan(&ev.Date, &ev.Title, &ev.Source, &ev.EventType, &description, &ev.Score, &created); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		ev.Description = description.String
		ev.Timestamp = created.UTC().Format(time.RFC3339)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}

// SimilarExists is an exact id check for this backend; threshold is
// ignored.
func (s *SQLiteStore) SimilarExists(ctx context.Context, e event.Event, _ float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM events WHERE conversation_id = ? AND id = ?",
		s.conversationID, EventID(e)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: lookup event: %w", err)
	}
	return n > 0, nil
}

// ClearAll deletes this conversation's rows.
func (s *SQLiteStore) ClearAll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM events WHERE conversation_id = ?", s.conversationID)
	if err != nil {
		return false, fmt.Errorf("store: clear events: %w", err)
	}
	removed, _ := res.RowsAffected()
	logging.Info("sqlite timeline store cleared", "removed", removed)
	return true, nil
}

// Stats reports backend metadata.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM events WHERE conversation_id = ?", s.conversationID).Scan(&n)
	if err != nil {
		return Stats{}, fmt.Errorf("store: count events: %w", err)
	}
	return Stats{
		TotalEvents:    n,
		CollectionID:   s.conversationID,
		CollectionName: "timeline_" + s.conversationID,
		StorageType:    "sqlite",
	}, nil
}
