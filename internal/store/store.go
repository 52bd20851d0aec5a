// Package store provides persistence backends for the legal timeline.
//
// Three interchangeable implementations exist behind the Store
// interface: a local JSON file store, a SQLite store, and a remote
// semantic-search store backed by the Albert API. The timeline engine
// does not depend on which one is active.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/acarlier/chronolex/internal/event"
)

// StoredEvent is the materialized payload persisted for one event.
// This layout is also the local backend's on-disk JSON shape.
type StoredEvent struct {
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	EventType   string  `json:"event_type"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Stats is introspection-only backend metadata.
type Stats struct {
	TotalEvents    int    `json:"total_events"`
	CollectionID   string `json:"collection_id"`
	CollectionName string `json:"collection_name"`
	StorageFile    string `json:"storage_file,omitempty"`
	StorageType    string `json:"storage_type"`
}

// Store is the capability contract every backend implements.
//
// Upsert is idempotent: a backend-level duplicate check (exact hash for
// the local backends, semantic similarity for the remote one) suppresses
// re-insertion of an already-known event.
type Store interface {
	Upsert(ctx context.Context, e event.Event) error
	// LoadAll returns every stored event payload, order unspecified.
	LoadAll(ctx context.Context) ([]StoredEvent, error)
	// SimilarExists reports whether a near-duplicate of e is already
	// stored. Threshold is only meaningful for semantic backends.
	SimilarExists(ctx context.Context, e event.Event, threshold float64) (bool, error)
	// ClearAll deletes all stored events. Safe on an empty store.
	ClearAll(ctx context.Context) (bool, error)
	Stats(ctx context.Context) (Stats, error)
}

// DefaultSimilarityThreshold is the semantic near-duplicate cutoff.
const DefaultSimilarityThreshold = 0.85

// EventID derives the stable storage key for an event:
// SHA-256 over the ISO date and title.
func EventID(e event.Event) string {
	key := e.Date.Format(time.RFC3339) + "-" + e.Title
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ToStored materializes an event into its persisted payload, stamping
// the write time.
func ToStored(e event.Event) StoredEvent {
	return StoredEvent{
		Date:        e.Date.Format(time.RFC3339),
		Title:       e.Title,
		Source:      string(e.Source),
		EventType:   e.Type,
		Description: e.Description,
		Score:       e.Score,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// EmbeddingContent is the text embedded for semantic dedup: the date
// plus the title, the same fields that form the exact fingerprint.
func EmbeddingContent(e event.Event) string {
	return e.Date.Format("2006-01-02") + " " + e.Title
}
