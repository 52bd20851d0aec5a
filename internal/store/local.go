package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/logging"
)

// LocalStore keeps events in a single JSON object file, keyed by content
// hash. Every mutation rewrites the whole file, so durability is "last
// full write wins": concurrent processes writing the same conversation's
// file are unsupported and may lose updates. A single writer per
// conversation is assumed.
type LocalStore struct {
	mu     sync.Mutex
	path   string
	events map[string]StoredEvent

	collectionID   string
	collectionName string
}

// NewLocal opens (or creates) the JSON store for a conversation.
// With an empty conversationID the global fallback file is used.
// An unreadable or corrupt file is treated as an empty store.
func NewLocal(dataDir, conversationID string) (*LocalStore, error) {
	if dataDir == "" {
		dataDir = "data"
	}

	var path string
	collectionID := conversationID
	collectionName := "timeline_global"
	if conversationID != "" {
		path = filepath.Join(dataDir, "conversations", conversationID, "timeline_events.json")
		collectionName = "timeline_" + conversationID
	} else {
		path = filepath.Join(dataDir, "timeline_events.json")
		collectionID = "global"
	}

	return NewLocalFile(path, collectionID, collectionName)
}

// NewLocalFile opens a store at an explicit path.
func NewLocalFile(path, collectionID, collectionName string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("store: create directory for %s: %w", path, err)
	}

	s := &LocalStore{
		path:           path,
		events:         loadEventsFile(path),
		collectionID:   collectionID,
		collectionName: collectionName,
	}
	logging.Info("local timeline store ready", "file", path, "events", len(s.events))
	return s, nil
}

// loadEventsFile reads the mapping, degrading to empty on any problem.
// Corruption is logged, never fatal.
func loadEventsFile(path string) map[string]StoredEvent {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Error("failed to read timeline store", "file", path, "error", err)
		}
		return make(map[string]StoredEvent)
	}

	events := make(map[string]StoredEvent)
	if err := json.Unmarshal(data, &events); err != nil {
		logging.Error("corrupt timeline store, starting empty", "file", path, "error", err)
		return make(map[string]StoredEvent)
	}
	return events
}

// save rewrites the whole file. Caller must hold s.mu.
func (s *LocalStore) save() error {
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal events: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	logging.Debug("timeline store saved", "file", s.path, "events", len(s.events))
	return nil
}

// Upsert stores the event unless its hash is already present.
func (s *LocalStore) Upsert(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := EventID(e)
	if _, ok := s.events[id]; ok {
		logging.Debug("event already stored", "title", e.Title)
		return nil
	}

	s.events[id] = ToStored(e)
	if err := s.save(); err != nil {
		// Keep the in-memory entry: the next successful save persists it.
		return err
	}
	logging.Info("event stored", "title", e.Title)
	return nil
}

// LoadAll returns every stored payload, order unspecified.
func (s *LocalStore) LoadAll(_ context.Context) ([]StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StoredEvent, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	return out, nil
}

// SimilarExists is an exact hash check for this backend; threshold is
// ignored.
func (s *LocalStore) SimilarExists(_ context.Context, e event.Event, _ float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.events[EventID(e)]
	return ok, nil
}

// ClearAll empties the mapping and rewrites the file.
func (s *LocalStore) ClearAll(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.events)
	s.events = make(map[string]StoredEvent)
	if err := s.save(); err != nil {
		return false, err
	}
	logging.Info("timeline store cleared", "removed", count)
	return true, nil
}

// Stats reports backend metadata.
func (s *LocalStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		TotalEvents:    len(s.events),
		CollectionID:   s.collectionID,
		CollectionName: s.collectionName,
		StorageFile:    s.path,
		StorageType:    "local_json",
	}, nil
}

// ExportTo writes the full mapping to another file.
func (s *LocalStore) ExportTo(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal events: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("store: export to %s: %w", path, err)
	}
	logging.Info("timeline exported", "file", path, "events", len(s.events))
	return nil
}

// ImportFrom merges a previously exported mapping into this store.
// Imported entries overwrite existing ones on key collision.
func (s *LocalStore) ImportFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read import file: %w", err)
	}

	imported := make(map[string]StoredEvent)
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("store: parse import file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ev := range imported {
		s.events[id] = ev
	}
	if err := s.save(); err != nil {
		return err
	}
	logging.Info("timeline imported", "file", path, "events", len(imported))
	return nil
}
