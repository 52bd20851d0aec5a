package store

import (
	"context"

	"github.com/acarlier/chronolex/internal/albert"
	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/logging"
)

// AlbertStore persists events as embedded documents in a remote Albert
// collection and uses semantic search for near-duplicate detection.
//
// Best-effort by design: timeline storage is off the critical path, so
// network failures degrade individual operations to no-ops or empty
// results instead of propagating. A store whose collection never
// initialized stays usable; every operation just does nothing.
type AlbertStore struct {
	client         *albert.Client
	collectionID   string
	collectionName string
	threshold      float64
}

// NewAlbert creates the remote store, lazily finding or creating the
// named collection. Initialization failure is logged and leaves the
// store in a degraded, non-crashing state.
func NewAlbert(ctx context.Context, client *albert.Client, collectionName string, threshold float64) *AlbertStore {
	if collectionName == "" {
		collectionName = "legal_timeline"
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	s := &AlbertStore{
		client:         client,
		collectionName: collectionName,
		threshold:      threshold,
	}

	id, err := client.EnsureCollection(ctx, collectionName, "Timeline des événements juridiques")
	if err != nil {
		logging.Error("albert collection init failed, store degraded", "collection", collectionName, "error", err)
		return s
	}
	s.collectionID = id
	logging.Info("albert timeline store ready", "collection", collectionName, "id", id)
	return s
}

// Ready reports whether the collection initialized.
func (s *AlbertStore) Ready() bool {
	return s.collectionID != ""
}

// Upsert adds the event unless a semantically similar one already
// exists. Failures are logged and swallowed.
func (s *AlbertStore) Upsert(ctx context.Context, e event.Event) error {
	if !s.Ready() {
		return nil
	}

	similar, err := s.SimilarExists(ctx, e, s.threshold)
	if err != nil {
		logging.Warn("similarity check failed, storing anyway", "title", e.Title, "error", err)
	}
	if similar {
		logging.Info("similar event already stored", "title", e.Title)
		return nil
	}

	stored := ToStored(e)
	doc := albert.Document{
		ID:      EventID(e),
		Content: EmbeddingContent(e),
		Metadata: map[string]any{
			"date":        stored.Date,
			"title":       stored.Title,
			"source":      stored.Source,
			"event_type":  stored.EventType,
			"description": stored.Description,
			"score":       stored.Score,
			"timestamp":   stored.Timestamp,
		},
	}

	if err := s.client.AddDocument(ctx, s.collectionID, doc); err != nil {
		logging.Error("failed to store event remotely", "title", e.Title, "error", err)
		return nil
	}
	logging.Info("event stored remotely", "title", e.Title)
	return nil
}

// LoadAll lists documents and materializes their metadata payloads.
// Network failure yields an empty result, not an error.
func (s *AlbertStore) LoadAll(ctx context.Context) ([]StoredEvent, error) {
	if !s.Ready() {
		return nil, nil
	}

	docs, err := s.client.ListDocuments(ctx, s.collectionID)
	if err != nil {
		logging.Error("failed to list remote events", "error", err)
		return nil, nil
	}

	out := make([]StoredEvent, 0, len(docs))
	for _, doc := range docs {
		out = append(out, storedFromMetadata(doc.Metadata))
	}
	logging.Info("loaded remote events", "count", len(out))
	return out, nil
}

// SimilarExists issues a nearest-neighbor query and accepts a duplicate
// verdict when the top similarity score meets the threshold.
//
// Approximate by nature: missed duplicates (false negatives) and novel
// events suppressed as duplicates (false positives) are accepted
// trade-offs of the embedding approach.
func (s *AlbertStore) SimilarExists(ctx context.Context, e event.Event, threshold float64) (bool, error) {
	if !s.Ready() {
		return false, nil
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	results, err := s.client.Search(ctx, s.collectionID, EmbeddingContent(e), 1, threshold)
	if err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, nil
	}

	if results[0].Score >= threshold {
		logging.Info("remote duplicate detected", "title", e.Title, "score", results[0].Score)
		return true, nil
	}
	return false, nil
}

// ClearAll deletes every document in the collection, one by one (the
// API has no bulk delete). Returns true only if all deletions succeeded.
func (s *AlbertStore) ClearAll(ctx context.Context) (bool, error) {
	if !s.Ready() {
		return true, nil
	}

	docs, err := s.client.ListDocuments(ctx, s.collectionID)
	if err != nil {
		logging.Error("failed to list remote events for clear", "error", err)
		return false, nil
	}

	deleted := 0
	for _, doc := range docs {
		if err := s.client.DeleteDocument(ctx, s.collectionID, doc.ID); err != nil {
			logging.Warn("failed to delete remote event", "id", doc.ID, "error", err)
			continue
		}
		deleted++
	}
	logging.Info("remote timeline cleared", "deleted", deleted, "total", len(docs))
	return deleted == len(docs), nil
}

// Stats reports backend metadata.
func (s *AlbertStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		CollectionID:   s.collectionID,
		CollectionName: s.collectionName,
		StorageType:    "albert",
	}
	if !s.Ready() {
		return stats, nil
	}

	docs, err := s.client.ListDocuments(ctx, s.collectionID)
	if err != nil {
		logging.Error("failed to fetch remote stats", "error", err)
		return stats, nil
	}
	stats.TotalEvents = len(docs)
	return stats, nil
}

// storedFromMetadata rebuilds a payload from a document's loosely typed
// metadata; missing or mistyped fields become zero values and are
// filtered at engine load.
func storedFromMetadata(md map[string]any) StoredEvent {
	ev := StoredEvent{}
	if v, ok := md["date"].(string); ok {
		ev.Date = v
	}
	if v, ok := md["title"].(string); ok {
		ev.Title = v
	}
	if v, ok := md["source"].(string); ok {
		ev.Source = v
	}
	if v, ok := md["event_type"].(string); ok {
		ev.EventType = v
	}
	if v, ok := md["description"].(string); ok {
		ev.Description = v
	}
	if v, ok := md["score"].(float64); ok {
		ev.Score = v
	}
	if v, ok := md["timestamp"].(string); ok {
		ev.Timestamp = v
	}
	return ev
}
