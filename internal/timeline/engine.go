// Package timeline maintains the chronologically ordered, deduplicated
// legal event log for one conversation.
package timeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/extract"
	"github.com/acarlier/chronolex/internal/logging"
	"github.com/acarlier/chronolex/internal/score"
	"github.com/acarlier/chronolex/internal/store"
)

// Engine owns the in-memory ordered event set. Ingestion is invoked
// synchronously once per turn, never concurrently for the same engine
// instance, so no internal locking is used.
//
// In-memory state is the source of truth for the current session; the
// store is best-effort durability. A persistence failure never rolls
// back an in-memory acceptance.
type Engine struct {
	st           store.Store // may be nil: memory-only timeline
	events       []event.Event
	fingerprints map[event.Fingerprint]struct{}
	countFn      func(total int)
}

// New builds an engine, seeding it from the store when one is given.
// Malformed persisted entries are skipped with a warning, never fatal.
func New(ctx context.Context, st store.Store) *Engine {
	e := &Engine{
		st:           st,
		fingerprints: make(map[event.Fingerprint]struct{}),
	}
	e.loadFromStore(ctx)
	return e
}

// OnCount registers a callback invoked with the total event count after
// each ingestion; the conversation index owner uses it to track counts.
func (e *Engine) OnCount(fn func(total int)) {
	e.countFn = fn
}

func (e *Engine) loadFromStore(ctx context.Context) {
	if e.st == nil {
		return
	}

	stored, err := e.st.LoadAll(ctx)
	if err != nil {
		logging.Warn("failed to load persisted timeline, starting empty", "error", err)
		return
	}

	skipped := 0
	for _, sv := range stored {
		d, ok := extract.ParseCandidateDate(sv.Date)
		if !ok || sv.Title == "" {
			skipped++
			continue
		}

		ev := event.Event{
			Date:        d,
			Title:       sv.Title,
			Source:      event.Source(sv.Source),
			Type:        sv.EventType,
			Description: sv.Description,
			Score:       sv.Score,
		}

		fp := ev.Fingerprint()
		if _, dup := e.fingerprints[fp]; dup {
			continue
		}
		e.events = append(e.events, ev)
		e.fingerprints[fp] = struct{}{}
	}

	sort.SliceStable(e.events, func(i, j int) bool { return e.events[i].Date.Before(e.events[j].Date) })

	if skipped > 0 {
		logging.Warn("skipped malformed persisted events", "skipped", skipped)
	}
	logging.Info("timeline loaded from store", "events", len(e.events))
}

// Ingest processes a batch of candidates and returns exactly the newly
// accepted events. A malformed candidate fails alone, never the batch;
// store unavailability never aborts in-memory acceptance.
func (e *Engine) Ingest(ctx context.Context, candidates []event.Candidate) []event.Event {
	var accepted []event.Event

	for _, c := range candidates {
		ev, ok := e.buildEvent(c)
		if !ok {
			continue
		}

		fp := ev.Fingerprint()
		if _, dup := e.fingerprints[fp]; dup {
			logging.Debug("duplicate event skipped", "title", ev.Title)
			continue
		}

		ev.Score = score.Significance(ev.Title, ev.Type)

		e.events = append(e.events, ev)
		e.fingerprints[fp] = struct{}{}
		accepted = append(accepted, ev)

		if e.st != nil {
			if err := e.st.Upsert(ctx, ev); err != nil {
				logging.Error("failed to persist event", "title", ev.Title, "error", err)
			}
		}
	}

	sort.SliceStable(e.events, func(i, j int) bool { return e.events[i].Date.Before(e.events[j].Date) })

	if len(accepted) > 0 {
		logging.Info("events added to timeline", "new", len(accepted), "total", len(e.events))
	}
	if e.countFn != nil {
		e.countFn(len(e.events))
	}
	return accepted
}

// IngestChrono ingests version history entries from the legal API's
// chrono endpoint: same pipeline, provenance "chrono", type "version".
func (e *Engine) IngestChrono(ctx context.Context, candidates []event.Candidate) []event.Event {
	tagged := make([]event.Candidate, len(candidates))
	for i, c := range candidates {
		c.Source = event.SourceChrono
		if c.Type == "" {
			c.Type = event.TypeVersion
		}
		tagged[i] = c
	}
	return e.Ingest(ctx, tagged)
}

// buildEvent validates one candidate. Unparseable dates and empty titles
// fail the candidate with a logged warning.
func (e *Engine) buildEvent(c event.Candidate) (event.Event, bool) {
	d, ok := extract.ParseCandidateDate(c.Date)
	if !ok {
		logging.Warn("candidate has unparseable date, skipped", "date", c.Date, "title", c.Title)
		return event.Event{}, false
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		logging.Warn("candidate has no title, skipped", "date", c.Date)
		return event.Event{}, false
	}

	src := c.Source
	if src == "" {
		src = event.SourceLLM
	}

	typ := c.Type
	if typ == "" {
		typ = event.GuessType(title)
	}

	return event.Event{
		Date:        d,
		Title:       title,
		Source:      src,
		Type:        typ,
		Description: c.Description,
	}, true
}

// Events returns the timeline, date-ascending.
func (e *Engine) Events() []event.Event {
	out := make([]event.Event, len(e.events))
	copy(out, e.events)
	return out
}

// EventsRange returns events within the inclusive [start, end] window.
// A nil bound leaves that side unbounded.
func (e *Engine) EventsRange(start, end *time.Time) []event.Event {
	var out []event.Event
	for _, ev := range e.events {
		if start != nil && ev.Date.Before(*start) {
			continue
		}
		if end != nil && ev.Date.After(*end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Len reports the number of accepted events.
func (e *Engine) Len() int {
	return len(e.events)
}

// Clear resets this session's view: in-memory list and fingerprints.
// The persistent store is deliberately untouched; wiping durable history
// is a separate, explicit store operation.
func (e *Engine) Clear() {
	e.events = nil
	e.fingerprints = make(map[event.Fingerprint]struct{})
	logging.Info("timeline cleared")
}
