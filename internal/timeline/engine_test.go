package timeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/store"
)

func cand(date, title string) event.Candidate {
	return event.Candidate{Date: date, Title: title}
}

func newMemoryEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.NewLocal(t.TempDir(), "conv-test")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return New(context.Background(), st)
}

func TestIngestSingleCandidate(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	accepted := e.Ingest(ctx, []event.Candidate{
		cand("2016-08-08", "Loi n° 2016-1088 relative au travail"),
	})

	if len(accepted) != 1 {
		t.Fatalf("accepted %d events, want 1", len(accepted))
	}
	got := accepted[0]
	if !got.Date.Equal(time.Date(2016, time.August, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got.Date)
	}
	if got.Type != event.TypeLoi {
		t.Errorf("type = %q, want loi", got.Type)
	}
	if got.Source != event.SourceLLM {
		t.Errorf("source = %q, want llm", got.Source)
	}
	// "loi" in type plus "travail" in title.
	if got.Score != 0.6 {
		t.Errorf("score = %v, want 0.6", got.Score)
	}
	if e.Len() != 1 {
		t.Errorf("Len = %d, want 1", e.Len())
	}
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	batch := []event.Candidate{cand("2016-08-08", "Loi Travail")}
	first := e.Ingest(ctx, batch)
	second := e.Ingest(ctx, batch)

	if len(first) != 1 {
		t.Fatalf("first ingest accepted %d, want 1", len(first))
	}
	if len(second) != 0 {
		t.Errorf("second ingest accepted %d, want 0", len(second))
	}
	if e.Len() != 1 {
		t.Errorf("Len = %d, want 1", e.Len())
	}
}

func TestIngestDedupIsCaseAndSpaceInsensitive(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})
	accepted := e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "  loi travail  ")})

	if len(accepted) != 0 {
		t.Errorf("case/space variant accepted as new: %+v", accepted)
	}
}

func TestIngestDedupTruncatesLongTitles(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	prefix := strings.Repeat("a", 100)
	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", prefix+" premier suffixe")})
	accepted := e.Ingest(ctx, []event.Candidate{cand("2016-08-08", prefix+" autre suffixe")})

	if len(accepted) != 0 {
		t.Errorf("titles sharing their first 100 characters were not deduplicated")
	}
}

func TestIngestSameTitleDifferentDays(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})
	accepted := e.Ingest(ctx, []event.Candidate{cand("2017-08-08", "Loi Travail")})

	if len(accepted) != 1 {
		t.Errorf("same title on a different day should be a new event")
	}
}

func TestIngestMalformedCandidateFailsAlone(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	accepted := e.Ingest(ctx, []event.Candidate{
		cand("pas une date", "Texte sans date"),
		cand("2016-08-08", ""),
		cand("2016-08-08", "Loi Travail"),
	})

	if len(accepted) != 1 {
		t.Fatalf("accepted %d events, want 1 (only the valid candidate)", len(accepted))
	}
	if accepted[0].Title != "Loi Travail" {
		t.Errorf("wrong survivor: %+v", accepted[0])
	}
}

func TestIngestKeepsChronologicalOrder(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	e.Ingest(ctx, []event.Candidate{
		cand("2020-01-01", "Texte C"),
		cand("2016-08-08", "Texte A"),
	})
	e.Ingest(ctx, []event.Candidate{cand("2018-06-15", "Texte B")})

	events := e.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if !sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) }) {
		t.Errorf("timeline not date-ascending: %+v", events)
	}
	if events[0].Title != "Texte A" || events[2].Title != "Texte C" {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestIngestChrono(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	accepted := e.IngestChrono(ctx, []event.Candidate{cand("2008-05-01", "Version consolidée")})
	if len(accepted) != 1 {
		t.Fatalf("accepted %d events, want 1", len(accepted))
	}
	if accepted[0].Source != event.SourceChrono {
		t.Errorf("source = %q, want chrono", accepted[0].Source)
	}
	if accepted[0].Type != event.TypeVersion {
		t.Errorf("type = %q, want version", accepted[0].Type)
	}
}

func TestEventsRange(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)

	e.Ingest(ctx, []event.Candidate{
		cand("2017-05-01", "Texte 2017"),
		cand("2018-06-15", "Texte 2018"),
		cand("2019-11-01", "Texte 2019"),
		cand("2020-01-01", "Texte 2020"),
	})

	start := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2019, time.December, 31, 0, 0, 0, 0, time.UTC)

	got := e.EventsRange(&start, &end)
	if len(got) != 2 {
		t.Fatalf("got %d events in range, want 2: %+v", len(got), got)
	}
	if got[0].Title != "Texte 2018" || got[1].Title != "Texte 2019" {
		t.Errorf("unexpected range contents: %+v", got)
	}

	// Inclusive bounds.
	exact := time.Date(2018, time.June, 15, 0, 0, 0, 0, time.UTC)
	if got := e.EventsRange(&exact, &exact); len(got) != 1 {
		t.Errorf("exact-day window returned %d events, want 1", len(got))
	}

	// Nil bounds leave that side open.
	if got := e.EventsRange(nil, &end); len(got) != 3 {
		t.Errorf("open start returned %d events, want 3", len(got))
	}
	if got := e.EventsRange(nil, nil); len(got) != 4 {
		t.Errorf("fully open range returned %d events, want 4", len(got))
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine(t)
	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})

	events := e.Events()
	events[0].Title = "mutated"

	if e.Events()[0].Title != "Loi Travail" {
		t.Error("caller mutation leaked into the engine")
	}
}

func TestEngineSeedsFromStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.NewLocal(dir, "conv-seed")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	e := New(ctx, st)
	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})

	// A fresh engine over the same store sees the persisted event and
	// still deduplicates against it.
	st2, err := store.NewLocal(dir, "conv-seed")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	e2 := New(ctx, st2)
	if e2.Len() != 1 {
		t.Fatalf("reloaded engine has %d events, want 1", e2.Len())
	}
	accepted := e2.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})
	if len(accepted) != 0 {
		t.Errorf("persisted event re-accepted after reload")
	}
}

func TestEngineSkipsMalformedStoredEvents(t *testing.T) {
	ctx := context.Background()

	st := &stubStore{loaded: []store.StoredEvent{
		{Date: "2016-08-08T00:00:00Z", Title: "Loi Travail"},
		{Date: "garbage", Title: "Sans date"},
		{Date: "2017-01-01T00:00:00Z", Title: ""},
	}}

	e := New(ctx, st)
	if e.Len() != 1 {
		t.Errorf("Len = %d, want 1 (malformed entries skipped)", e.Len())
	}
}

func TestEngineMemoryOnly(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)

	accepted := e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})
	if len(accepted) != 1 || e.Len() != 1 {
		t.Errorf("nil-store engine rejected a valid candidate")
	}
}

func TestIngestSurvivesStoreFailure(t *testing.T) {
	ctx := context.Background()
	st := &stubStore{failUpsert: true}
	e := New(ctx, st)

	accepted := e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})
	if len(accepted) != 1 {
		t.Fatalf("accepted %d events despite store failure, want 1", len(accepted))
	}
	if e.Len() != 1 {
		t.Errorf("in-memory acceptance rolled back on store failure")
	}
}

func TestClearLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, _ := store.NewLocal(dir, "conv-clear")
	e := New(ctx, st)
	e.Ingest(ctx, []event.Candidate{cand("2016-08-08", "Loi Travail")})

	e.Clear()
	if e.Len() != 0 {
		t.Errorf("Len = %d after clear, want 0", e.Len())
	}

	persisted, _ := st.LoadAll(ctx)
	if len(persisted) != 1 {
		t.Errorf("session clear removed %d persisted events", 1-len(persisted))
	}
}

func TestOnCountCallback(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)

	var last int
	e.OnCount(func(total int) { last = total })

	e.Ingest(ctx, []event.Candidate{
		cand("2016-08-08", "Loi Travail"),
		cand("2017-09-22", "Ordonnances Macron"),
	})
	if last != 2 {
		t.Errorf("callback saw total %d, want 2", last)
	}
}

// stubStore lets tests control load results and force persistence
// failures.
type stubStore struct {
	loaded     []store.StoredEvent
	failUpsert bool
}

func (s *stubStore) Upsert(context.Context, event.Event) error {
	if s.failUpsert {
		return errors.New("backend down")
	}
	return nil
}

func (s *stubStore) LoadAll(context.Context) ([]store.StoredEvent, error) {
	return s.loaded, nil
}

func (s *stubStore) SimilarExists(context.Context, event.Event, float64) (bool, error) {
	return false, nil
}

func (s *stubStore) ClearAll(context.Context) (bool, error) { return true, nil }

func (s *stubStore) Stats(context.Context) (store.Stats, error) { return store.Stats{}, nil }
