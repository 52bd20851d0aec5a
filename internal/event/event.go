// Package event defines the canonical legal timeline event record,
// the candidate descriptor produced by extraction, and the fingerprint
// used for exact-match deduplication.
package event

import (
	"strings"
	"time"
)

// Source identifies which subsystem produced an event candidate.
// Provenance only: it never affects dedup or scoring.
type Source string

const (
	SourceLLM       Source = "llm"
	SourceChrono    Source = "chrono"
	SourceHeuristic Source = "heuristic"
)

// Recognized event types. The set is open-ended (Type is a plain string)
// but these drive scoring and display.
const (
	TypeLoi           = "loi"
	TypeDecret        = "decret"
	TypeArrete        = "arrete"
	TypeOrdonnance    = "ordonnance"
	TypeJurisprudence = "jurisprudence"
	TypeVersion       = "version"
	TypeTexte         = "texte"
	TypePublication   = "publication"
	TypeModification  = "modification"
)

// Event is one accepted legal timeline event. Immutable after acceptance
// by the engine; date identity is day-granular (time of day is ignored).
type Event struct {
	Date        time.Time
	Title       string
	Source      Source
	Type        string
	Description string
	Score       float64
}

// Candidate is an unvalidated, pre-dedup event descriptor. Both producers
// (LLM extraction and the free-text heuristics) construct this one shape
// before anything reaches the engine.
type Candidate struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Source      Source `json:"-"`
}

// fingerprintTitleLen bounds the normalized title prefix. Truncation
// absorbs trailing variation in LLM-extracted titles while keeping
// genuinely different legal texts apart.
const fingerprintTitleLen = 100

// Fingerprint is the (day, normalized title prefix) dedup key.
// Two events are duplicates iff their fingerprints are equal.
type Fingerprint struct {
	Date  string // YYYY-MM-DD
	Title string
}

// Fingerprint computes the event's dedup key: the calendar day plus the
// lower-cased, trimmed title truncated to 100 characters.
func (e Event) Fingerprint() Fingerprint {
	title := strings.ToLower(strings.TrimSpace(e.Title))
	if r := []rune(title); len(r) > fingerprintTitleLen {
		title = string(r[:fingerprintTitleLen])
	}
	return Fingerprint{
		Date:  e.Date.Format("2006-01-02"),
		Title: title,
	}
}

// GuessType classifies an event from its title. Substring checks, in
// order; defaults to "texte" when nothing matches.
func GuessType(title string) string {
	t := strings.ToLower(title)

	switch {
	case strings.Contains(t, "loi"):
		return TypeLoi
	case strings.Contains(t, "décret"), strings.Contains(t, "decret"):
		return TypeDecret
	case strings.Contains(t, "arrêté"), strings.Contains(t, "arrete"):
		return TypeArrete
	case strings.Contains(t, "ordonnance"):
		return TypeOrdonnance
	case strings.Contains(t, "jurisprudence"), strings.Contains(t, "arrêt "):
		return TypeJurisprudence
	}
	return TypeTexte
}
