// Package extract pulls dated legal event candidates out of unstructured
// text. It is the fallback path used when no structured LLM extraction is
// available, so every strategy here is best-effort and low-confidence.
package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/logging"
)

// Options control the extraction strategies.
type Options struct {
	// YearFallback enables the bare-year strategy: any 4-digit number in
	// 1900-2099 becomes a January 1st placeholder event. High
	// false-positive rate; on by default for compatibility with the
	// primary extraction path's behavior.
	YearFallback bool
}

// DefaultOptions enables every strategy.
func DefaultOptions() Options {
	return Options{YearFallback: true}
}

const (
	titleCap       = 60
	descriptionCap = 120
)

var (
	jsonArrayRe = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)
	mdRowRe     = regexp.MustCompile(`(?m)^\s*(\d{4})\s*\|\s*([^|]+)\|\s*([^\n]+)`)
	htmlRowRe   = regexp.MustCompile(`(?is)<td[^>]*>\s*(\d{4})\s*</td>\s*<td[^>]*>(.*?)</td>\s*<td[^>]*>(.*?)</td>`)
	proseRe     = regexp.MustCompile(`\d{1,2}\s+\p{L}+\s+\d{4}`)
	bareYearsRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	htmlTagRe   = regexp.MustCompile(`<[^<]+?>`)
)

// Events runs every strategy with default options.
func Events(text string) []event.Candidate {
	return EventsWithOptions(text, DefaultOptions())
}

// EventsWithOptions extracts candidates from free text. An embedded JSON
// array short-circuits the remaining strategies; otherwise markdown
// tables, HTML tables, prose dates and (optionally) bare years are all
// tried cumulatively.
//
// The cumulative strategies are deduplicated by calendar day, first seen
// wins. This is deliberately coarser than the engine's title-aware
// fingerprinting: on the low-confidence heuristics, two extractions
// landing on the same day are overwhelmingly the same underlying event.
// Structured JSON candidates are exempt; the engine's fingerprint keeps
// distinct same-day events apart there.
func EventsWithOptions(text string, opts Options) []event.Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if cands := fromJSON(text); cands != nil {
		logging.Info("timeline JSON block detected", "events", len(cands))
		return sortByDate(cands)
	}

	var cands []event.Candidate
	cands = append(cands, fromMarkdownTables(text)...)
	cands = append(cands, fromHTMLTables(text)...)
	cands = append(cands, fromProseDates(text)...)
	if opts.YearFallback {
		cands = append(cands, fromBareYears(text)...)
	}

	out := dedupByDay(cands)
	logging.Info("heuristic extraction complete", "candidates", len(cands), "unique_days", len(out))
	return out
}

// jsonItem is the shape of one object inside an embedded JSON array.
type jsonItem struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// fromJSON returns nil (not empty) when no usable JSON block is present,
// so the caller knows to keep going.
func fromJSON(text string) []event.Candidate {
	match := jsonArrayRe.FindString(text)
	if match == "" {
		return nil
	}

	var items []jsonItem
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		logging.Debug("bracketed block is not a JSON event array", "error", err)
		return nil
	}

	var cands []event.Candidate
	for _, item := range items {
		d, ok := ParseCandidateDate(item.Date)
		if !ok {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Événement"
		}
		typ := item.Type
		if typ == "" {
			typ = event.TypeModification
		}
		cands = append(cands, candidate(d, title, typ, item.Description))
	}
	if len(cands) == 0 {
		return nil
	}
	return cands
}

// fromMarkdownTables matches "YEAR | title | description" rows.
func fromMarkdownTables(text string) []event.Candidate {
	var cands []event.Candidate
	for _, m := range mdRowRe.FindAllStringSubmatch(text, -1) {
		d, ok := ParseFrenchDate(m[1])
		if !ok {
			continue
		}
		cands = append(cands, candidate(d,
			truncate(strings.TrimSpace(m[2]), titleCap),
			event.TypeModification,
			truncate(strings.TrimSpace(m[3]), descriptionCap)))
	}
	return cands
}

// fromHTMLTables matches <td>year</td><td>title</td><td>desc</td> rows,
// stripping any inner tags from the captured text.
func fromHTMLTables(text string) []event.Candidate {
	var cands []event.Candidate
	for _, m := range htmlRowRe.FindAllStringSubmatch(text, -1) {
		d, ok := ParseFrenchDate(m[1])
		if !ok {
			continue
		}
		title := strings.TrimSpace(htmlTagRe.ReplaceAllString(m[2], ""))
		desc := strings.TrimSpace(htmlTagRe.ReplaceAllString(m[3], ""))
		cands = append(cands, candidate(d,
			truncate(title, titleCap),
			event.TypeModification,
			truncate(desc, descriptionCap)))
	}
	return cands
}

// fromProseDates matches full French dates in running text ("le décret
// du 29 octobre 2020...") and keeps the surrounding text as description.
func fromProseDates(text string) []event.Candidate {
	var cands []event.Candidate
	for _, loc := range proseRe.FindAllStringIndex(text, -1) {
		d, ok := ParseFrenchDate(text[loc[0]:loc[1]])
		if !ok {
			continue
		}

		start := loc[0] - 40
		if start < 0 {
			start = 0
		}
		end := loc[1] + 80
		if end > len(text) {
			end = len(text)
		}
		snippet := strings.ReplaceAll(safeSlice(text, start, end), "\n", " ")

		cands = append(cands, candidate(d, "Texte juridique", event.TypePublication, truncate(snippet, descriptionCap)))
	}
	return cands
}

// fromBareYears is the lowest-confidence strategy: every distinct
// 4-digit year becomes a placeholder event on January 1st.
func fromBareYears(text string) []event.Candidate {
	seen := make(map[string]bool)
	var cands []event.Candidate
	for _, year := range bareYearsRe.FindAllString(text, -1) {
		if seen[year] {
			continue
		}
		seen[year] = true

		d, ok := ParseFrenchDate(year)
		if !ok {
			continue
		}
		cands = append(cands, candidate(d, "Année "+year, event.TypeModification, "Événement détecté automatiquement"))
	}
	return cands
}

func candidate(d time.Time, title, typ, description string) event.Candidate {
	return event.Candidate{
		Date:        d.Format("2006-01-02"),
		Title:       title,
		Type:        typ,
		Description: description,
		Source:      event.SourceHeuristic,
	}
}

// dedupByDay keeps the first candidate seen per calendar day and returns
// the survivors in date order.
func dedupByDay(cands []event.Candidate) []event.Candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]event.Candidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.Date] {
			continue
		}
		seen[c.Date] = true
		out = append(out, c)
	}
	return sortByDate(out)
}

func sortByDate(cands []event.Candidate) []event.Candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Date < cands[j].Date })
	return cands
}

// truncate bounds s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// safeSlice avoids splitting a UTF-8 sequence at byte offsets chosen
// arithmetically.
func safeSlice(s string, start, end int) string {
	for start > 0 && start < len(s) && !isRuneStart(s[start]) {
		start--
	}
	for end < len(s) && !isRuneStart(s[end]) {
		end++
	}
	return s[start:end]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
