// Package score assigns a legal-significance score to timeline events.
//
// The score is a heuristic proxy for "how likely is this event to matter
// to a legal-history timeline", not a calibrated probability. It is used
// for display emphasis only.
package score

import "strings"

// Additive weights, capped at 1.0.
const (
	weightLoi     = 0.4
	weightDecret  = 0.2
	weightReform  = 0.3
	weightSubject = 0.2
)

// reformKeywords mark structural changes to the law itself.
var reformKeywords = []string{"réforme", "codification"}

// subjectKeywords reward labor/social subject matter, the corpus this
// assistant is most often asked about.
var subjectKeywords = []string{"travail", "social", "emploi"}

// Significance scores an event from its title and type. Pure and
// deterministic; the result is always in [0, 1].
func Significance(title, eventType string) float64 {
	s := 0.0
	t := strings.ToLower(title)

	switch eventType {
	case "loi":
		s += weightLoi
	case "decret":
		s += weightDecret
	}

	if containsAny(t, reformKeywords) {
		s += weightReform
	}
	if containsAny(t, subjectKeywords) {
		s += weightSubject
	}

	if s > 1.0 {
		return 1.0
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
