package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// frenchMonths maps month names to month numbers: full names, the
// standard abbreviations, and a few accent-stripped variants that show
// up in LLM output ("fev", "aout", "dec").
var frenchMonths = map[string]time.Month{
	"janvier": time.January, "février": time.February, "mars": time.March,
	"avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "août": time.August, "septembre": time.September,
	"octobre": time.October, "novembre": time.November, "décembre": time.December,

	"janv": time.January, "févr": time.February, "avr": time.April,
	"juill": time.July, "sept": time.September, "oct": time.October,
	"nov": time.November, "déc": time.December,

	"fev": time.February, "aout": time.August, "dec": time.December,
}

var (
	bareYearRe    = regexp.MustCompile(`^\d{4}$`)
	proseDateRe   = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)
	numericRe     = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	anyYearRe     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	isoDateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// ParseFrenchDate parses a date written the way legal French writes
// dates: "2 juillet 2014", "23/03/2023", "2020". A bare four-digit year
// parses to January 1st of that year. Returns false when no date can be
// recovered.
func ParseFrenchDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Bare year: "2020"
	if bareYearRe.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	// "2 juillet 2014"
	if m := proseDateRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
		if month, ok := frenchMonths[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			if d, ok := calendarDate(year, month, day); ok {
				return d, true
			}
		}
	}

	// DD/MM/YYYY or DD-MM-YYYY
	if m := numericRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		monthNum, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if monthNum >= 1 && monthNum <= 12 {
			if d, ok := calendarDate(year, time.Month(monthNum), day); ok {
				return d, true
			}
		}
	}

	// Last resort: any plausible year anywhere in the string
	if y := anyYearRe.FindString(s); y != "" {
		year, _ := strconv.Atoi(y)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// ParseCandidateDate accepts the shapes candidate descriptors carry:
// ISO-8601 first (the LLM contract), then the French prose formats.
func ParseCandidateDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if isoDateOnlyRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return ParseFrenchDate(s)
}

// calendarDate rejects impossible day-of-month combinations, which
// time.Date would silently normalize.
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
