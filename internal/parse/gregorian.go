package parse

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

var gregorianMonths = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

// GregorianDate builds midnight of the given English month name, day and
// year in loc. Full and three-letter month names are accepted in any case;
// surrounding punctuation is ignored. Impossible dates such as February 30
// are rejected rather than rolled over.
func GregorianDate(monthName string, day, year int, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	name := strings.ToLower(strings.TrimFunc(monthName, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	}))
	month, ok := gregorianMonths[name]
	if !ok || day < 1 || day > 31 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

var gregorianLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseGregorian parses a long-form English date such as "January 20, 2026"
// or "Feb 18 2026" as midnight in loc. Ordinal suffixes are tolerated.
func ParseGregorian(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = ordinalSuffix.ReplaceAllString(strings.TrimSpace(s), "$1")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, ".")
	for _, layout := range gregorianLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}
