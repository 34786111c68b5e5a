package parse

import (
	"regexp"
	"time"

	"hijrical/internal/model"
)

// Pattern fragments shared by the parsers. Fragments using [ \t] stay on
// one line; fragments using \s may cross line breaks.
const (
	// up to four words ending in the Hijri month name; leading words are
	// context that monthFromPhrase discards
	hijriPhrase     = `((?:[A-Za-z'\-]+[ \t]+){0,3}[A-Za-z'\-]+)`
	hijriPhraseWide = `((?:[A-Za-z'\-]+\s+){0,3}[A-Za-z'\-]+)`
	hijriYearAH     = `[ \t]+(\d{4})[ \t]*A\.?H\b`
	ordinal         = `(?:st|nd|rd|th)?`
	// "January 20, 2026", "Jan. 20 2026", "June 26th, 2025"
	gregorianLong = `([A-Za-z]+)\.?[ \t]+(\d{1,2})` + ordinal + `,?[ \t]+(\d{4})`
)

var ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)

// factFrom assembles a fact from captured strings, rejecting any part that
// does not resolve.
func factFrom(hijriName, hijriYear, gMonth, gDay, gYear string, loc *time.Location) (model.MonthStartFact, bool) {
	month, ok := monthFromPhrase(hijriName)
	if !ok {
		return model.MonthStartFact{}, false
	}
	year, ok := atoi(hijriYear)
	if !ok {
		return model.MonthStartFact{}, false
	}
	day, ok := atoi(gDay)
	if !ok {
		return model.MonthStartFact{}, false
	}
	gy, ok := atoi(gYear)
	if !ok {
		return model.MonthStartFact{}, false
	}
	start, ok := GregorianDate(gMonth, day, gy, loc)
	if !ok {
		return model.MonthStartFact{}, false
	}
	return model.MonthStartFact{HijriYear: year, HijriMonth: month, GregorianStartDate: start}, true
}

func locationOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
