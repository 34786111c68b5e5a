package parse

import (
	"regexp"
	"time"

	"hijrical/internal/model"
)

// announcementWindow is how far, in bytes, from the Hijri phrase a
// Gregorian date may appear and still be paired with it.
const announcementWindow = 180

// AnnouncementParser reads a single moonsighting announcement such as
// "Tuesday, January 20, 2026, the 1st day of Sha'ban 1447 AH." and
// produces at most one fact.
type AnnouncementParser struct {
	// Location for parsed Gregorian dates; nil means time.Local.
	Location *time.Location

	dayPattern  *regexp.Regexp // 1st day of Sha'ban 1447 AH
	datePattern *regexp.Regexp // January 20, 2026
}

// NewAnnouncementParser compiles the announcement patterns.
func NewAnnouncementParser(loc *time.Location) *AnnouncementParser {
	return &AnnouncementParser{
		Location:    loc,
		dayPattern:  regexp.MustCompile(`(?is)\b(?:1st|first)\s+day\s+of\s+([A-Za-z' \-]+?)\s+(\d{4})\s*A\.?H\b`),
		datePattern: regexp.MustCompile(`(?i)\b([A-Za-z]+)\.?\s+(\d{1,2})` + ordinal + `,?\s+(\d{4})\b`),
	}
}

// Source implements Parser.
func (p *AnnouncementParser) Source() model.Source {
	return model.SourceMoonsighting
}

// ParseFacts returns the first announced month start in text.
func (p *AnnouncementParser) ParseFacts(text string) ([]model.MonthStartFact, error) {
	var facts []model.MonthStartFact
	if f, ok := p.ParseFact(text); ok {
		facts = append(facts, f)
	}
	return requireFacts(facts, 1, "announcement")
}

// ParseFact returns the first structurally valid announcement in text.
func (p *AnnouncementParser) ParseFact(text string) (model.MonthStartFact, bool) {
	loc := locationOrLocal(p.Location)
	for _, m := range p.dayPattern.FindAllStringSubmatchIndex(text, -1) {
		month, ok := monthFromPhrase(text[m[2]:m[3]])
		if !ok {
			continue
		}
		year, ok := atoi(text[m[4]:m[5]])
		if !ok {
			continue
		}
		start, ok := p.nearestDate(text, m[0], m[1], loc)
		if !ok {
			continue
		}
		return model.MonthStartFact{HijriYear: year, HijriMonth: month, GregorianStartDate: start}, true
	}
	return model.MonthStartFact{}, false
}

// nearestDate finds the Gregorian date paired with the Hijri phrase at
// text[start:end]: the closest one ending before the phrase, otherwise the
// closest one starting after it.
func (p *AnnouncementParser) nearestDate(text string, start, end int, loc *time.Location) (time.Time, bool) {
	lo := max(start-announcementWindow, 0)
	hi := min(end+announcementWindow, len(text))
	window := text[lo:hi]

	var before, after time.Time
	haveBefore, haveAfter := false, false
	for _, m := range p.datePattern.FindAllStringSubmatchIndex(window, -1) {
		mStart, mEnd := m[0]+lo, m[1]+lo
		day, ok := atoi(window[m[4]:m[5]])
		if !ok {
			continue
		}
		year, ok := atoi(window[m[6]:m[7]])
		if !ok {
			continue
		}
		date, ok := GregorianDate(window[m[2]:m[3]], day, year, loc)
		if !ok {
			continue
		}
		switch {
		case mEnd <= start:
			// matches arrive in document order, so the last one is closest
			before, haveBefore = date, true
		case mStart >= end && !haveAfter:
			after, haveAfter = date, true
		}
	}
	if haveBefore {
		return before, true
	}
	return after, haveAfter
}
