package parse

import (
	"regexp"
	"time"

	"hijrical/internal/model"
)

// CalendarParser reads multi-month calendar documents that pair Gregorian
// dates with Hijri month starts in either order on the same line, such as
// "January 20, 2026 ... Sha'ban 1447 AH" or "Sha'ban 1447 AH ... January 20, 2026".
type CalendarParser struct {
	// Location for parsed Gregorian dates; nil means time.Local.
	Location *time.Location

	gregorianFirst *regexp.Regexp
	hijriFirst     *regexp.Regexp
	lengthPattern  *regexp.Regexp // Sha'ban 1447 AH ... 29 days
}

// NewCalendarParser compiles the calendar patterns.
func NewCalendarParser(loc *time.Location) *CalendarParser {
	return &CalendarParser{
		Location:       loc,
		gregorianFirst: regexp.MustCompile(`(?i)\b` + gregorianLong + `[^\n]{0,80}?` + hijriPhrase + hijriYearAH),
		hijriFirst:     regexp.MustCompile(`(?i)` + hijriPhrase + hijriYearAH + `[^\n]{0,80}?\b` + gregorianLong),
		lengthPattern:  regexp.MustCompile(`(?i)` + hijriPhrase + hijriYearAH + `[^\n]{0,40}?\b(29|30)[ \t]+days\b`),
	}
}

// Source implements Parser.
func (p *CalendarParser) Source() model.Source {
	return model.SourceMoonsighting
}

// ParseFacts scans the Gregorian-first ordering, then the Hijri-first
// ordering. Facts from the first scan win conflicts.
func (p *CalendarParser) ParseFacts(text string) ([]model.MonthStartFact, error) {
	loc := locationOrLocal(p.Location)
	var facts []model.MonthStartFact
	for _, m := range p.gregorianFirst.FindAllStringSubmatch(text, -1) {
		if f, ok := factFrom(m[4], m[5], m[1], m[2], m[3], loc); ok {
			facts = append(facts, f)
		}
	}
	for _, m := range p.hijriFirst.FindAllStringSubmatch(text, -1) {
		if f, ok := factFrom(m[1], m[2], m[3], m[4], m[5], loc); ok {
			facts = append(facts, f)
		}
	}
	return requireFacts(Dedupe(facts), 1, "calendar")
}

// ExplicitLengths implements LengthParser. The first statement for a month
// wins.
func (p *CalendarParser) ExplicitLengths(text string) map[model.MonthKey]int {
	lengths := make(map[model.MonthKey]int)
	for _, m := range p.lengthPattern.FindAllStringSubmatch(text, -1) {
		month, ok := monthFromPhrase(m[1])
		if !ok {
			continue
		}
		year, ok := atoi(m[2])
		if !ok {
			continue
		}
		n, ok := atoi(m[3])
		if !ok {
			continue
		}
		key := model.MonthKey{Year: year, Month: month}
		if _, seen := lengths[key]; !seen {
			lengths[key] = n
		}
	}
	return lengths
}
