package parse

import (
	"regexp"
	"strings"
	"time"

	"hijrical/internal/model"
)

// TabularParser reads calculated calendars laid out one month per line or
// row, e.g. "Muharram 1 1447 AH = June 26, 2025" or
// "1st Safar 1447 = 26th July 2025".
type TabularParser struct {
	// Location for parsed Gregorian dates; nil means time.Local.
	Location *time.Location

	hijriNameFirst *regexp.Regexp // Muharram 1 1447 AH
	hijriDayFirst  *regexp.Regexp // 1st Muharram 1447
	gregMonthFirst *regexp.Regexp // June 26, 2025
	gregDayFirst   *regexp.Regexp // 26th June 2025
	inline         *regexp.Regexp // whole-text fallback, may span lines
}

// NewTabularParser compiles the tabular patterns.
func NewTabularParser(loc *time.Location) *TabularParser {
	return &TabularParser{
		Location:       loc,
		hijriNameFirst: regexp.MustCompile(`(?i)` + hijriPhrase + `[ \t]+1(?:st)?,?[ \t]+(\d{4})\b`),
		hijriDayFirst:  regexp.MustCompile(`(?i)\b1(?:st)?[ \t]+` + hijriPhrase + `,?[ \t]+(\d{4})\b`),
		gregMonthFirst: regexp.MustCompile(`(?i)\b([A-Za-z]+)\.?[ \t]+(\d{1,2})` + ordinal + `(?:,[ \t]*|[ \t]+)(\d{4})\b`),
		gregDayFirst:   regexp.MustCompile(`(?i)\b(\d{1,2})` + ordinal + `[ \t]+([A-Za-z]+)\.?,?[ \t]+(\d{4})\b`),
		inline: regexp.MustCompile(`(?i)` + hijriPhraseWide + `\s+1(?:st)?,?\s+(\d{4})(?:\s*A\.?H\b)?\s*=\s*` +
			`([A-Za-z]+)\.?\s+(\d{1,2})` + ordinal + `,?\s+(\d{4})`),
	}
}

// Source implements Parser.
func (p *TabularParser) Source() model.Source {
	return model.SourceCalculated
}

// ParseFacts parses line by line, then scans the whole text as a fallback
// for layouts that break rows across lines. Line facts win conflicts. At
// least two facts are needed to derive a single month length.
func (p *TabularParser) ParseFacts(text string) ([]model.MonthStartFact, error) {
	loc := locationOrLocal(p.Location)
	var facts []model.MonthStartFact
	for line := range strings.Lines(text) {
		if f, ok := p.parseLine(strings.TrimSpace(line), loc); ok {
			facts = append(facts, f)
		}
	}
	for _, m := range p.inline.FindAllStringSubmatch(text, -1) {
		if f, ok := factFrom(m[1], m[2], m[3], m[4], m[5], loc); ok {
			facts = append(facts, f)
		}
	}
	return requireFacts(Dedupe(facts), 2, "tabular")
}

func (p *TabularParser) parseLine(line string, loc *time.Location) (model.MonthStartFact, bool) {
	if line == "" {
		return model.MonthStartFact{}, false
	}
	hijriPart, gregPart := line, line
	if i := strings.Index(line, "="); i >= 0 {
		hijriPart, gregPart = line[:i], line[i+1:]
	}

	month, year, ok := p.hijriStart(hijriPart)
	if !ok {
		return model.MonthStartFact{}, false
	}
	start, ok := p.gregorianStart(gregPart, loc)
	if !ok {
		return model.MonthStartFact{}, false
	}
	return model.MonthStartFact{HijriYear: year, HijriMonth: month, GregorianStartDate: start}, true
}

func (p *TabularParser) hijriStart(s string) (month, year int, ok bool) {
	for _, re := range []*regexp.Regexp{p.hijriNameFirst, p.hijriDayFirst} {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			month, ok = monthFromPhrase(m[1])
			if !ok {
				continue
			}
			if year, ok = atoi(m[2]); ok {
				return month, year, true
			}
		}
	}
	return 0, 0, false
}

// gregorianStart returns the first candidate that is a real Gregorian
// date. Without an "=" separator the Hijri side is scanned too, so a match
// like "Muharram 1 1447" is tried and rejected here.
func (p *TabularParser) gregorianStart(s string, loc *time.Location) (time.Time, bool) {
	for _, m := range p.gregMonthFirst.FindAllStringSubmatch(s, -1) {
		if t, ok := gregorianFrom(m[1], m[2], m[3], loc); ok {
			return t, true
		}
	}
	for _, m := range p.gregDayFirst.FindAllStringSubmatch(s, -1) {
		if t, ok := gregorianFrom(m[2], m[1], m[3], loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func gregorianFrom(month, day, year string, loc *time.Location) (time.Time, bool) {
	d, ok := atoi(day)
	if !ok {
		return time.Time{}, false
	}
	y, ok := atoi(year)
	if !ok {
		return time.Time{}, false
	}
	return GregorianDate(month, d, y, loc)
}
