// Package engine answers date questions against a resolved set of Hijri
// month definitions: Gregorian to Hijri and back, and the Gregorian
// timestamps on which a Hijri reminder fires.
//
// An Engine is immutable once built; build a new one when the calendar
// changes. All methods are safe for concurrent use.
package engine

import (
	"slices"
	"sort"
	"time"

	"hijrical/internal/model"
)

// maxMonthLength bounds how far back a containing month can start.
const maxMonthLength = 30

// Engine maps dates over an ordered set of month definitions.
type Engine struct {
	months []model.MonthDefinition // sorted by GregorianStartDate, then key
	byKey  map[model.MonthKey]int
	loc    *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the location whose calendar days the engine works in.
// The default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New builds an engine over a copy of defs. Start dates are re-read as
// calendar days in the engine's location. When two definitions share a
// month key the one starting first is used for key lookups.
func New(defs []model.MonthDefinition, opts ...Option) *Engine {
	e := &Engine{loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}

	e.months = make([]model.MonthDefinition, len(defs))
	for i, d := range defs {
		d.GregorianStartDate = e.civil(d.GregorianStartDate)
		e.months[i] = d
	}
	slices.SortStableFunc(e.months, func(a, b model.MonthDefinition) int {
		if c := a.GregorianStartDate.Compare(b.GregorianStartDate); c != 0 {
			return c
		}
		switch {
		case a.Key().Less(b.Key()):
			return -1
		case b.Key().Less(a.Key()):
			return 1
		}
		return 0
	})

	e.byKey = make(map[model.MonthKey]int, len(e.months))
	for i, d := range e.months {
		if _, ok := e.byKey[d.Key()]; !ok {
			e.byKey[d.Key()] = i
		}
	}
	return e
}

// Location returns the engine's location.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Months returns the definitions in start order.
func (e *Engine) Months() []model.MonthDefinition {
	return slices.Clone(e.months)
}

// civil returns midnight in the engine location of t's own calendar date.
func (e *Engine) civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// day returns midnight of the calendar day t falls on in the engine
// location.
func (e *Engine) day(t time.Time) time.Time {
	return model.StartOfDay(t, e.loc)
}

// MonthDefinition looks up a month by Hijri year and month.
func (e *Engine) MonthDefinition(year, month int) (model.MonthDefinition, bool) {
	i, ok := e.byKey[model.MonthKey{Year: year, Month: month}]
	if !ok {
		return model.MonthDefinition{}, false
	}
	return e.months[i], true
}

// MonthDefinitionContaining returns the month whose days include the
// calendar day of t. Months of undetermined length contain no days.
func (e *Engine) MonthDefinitionContaining(t time.Time) (model.MonthDefinition, bool) {
	target := e.day(t)
	// first month starting after target
	i := sort.Search(len(e.months), func(i int) bool {
		return e.months[i].GregorianStartDate.After(target)
	})
	for j := i - 1; j >= 0; j-- {
		d := e.months[j]
		offset := model.DaysBetween(d.GregorianStartDate, target)
		if offset >= maxMonthLength {
			break
		}
		if d.Contains(offset + 1) {
			return d, true
		}
	}
	return model.MonthDefinition{}, false
}

// HijriDateFor maps the calendar day of t to its Hijri date.
func (e *Engine) HijriDateFor(t time.Time) (model.HijriDate, bool) {
	d, ok := e.MonthDefinitionContaining(t)
	if !ok {
		return model.HijriDate{}, false
	}
	offset := model.DaysBetween(d.GregorianStartDate, e.day(t))
	return model.HijriDate{Year: d.HijriYear, Month: d.HijriMonth, Day: offset + 1}, true
}

// GregorianDateFor maps a Hijri date to Gregorian midnight in the engine
// location. An annual date uses fallbackYear; zero means no fallback.
func (e *Engine) GregorianDateFor(date model.HijriDate, fallbackYear int) (time.Time, bool) {
	year := date.Year
	if year == 0 {
		year = fallbackYear
	}
	if year == 0 {
		return time.Time{}, false
	}
	d, ok := e.MonthDefinition(year, date.Month)
	if !ok {
		return time.Time{}, false
	}
	return d.GregorianDate(date.Day)
}

// DatesFor returns, in ascending order, the Gregorian midnight of Hijri
// day of month in every defined year, keeping those inside iv.
func (e *Engine) DatesFor(month, day int, iv model.Interval) []time.Time {
	var out []time.Time
	for _, t := range e.baseDates(month, day) {
		if iv.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// baseDates returns the Gregorian midnight of month/day in every defined
// year, ascending.
func (e *Engine) baseDates(month, day int) []time.Time {
	var out []time.Time
	for _, d := range e.months {
		if d.HijriMonth != month {
			continue
		}
		if t, ok := d.GregorianDate(day); ok {
			out = append(out, t)
		}
	}
	return out
}
