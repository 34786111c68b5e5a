package engine

import (
	"iter"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "hijrical/internal/log"
	"hijrical/internal/model"
)

// Occurrences yields, in ascending order, the timestamps inside iv at which
// reminder r fires. Each base date expands to r.DurationDays consecutive
// days at r's time of day; days outside iv are skipped individually.
//
// Annual base dates come from DatesFor, so a run whose first day is before
// iv.Start contributes nothing. A one-time reminder has at most one base
// date, in its own year, and contributes whichever of its days fall in iv.
// A one-time reminder without a year repeats like an annual one.
//
// The sequence is computed on each iteration and can be ranged over any
// number of times.
func (e *Engine) Occurrences(r model.Reminder, iv model.Interval) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for _, base := range e.reminderBases(r, iv) {
			for _, t := range e.expand(base, r) {
				if !iv.Contains(t) {
					continue
				}
				if !yield(t) {
					return
				}
			}
		}
	}
}

// OccurrenceDates collects Occurrences.
func (e *Engine) OccurrenceDates(r model.Reminder, iv model.Interval) []time.Time {
	out := slices.Collect(e.Occurrences(r, iv))
	slices.SortFunc(out, time.Time.Compare)
	return slices.CompactFunc(out, time.Time.Equal)
}

// reminderBases returns the first-day midnights of r to expand. A dated
// one-time reminder has its single base wherever it falls; annual bases
// must themselves lie in iv.
func (e *Engine) reminderBases(r model.Reminder, iv model.Interval) []time.Time {
	if !iv.Start.Before(iv.End) {
		return nil
	}
	if r.Recurrence == model.RecurrenceOneTime && !r.HijriDate.IsAnnual() {
		t, ok := e.GregorianDateFor(r.HijriDate, 0)
		if !ok {
			return nil
		}
		return []time.Time{t}
	}
	return e.DatesFor(r.HijriDate.Month, r.HijriDate.Day, iv)
}

// expand turns a base date into durationDays daily timestamps at the
// reminder's wall-clock time.
func (e *Engine) expand(base time.Time, r model.Reminder) []time.Time {
	y, m, d := base.Date()
	start := time.Date(y, m, d, r.Time.Hour, r.Time.Minute, 0, 0, e.loc)
	span := durationDays(r)
	if span == 1 {
		return []time.Time{start}
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   span,
		Dtstart: start,
	})
	if err != nil {
		appLog.Error("engine: build daily rule failed", err, "reminder", r.ID, "start", start)
		return []time.Time{start}
	}
	return rule.All()
}

func durationDays(r model.Reminder) int {
	return max(r.DurationDays, 1)
}
