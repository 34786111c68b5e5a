package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hijrical/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func def(year, month int, start time.Time, length int) model.MonthDefinition {
	return model.MonthDefinition{
		HijriYear:          year,
		HijriMonth:         month,
		GregorianStartDate: start,
		Length:             length,
		Source:             model.SourceCalculated,
	}
}

func sampleEngine() *Engine {
	return New([]model.MonthDefinition{
		def(1447, 9, date(2026, time.February, 18), 30),
		def(1447, 8, date(2026, time.January, 20), 29),
		def(1447, 10, date(2026, time.March, 20), 29),
		def(1447, 11, date(2026, time.April, 18), 0),
	}, WithLocation(time.UTC))
}

func TestGregorianDateFor(t *testing.T) {
	e := New([]model.MonthDefinition{def(1447, 8, date(2026, time.January, 20), 30)}, WithLocation(time.UTC))

	got, ok := e.GregorianDateFor(model.HijriDate{Year: 1447, Month: 8, Day: 10}, 0)
	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 29), got)

	got, ok = e.GregorianDateFor(model.HijriDate{Month: 8, Day: 1}, 1447)
	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 20), got)

	_, ok = e.GregorianDateFor(model.HijriDate{Month: 8, Day: 1}, 0)
	assert.False(t, ok, "annual date without fallback year")
	_, ok = e.GregorianDateFor(model.HijriDate{Year: 1447, Month: 8, Day: 31}, 0)
	assert.False(t, ok, "day beyond month length")
	_, ok = e.GregorianDateFor(model.HijriDate{Year: 1447, Month: 9, Day: 1}, 0)
	assert.False(t, ok, "undefined month")
}

func TestHijriDateFor(t *testing.T) {
	e := sampleEngine()

	tests := []struct {
		in   time.Time
		want model.HijriDate
		ok   bool
	}{
		{date(2026, time.January, 20), model.HijriDate{Year: 1447, Month: 8, Day: 1}, true},
		{at(2026, time.February, 17, 23, 59), model.HijriDate{Year: 1447, Month: 8, Day: 29}, true},
		{date(2026, time.February, 18), model.HijriDate{Year: 1447, Month: 9, Day: 1}, true},
		{date(2026, time.March, 19), model.HijriDate{Year: 1447, Month: 9, Day: 30}, true},
		{date(2026, time.April, 17), model.HijriDate{Year: 1447, Month: 10, Day: 29}, true},
		{date(2026, time.April, 18), model.HijriDate{}, false}, // zero-length month
		{date(2026, time.January, 19), model.HijriDate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in.Format(time.RFC3339), func(t *testing.T) {
			got, ok := e.HijriDateFor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	e := sampleEngine()
	for _, d := range e.Months() {
		if !d.Valid() {
			continue
		}
		for day := 1; day <= d.Length; day++ {
			h := model.HijriDate{Year: d.HijriYear, Month: d.HijriMonth, Day: day}
			g, ok := e.GregorianDateFor(h, 0)
			require.True(t, ok, h.String())
			back, ok := e.HijriDateFor(g)
			require.True(t, ok, h.String())
			assert.Equal(t, h, back)
		}
	}

	for g := date(2026, time.January, 20); g.Before(date(2026, time.April, 18)); g = g.AddDate(0, 0, 1) {
		h, ok := e.HijriDateFor(g)
		require.True(t, ok, g.String())
		back, ok := e.GregorianDateFor(h, 0)
		require.True(t, ok, g.String())
		assert.Equal(t, g, back)
	}
}

func TestEngineWorksInCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Definitions parsed in UTC keep their calendar date in the engine
	// location, and March 8 2026 (a 23-hour day) still counts as one day.
	e := New([]model.MonthDefinition{def(1447, 9, date(2026, time.February, 18), 30)}, WithLocation(ny))

	got, ok := e.GregorianDateFor(model.HijriDate{Year: 1447, Month: 9, Day: 30}, 0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 19, 0, 0, 0, 0, ny), got)

	h, ok := e.HijriDateFor(time.Date(2026, time.March, 9, 23, 30, 0, 0, ny))
	require.True(t, ok)
	assert.Equal(t, model.HijriDate{Year: 1447, Month: 9, Day: 20}, h)
}

func TestMonthDefinitionLookups(t *testing.T) {
	e := sampleEngine()

	d, ok := e.MonthDefinition(1447, 9)
	require.True(t, ok)
	assert.Equal(t, date(2026, time.February, 18), d.GregorianStartDate)
	_, ok = e.MonthDefinition(1448, 9)
	assert.False(t, ok)

	d, ok = e.MonthDefinitionContaining(at(2026, time.March, 1, 12, 0))
	require.True(t, ok)
	assert.Equal(t, model.MonthKey{Year: 1447, Month: 9}, d.Key())
	_, ok = e.MonthDefinitionContaining(date(2025, time.June, 1))
	assert.False(t, ok)

	months := e.Months()
	require.Len(t, months, 4)
	assert.Equal(t, 8, months[0].HijriMonth)
	assert.Equal(t, 11, months[3].HijriMonth)
}

func TestDatesFor(t *testing.T) {
	e := New([]model.MonthDefinition{
		def(1448, 9, date(2027, time.February, 8), 29),
		def(1447, 9, date(2026, time.February, 18), 30),
		def(1446, 9, date(2025, time.March, 1), 29),
	}, WithLocation(time.UTC))

	got := e.DatesFor(9, 30, model.Interval{Start: date(2025, time.January, 1), End: date(2028, time.January, 1)})
	assert.Equal(t, []time.Time{date(2026, time.March, 19)}, got, "only 1447 has a 30th")

	got = e.DatesFor(9, 1, model.Interval{Start: date(2026, time.January, 1), End: date(2027, time.February, 8)})
	assert.Equal(t, []time.Time{date(2026, time.February, 18)}, got, "end is exclusive")
}

func TestAnnualOccurrences(t *testing.T) {
	e := New([]model.MonthDefinition{
		def(1447, 8, date(2026, time.January, 20), 30),
		def(1448, 8, date(2027, time.January, 9), 29),
	}, WithLocation(time.UTC))
	r := model.NewReminder("Annual Test", model.HijriDate{Month: 8, Day: 1}, model.RecurrenceAnnual,
		model.ReminderTime{Hour: 9, Minute: 0}, 1)
	iv := model.Interval{Start: date(2026, time.January, 1), End: date(2028, time.January, 1)}

	assert.Equal(t, []time.Time{
		at(2026, time.January, 20, 9, 0),
		at(2027, time.January, 9, 9, 0),
	}, e.OccurrenceDates(r, iv))
}

func TestMultiDayOccurrences(t *testing.T) {
	e := New([]model.MonthDefinition{def(1447, 9, date(2026, time.February, 18), 30)}, WithLocation(time.UTC))
	r := model.NewReminder("Multi-Day", model.HijriDate{Year: 1447, Month: 9, Day: 1}, model.RecurrenceOneTime,
		model.ReminderTime{Hour: 6, Minute: 30}, 3)
	iv := model.Interval{Start: date(2026, time.February, 1), End: date(2026, time.March, 1)}

	assert.Equal(t, []time.Time{
		at(2026, time.February, 18, 6, 30),
		at(2026, time.February, 19, 6, 30),
		at(2026, time.February, 20, 6, 30),
	}, e.OccurrenceDates(r, iv))
}

func TestOccurrencesStraddleBoundaries(t *testing.T) {
	e := New([]model.MonthDefinition{def(1447, 9, date(2026, time.February, 18), 30)}, WithLocation(time.UTC))
	r := model.NewReminder("Last ten nights", model.HijriDate{Month: 9, Day: 1}, model.RecurrenceAnnual,
		model.ReminderTime{Hour: 20, Minute: 0}, 3)

	// a base day before Start contributes nothing, even though its later
	// days would fall inside
	iv := model.Interval{Start: date(2026, time.February, 19), End: date(2026, time.March, 1)}
	assert.Empty(t, e.DatesFor(9, 1, iv))
	assert.Empty(t, e.OccurrenceDates(r, iv))

	// Start after the base midnight but before the reminder time
	iv = model.Interval{Start: at(2026, time.February, 18, 12, 0), End: date(2026, time.March, 1)}
	assert.Empty(t, e.OccurrenceDates(r, iv))

	// End cuts the run short
	iv = model.Interval{Start: date(2026, time.February, 1), End: date(2026, time.February, 19)}
	assert.Equal(t, []time.Time{at(2026, time.February, 18, 20, 0)}, e.OccurrenceDates(r, iv))

	// a dated one-time reminder keeps its in-range days whatever the base
	once := r
	once.Recurrence = model.RecurrenceOneTime
	once.HijriDate.Year = 1447
	iv = model.Interval{Start: date(2026, time.February, 19), End: date(2026, time.March, 1)}
	assert.Equal(t, []time.Time{
		at(2026, time.February, 19, 20, 0),
		at(2026, time.February, 20, 20, 0),
	}, e.OccurrenceDates(once, iv))
}

func TestOccurrencesEdgeCases(t *testing.T) {
	e := New([]model.MonthDefinition{def(1447, 9, date(2026, time.February, 18), 30)}, WithLocation(time.UTC))
	iv := model.Interval{Start: date(2026, time.January, 1), End: date(2027, time.January, 1)}

	// one-time reminder in an undefined year
	r := model.NewReminder("x", model.HijriDate{Year: 1450, Month: 9, Day: 1}, model.RecurrenceOneTime, model.ReminderTime{}, 1)
	assert.Empty(t, e.OccurrenceDates(r, iv))

	// one-time reminder without a year behaves like an annual one
	r = model.NewReminder("x", model.HijriDate{Month: 9, Day: 27}, model.RecurrenceOneTime, model.ReminderTime{Hour: 1}, 1)
	assert.Equal(t, []time.Time{at(2026, time.March, 16, 1, 0)}, e.OccurrenceDates(r, iv))

	// empty interval
	assert.Empty(t, e.OccurrenceDates(r, model.Interval{Start: iv.End, End: iv.Start}))

	// a zero duration set after construction still fires once
	r.DurationDays = 0
	assert.Len(t, e.OccurrenceDates(r, iv), 1)
}

func TestOccurrencesIsRestartable(t *testing.T) {
	e := New([]model.MonthDefinition{def(1447, 9, date(2026, time.February, 18), 30)}, WithLocation(time.UTC))
	r := model.NewReminder("x", model.HijriDate{Month: 9, Day: 1}, model.RecurrenceAnnual, model.ReminderTime{Hour: 5}, 5)
	seq := e.Occurrences(r, model.Interval{Start: date(2026, time.January, 1), End: date(2027, time.January, 1)})

	var first, second []time.Time
	for ts := range seq {
		first = append(first, ts)
	}
	for ts := range seq {
		second = append(second, ts)
		if len(second) == 2 {
			break
		}
	}
	assert.Len(t, first, 5)
	assert.Equal(t, first[:2], second)
}
