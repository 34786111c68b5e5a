package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey_NextPrev(t *testing.T) {
	assert.Equal(t, MonthKey{Year: 1447, Month: 10}, MonthKey{Year: 1447, Month: 9}.Next())
	assert.Equal(t, MonthKey{Year: 1448, Month: 1}, MonthKey{Year: 1447, Month: 12}.Next())
	assert.Equal(t, MonthKey{Year: 1446, Month: 12}, MonthKey{Year: 1447, Month: 1}.Prev())
	assert.True(t, MonthKey{Year: 1446, Month: 12}.Less(MonthKey{Year: 1447, Month: 1}))
	assert.False(t, MonthKey{Year: 1447, Month: 2}.Less(MonthKey{Year: 1447, Month: 2}))
}

func TestDaysBetween_IgnoresDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// Spans the March 2026 spring-forward transition.
	a := time.Date(2026, time.February, 18, 0, 0, 0, 0, loc)
	b := time.Date(2026, time.March, 20, 0, 0, 0, 0, loc)
	assert.Equal(t, 30, DaysBetween(a, b))
	assert.Equal(t, -30, DaysBetween(b, a))

	next := AddDays(a, 30)
	assert.Equal(t, b, next)
	assert.Equal(t, 0, next.Hour())
}

func TestMonthDefinition_DayMapping(t *testing.T) {
	start := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	def := MonthDefinition{HijriYear: 1447, HijriMonth: 8, GregorianStartDate: start, Length: 29, Source: SourceCalculated}

	got, ok := def.GregorianDate(10)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.January, 29, 0, 0, 0, 0, time.UTC), got)

	_, ok = def.GregorianDate(30)
	assert.False(t, ok)
	_, ok = def.GregorianDate(0)
	assert.False(t, ok)

	end, ok := def.EndDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.February, 17, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthDefinition_ZeroLengthMapsNothing(t *testing.T) {
	def := MonthDefinition{HijriYear: 1447, HijriMonth: 9, GregorianStartDate: time.Now(), Length: 0}
	assert.False(t, def.Valid())
	assert.False(t, def.Contains(1))
	_, ok := def.EndDate()
	assert.False(t, ok)
}

func TestHijriDate_String(t *testing.T) {
	assert.Equal(t, "9 Ramadan 1447", HijriDate{Year: 1447, Month: 9, Day: 9}.String())
	assert.Equal(t, "1 Shaban", HijriDate{Month: 8, Day: 1}.String())
	assert.Equal(t, "Month 13", MonthName(13))
}

func TestNewReminder_ClampsDuration(t *testing.T) {
	r := NewReminder("Fast", HijriDate{Month: 9, Day: 1}, RecurrenceAnnual, ReminderTime{Hour: 4}, 0)
	assert.Equal(t, 1, r.DurationDays)
	assert.NotEmpty(t, r.ID)
}

func TestInterval_HalfOpen(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	iv := Interval{Start: start, End: start.AddDate(0, 0, 1)}
	assert.True(t, iv.Contains(start))
	assert.False(t, iv.Contains(iv.End))
}

func TestResponseError_IsInvalidResponse(t *testing.T) {
	var err error = &ResponseError{URL: "https://example.com", StatusCode: 503, Status: "503 Service Unavailable"}
	assert.True(t, errors.Is(err, ErrInvalidResponse))
	assert.False(t, errors.Is(err, ErrParsingFailed))
}
