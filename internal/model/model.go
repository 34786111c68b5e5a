package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies where a month definition's start date came from.
type Source string

const (
	SourceCalculated   Source = "calculated"
	SourceMoonsighting Source = "moonsighting"
	SourceManual       Source = "manual"
	SourceAuthority    Source = "authority"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCalculated, SourceMoonsighting, SourceManual, SourceAuthority:
		return true
	}
	return false
}

// HijriDate is a day in the Hijri calendar. Year == 0 means the date names
// only a day and month that recurs every year.
type HijriDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month" validate:"min=1,max=12"`
	Day   int `json:"day" validate:"min=1,max=30"`
}

// IsAnnual reports whether the date carries no year.
func (d HijriDate) IsAnnual() bool {
	return d.Year == 0
}

// String renders the date for display, e.g. "9 Ramadan 1447".
func (d HijriDate) String() string {
	if d.Year == 0 {
		return fmt.Sprintf("%d %s", d.Day, MonthName(d.Month))
	}
	return fmt.Sprintf("%d %s %d", d.Day, MonthName(d.Month), d.Year)
}

// MonthKey identifies a Hijri month.
type MonthKey struct {
	Year  int
	Month int
}

// Next returns the chronologically following month.
func (k MonthKey) Next() MonthKey {
	if k.Month < 12 {
		return MonthKey{Year: k.Year, Month: k.Month + 1}
	}
	return MonthKey{Year: k.Year + 1, Month: 1}
}

// Prev returns the chronologically preceding month.
func (k MonthKey) Prev() MonthKey {
	if k.Month > 1 {
		return MonthKey{Year: k.Year, Month: k.Month - 1}
	}
	return MonthKey{Year: k.Year - 1, Month: 12}
}

// Less orders keys by year, then month.
func (k MonthKey) Less(o MonthKey) bool {
	if k.Year == o.Year {
		return k.Month < o.Month
	}
	return k.Year < o.Year
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%s %d", MonthName(k.Month), k.Year)
}

// MonthStartFact asserts that a Hijri month began on a Gregorian date.
// GregorianStartDate is always midnight in the location it was parsed in.
type MonthStartFact struct {
	HijriYear          int
	HijriMonth         int
	GregorianStartDate time.Time
}

// Key returns the fact's month key.
func (f MonthStartFact) Key() MonthKey {
	return MonthKey{Year: f.HijriYear, Month: f.HijriMonth}
}

// MonthDefinition is a fully resolved Hijri month. A Length other than 29
// or 30 means the length is undetermined; such a month maps no days.
type MonthDefinition struct {
	HijriYear          int       `json:"hijri_year"`
	HijriMonth         int       `json:"hijri_month"`
	GregorianStartDate time.Time `json:"gregorian_start_date"`
	Length             int       `json:"length"`
	Source             Source    `json:"source"`
}

// Key returns the definition's month key.
func (d MonthDefinition) Key() MonthKey {
	return MonthKey{Year: d.HijriYear, Month: d.HijriMonth}
}

// Valid reports whether the month length is determined.
func (d MonthDefinition) Valid() bool {
	return ValidLength(d.Length)
}

// Contains reports whether day is a day of this month.
func (d MonthDefinition) Contains(day int) bool {
	return day >= 1 && day <= d.Length
}

// GregorianDate returns the Gregorian midnight of the given Hijri day.
func (d MonthDefinition) GregorianDate(day int) (time.Time, bool) {
	if !d.Contains(day) {
		return time.Time{}, false
	}
	return AddDays(d.GregorianStartDate, day-1), true
}

// EndDate returns the Gregorian midnight of the month's last day.
func (d MonthDefinition) EndDate() (time.Time, bool) {
	if d.Length <= 0 {
		return time.Time{}, false
	}
	return AddDays(d.GregorianStartDate, d.Length-1), true
}

// ValidLength reports whether n is a possible lunar month length.
func ValidLength(n int) bool {
	return n == 29 || n == 30
}

// Override replaces the start date of one month. Length is never carried;
// it is derived when overrides are merged.
type Override struct {
	ID                 string    `json:"id,omitempty"`
	HijriYear          int       `json:"hijri_year" validate:"min=1"`
	HijriMonth         int       `json:"hijri_month" validate:"min=1,max=12"`
	GregorianStartDate time.Time `json:"gregorian_start_date"`
	CreatedAt          time.Time `json:"created_at,omitzero"`
}

// Key returns the override's month key.
func (o Override) Key() MonthKey {
	return MonthKey{Year: o.HijriYear, Month: o.HijriMonth}
}

// NewManualOverride creates a manual override stamped with a fresh id and
// the given creation time.
func NewManualOverride(year, month int, start, createdAt time.Time) Override {
	return Override{
		ID:                 uuid.NewString(),
		HijriYear:          year,
		HijriMonth:         month,
		GregorianStartDate: start,
		CreatedAt:          createdAt,
	}
}

// Recurrence controls how a reminder repeats.
type Recurrence string

const (
	RecurrenceAnnual  Recurrence = "annual"
	RecurrenceOneTime Recurrence = "oneTime"
)

// ReminderTime is a wall-clock time of day.
type ReminderTime struct {
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// Reminder fires on a Hijri date, optionally over several consecutive days.
type Reminder struct {
	ID           string       `json:"id"`
	Title        string       `json:"title" validate:"required"`
	HijriDate    HijriDate    `json:"hijri_date"`
	Recurrence   Recurrence   `json:"recurrence" validate:"oneof=annual oneTime"`
	Time         ReminderTime `json:"time"`
	DurationDays int          `json:"duration_days" validate:"min=1"`
	Notes        string       `json:"notes,omitempty"`
}

// NewReminder builds a reminder with a fresh id. durationDays below one is
// raised to one.
func NewReminder(title string, date HijriDate, rec Recurrence, at ReminderTime, durationDays int) Reminder {
	return Reminder{
		ID:           uuid.NewString(),
		Title:        title,
		HijriDate:    date,
		Recurrence:   rec,
		Time:         at,
		DurationDays: max(durationDays, 1),
	}
}

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

var monthNames = [...]string{
	"Muharram",
	"Safar",
	"Rabi al-Awwal",
	"Rabi al-Thani",
	"Jumada al-Ula",
	"Jumada al-Akhira",
	"Rajab",
	"Shaban",
	"Ramadan",
	"Shawwal",
	"Dhul Qidah",
	"Dhul Hijjah",
}

// MonthName returns the display name of a Hijri month number.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("Month %d", month)
	}
	return monthNames[month-1]
}
