// Package ics renders the resolved calendar as an iCalendar feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"hijrical/internal/engine"
	appLog "hijrical/internal/log"
	"hijrical/internal/model"
)

const (
	DefaultProductID = "-//hijrical//Hijri Calendar//EN"
	uidDomain        = "hijrical"
)

// Options controls feed metadata.
type Options struct {
	// Name is shown by clients as the calendar title.
	Name string
	// ProductID defaults to DefaultProductID.
	ProductID string
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Feed builds one VCALENDAR.
type Feed struct {
	cal   *ical.Calendar
	stamp time.Time
	count int
}

// NewFeed starts an empty feed.
func NewFeed(opts Options) *Feed {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	return &Feed{cal: cal, stamp: opts.Now().UTC()}
}

// AddMonthStarts adds an all-day event on the first day of each month.
func (f *Feed) AddMonthStarts(defs []model.MonthDefinition) {
	for _, d := range defs {
		uid := fmt.Sprintf("month-%d-%02d@%s", d.HijriYear, d.HijriMonth, uidDomain)
		ev := f.cal.AddEvent(uid)
		ev.SetDtStampTime(f.stamp)
		ev.SetSummary(model.HijriDate{Year: d.HijriYear, Month: d.HijriMonth, Day: 1}.String())
		ev.SetDescription(monthDescription(d))
		ev.SetAllDayStartAt(d.GregorianStartDate)
		ev.SetAllDayEndAt(model.AddDays(d.GregorianStartDate, 1))
		ev.SetProperty(ical.ComponentPropertyCategories, string(d.Source))
		f.count++
	}
}

// AddReminders adds one event per occurrence of each reminder inside iv.
func (f *Feed) AddReminders(eng *engine.Engine, reminders []model.Reminder, iv model.Interval) {
	for _, r := range reminders {
		n := 0
		for t := range eng.Occurrences(r, iv) {
			uid := fmt.Sprintf("%s-%s@%s", r.ID, t.Format("20060102"), uidDomain)
			ev := f.cal.AddEvent(uid)
			ev.SetDtStampTime(f.stamp)
			ev.SetSummary(r.Title)
			desc := r.HijriDate.String()
			if r.Notes != "" {
				desc += "\n\n" + r.Notes
			}
			ev.SetDescription(desc)
			ev.SetStartAt(t)
			ev.SetEndAt(t)
			f.count++
			n++
		}
		appLog.Debug("ics reminder exported", "reminder", r.ID, "occurrences", n)
	}
}

// Len returns the number of events added.
func (f *Feed) Len() int {
	return f.count
}

// Serialize renders the feed.
func (f *Feed) Serialize() string {
	return f.cal.Serialize()
}

func monthDescription(d model.MonthDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s begins", d.Key())
	if d.Valid() {
		fmt.Fprintf(&b, " (%d days)", d.Length)
	}
	fmt.Fprintf(&b, ". Source: %s.", d.Source)
	return b.String()
}
