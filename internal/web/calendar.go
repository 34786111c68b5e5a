package web

import (
	"net/http"
	"time"

	"hijrical/internal/calendar"
	"hijrical/internal/engine"
	"hijrical/internal/ics"
	appLog "hijrical/internal/log"
	"hijrical/internal/model"
)

const (
	defaultRangeDays = 365
	icsBackfillDays  = 30
)

// monthDTO is a JSON-friendly view of a month definition.
type monthDTO struct {
	HijriYear          int          `json:"hijri_year"`
	HijriMonth         int          `json:"hijri_month"`
	Name               string       `json:"name"`
	GregorianStartDate string       `json:"gregorian_start_date"`
	EndDate            string       `json:"end_date"`
	Length             int          `json:"length"`
	Source             model.Source `json:"source"`
}

func toMonthDTO(d model.MonthDefinition) monthDTO {
	dto := monthDTO{
		HijriYear:          d.HijriYear,
		HijriMonth:         d.HijriMonth,
		Name:               model.MonthName(d.HijriMonth),
		GregorianStartDate: model.FormatDate(d.GregorianStartDate),
		Length:             d.Length,
		Source:             d.Source,
	}
	if end, ok := d.EndDate(); ok {
		dto.EndDate = model.FormatDate(end)
	}
	return dto
}

type calendarResponse struct {
	Status calendar.Status `json:"status"`
	Months []monthDTO      `json:"months"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	defs := s.service.Definitions()
	months := make([]monthDTO, 0, len(defs))
	for _, d := range defs {
		months = append(months, toMonthDTO(d))
	}
	writeJSON(w, http.StatusOK, calendarResponse{Status: s.service.Status(), Months: months})
}

// handleRefresh forces a refresh.
//
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ran, err := s.service.Refresh(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusBadGateway, s.service.Status().Error)
		return
	}
	if !ran {
		writeJSON(w, http.StatusAccepted, s.service.Status())
		return
	}
	writeJSON(w, http.StatusOK, s.service.Status())
}

// engine returns the published engine or writes 503.
func (s *Server) engine(w http.ResponseWriter) (*engine.Engine, bool) {
	eng := s.service.Engine()
	if eng == nil {
		msg := s.service.Status().Error
		if msg == "" {
			msg = "calendar not loaded yet"
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return nil, false
	}
	return eng, true
}

type convertResponse struct {
	Date    string          `json:"date"`
	Hijri   model.HijriDate `json:"hijri"`
	Display string          `json:"display"`
	Month   monthDTO        `json:"month"`
}

// handleConvert maps a Gregorian date to its Hijri date.
//
// GET /api/convert?date=2026-02-18
//   - date: YYYY-MM-DD in the configured timezone (default today)
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	day := model.StartOfDay(s.now(), s.loc)
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := model.ParseDate(v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = t
	}

	h, ok := eng.HijriDateFor(day)
	if !ok {
		writeError(w, http.StatusNotFound, "date is outside the known calendar")
		return
	}
	month, _ := eng.MonthDefinition(h.Year, h.Month)
	writeJSON(w, http.StatusOK, convertResponse{
		Date:    model.FormatDate(day),
		Hijri:   h,
		Display: h.String(),
		Month:   toMonthDTO(month),
	})
}

type gregorianResponse struct {
	Hijri   model.HijriDate `json:"hijri"`
	Display string          `json:"display"`
	Date    string          `json:"date"`
}

// handleGregorian maps a Hijri date to its Gregorian date.
//
// GET /api/gregorian?year=1447&month=9&day=1
//   - year:          Hijri year; omitted means fallback_year is used
//   - fallback_year: year to use for a date without one
func (s *Server) handleGregorian(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	h := model.HijriDate{
		Year:  parseIntDefault(q.Get("year"), 0),
		Month: parseIntDefault(q.Get("month"), 0),
		Day:   parseIntDefault(q.Get("day"), 0),
	}
	if h.Month < 1 || h.Month > 12 || h.Day < 1 || h.Day > 30 || h.Year < 0 {
		writeError(w, http.StatusBadRequest, "month must be 1-12 and day 1-30")
		return
	}

	t, ok := eng.GregorianDateFor(h, parseIntDefault(q.Get("fallback_year"), 0))
	if !ok {
		writeError(w, http.StatusNotFound, "date is outside the known calendar")
		return
	}
	writeJSON(w, http.StatusOK, gregorianResponse{Hijri: h, Display: h.String(), Date: model.FormatDate(t)})
}

type occurrenceDTO struct {
	ReminderID string    `json:"reminder_id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
}

type occurrencesResponse struct {
	Occurrences     []occurrenceDTO `json:"occurrences"`
	RangeStart      time.Time       `json:"range_start"`
	RangeEnd        time.Time       `json:"range_end"`
	DisplayTimeZone string          `json:"display_timezone"`
}

// handleOccurrences lists reminder occurrences.
//
// GET /api/occurrences?from=2026-01-01&to=2027-01-01&id=...
//   - from: first day (default today)
//   - to:   day after the last (default from + 365 days)
//   - id:   a single reminder (default all)
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	iv, err := s.interval(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}

	reminders := s.reminders.List()
	if id := q.Get("id"); id != "" {
		rem, ok := s.reminders.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		reminders = []model.Reminder{rem}
	}

	out := make([]occurrenceDTO, 0)
	for _, rem := range reminders {
		for t := range eng.Occurrences(rem, iv) {
			out = append(out, occurrenceDTO{ReminderID: rem.ID, Title: rem.Title, Start: t})
		}
	}

	appLog.Debug("api occurrences request",
		"range_start", iv.Start.Format(time.RFC3339),
		"range_end", iv.End.Format(time.RFC3339),
		"reminders", len(reminders),
		"occurrences", len(out),
	)
	writeJSON(w, http.StatusOK, occurrencesResponse{
		Occurrences:     out,
		RangeStart:      iv.Start,
		RangeEnd:        iv.End,
		DisplayTimeZone: s.loc.String(),
	})
}

func (s *Server) interval(from, to string) (model.Interval, error) {
	start := model.StartOfDay(s.now(), s.loc)
	if from != "" {
		t, err := model.ParseDate(from, s.loc)
		if err != nil {
			return model.Interval{}, err
		}
		start = t
	}
	end := model.AddDays(start, defaultRangeDays)
	if to != "" {
		t, err := model.ParseDate(to, s.loc)
		if err != nil {
			return model.Interval{}, err
		}
		end = t
	}
	return model.Interval{Start: start, End: end}, nil
}

// handleICS serves month starts and upcoming reminder occurrences as an
// iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	today := model.StartOfDay(s.now(), s.loc)
	iv := model.Interval{
		Start: model.AddDays(today, -icsBackfillDays),
		End:   model.AddDays(today, defaultRangeDays),
	}

	feed := ics.NewFeed(ics.Options{Name: "Hijri Calendar", Now: s.now})
	feed.AddMonthStarts(eng.Months())
	feed.AddReminders(eng, s.reminders.List(), iv)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed.Serialize()))
}
