package web

import (
	"errors"
	"net/http"
	"time"

	appLog "hijrical/internal/log"
	"hijrical/internal/merge"
	"hijrical/internal/model"
	"hijrical/internal/store"
)

type overrideDTO struct {
	ID                 string `json:"id"`
	HijriYear          int    `json:"hijri_year"`
	HijriMonth         int    `json:"hijri_month"`
	Month              string `json:"month"`
	GregorianStartDate string `json:"gregorian_start_date"`
	CreatedAt          string `json:"created_at"`
	Active             bool   `json:"active"`
	InfersPrevious     bool   `json:"infers_previous_month"`
}

type overrideRequest struct {
	HijriYear          int    `json:"hijri_year"`
	HijriMonth         int    `json:"hijri_month"`
	GregorianStartDate string `json:"gregorian_start_date"`
}

// handleListOverrides lists manual overrides newest first per month, with
// which one is active and whether it also sets the previous month's
// length.
func (s *Server) handleListOverrides(w http.ResponseWriter, _ *http.Request) {
	all := s.overrides.List()
	merged := s.service.Definitions()

	keys := make([]model.MonthKey, 0)
	seen := make(map[model.MonthKey]bool)
	for _, o := range merge.ActiveManual(all) {
		if !seen[o.Key()] {
			seen[o.Key()] = true
			keys = append(keys, o.Key())
		}
	}

	out := make([]overrideDTO, 0, len(all))
	for _, key := range keys {
		for _, o := range merge.History(all, key) {
			out = append(out, overrideDTO{
				ID:                 o.ID,
				HijriYear:          o.HijriYear,
				HijriMonth:         o.HijriMonth,
				Month:              o.Key().String(),
				GregorianStartDate: model.FormatDate(o.GregorianStartDate),
				CreatedAt:          o.CreatedAt.Format(time.RFC3339),
				Active:             merge.IsActive(o, all),
				InfersPrevious:     merge.InfersPreviousMonth(o, all, merged),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAddOverride records a manual override and remerges the calendar.
//
// POST /api/overrides {"hijri_year":1447,"hijri_month":9,"gregorian_start_date":"2026-02-19"}
func (s *Server) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, err := model.ParseDate(req.GregorianStartDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "gregorian_start_date must be YYYY-MM-DD")
		return
	}

	o, err := s.overrides.Add(model.Override{
		HijriYear:          req.HijriYear,
		HijriMonth:         req.HijriMonth,
		GregorianStartDate: start,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Info("manual override added", "id", o.ID, "month", o.Key().String(), "start", model.FormatDate(start))
	s.service.Remerge()

	writeJSON(w, http.StatusCreated, overrideDTO{
		ID:                 o.ID,
		HijriYear:          o.HijriYear,
		HijriMonth:         o.HijriMonth,
		Month:              o.Key().String(),
		GregorianStartDate: model.FormatDate(o.GregorianStartDate),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		Active:             true,
	})
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.overrides.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	appLog.Info("manual override deleted", "id", id)
	s.service.Remerge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reminders.List())
}

// handleSaveReminder creates a reminder, or replaces one when the body
// carries an existing id.
func (s *Server) handleSaveReminder(w http.ResponseWriter, r *http.Request) {
	var req model.Reminder
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := s.reminders.Save(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.Delete(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	appLog.Error("store write failed", err)
	writeError(w, http.StatusInternalServerError, "failed to save")
}
