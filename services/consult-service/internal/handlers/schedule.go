package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/availability"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/storage"
)

type ScheduleHandler struct {
	repo   *storage.ConsultationRepository
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewScheduleHandler(repo *storage.ConsultationRepository, logger *slog.Logger, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleHandler{
		repo:   repo,
		logger: logger,
		loc:    loc,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// AnalystSchedule returns the open hourly slots for the next seven days,
// minus anything already booked.
func (h *ScheduleHandler) AnalystSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := h.now()
	from := now.AddDate(0, 0, 1)
	to := now.AddDate(0, 0, availability.WindowDays)

	booked, err := h.repo.BookedSlots(r.Context(), from, to)
	if err != nil {
		h.logger.Error("booked slot query failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, "", availability.Grid(booked, now))
}
