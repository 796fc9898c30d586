package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/availability"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/intake"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/storage"
)

const reminderLead = 24 * time.Hour

// ConsultationStore is the slice of the repository the consultation handlers
// use. Satisfied by *storage.ConsultationRepository.
type ConsultationStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, c *model.Consultation) (string, error)
	Get(ctx context.Context, id string) (model.Consultation, error)
	List(ctx context.Context, analystID string, limit int) ([]model.Consultation, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Consultation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error
}

type ConsultationHandler struct {
	repo       ConsultationStore
	documents  *intake.Store
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

func NewConsultationHandler(repo ConsultationStore, documents *intake.Store, outboxRepo *outbox.Repository, logger *slog.Logger, loc *time.Location) *ConsultationHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ConsultationHandler{
		repo:       repo,
		documents:  documents,
		outboxRepo: outboxRepo,
		logger:     logger,
		loc:        loc,
		now:        func() time.Time { return time.Now().In(loc) },
	}
}

// Create books a consultation from a multipart form: contact fields, a
// planning type, a consultationSlot JSON string and up to five documents.
func (h *ConsultationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	planningType := model.PlanningType(strings.TrimSpace(r.FormValue("planningType")))
	slotRaw := strings.TrimSpace(r.FormValue("consultationSlot"))

	if name == "" || email == "" || phone == "" || slotRaw == "" {
		writeClientError(w, http.StatusBadRequest, "name, email, phone and consultationSlot are required")
		return
	}
	if !strings.Contains(email, "@") {
		writeClientError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if !planningType.Valid() {
		writeClientError(w, http.StatusBadRequest, "planningType must be business, loan or investment")
		return
	}

	var slot model.Slot
	if err := json.Unmarshal([]byte(slotRaw), &slot); err != nil {
		writeClientError(w, http.StatusBadRequest, "consultationSlot must be a JSON object")
		return
	}
	slotStart, err := availability.SlotStart(slot.Date, slot.Time, h.loc)
	if err != nil {
		writeClientError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !slotStart.After(h.now()) {
		writeClientError(w, http.StatusBadRequest, "consultation slot is in the past")
		return
	}

	var files []intake.Descriptor
	if form := r.MultipartForm; form != nil {
		stored, err := h.documents.Save(form.File["documents"], intake.Documents)
		if err != nil {
			switch {
			case errors.Is(err, intake.ErrUnsupportedFileType),
				errors.Is(err, intake.ErrFileTooLarge),
				errors.Is(err, intake.ErrTooManyFiles):
				writeClientError(w, http.StatusBadRequest, err.Error())
			default:
				h.logger.Error("document intake failed", "err", err)
				writeServerError(w, http.StatusInternalServerError)
			}
			return
		}
		files = stored
	}

	consultation := &model.Consultation{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PlanningType: planningType,
		Slot:         slot,
		Status:       model.StatusPending,
	}
	for _, f := range files {
		consultation.Documents = append(consultation.Documents, model.Document{
			FileName:   f.FileName,
			StoredPath: f.StoredPath,
			UploadedAt: f.UploadedAt,
		})
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.documents.Remove(files)
		h.logger.Error("tx begin failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.Create(ctx, tx, consultation)
	if err != nil {
		h.documents.Remove(files)
		if storage.IsSlotConflict(err) {
			writeClientError(w, http.StatusConflict, "slot already booked")
			return
		}
		h.logger.Error("consultation insert failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	if err := h.enqueueBookingEvents(ctx, tx, consultation, slotStart); err != nil {
		h.documents.Remove(files)
		h.logger.Error("outbox enqueue failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.documents.Remove(files)
		h.logger.Error("tx commit failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	h.logger.Info("consultation booked",
		"consultation_id", id,
		"planning_type", consultation.PlanningType,
		"slot_date", slot.Date,
		"slot_time", slot.Time,
		"documents", len(consultation.Documents),
	)
	writeJSON(w, http.StatusCreated, "consultation booked", consultation)
}

// enqueueBookingEvents writes the three follow-up events in the booking
// transaction: notification trigger, durable reminder request and the
// activity-feed entry.
func (h *ConsultationHandler) enqueueBookingEvents(ctx context.Context, tx pgx.Tx, c *model.Consultation, slotStart time.Time) error {
	created, err := json.Marshal(map[string]any{
		"consultation_id": c.ID,
		"name":            c.Name,
		"email":           c.Email,
		"phone":           c.Phone,
		"planning_type":   c.PlanningType,
		"slot_date":       c.Slot.Date,
		"slot_time":       c.Slot.Time,
		"analyst":         c.Slot.AnalystID,
		"documents":       len(c.Documents),
		"created_at":      c.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   c.ID,
		EventType:     outbox.EventConsultationCreated,
		Payload:       created,
	}); err != nil {
		return err
	}

	// Reminder lead time is 24h before the slot; a booking made inside that
	// window yields a job that is due immediately and fires on the next
	// scheduler tick.
	remindAt := slotStart.Add(-reminderLead)
	if now := h.now(); remindAt.Before(now) {
		remindAt = now
	}
	reminder, err := json.Marshal(map[string]any{
		"consultation_id": c.ID,
		"recipient":       c.Email,
		"remind_at":       remindAt.UTC().Format(time.RFC3339),
		"template_data": map[string]any{
			"name":          c.Name,
			"planning_type": string(c.PlanningType),
			"slot_date":     c.Slot.Date,
			"slot_time":     c.Slot.Time,
			"analyst":       c.Slot.AnalystID,
		},
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   c.ID,
		EventType:     outbox.EventReminderRequested,
		Payload:       reminder,
	}); err != nil {
		return err
	}

	activity, err := json.Marshal(map[string]any{
		"user_id":       c.Email,
		"user_type":     "Client",
		"activity_type": "consultation_booked",
		"description":   c.Name + " booked a " + string(c.PlanningType) + " consultation for " + c.Slot.Date + " " + c.Slot.Time,
		"metadata": map[string]any{
			"booking": map[string]any{
				"consultation_id": c.ID,
				"client_id":       c.Email,
				"planning_type":   string(c.PlanningType),
				"slot_date":       c.Slot.Date,
				"slot_time":       c.Slot.Time,
				"documents":       len(c.Documents),
			},
		},
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   c.ID,
		EventType:     outbox.EventActivityLogged,
		Payload:       activity,
	})
}

func (h *ConsultationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	analystID := strings.TrimSpace(r.URL.Query().Get("analystId"))
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	consultations, err := h.repo.List(r.Context(), analystID, limit)
	if err != nil {
		h.logger.Error("consultation list failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, "", consultations)
}

func (h *ConsultationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeClientError(w, http.StatusNotFound, "consultation not found")
			return
		}
		h.logger.Error("consultation fetch failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, "", c)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus drives the consultation state machine:
// pending -> confirmed -> completed, with cancelled reachable from pending
// and confirmed and terminal thereafter.
func (h *ConsultationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	next := model.Status(strings.TrimSpace(req.Status))
	if !next.Valid() {
		writeClientError(w, http.StatusBadRequest, "unknown status")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("tx begin failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := h.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeClientError(w, http.StatusNotFound, "consultation not found")
			return
		}
		h.logger.Error("consultation fetch failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	if !c.Status.CanTransition(next) {
		writeClientError(w, http.StatusConflict, "cannot move consultation from "+string(c.Status)+" to "+string(next))
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, id, next); err != nil {
		h.logger.Error("status update failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	changed, err := json.Marshal(map[string]any{
		"consultation_id": c.ID,
		"email":           c.Email,
		"name":            c.Name,
		"from":            string(c.Status),
		"to":              string(next),
		"slot_date":       c.Slot.Date,
		"slot_time":       c.Slot.Time,
		"analyst":         c.Slot.AnalystID,
	})
	if err != nil {
		h.logger.Error("event payload failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   c.ID,
		EventType:     outbox.EventStatusChanged,
		Payload:       changed,
	}); err != nil {
		h.logger.Error("outbox enqueue failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	activity, err := json.Marshal(map[string]any{
		"user_id":       c.Slot.AnalystID,
		"user_type":     "Analyst",
		"activity_type": "status_changed",
		"description":   "consultation moved to " + string(next),
		"metadata": map[string]any{
			"status_change": map[string]any{
				"consultation_id": c.ID,
				"client_id":       c.Email,
				"from":            string(c.Status),
				"to":              string(next),
			},
		},
	})
	if err != nil {
		h.logger.Error("activity payload failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   c.ID,
		EventType:     outbox.EventActivityLogged,
		Payload:       activity,
	}); err != nil {
		h.logger.Error("outbox enqueue failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("tx commit failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	c.Status = next
	writeJSON(w, http.StatusOK, "status updated", c)
}
