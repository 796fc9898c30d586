package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/storage"
)

type FinancialHandler struct {
	repo       *storage.ConsultationRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewFinancialHandler(repo *storage.ConsultationRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *FinancialHandler {
	return &FinancialHandler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type financialRequest struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Savings     float64 `json:"savings"`
	Investments float64 `json:"investments"`
	Loans       float64 `json:"loans"`
}

// Append records a financial snapshot for a consultation and publishes it so
// connected dashboards see the update without polling.
func (h *FinancialHandler) Append(w http.ResponseWriter, r *http.Request) {
	consultationID := r.PathValue("id")

	var req financialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Income < 0 || req.Expenses < 0 || req.Savings < 0 || req.Investments < 0 || req.Loans < 0 {
		writeClientError(w, http.StatusBadRequest, "financial amounts must not be negative")
		return
	}

	ctx := r.Context()

	c, err := h.repo.Get(ctx, consultationID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeClientError(w, http.StatusNotFound, "consultation not found")
			return
		}
		h.logger.Error("consultation fetch failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	point := &model.FinancialPoint{
		ConsultationID: consultationID,
		Income:         req.Income,
		Expenses:       req.Expenses,
		Savings:        req.Savings,
		Investments:    req.Investments,
		Loans:          req.Loans,
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("tx begin failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.AppendFinancialPoint(ctx, tx, point); err != nil {
		h.logger.Error("financial insert failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"consultation_id": consultationID,
		"client_id":       c.Email,
		"analyst":         c.Slot.AnalystID,
		"point":           point,
	})
	if err != nil {
		h.logger.Error("event payload failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation",
		AggregateID:   consultationID,
		EventType:     outbox.EventFinancialUpdated,
		Payload:       payload,
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

	writeJSON(w, http.StatusCreated, "financial data recorded", point)
}

func (h *FinancialHandler) List(w http.ResponseWriter, r *http.Request) {
	consultationID := r.PathValue("id")

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	points, err := h.repo.ListFinancialPoints(r.Context(), consultationID, limit)
	if err != nil {
		h.logger.Error("financial list failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, "", points)
}
