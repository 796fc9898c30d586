package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/storage"
)

const minFeedbackLen = 10

type FeedbackHandler struct {
	repo   *storage.ConsultationRepository
	logger *slog.Logger
}

func NewFeedbackHandler(repo *storage.ConsultationRepository, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{repo: repo, logger: logger}
}

type feedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" {
		writeClientError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeClientError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Message) < minFeedbackLen {
		writeClientError(w, http.StatusBadRequest, "message must be at least 10 characters")
		return
	}

	if err := h.repo.InsertFeedback(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.logger.Error("feedback insert failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	h.logger.Info("feedback received", "email", req.Email)
	writeJSON(w, http.StatusCreated, "feedback received", nil)
}
