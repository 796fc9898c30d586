package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/storage"
)

type ActivityHandler struct {
	repo   *storage.ActivityRepository
	logger *slog.Logger
}

func NewActivityHandler(repo *storage.ActivityRepository, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{repo: repo, logger: logger}
}

// List returns a user's activity feed, newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	userType := model.UserType(strings.TrimSpace(r.URL.Query().Get("userType")))
	if userID == "" {
		writeClientError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if !userType.Valid() {
		writeClientError(w, http.StatusBadRequest, "userType must be Analyst, CA or Client")
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	activities, err := h.repo.List(r.Context(), userID, userType, limit)
	if err != nil {
		h.logger.Error("activity list failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, "", activities)
}
