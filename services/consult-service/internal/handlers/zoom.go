package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/zoom"
)

type ZoomHandler struct {
	client *zoom.Client
	logger *slog.Logger
}

func NewZoomHandler(client *zoom.Client, logger *slog.Logger) *ZoomHandler {
	return &ZoomHandler{client: client, logger: logger}
}

type createMeetingRequest struct {
	Topic     string `json:"topic"`
	StartTime string `json:"startTime"`
	Duration  int    `json:"duration"`
}

// CreateMeeting provisions a video meeting and returns the join and host
// URLs.
func (h *ZoomHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" || req.StartTime == "" {
		writeClientError(w, http.StatusBadRequest, "topic and startTime are required")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeClientError(w, http.StatusBadRequest, "startTime must be RFC 3339")
		return
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}

	meeting, err := h.client.CreateMeeting(r.Context(), req.Topic, start, req.Duration)
	if err != nil {
		if errors.Is(err, zoom.ErrUpstream) {
			h.logger.Error("meeting provider rejected request", "err", err)
			writeClientError(w, http.StatusBadGateway, "meeting provider unavailable")
			return
		}
		h.logger.Error("meeting create failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, "meeting created", meeting)
}

func (h *ZoomHandler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if meetingID == "" {
		writeClientError(w, http.StatusBadRequest, "meeting id is required")
		return
	}

	if err := h.client.EndMeeting(r.Context(), meetingID); err != nil {
		if errors.Is(err, zoom.ErrUpstream) {
			writeClientError(w, http.StatusBadGateway, "meeting provider unavailable")
			return
		}
		h.logger.Error("meeting end failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, "meeting ended", nil)
}
