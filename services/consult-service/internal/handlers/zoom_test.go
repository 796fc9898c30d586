package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/zoom"
)

func newZoomTestHandler(upstream *httptest.Server) *ZoomHandler {
	base := ""
	if upstream != nil {
		base = upstream.URL
	}
	return NewZoomHandler(zoom.NewClient(base, "test-token"), discardLogger())
}

func TestCreateMeetingRejectsMissingTopic(t *testing.T) {
	h := newZoomTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/zoom/meetings",
		strings.NewReader(`{"startTime":"2024-06-12T09:00:00Z"}`))
	rec := httptest.NewRecorder()
	h.CreateMeeting(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateMeetingRejectsBadStartTime(t *testing.T) {
	h := newZoomTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/zoom/meetings",
		strings.NewReader(`{"topic":"Planning call","startTime":"tomorrow 9am"}`))
	rec := httptest.NewRecorder()
	h.CreateMeeting(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(env.Message, "RFC 3339") {
		t.Fatalf("message = %q, want RFC 3339 hint", env.Message)
	}
}

func TestCreateMeetingReturnsProviderURLs(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/meetings" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":81234,"topic":"Planning call","join_url":"https://zoom.example/j/81234","start_url":"https://zoom.example/s/81234"}`))
	}))
	defer upstream.Close()

	h := newZoomTestHandler(upstream)
	req := httptest.NewRequest(http.MethodPost, "/api/zoom/meetings",
		strings.NewReader(`{"topic":"Planning call","startTime":"2024-06-12T09:00:00Z","duration":60}`))
	rec := httptest.NewRecorder()
	h.CreateMeeting(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data zoom.Meeting `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data.ID != "81234" {
		t.Fatalf("meeting id = %q, want 81234", env.Data.ID)
	}
	if env.Data.JoinURL != "https://zoom.example/j/81234" {
		t.Fatalf("join url = %q", env.Data.JoinURL)
	}
}

func TestCreateMeetingMapsUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	h := newZoomTestHandler(upstream)
	req := httptest.NewRequest(http.MethodPost, "/api/zoom/meetings",
		strings.NewReader(`{"topic":"Planning call","startTime":"2024-06-12T09:00:00Z"}`))
	rec := httptest.NewRecorder()
	h.CreateMeeting(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if strings.Contains(env.Message, "429") {
		t.Fatalf("message leaks upstream status: %q", env.Message)
	}
}
