package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFeedback_RejectsShortMessage(t *testing.T) {
	h := NewFeedbackHandler(nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"name":"Asha","email":"asha@example.com","message":"too short"}`))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !strings.Contains(env.Message, "10 characters") {
		t.Fatalf("message should state the length rule, got %q", env.Message)
	}
}

func TestFeedback_RejectsMissingEmail(t *testing.T) {
	h := NewFeedbackHandler(nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"name":"Asha","message":"this message is long enough"}`))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
