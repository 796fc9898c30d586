package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/intake"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/model"
)

func multipartBooking(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not valid json: %v", err)
	}
	return env
}

func newTestHandler() *ConsultationHandler {
	h := NewConsultationHandler(nil, nil, nil, discardLogger(), time.UTC)
	h.now = func() time.Time {
		return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	body, contentType := multipartBooking(t, map[string]string{
		"name":  "Asha",
		"email": "asha@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/consultations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler().Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("expected success=false")
	}
	if env.Message == "" {
		t.Fatal("expected a human-readable message")
	}
}

func TestCreate_RejectsUnknownPlanningType(t *testing.T) {
	body, contentType := multipartBooking(t, map[string]string{
		"name":             "Asha",
		"email":            "asha@example.com",
		"phone":            "+911234567890",
		"planningType":     "retirement",
		"consultationSlot": `{"date":"2024-06-12","time":"9:00","analyst":"ravi"}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/consultations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler().Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(env.Message, "planningType") {
		t.Fatalf("message should name the field, got %q", env.Message)
	}
}

func TestCreate_RejectsMalformedSlot(t *testing.T) {
	for _, slot := range []string{
		"not-json",
		`{"date":"2024-06-12","time":"8:00","analyst":"ravi"}`,
		`{"date":"2024-06-12","time":"09:00","analyst":"ravi"}`,
		`{"date":"12-06-2024","time":"9:00","analyst":"ravi"}`,
	} {
		body, contentType := multipartBooking(t, map[string]string{
			"name":             "Asha",
			"email":            "asha@example.com",
			"phone":            "+911234567890",
			"planningType":     "business",
			"consultationSlot": slot,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/consultations", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestHandler().Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("slot %q: expected 400, got %d", slot, rec.Code)
		}
	}
}

func TestCreate_RejectsPastSlot(t *testing.T) {
	body, contentType := multipartBooking(t, map[string]string{
		"name":             "Asha",
		"email":            "asha@example.com",
		"phone":            "+911234567890",
		"planningType":     "loan",
		"consultationSlot": `{"date":"2024-06-09","time":"9:00","analyst":"ravi"}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/consultations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler().Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !strings.Contains(env.Message, "past") {
		t.Fatalf("message should mention the past slot, got %q", env.Message)
	}
}

func TestCreate_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/consultations", nil)
	rec := httptest.NewRecorder()

	newTestHandler().Create(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// conflictTx is the minimal transaction the conflict path touches: only the
// deferred Rollback runs before the handler bails out.
type conflictTx struct{ pgx.Tx }

func (conflictTx) Rollback(context.Context) error { return nil }

// conflictRepo fails every insert the way the partial unique index on
// (slot_date, slot_time) does when two bookings race for one slot.
type conflictRepo struct{}

func (conflictRepo) Begin(context.Context) (pgx.Tx, error) { return conflictTx{}, nil }

func (conflictRepo) Create(context.Context, pgx.Tx, *model.Consultation) (string, error) {
	return "", fmt.Errorf("insert consultation: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "consultations_slot_date_slot_time_key",
	})
}

func (conflictRepo) Get(context.Context, string) (model.Consultation, error) {
	return model.Consultation{}, pgx.ErrNoRows
}

func (conflictRepo) List(context.Context, string, int) ([]model.Consultation, error) {
	return nil, nil
}

func (conflictRepo) GetForUpdate(context.Context, pgx.Tx, string) (model.Consultation, error) {
	return model.Consultation{}, pgx.ErrNoRows
}

func (conflictRepo) UpdateStatus(context.Context, pgx.Tx, string, model.Status) error {
	return nil
}

func TestCreate_SlotConflictReturns409(t *testing.T) {
	store := intake.NewStore(filepath.Join(t.TempDir(), "documents"))
	h := NewConsultationHandler(conflictRepo{}, store, nil, discardLogger(), time.UTC)
	h.now = func() time.Time {
		return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name":             "Asha",
		"email":            "asha@example.com",
		"phone":            "+911234567890",
		"planningType":     "business",
		"consultationSlot": `{"date":"2024-06-12","time":"9:00","analyst":"ravi"}`,
	} {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="documents"; filename="statement.pdf"`},
		"Content-Type":        {"application/pdf"},
	})
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("part write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/consultations", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "slot already booked" {
		t.Fatalf("message = %q, want slot already booked", env.Message)
	}

	// The losing booking must not keep its uploads around.
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("conflicting booking left %d stored files", len(entries))
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/consultations/abc/status",
		strings.NewReader(`{"status":"archived"}`))
	rec := httptest.NewRecorder()

	newTestHandler().UpdateStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
