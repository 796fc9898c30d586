package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubOrderClient struct {
	response map[string]interface{}
	err      error
	lastData map[string]interface{}
}

func (s *stubOrderClient) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.lastData = data
	return s.response, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	h := NewOrderHandler(nil, &stubOrderClient{}, "rzp_test_key", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"amount":0,"email":"asha@example.com"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrder_RejectsBadEmail(t *testing.T) {
	h := NewOrderHandler(nil, &stubOrderClient{}, "rzp_test_key", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"amount":250000,"email":"not-an-email"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrder_ProviderFailureIsBadGateway(t *testing.T) {
	stub := &stubOrderClient{err: errors.New("connection refused")}
	h := NewOrderHandler(nil, stub, "rzp_test_key", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"amount":250000,"email":"asha@example.com"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if env.Success {
		t.Fatal("expected success=false")
	}
	if strings.Contains(env.Message, "connection refused") {
		t.Fatal("provider error detail must not leak to the client")
	}
	if stub.lastData["amount"] != int64(250000) {
		t.Fatalf("amount not forwarded to provider: %v", stub.lastData["amount"])
	}
}

func TestVerify_RejectsMissingFields(t *testing.T) {
	h := NewVerifyHandler(nil, nil, nil, "secret", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/verify",
		strings.NewReader(`{"razorpay_order_id":"order_1"}`))
	rec := httptest.NewRecorder()

	h.Verify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVerify_RejectsBadSignature(t *testing.T) {
	h := NewVerifyHandler(nil, nil, nil, "secret", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/verify",
		strings.NewReader(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"deadbeef"}`))
	rec := httptest.NewRecorder()

	h.Verify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if env.Message != "payment verification failed" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}
