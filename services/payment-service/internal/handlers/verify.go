package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/receipts"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/signature"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/storage"
)

type VerifyHandler struct {
	repo       *storage.PaymentRepository
	outboxRepo *outbox.Repository
	generator  *receipts.Generator
	logger     *slog.Logger
	apiSecret  string
}

func NewVerifyHandler(repo *storage.PaymentRepository, outboxRepo *outbox.Repository, generator *receipts.Generator, apiSecret string, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		generator:  generator,
		logger:     logger,
		apiSecret:  apiSecret,
	}
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Verify checks the checkout callback signature, completes the payment and
// issues the receipt. Re-verifying a completed payment returns the existing
// receipt rather than minting a new one.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.Signature = strings.TrimSpace(req.Signature)
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeClientError(w, http.StatusBadRequest, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}

	if !signature.Verify(req.OrderID, req.PaymentID, req.Signature, h.apiSecret) {
		h.logger.Warn("payment signature rejected", "order_id", req.OrderID)
		writeClientError(w, http.StatusBadRequest, "payment verification failed")
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

	payment, err := h.repo.GetByOrderIDForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeClientError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("payment fetch failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	if payment.Status != model.StatusCompleted {
		now := time.Now()
		if err := h.repo.MarkCompleted(ctx, tx, req.OrderID, req.PaymentID, now); err != nil {
			h.logger.Error("payment completion failed", "err", err)
			writeServerError(w, http.StatusInternalServerError)
			return
		}
		payment.PaymentID = req.PaymentID
		payment.Status = model.StatusCompleted
		payment.CompletedAt = now

		if err := h.enqueueCompletionEvents(ctx, tx, payment); err != nil {
			h.logger.Error("outbox enqueue failed", "err", err)
			writeServerError(w, http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("tx commit failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	receiptNumber, receiptFile, err := h.ensureReceipt(r, payment)
	if err != nil {
		// The payment is already completed; surface the state without the
		// receipt rather than failing the verification.
		h.logger.Error("receipt generation failed", "order_id", payment.OrderID, "err", err)
	} else {
		payment.ReceiptNumber = receiptNumber
		payment.ReceiptFile = receiptFile
	}

	resp := verifyResponse{Payment: payment}
	if payment.ReceiptNumber != "" {
		resp.Receipt = &receiptRef{
			Number: payment.ReceiptNumber,
			URL:    "/api/receipts/" + payment.ReceiptFile,
		}
	}

	h.logger.Info("payment verified", "order_id", payment.OrderID, "payment_id", payment.PaymentID, "receipt", payment.ReceiptNumber)
	writeJSON(w, http.StatusOK, "payment verified", resp)
}

type verifyResponse struct {
	Payment model.Payment `json:"payment"`
	Receipt *receiptRef   `json:"receipt,omitempty"`
}

type receiptRef struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

// ensureReceipt returns the payment's receipt, rendering and storing it only
// the first time around.
func (h *VerifyHandler) ensureReceipt(r *http.Request, payment model.Payment) (string, string, error) {
	if payment.ReceiptNumber != "" {
		return payment.ReceiptNumber, payment.ReceiptFile, nil
	}

	number := h.generator.NextNumber()
	fileName, err := h.generator.Render(payment, number)
	if err != nil {
		return "", "", err
	}

	stored, err := h.repo.SetReceipt(r.Context(), payment.OrderID, number, fileName)
	if err != nil {
		return "", "", err
	}
	if !stored {
		// Lost the race to a concurrent verification; use the stored one.
		current, err := h.repo.GetByOrderID(r.Context(), payment.OrderID)
		if err != nil {
			return "", "", err
		}
		return current.ReceiptNumber, current.ReceiptFile, nil
	}
	return number, fileName, nil
}

func (h *VerifyHandler) enqueueCompletionEvents(ctx context.Context, tx pgx.Tx, p model.Payment) error {
	completed, err := json.Marshal(map[string]any{
		"order_id":        p.OrderID,
		"payment_id":      p.PaymentID,
		"consultation_id": p.ConsultationID,
		"email":           p.Email,
		"amount":          p.AmountPaise,
		"currency":        p.Currency,
		"completed_at":    p.CompletedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "payment",
		AggregateID:   p.OrderID,
		EventType:     outbox.EventPaymentCompleted,
		Payload:       completed,
	}); err != nil {
		return err
	}

	activity, err := json.Marshal(map[string]any{
		"user_id":       p.Email,
		"user_type":     "Client",
		"activity_type": "payment_completed",
		"description":   "payment received for order " + p.OrderID,
		"metadata": map[string]any{
			"payment": map[string]any{
				"order_id":        p.OrderID,
				"payment_id":      p.PaymentID,
				"consultation_id": p.ConsultationID,
				"client_id":       p.Email,
				"amount":          p.AmountPaise,
				"currency":        p.Currency,
			},
		},
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "payment",
		AggregateID:   p.OrderID,
		EventType:     outbox.EventActivityLogged,
		Payload:       activity,
	})
}
