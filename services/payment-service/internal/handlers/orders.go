package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/storage"
)

// OrderClient creates orders with the payment provider. Satisfied by
// razorpay-go's client.Order.
type OrderClient interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type OrderHandler struct {
	repo   *storage.PaymentRepository
	orders OrderClient
	logger *slog.Logger
	keyID  string
}

func NewOrderHandler(repo *storage.PaymentRepository, orders OrderClient, keyID string, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{repo: repo, orders: orders, logger: logger, keyID: keyID}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Email          string `json:"email"`
	ConsultationID string `json:"consultationId"`
}

type createOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// Create registers an order with the provider and records it locally as
// "pending". Amount is in the currency's smallest unit (paise for INR).
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeClientError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Currency == "" {
		req.Currency = "INR"
	}
	if req.Amount <= 0 {
		writeClientError(w, http.StatusBadRequest, "amount must be a positive integer in the smallest currency unit")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeClientError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	order, err := h.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
	}, nil)
	if err != nil {
		h.logger.Error("provider order create failed", "err", err)
		writeClientError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		h.logger.Error("provider order response missing id")
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	payment := &model.Payment{
		OrderID:        orderID,
		ConsultationID: req.ConsultationID,
		Email:          req.Email,
		AmountPaise:    req.Amount,
		Currency:       req.Currency,
		Status:         model.StatusPending,
	}
	if err := h.repo.CreateOrder(r.Context(), payment); err != nil {
		if storage.IsDuplicateOrder(err) {
			writeClientError(w, http.StatusConflict, "order already exists")
			return
		}
		h.logger.Error("payment insert failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}

	h.logger.Info("payment order created", "order_id", orderID, "amount", req.Amount, "currency", req.Currency)
	writeJSON(w, http.StatusCreated, "order created", createOrderResponse{
		OrderID:  orderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		KeyID:    h.keyID,
	})
}

// Get returns the current state of a payment by provider order id.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")

	payment, err := h.repo.GetByOrderID(r.Context(), orderID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeClientError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("payment fetch failed", "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, "", payment)
}
