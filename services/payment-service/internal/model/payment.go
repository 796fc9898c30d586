package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Payment struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PaymentID      string    `json:"paymentId,omitempty"`
	ConsultationID string    `json:"consultationId,omitempty"`
	Email          string    `json:"email"`
	AmountPaise    int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	ReceiptNumber  string    `json:"receiptNumber,omitempty"`
	ReceiptFile    string    `json:"receiptFile,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	CompletedAt    time.Time `json:"completedAt,omitempty"`
}
