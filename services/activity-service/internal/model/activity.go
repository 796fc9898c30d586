package model

import (
	"errors"
	"time"
)

type UserType string

const (
	UserAnalyst UserType = "Analyst"
	UserCA      UserType = "CA"
	UserClient  UserType = "Client"
)

func (t UserType) Valid() bool {
	switch t {
	case UserAnalyst, UserCA, UserClient:
		return true
	}
	return false
}

// Metadata is a tagged union: exactly one variant is set per activity.
type Metadata struct {
	Booking      *BookingMeta      `json:"booking,omitempty"`
	Payment      *PaymentMeta      `json:"payment,omitempty"`
	Document     *DocumentMeta     `json:"document,omitempty"`
	StatusChange *StatusChangeMeta `json:"status_change,omitempty"`
	Financial    *FinancialMeta    `json:"financial,omitempty"`
}

type BookingMeta struct {
	ConsultationID string `json:"consultation_id"`
	ClientID       string `json:"client_id"`
	PlanningType   string `json:"planning_type"`
	SlotDate       string `json:"slot_date"`
	SlotTime       string `json:"slot_time"`
	Documents      int    `json:"documents"`
}

type PaymentMeta struct {
	OrderID        string `json:"order_id"`
	PaymentID      string `json:"payment_id"`
	ConsultationID string `json:"consultation_id,omitempty"`
	ClientID       string `json:"client_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type DocumentMeta struct {
	ConsultationID string `json:"consultation_id"`
	ClientID       string `json:"client_id"`
	FileName       string `json:"file_name"`
}

type StatusChangeMeta struct {
	ConsultationID string `json:"consultation_id"`
	ClientID       string `json:"client_id"`
	From           string `json:"from"`
	To             string `json:"to"`
}

type FinancialMeta struct {
	ConsultationID string `json:"consultation_id"`
	ClientID       string `json:"client_id"`
}

var ErrAmbiguousMetadata = errors.New("activity metadata must carry exactly one variant")

// Validate enforces the one-variant rule.
func (m Metadata) Validate() error {
	n := 0
	if m.Booking != nil {
		n++
	}
	if m.Payment != nil {
		n++
	}
	if m.Document != nil {
		n++
	}
	if m.StatusChange != nil {
		n++
	}
	if m.Financial != nil {
		n++
	}
	if n != 1 {
		return ErrAmbiguousMetadata
	}
	return nil
}

// ConsultationID returns the consultation the variant refers to, if any.
func (m Metadata) ConsultationID() string {
	switch {
	case m.Booking != nil:
		return m.Booking.ConsultationID
	case m.Payment != nil:
		return m.Payment.ConsultationID
	case m.Document != nil:
		return m.Document.ConsultationID
	case m.StatusChange != nil:
		return m.StatusChange.ConsultationID
	case m.Financial != nil:
		return m.Financial.ConsultationID
	}
	return ""
}

// ClientID returns the variant's client, if any.
func (m Metadata) ClientID() string {
	switch {
	case m.Booking != nil:
		return m.Booking.ClientID
	case m.Payment != nil:
		return m.Payment.ClientID
	case m.Document != nil:
		return m.Document.ClientID
	case m.StatusChange != nil:
		return m.StatusChange.ClientID
	case m.Financial != nil:
		return m.Financial.ClientID
	}
	return ""
}

type Activity struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	UserType     UserType  `json:"userType"`
	ActivityType string    `json:"activityType"`
	Description  string    `json:"description"`
	Metadata     Metadata  `json:"metadata"`
	CreatedAt    time.Time `json:"createdAt"`
}
