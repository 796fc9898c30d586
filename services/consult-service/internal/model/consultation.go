package model

import "time"

type PlanningType string

const (
	PlanningBusiness   PlanningType = "business"
	PlanningLoan       PlanningType = "loan"
	PlanningInvestment PlanningType = "investment"
)

func (p PlanningType) Valid() bool {
	switch p {
	case PlanningBusiness, PlanningLoan, PlanningInvestment:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the consultation state machine allows
// moving from s to next. cancelled is terminal; completed is only reachable
// from confirmed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Slot is a bookable one-hour window. Time is the hour label as the booking
// UI sends it ("9:00", not "09:00") and must be compared by string equality.
type Slot struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"`
	AnalystID string `json:"analyst"`
}

type Document struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	StoredPath string    `json:"-"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Consultation struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	PlanningType PlanningType `json:"planningType"`
	Slot         Slot         `json:"consultationSlot"`
	Documents    []Document   `json:"documents"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// FinancialPoint is one append-only entry in a consultation's financial
// data series.
type FinancialPoint struct {
	ConsultationID string    `json:"consultationId"`
	RecordedAt     time.Time `json:"recordedAt"`
	Income         float64   `json:"income"`
	Expenses       float64   `json:"expenses"`
	Savings        float64   `json:"savings"`
	Investments    float64   `json:"investments"`
	Loans          float64   `json:"loans"`
}
