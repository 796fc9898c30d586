package storage

import (
	"context"
	"encoding/json"

	"github.com/Sahej121/financial-app-sub002/libs/db"
)

type Notification struct {
	ConsultationID string
	Kind           string
	Recipient      string
	Payload        map[string]any
	Status         string
	FailureReason  string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (consultation_id, kind, recipient, payload, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`, n.ConsultationID, n.Kind, n.Recipient, payload, n.Status, n.FailureReason)
	return err
}
