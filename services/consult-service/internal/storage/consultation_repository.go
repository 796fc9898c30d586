package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/availability"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/model"
)

type ConsultationRepository struct {
	pool *db.Pool
}

func NewConsultationRepository(pool *db.Pool) *ConsultationRepository {
	return &ConsultationRepository{pool: pool}
}

func (r *ConsultationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts the consultation and its owned documents. The partial
// unique index on (slot_date, slot_time) for non-cancelled rows rejects
// double bookings; callers classify that with IsSlotConflict.
func (r *ConsultationRepository) Create(ctx context.Context, tx pgx.Tx, c *model.Consultation) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO consultations
			(name, email, phone, planning_type, slot_date, slot_time, analyst_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, c.Name, c.Email, c.Phone, c.PlanningType, c.Slot.Date, c.Slot.Time, c.Slot.AnalystID, c.Status).
		Scan(&id, &c.CreatedAt)
	if err != nil {
		return "", err
	}

	for i := range c.Documents {
		doc := &c.Documents[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO consultation_documents (consultation_id, file_name, stored_path, uploaded_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, id, doc.FileName, doc.StoredPath, doc.UploadedAt).Scan(&doc.ID)
		if err != nil {
			return "", err
		}
	}
	c.ID = id
	return id, nil
}

func (r *ConsultationRepository) Get(ctx context.Context, id string) (model.Consultation, error) {
	var c model.Consultation
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, planning_type, slot_date::text, slot_time, analyst_id, status, created_at
		FROM consultations
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PlanningType, &c.Slot.Date, &c.Slot.Time, &c.Slot.AnalystID, &c.Status, &c.CreatedAt)
	if err != nil {
		return model.Consultation{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, file_name, stored_path, uploaded_at
		FROM consultation_documents
		WHERE consultation_id = $1
		ORDER BY uploaded_at
	`, id)
	if err != nil {
		return model.Consultation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.FileName, &d.StoredPath, &d.UploadedAt); err != nil {
			return model.Consultation{}, err
		}
		c.Documents = append(c.Documents, d)
	}
	if rows.Err() != nil {
		return model.Consultation{}, rows.Err()
	}
	return c, nil
}

func (r *ConsultationRepository) List(ctx context.Context, analystID string, limit int) ([]model.Consultation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, planning_type, slot_date::text, slot_time, analyst_id, status, created_at
		FROM consultations
		WHERE ($1 = '' OR analyst_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, analystID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Consultation
	for rows.Next() {
		var c model.Consultation
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PlanningType, &c.Slot.Date, &c.Slot.Time, &c.Slot.AnalystID, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// BookedSlots returns the occupied (date, time-label) pairs inside the
// availability window. Cancelled consultations free their slot.
func (r *ConsultationRepository) BookedSlots(ctx context.Context, from, to time.Time) ([]availability.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_date::text, slot_time
		FROM consultations
		WHERE status <> 'cancelled'
			AND slot_date >= $1
			AND slot_date <= $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var booked []availability.Booking
	for rows.Next() {
		var b availability.Booking
		if err := rows.Scan(&b.Date, &b.Time); err != nil {
			return nil, err
		}
		booked = append(booked, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return booked, nil
}

func (r *ConsultationRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Consultation, error) {
	var c model.Consultation
	err := tx.QueryRow(ctx, `
		SELECT id, name, email, phone, planning_type, slot_date::text, slot_time, analyst_id, status, created_at
		FROM consultations
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PlanningType, &c.Slot.Date, &c.Slot.Time, &c.Slot.AnalystID, &c.Status, &c.CreatedAt)
	if err != nil {
		return model.Consultation{}, err
	}
	return c, nil
}

func (r *ConsultationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE consultations
		SET status = $2
		WHERE id = $1
	`, id, status)
	return err
}

func (r *ConsultationRepository) AppendFinancialPoint(ctx context.Context, tx pgx.Tx, p *model.FinancialPoint) error {
	return tx.QueryRow(ctx, `
		INSERT INTO financial_data (consultation_id, income, expenses, savings, investments, loans)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING recorded_at
	`, p.ConsultationID, p.Income, p.Expenses, p.Savings, p.Investments, p.Loans).Scan(&p.RecordedAt)
}

func (r *ConsultationRepository) ListFinancialPoints(ctx context.Context, consultationID string, limit int) ([]model.FinancialPoint, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT consultation_id, recorded_at, income, expenses, savings, investments, loans
		FROM financial_data
		WHERE consultation_id = $1
		ORDER BY recorded_at
		LIMIT $2
	`, consultationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.FinancialPoint
	for rows.Next() {
		var p model.FinancialPoint
		if err := rows.Scan(&p.ConsultationID, &p.RecordedAt, &p.Income, &p.Expenses, &p.Savings, &p.Investments, &p.Loans); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

func (r *ConsultationRepository) InsertFeedback(ctx context.Context, name, email, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO feedback (name, email, message)
		VALUES ($1, $2, $3)
	`, name, email, message)
	return err
}

// IsSlotConflict reports a unique-index violation on the booking slot.
func IsSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
