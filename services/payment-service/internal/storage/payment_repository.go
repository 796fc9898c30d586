package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/model"
)

type PaymentRepository struct {
	pool *db.Pool
}

func NewPaymentRepository(pool *db.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *PaymentRepository) CreateOrder(ctx context.Context, p *model.Payment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO payments (order_id, consultation_id, email, amount_paise, currency, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING id, created_at`,
		p.OrderID, p.ConsultationID, p.Email, p.AmountPaise, p.Currency, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx, selectPayment+` WHERE order_id = $1`, orderID))
}

func (r *PaymentRepository) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (model.Payment, error) {
	return r.scanPayment(tx.QueryRow(ctx, selectPayment+` WHERE order_id = $1 FOR UPDATE`, orderID))
}

const selectPayment = `
	SELECT id, order_id, COALESCE(payment_id, ''), COALESCE(consultation_id, ''),
	       email, amount_paise, currency, status,
	       COALESCE(receipt_number, ''), COALESCE(receipt_file, ''),
	       created_at, completed_at
	FROM payments`

func (r *PaymentRepository) scanPayment(row pgx.Row) (model.Payment, error) {
	var p model.Payment
	var completedAt sql.NullTime
	err := row.Scan(&p.ID, &p.OrderID, &p.PaymentID, &p.ConsultationID,
		&p.Email, &p.AmountPaise, &p.Currency, &p.Status,
		&p.ReceiptNumber, &p.ReceiptFile,
		&p.CreatedAt, &completedAt)
	if err != nil {
		return model.Payment{}, err
	}
	if completedAt.Valid {
		p.CompletedAt = completedAt.Time
	}
	return p, nil
}

func (r *PaymentRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, orderID, paymentID string, completedAt time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET payment_id = $2, status = $3, completed_at = $4
		WHERE order_id = $1`,
		orderID, paymentID, model.StatusCompleted, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = $2 WHERE order_id = $1 AND status = $3`,
		orderID, model.StatusFailed, model.StatusPending)
	return err
}

// SetReceipt stores the receipt number and file only when the payment does
// not already carry one, so a payment always keeps its first receipt.
func (r *PaymentRepository) SetReceipt(ctx context.Context, orderID, receiptNumber, receiptFile string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET receipt_number = $2, receipt_file = $3
		WHERE order_id = $1 AND receipt_number IS NULL`,
		orderID, receiptNumber, receiptFile)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func IsDuplicateOrder(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
