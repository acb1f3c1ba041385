package repository

import (
	"context"
	"errors"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	// Complete marks the payment COMPLETED and its booking PAID in one
	// transaction.
	Complete(ctx context.Context, paymentID, bookingID int64) error
	MarkFailed(ctx context.Context, paymentID int64) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, amount_cents, payment_method, transaction_id, status, payment_date, created_at, updated_at`

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments
		(booking_id, amount_cents, payment_method, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		payment.BookingID, payment.AmountCents, payment.Method, payment.TransactionID, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	var p domain.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &p.TransactionID, &p.Status, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) Complete(ctx context.Context, paymentID, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE payments SET status = $1, payment_date = now(), updated_at = now()
		WHERE id = $2 AND status <> $1`, domain.PaymentStatusCompleted, paymentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// A concurrent callback already settled this payment.
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`,
		domain.BookingStatusPaid, bookingID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGPaymentRepository) MarkFailed(ctx context.Context, paymentID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`, domain.PaymentStatusFailed, paymentID, domain.PaymentStatusPending)
	return err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
