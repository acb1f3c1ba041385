package repository

import (
	"context"
	"errors"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FailedEmailRepository interface {
	// Upsert writes the dead-letter record for a booking code, updating the
	// existing row when a second exhaustion hits the same code.
	Upsert(ctx context.Context, msg *domain.FailedEmailMessage) error
	GetByBookingCode(ctx context.Context, bookingCode string) (*domain.FailedEmailMessage, error)
}

type PGFailedEmailRepository struct {
	db *pgxpool.Pool
}

func NewFailedEmailRepository(db *pgxpool.Pool) FailedEmailRepository {
	return &PGFailedEmailRepository{db: db}
}

func (r *PGFailedEmailRepository) Upsert(ctx context.Context, msg *domain.FailedEmailMessage) error {
	return r.db.QueryRow(ctx, `INSERT INTO failed_email_messages
		(booking_code, contact_email, message_content, error_message, retry_count, failed_at, last_retry_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (booking_code) DO UPDATE SET
			contact_email = EXCLUDED.contact_email,
			message_content = EXCLUDED.message_content,
			error_message = EXCLUDED.error_message,
			retry_count = EXCLUDED.retry_count,
			last_retry_at = now()
		RETURNING id, failed_at, last_retry_at`,
		msg.BookingCode, msg.ContactEmail, msg.MessageContent, msg.ErrorMessage, msg.RetryCount).
		Scan(&msg.ID, &msg.FailedAt, &msg.LastRetryAt)
}

func (r *PGFailedEmailRepository) GetByBookingCode(ctx context.Context, bookingCode string) (*domain.FailedEmailMessage, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_code, contact_email, message_content, error_message, retry_count, failed_at, last_retry_at
		FROM failed_email_messages WHERE booking_code = $1`, bookingCode)
	var m domain.FailedEmailMessage
	err := row.Scan(&m.ID, &m.BookingCode, &m.ContactEmail, &m.MessageContent, &m.ErrorMessage, &m.RetryCount, &m.FailedAt, &m.LastRetryAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("failed email message not found")
		}
		return nil, err
	}
	return &m, nil
}

var _ FailedEmailRepository = (*PGFailedEmailRepository)(nil)
