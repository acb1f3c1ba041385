package repository

import (
	"context"
	"errors"
	"time"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// CreatePending reserves the booking's seats and inserts the booking in
	// one transaction. The seat decrement is conditional on enough slots
	// remaining, so concurrent bookings cannot oversell a departure.
	CreatePending(ctx context.Context, booking *domain.Booking) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
	GetDetailByCode(ctx context.Context, code string) (*domain.BookingDetail, error)
	FindPendingCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	// CancelIfUnpaid flips a PENDING booking to CANCELLED and restores its
	// seats, unless a COMPLETED payment exists for it. Returns false when the
	// booking was paid, already cancelled, or otherwise not eligible.
	CancelIfUnpaid(ctx context.Context, bookingID int64) (bool, error)
	SetStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, tour_departure_id, code, status, num_adults, num_children, sub_total_cents, discount_cents, final_total_cents, contact_name, contact_email, contact_phone, notes, created_at, updated_at`

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seats := booking.Seats()
	cmd, err := tx.Exec(ctx, `UPDATE tour_departures
		SET available_slots = available_slots - $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND available_slots >= $1`,
		seats, booking.TourDepartureID, domain.DepartureStatusOpen)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.Validation("not enough available slots")
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings
		(tour_departure_id, code, status, num_adults, num_children, sub_total_cents, discount_cents, final_total_cents, contact_name, contact_email, contact_phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		booking.TourDepartureID, booking.Code, booking.Status, booking.NumAdults, booking.NumChildren,
		booking.SubTotalCents, booking.DiscountCents, booking.FinalTotalCents,
		booking.ContactName, booking.ContactEmail, booking.ContactPhone, booking.Notes).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE code = $1`, code)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetDetailByCode(ctx context.Context, code string) (*domain.BookingDetail, error) {
	row := r.db.QueryRow(ctx, `SELECT
		b.id, b.tour_departure_id, b.code, b.status, b.num_adults, b.num_children, b.sub_total_cents, b.discount_cents, b.final_total_cents, b.contact_name, b.contact_email, b.contact_phone, b.notes, b.created_at, b.updated_at,
		t.name, d.departure_date, d.return_date
		FROM bookings b
		JOIN tour_departures d ON d.id = b.tour_departure_id
		JOIN tours t ON t.id = d.tour_id
		WHERE b.code = $1`, code)

	var detail domain.BookingDetail
	b := &detail.Booking
	err := row.Scan(
		&b.ID, &b.TourDepartureID, &b.Code, &b.Status, &b.NumAdults, &b.NumChildren,
		&b.SubTotalCents, &b.DiscountCents, &b.FinalTotalCents,
		&b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&detail.TourName, &detail.DepartureDate, &detail.ReturnDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	return &detail, nil
}

func (r *PGBookingRepository) FindPendingCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) CancelIfUnpaid(ctx context.Context, bookingID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// The payment re-check lives inside the cancelling transaction so a
	// settlement that lands between the sweep query and this update wins.
	var departureID int64
	var seats int
	err = tx.QueryRow(ctx, `UPDATE bookings SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = $2 AND p.status = $4)
		RETURNING tour_departure_id, num_adults + num_children`,
		domain.BookingStatusCancelled, bookingID, domain.BookingStatusPending, domain.PaymentStatusCompleted).
		Scan(&departureID, &seats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE tour_departures
		SET available_slots = available_slots + $1, updated_at = now()
		WHERE id = $2`, seats, departureID); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *PGBookingRepository) SetStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("booking not found")
	}
	return nil
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(
		&b.ID, &b.TourDepartureID, &b.Code, &b.Status, &b.NumAdults, &b.NumChildren,
		&b.SubTotalCents, &b.DiscountCents, &b.FinalTotalCents,
		&b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
