package repository

import (
	"context"
	"errors"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DepartureRepository interface {
	List(ctx context.Context) ([]domain.DepartureDetail, error)
	GetDetailByID(ctx context.Context, id int64) (*domain.DepartureDetail, error)
}

type PGDepartureRepository struct {
	db *pgxpool.Pool
}

func NewDepartureRepository(db *pgxpool.Pool) DepartureRepository {
	return &PGDepartureRepository{db: db}
}

const departureDetailColumns = `
	d.id, d.tour_id, d.status, d.total_slots, d.available_slots, d.departure_date, d.return_date, d.created_at, d.updated_at,
	t.id, t.name, t.price_adult_cents, t.price_child_cents, t.discount_rate, t.created_at, t.updated_at`

func (r *PGDepartureRepository) List(ctx context.Context) ([]domain.DepartureDetail, error) {
	rows, err := r.db.Query(ctx, `SELECT `+departureDetailColumns+`
		FROM tour_departures d
		JOIN tours t ON t.id = d.tour_id
		WHERE d.status = $1
		ORDER BY d.departure_date`, domain.DepartureStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.DepartureDetail, 0)
	for rows.Next() {
		var detail domain.DepartureDetail
		if err := scanDepartureDetail(rows, &detail); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}

func (r *PGDepartureRepository) GetDetailByID(ctx context.Context, id int64) (*domain.DepartureDetail, error) {
	row := r.db.QueryRow(ctx, `SELECT `+departureDetailColumns+`
		FROM tour_departures d
		JOIN tours t ON t.id = d.tour_id
		WHERE d.id = $1`, id)

	var detail domain.DepartureDetail
	if err := scanDepartureDetail(row, &detail); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("tour departure not found")
		}
		return nil, err
	}
	return &detail, nil
}

func scanDepartureDetail(row pgx.Row, detail *domain.DepartureDetail) error {
	d := &detail.Departure
	t := &detail.Tour
	return row.Scan(
		&d.ID, &d.TourID, &d.Status, &d.TotalSlots, &d.AvailableSlots, &d.DepartureDate, &d.ReturnDate, &d.CreatedAt, &d.UpdatedAt,
		&t.ID, &t.Name, &t.PriceAdultCents, &t.PriceChildCents, &t.DiscountRate, &t.CreatedAt, &t.UpdatedAt,
	)
}

var _ DepartureRepository = (*PGDepartureRepository)(nil)
