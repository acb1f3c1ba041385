package booking

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/awesome-academy/booking-tour/internal/repository"
	"github.com/rs/zerolog"
)

const codeMaxTries = 10

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	// CancelOverdueBookings reclaims seats from unpaid bookings older than
	// the grace period. Returns the number of bookings cancelled.
	CancelOverdueBookings(ctx context.Context) (int, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	TourDepartureID int64  `json:"tour_departure_id"`
	NumAdults       int    `json:"num_adults"`
	NumChildren     int    `json:"num_children"`
	ContactName     string `json:"contact_name"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	Notes           string `json:"notes"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	departures         repository.DepartureRepository
	producer           Producer
	notificationsTopic string
	gracePeriod        time.Duration
	logger             zerolog.Logger
	now                func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	departures repository.DepartureRepository,
	producer Producer,
	notificationsTopic string,
	gracePeriod time.Duration,
	logger zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings:           bookings,
		departures:         departures,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		gracePeriod:        gracePeriod,
		logger:             logger,
		now:                time.Now,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.NumAdults < 0 || input.NumChildren < 0 {
		return nil, apperr.Validation("passenger counts must not be negative")
	}
	seats := input.NumAdults + input.NumChildren
	if seats <= 0 {
		return nil, apperr.Validation("number of passengers must be greater than 0")
	}
	if input.ContactEmail == "" {
		return nil, apperr.Validation("contact email is required")
	}

	detail, err := s.departures.GetDetailByID(ctx, input.TourDepartureID)
	if err != nil {
		return nil, err
	}
	if detail.Departure.Status != domain.DepartureStatusOpen {
		return nil, apperr.Validation("tour departure is not open for booking")
	}
	if detail.Departure.AvailableSlots < seats {
		return nil, apperr.Validation("not enough available slots")
	}

	subTotal, discount, finalTotal := ComputeTotals(detail.Tour, input.NumAdults, input.NumChildren)

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		TourDepartureID: input.TourDepartureID,
		Code:            code,
		Status:          domain.BookingStatusPending,
		NumAdults:       input.NumAdults,
		NumChildren:     input.NumChildren,
		SubTotalCents:   subTotal,
		DiscountCents:   discount,
		FinalTotalCents: finalTotal,
		ContactName:     input.ContactName,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		Notes:           input.Notes,
	}

	// The capacity pre-check above is advisory; the repository re-checks
	// atomically while decrementing, so concurrent intakes cannot oversell.
	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}

	s.publishConfirmation(ctx, booking, detail)
	return booking, nil
}

// publishConfirmation feeds the broker confirmation-email path. Best effort:
// a publish failure must not fail the booking that already committed.
func (s *BookingService) publishConfirmation(ctx context.Context, booking *domain.Booking, detail *domain.DepartureDetail) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	msg := kafka.BookingEmailMessage{
		BookingCode:     booking.Code,
		TourName:        detail.Tour.Name,
		DepartureDate:   detail.Departure.DepartureDate,
		NumAdults:       booking.NumAdults,
		NumChildren:     booking.NumChildren,
		FinalTotalCents: booking.FinalTotalCents,
		ContactName:     booking.ContactName,
		ContactEmail:    booking.ContactEmail,
		ContactPhone:    booking.ContactPhone,
		Status:          string(booking.Status),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Code, msg); err != nil {
		s.logger.Error().Err(err).Str("booking_code", booking.Code).
			Msg("failed to publish booking confirmation message")
	}
}

func (s *BookingService) CancelOverdueBookings(ctx context.Context) (int, error) {
	deadline := s.now().Add(-s.gracePeriod)
	overdue, err := s.bookings.FindPendingCreatedBefore(ctx, deadline)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, b := range overdue {
		// CancelIfUnpaid re-verifies inside its transaction that no payment
		// completed since the query; a freshly paid booking is skipped.
		ok, err := s.bookings.CancelIfUnpaid(ctx, b.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("booking_code", b.Code).Msg("failed to cancel overdue booking")
			continue
		}
		if !ok {
			continue
		}
		cancelled++
		s.logger.Info().Str("booking_code", b.Code).Int("seats", b.Seats()).
			Msg("cancelled overdue booking, restored slots")
	}
	return cancelled, nil
}

func (s *BookingService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < codeMaxTries; i++ {
		code := GenerateCode(s.now())
		exists, err := s.bookings.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique booking code after %d tries", codeMaxTries)
}

// GenerateCode builds a human-readable booking code: BK + timestamp + a
// 6-digit random suffix. Uniqueness is enforced by the bookings table; the
// caller retries on collision.
func GenerateCode(now time.Time) string {
	suffix := rand.Intn(900000) + 100000
	return fmt.Sprintf("BK%s%d", now.Format("20060102150405"), suffix)
}

// ComputeTotals prices a booking in cents. The discount is
// subtotal * discountRate / 100, rounded half-up to whole cents.
func ComputeTotals(tour domain.Tour, numAdults, numChildren int) (subTotal, discount, finalTotal int64) {
	subTotal = tour.PriceAdultCents*int64(numAdults) + tour.PriceChildCents*int64(numChildren)
	if tour.DiscountRate > 0 {
		discount = int64(math.Floor(float64(subTotal)*tour.DiscountRate/100 + 0.5))
	}
	finalTotal = subTotal - discount
	return subTotal, discount, finalTotal
}

var _ BookingUseCase = (*BookingService)(nil)
