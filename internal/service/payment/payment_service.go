package payment

import (
	"context"
	"time"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/awesome-academy/booking-tour/internal/repository"
	"github.com/awesome-academy/booking-tour/internal/stripe"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PaymentUseCase interface {
	CreateCheckout(ctx context.Context, bookingCode string) (*CheckoutResult, error)
	HandleSuccess(ctx context.Context, sessionID string) (*SettlementResult, error)
	HandleCancel(ctx context.Context, sessionID string) (*SettlementResult, error)
}

// Gateway is the external payment service boundary: open a session for an
// amount, and report the authoritative paid/unpaid verdict for a session.
type Gateway interface {
	CreateSession(ctx context.Context, amountCents int64, productName, bookingCode string) (*stripe.CheckoutSession, error)
	IsSessionPaid(ctx context.Context, sessionID string) (bool, error)
}

// EmailEnqueuer pushes a notification job onto the durable email queue.
type EmailEnqueuer interface {
	Enqueue(ctx context.Context, job domain.EmailJob) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type SettlementResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	BookingCode string `json:"booking_code"`
	SessionID   string `json:"session_id"`
}

type PaymentService struct {
	bookings    repository.BookingRepository
	payments    repository.PaymentRepository
	gateway     Gateway
	queue       EmailEnqueuer
	producer    Producer
	eventsTopic string
	logger      zerolog.Logger
}

func NewPaymentService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	gateway Gateway,
	queue EmailEnqueuer,
	producer Producer,
	eventsTopic string,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		bookings:    bookings,
		payments:    payments,
		gateway:     gateway,
		queue:       queue,
		producer:    producer,
		eventsTopic: eventsTopic,
		logger:      logger,
	}
}

func (s *PaymentService) CreateCheckout(ctx context.Context, bookingCode string) (*CheckoutResult, error) {
	if bookingCode == "" {
		return nil, apperr.Validation("missing booking code")
	}

	booking, err := s.bookings.GetByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if booking.FinalTotalCents <= 0 {
		return nil, apperr.Validation("invalid booking amount")
	}

	session, err := s.gateway.CreateSession(ctx, booking.FinalTotalCents, "Booking "+booking.Code, booking.Code)
	if err != nil {
		return nil, apperr.Settlement("failed to create checkout session", err)
	}

	payment := &domain.Payment{
		BookingID:     booking.ID,
		AmountCents:   booking.FinalTotalCents,
		Method:        domain.PaymentMethodStripe,
		TransactionID: session.ID,
		Status:        domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

func (s *PaymentService) HandleSuccess(ctx context.Context, sessionID string) (*SettlementResult, error) {
	if sessionID == "" {
		return nil, apperr.Validation("missing session_id")
	}

	payment, err := s.payments.GetByTransactionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}

	// Duplicate callback: the payment already settled, return success
	// without re-applying side effects.
	if payment.Status == domain.PaymentStatusCompleted {
		return &SettlementResult{Success: true, Message: "payment already completed", BookingCode: booking.Code, SessionID: sessionID}, nil
	}

	paid, err := s.gateway.IsSessionPaid(ctx, sessionID)
	if err != nil {
		return nil, apperr.Settlement("failed to verify checkout session", err)
	}
	if !paid {
		if err := s.payments.MarkFailed(ctx, payment.ID); err != nil {
			return nil, err
		}
		return &SettlementResult{Success: false, Message: "payment not completed", BookingCode: booking.Code, SessionID: sessionID}, nil
	}

	if err := s.payments.Complete(ctx, payment.ID, payment.BookingID); err != nil {
		return nil, err
	}

	// Post-commit side effects. Both are best effort: a queue or broker
	// outage must not fail a payment that the gateway says went through.
	s.enqueuePaymentSuccessEmail(ctx, booking)
	s.publishPaymentEvent(ctx, booking)

	return &SettlementResult{Success: true, Message: "payment success", BookingCode: booking.Code, SessionID: sessionID}, nil
}

func (s *PaymentService) HandleCancel(ctx context.Context, sessionID string) (*SettlementResult, error) {
	if sessionID == "" {
		return nil, apperr.Validation("missing session_id")
	}

	payment, err := s.payments.GetByTransactionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}

	// A cancelled checkout fails the payment attempt only. The booking keeps
	// its seats until the expiration sweep reclaims them, so the customer
	// can still retry payment within the grace period.
	if payment.Status == domain.PaymentStatusPending {
		if err := s.payments.MarkFailed(ctx, payment.ID); err != nil {
			return nil, err
		}
	}

	return &SettlementResult{Success: false, Message: "payment cancelled", BookingCode: booking.Code, SessionID: sessionID}, nil
}

func (s *PaymentService) enqueuePaymentSuccessEmail(ctx context.Context, booking *domain.Booking) {
	if s.queue == nil {
		return
	}
	job := domain.EmailJob{
		Type:        domain.EmailJobTypeBookingPaymentSuccess,
		BookingCode: booking.Code,
		Attempt:     0,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("booking_code", booking.Code).
			Msg("failed to enqueue payment success email job")
		return
	}
	s.logger.Info().Str("booking_code", booking.Code).Msg("enqueued payment success email job")
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	tourName := ""
	if detail, err := s.bookings.GetDetailByCode(ctx, booking.Code); err == nil {
		tourName = detail.TourName
	}
	event := kafka.PaymentEvent{
		EventID:       uuid.NewString(),
		BookingCode:   booking.Code,
		CustomerName:  booking.ContactName,
		CustomerEmail: booking.ContactEmail,
		AmountCents:   booking.FinalTotalCents,
		TourName:      tourName,
		PaymentDate:   time.Now(),
		Message:       "New booking payment completed successfully!",
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.Code, event); err != nil {
		s.logger.Error().Err(err).Str("booking_code", booking.Code).
			Msg("failed to publish payment event")
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
