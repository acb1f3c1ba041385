package notifications

import (
	"context"

	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/repository"
	"github.com/rs/zerolog"
)

// DeadLetterService parks notifications that exhausted their retry budget.
// Records are upserted by booking code and never replayed automatically;
// operators inspect and resend them by hand.
type DeadLetterService struct {
	repo   repository.FailedEmailRepository
	logger zerolog.Logger
}

func NewDeadLetterService(repo repository.FailedEmailRepository, logger zerolog.Logger) *DeadLetterService {
	return &DeadLetterService{repo: repo, logger: logger}
}

func (s *DeadLetterService) Save(ctx context.Context, bookingCode, contactEmail string, payload []byte, cause error, retryCount int) error {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}

	msg := &domain.FailedEmailMessage{
		BookingCode:    bookingCode,
		ContactEmail:   contactEmail,
		MessageContent: string(payload),
		ErrorMessage:   errMsg,
		RetryCount:     retryCount,
	}
	if err := s.repo.Upsert(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("booking_code", bookingCode).Msg("failed to save dead letter record")
		return err
	}

	s.logger.Warn().Str("booking_code", bookingCode).Int("retry_count", retryCount).
		Msg("saved notification to dead letter queue")
	return nil
}
