package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/email"
	"github.com/rs/zerolog"
)

// JobQueue is the store the worker drains. *EmailQueue implements it; tests
// substitute mocks.
type JobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (*domain.EmailJob, error)
	EnqueueDelayed(ctx context.Context, job domain.EmailJob, releaseAt time.Time) error
	MoveDue(ctx context.Context, now time.Time) (int, error)
}

type BookingLoader interface {
	GetDetailByCode(ctx context.Context, code string) (*domain.BookingDetail, error)
}

type DeadLetterer interface {
	Save(ctx context.Context, bookingCode, contactEmail string, payload []byte, cause error, retryCount int) error
}

type WorkerConfig struct {
	Interval    time.Duration
	PopTimeout  time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Worker drains the email queue: replays due delayed jobs, pops one job per
// poll and delivers it, retrying with exponential backoff and dead-lettering
// jobs that exhaust their budget. Delivery failures never leave the worker.
type Worker struct {
	queue    JobQueue
	bookings BookingLoader
	mailer   email.Mailer
	dlq      DeadLetterer
	cfg      WorkerConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWorker(queue JobQueue, bookings BookingLoader, mailer email.Mailer, dlq DeadLetterer, cfg WorkerConfig, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		bookings: bookings,
		mailer:   mailer,
		dlq:      dlq,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll performs one worker iteration.
func (w *Worker) Poll(ctx context.Context) {
	if _, err := w.queue.MoveDue(ctx, w.now()); err != nil {
		w.logger.Error().Err(err).Msg("failed to move due delayed email jobs")
	}

	job, err := w.queue.Pop(ctx, w.cfg.PopTimeout)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to pop email job")
		return
	}
	if job == nil {
		return
	}

	w.handle(ctx, *job)
}

func (w *Worker) handle(ctx context.Context, job domain.EmailJob) {
	if job.Type == "" || job.BookingCode == "" {
		w.logger.Warn().Str("type", job.Type).Str("booking_code", job.BookingCode).
			Msg("skip invalid email job")
		return
	}

	contactEmail, err := w.dispatch(ctx, job)
	if err == nil {
		w.logger.Info().Str("type", job.Type).Str("booking_code", job.BookingCode).
			Int("attempt", job.Attempt).Msg("processed email job")
		return
	}

	job.Attempt++
	if job.Attempt >= w.cfg.MaxAttempts {
		w.logger.Error().Err(err).Str("booking_code", job.BookingCode).
			Int("attempt", job.Attempt).Msg("email job exhausted retries, dead-lettering")
		payload, _ := json.Marshal(job)
		if dlqErr := w.dlq.Save(ctx, job.BookingCode, contactEmail, payload, err, job.Attempt); dlqErr != nil {
			w.logger.Error().Err(dlqErr).Str("booking_code", job.BookingCode).
				Msg("failed to dead-letter email job")
		}
		return
	}

	delay := Backoff(job.Attempt, w.cfg.BaseBackoff, w.cfg.MaxBackoff)
	w.logger.Error().Err(err).Str("booking_code", job.BookingCode).
		Int("attempt", job.Attempt).Dur("delay", delay).Msg("email job failed, scheduling retry")
	if err := w.queue.EnqueueDelayed(ctx, job, w.now().Add(delay)); err != nil {
		w.logger.Error().Err(err).Str("booking_code", job.BookingCode).
			Msg("failed to requeue email job")
	}
}

// dispatch delivers the job and returns the contact email it targeted, for
// dead-letter bookkeeping.
func (w *Worker) dispatch(ctx context.Context, job domain.EmailJob) (string, error) {
	switch job.Type {
	case domain.EmailJobTypeBookingPaymentSuccess:
		// The job carries only the code; load the booking fresh so the
		// message never renders a stale snapshot.
		detail, err := w.bookings.GetDetailByCode(ctx, job.BookingCode)
		if err != nil {
			return "", fmt.Errorf("load booking %s: %w", job.BookingCode, err)
		}
		if detail.Booking.ContactEmail == "" {
			w.logger.Warn().Str("booking_code", job.BookingCode).Msg("skip email job: contact email is blank")
			return "", nil
		}
		subject, body := email.RenderPaymentSuccess(detail)
		if err := w.mailer.Send(ctx, detail.Booking.ContactEmail, subject, body); err != nil {
			return detail.Booking.ContactEmail, err
		}
		return detail.Booking.ContactEmail, nil
	default:
		return "", fmt.Errorf("unsupported email job type: %s", job.Type)
	}
}

// Backoff returns min(base * 2^(attempt-1), max).
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base << (attempt - 1)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
