package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Sweeper interface {
	CancelOverdueBookings(ctx context.Context) (int, error)
}

// Scheduler runs the expiration sweep on a fixed interval, off the request
// path. Sweep failures are logged and the next tick runs as usual.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

func New(sweeper Sweeper, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{sweeper: sweeper, interval: interval, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	cancelled, err := s.sweeper.CancelOverdueBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiration sweep failed")
		return
	}
	if cancelled > 0 {
		s.logger.Info().Int("cancelled", cancelled).Msg("expiration sweep cancelled overdue bookings")
	}
}
