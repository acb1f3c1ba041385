package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awesome-academy/booking-tour/config"
	"github.com/awesome-academy/booking-tour/internal/email"
	"github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/awesome-academy/booking-tour/internal/notifications"
	"github.com/awesome-academy/booking-tour/internal/queue"
	"github.com/awesome-academy/booking-tour/internal/repository"
	"github.com/awesome-academy/booking-tour/internal/scheduler"
	"github.com/awesome-academy/booking-tour/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	departureRepo := repository.NewDepartureRepository(pool)
	failedEmailRepo := repository.NewFailedEmailRepository(pool)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	mailer := email.NewSMTPSender(cfg.Mail)
	dlq := notifications.NewDeadLetterService(failedEmailRepo, logger)

	emailQueue := queue.NewEmailQueue(cfg.Redis, cfg.Mail.QueueKey)
	emailWorker := queue.NewWorker(emailQueue, bookingRepo, mailer, dlq, queue.WorkerConfig{
		Interval:    cfg.Mail.WorkerInterval(),
		PopTimeout:  cfg.Mail.PopTimeout(),
		MaxAttempts: cfg.Mail.MaxAttempts,
		BaseBackoff: cfg.Mail.BaseBackoff(),
		MaxBackoff:  cfg.Mail.MaxBackoff(),
	}, logger)

	gracePeriod := time.Duration(cfg.Scheduler.GracePeriodMinutes) * time.Minute
	bookingService := booking.NewBookingService(bookingRepo, departureRepo, producer, cfg.Kafka.NotificationsTopic, gracePeriod, logger)
	expirer := scheduler.New(bookingService, time.Duration(cfg.Scheduler.SweepIntervalMinutes)*time.Minute, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()
	emailConsumer := notifications.NewEmailConsumer(mailer, producer, dlq, cfg.Kafka.NotificationsTopic, cfg.Mail.ConsumerAttempts, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return emailWorker.Run(ctx) })
	g.Go(func() error { return expirer.Run(ctx) })
	g.Go(func() error { return consumer.Consume(ctx, emailConsumer.HandleMessage) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker stopped")
	}
	logger.Info().Msg("worker shut down")
}
