package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awesome-academy/booking-tour/api"
	"github.com/awesome-academy/booking-tour/config"
	"github.com/awesome-academy/booking-tour/internal/bootstrap"
	"github.com/awesome-academy/booking-tour/internal/cache"
	"github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/awesome-academy/booking-tour/internal/queue"
	"github.com/awesome-academy/booking-tour/internal/repository"
	"github.com/awesome-academy/booking-tour/internal/service/booking"
	"github.com/awesome-academy/booking-tour/internal/service/payment"
	"github.com/awesome-academy/booking-tour/internal/service/tours"
	"github.com/awesome-academy/booking-tour/internal/stripe"
	"github.com/awesome-academy/booking-tour/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
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

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "app").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.DeparturesCacheTTLSeconds)*time.Second)
	emailQueue := queue.NewEmailQueue(cfg.Redis, cfg.Mail.QueueKey)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	gateway := stripe.NewClient(cfg.Stripe)

	bookingRepo := repository.NewBookingRepository(pool)
	departureRepo := repository.NewDepartureRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	gracePeriod := time.Duration(cfg.Scheduler.GracePeriodMinutes) * time.Minute
	bookingService := booking.NewBookingService(bookingRepo, departureRepo, producer, cfg.Kafka.NotificationsTopic, gracePeriod, logger)
	paymentService := payment.NewPaymentService(bookingRepo, paymentRepo, gateway, emailQueue, producer, cfg.Kafka.BookingEventsTopic, logger)
	tourService := tours.NewTourService(departureRepo, redisCache)

	handlers := bootstrap.Handlers{
		Bookings: api.NewBookingHandler(bookingService),
		Payments: api.NewPaymentHandler(paymentService),
		Tours:    api.NewTourHandler(tourService),
	}

	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
