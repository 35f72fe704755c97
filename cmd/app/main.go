package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkravets/airreserve/config"
	"github.com/dkravets/airreserve/internal/bootstrap"
	"github.com/dkravets/airreserve/internal/cache"
	"github.com/dkravets/airreserve/internal/fare"
	"github.com/dkravets/airreserve/internal/kafka"
	"github.com/dkravets/airreserve/internal/repository"
	"github.com/dkravets/airreserve/internal/service/allocation"
	"github.com/dkravets/airreserve/internal/service/booking"
	"github.com/dkravets/airreserve/internal/service/offers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.OffersCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	offerRepo := repository.NewOfferRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	engine := allocation.NewEngine(offerRepo, bookingRepo)
	calc := fare.NewCalculator(fare.Rates{
		ChildPercent:  *cfg.Fares.ChildRatePercent,
		InfantPercent: *cfg.Fares.InfantRatePercent,
	})

	offerService := offers.NewOfferService(offerRepo, redisCache, logger, cfg.Allocation.DefaultCapacity)
	bookingService := booking.NewBookingService(
		bookingRepo,
		offerRepo,
		engine,
		calc,
		redisCache,
		producer,
		logger,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.AllocationLockTTL)*time.Second,
		cfg.Booking.CodeRetries,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	logger.WithFields(logrus.Fields{
		"child_rate_percent":  *cfg.Fares.ChildRatePercent,
		"infant_rate_percent": *cfg.Fares.InfantRatePercent,
		"default_capacity":    cfg.Allocation.DefaultCapacity,
	}).Info("starting api server")

	if err := bootstrap.Run(ctx, cfg, offerService, bookingService); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
