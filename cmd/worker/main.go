package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkravets/airreserve/config"
	"github.com/dkravets/airreserve/internal/cache"
	"github.com/dkravets/airreserve/internal/email"
	"github.com/dkravets/airreserve/internal/kafka"
	"github.com/dkravets/airreserve/internal/repository"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.OffersCacheTTL)*time.Second)

	offerRepo := repository.NewOfferRepository(pool)
	offerService := offers.NewOfferService(offerRepo, redisCache, logger, cfg.Allocation.DefaultCapacity)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			logger.WithError(err).Info("consumer stopped")
		}
	}()

	sweep := time.NewTicker(time.Duration(cfg.Worker.HousekeepingSweepMinutes) * time.Minute)
	defer sweep.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweep.C:
			retired, err := offerService.RetireDeparted(ctx)
			if err != nil {
				logger.WithError(err).Error("retire departed offers")
				continue
			}
			if retired > 0 {
				logger.WithField("count", retired).Info("offers retired")
			}
		case s := <-sig:
			logger.WithField("signal", s.String()).Info("shutting down")
			return
		}
	}
}
