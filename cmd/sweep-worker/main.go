package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangteo0103/nft-ticketing-backend/internal/marketplace"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/payments"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/reservations"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/sweep"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/tickets"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/migrate"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweep-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	verifier, err := payments.New(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment verifier", err)
		os.Exit(1)
	}

	systemClock := clock.NewSystem()
	orderRepo := reservations.NewRepository(dbClient.DB())
	ticketRepo := tickets.NewRepository(dbClient.DB())

	reservationSvc := reservations.NewService(
		dbClient, orderRepo, verifier, systemClock, logg,
		metrics.NewReservationMetrics(prometheus.DefaultRegisterer), cfg.Reservations,
	)
	marketplaceSvc := marketplace.NewService(
		dbClient, marketplace.NewRepository(dbClient.DB()), ticketRepo,
		tickets.NewRecordOracle(ticketRepo), verifier, systemClock, logg,
		metrics.NewListingMetrics(prometheus.DefaultRegisterer), cfg.Marketplace,
	)

	sweepMetrics := metrics.NewSweepJobMetrics(prometheus.DefaultRegisterer)
	lock, err := sweep.NewRedisLock(redisClient, redisClient.LockKey("sweep-worker"), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	orderJob, err := sweep.NewOrderExpiryJob(sweep.OrderExpiryJobParams{
		Logger:       logg,
		Reservations: reservationSvc,
		Metrics:      sweepMetrics,
		BatchSize:    cfg.Sweep.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiry job", err)
		os.Exit(1)
	}
	listingJob, err := sweep.NewListingExpiryJob(sweep.ListingExpiryJobParams{
		Logger:      logg,
		Marketplace: marketplaceSvc,
		Metrics:     sweepMetrics,
		BatchSize:   cfg.Sweep.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create listing expiry job", err)
		os.Exit(1)
	}

	service, err := sweep.NewService(sweep.ServiceParams{
		Logger:   logg,
		Registry: sweep.NewRegistry(orderJob, listingJob),
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sweep worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweep worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweep worker shutting down gracefully")
}
