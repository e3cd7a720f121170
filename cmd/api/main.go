package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangteo0103/nft-ticketing-backend/api/routes"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/events"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/inventory"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/marketplace"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/payments"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/reservations"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()

	systemClock := clock.NewSystem()
	orderRepo := reservations.NewRepository(dbClient.DB())
	ticketRepo := tickets.NewRepository(dbClient.DB())

	reservationSvc := reservations.NewService(
		dbClient, orderRepo, verifier, systemClock, logg,
		metrics.NewReservationMetrics(registry), cfg.Reservations,
	)
	eventSvc := events.NewService(dbClient, events.NewRepository(dbClient.DB()), systemClock, logg)
	availabilitySvc, err := inventory.NewAvailabilityService(
		dbClient.DB(), redisClient, cfg.Reservations.AvailabilityTTL, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}
	ticketSvc := tickets.NewService(dbClient, ticketRepo, orderRepo, systemClock, logg)
	marketplaceSvc := marketplace.NewService(
		dbClient, marketplace.NewRepository(dbClient.DB()), ticketRepo,
		tickets.NewRecordOracle(ticketRepo), verifier, systemClock, logg,
		metrics.NewListingMetrics(registry), cfg.Marketplace,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			HTTPMetrics:  metrics.NewHTTPMetrics(registry),
			Gatherer:     registry,
			Events:       eventSvc,
			Availability: availabilitySvc,
			Reservations: reservationSvc,
			Marketplace:  marketplaceSvc,
			Tickets:      ticketSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
