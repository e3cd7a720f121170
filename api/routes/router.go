package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoangteo0103/nft-ticketing-backend/api/controllers"
	"github.com/hoangteo0103/nft-ticketing-backend/api/middleware"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/events"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/inventory"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/marketplace"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/reservations"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/tickets"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	HTTPMetrics  *metrics.HTTPMetrics
	Gatherer     prometheus.Gatherer
	Events       *events.Service
	Availability *inventory.AvailabilityService
	Reservations *reservations.Service
	Marketplace  *marketplace.Service
	Tickets      *tickets.Service
}

// NewRouter mounts the public API surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.WalletAddress(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.CreateEvent(deps.Events, logg))
			r.Get("/", controllers.ListEvents(deps.Events, logg))
			r.Get("/{eventID}", controllers.GetEvent(deps.Events, logg))
			r.Get("/{eventID}/ticket-types/{ticketTypeID}/availability", controllers.GetAvailability(deps.Availability, logg))
			r.Get("/{eventID}/listings", controllers.ListEventListings(deps.Marketplace, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", controllers.CreateReservation(deps.Reservations, logg))
			r.Get("/", controllers.ListReservations(deps.Reservations, logg))
			r.Get("/{orderID}", controllers.GetReservation(deps.Reservations, logg))
			r.Post("/{orderID}/confirm", controllers.ConfirmReservation(deps.Reservations, logg))
			r.Delete("/{orderID}", controllers.CancelReservation(deps.Reservations, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(deps.Marketplace, logg))
			r.Get("/{listingID}", controllers.GetListing(deps.Marketplace, logg))
			r.Post("/{listingID}/buy", controllers.BuyListing(deps.Marketplace, logg))
			r.Put("/{listingID}/cancel", controllers.CancelListing(deps.Marketplace, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", controllers.RegisterTickets(deps.Tickets, logg))
			r.Get("/", controllers.ListTicketsByOwner(deps.Tickets, logg))
			r.Get("/{ticketID}", controllers.GetTicket(deps.Tickets, logg))
		})
	})

	return r
}
