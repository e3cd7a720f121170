package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
)

// CreateTicketTypeInput describes one tier created with the event.
type CreateTicketTypeInput struct {
	Name           string    `json:"name" validate:"required,min=1,max=120"`
	UnitPriceMinor int64     `json:"unit_price_minor" validate:"required,min=1"`
	TotalSupply    int       `json:"total_supply" validate:"required,min=1"`
	SaleStartAt    time.Time `json:"sale_start_at" validate:"required"`
	SaleEndAt      time.Time `json:"sale_end_at" validate:"required"`
}

// CreateRequest creates an event with its ticket tiers in one shot.
type CreateRequest struct {
	Name             string                  `json:"name" validate:"required,min=1,max=200"`
	Description      *string                 `json:"description,omitempty"`
	Venue            string                  `json:"venue" validate:"required,min=1,max=200"`
	OrganizerAddress string                  `json:"organizer_address" validate:"required,min=3,max=128"`
	StartsAt         time.Time               `json:"starts_at" validate:"required"`
	EndsAt           time.Time               `json:"ends_at" validate:"required"`
	TicketTypes      []CreateTicketTypeInput `json:"ticket_types" validate:"required,min=1,dive"`
}

// Service manages the event and ticket-type admin surface.
type Service struct {
	db     *db.Client
	repo   Repository
	clock  clock.Clock
	logger *logger.Logger
}

// NewService wires the events service.
func NewService(client *db.Client, repo Repository, clk clock.Clock, logg *logger.Logger) *Service {
	return &Service{db: client, repo: repo, clock: clk, logger: logg}
}

// Create persists an event and its ticket types atomically. Every tier starts
// with the full supply available; the reservation path is the only thing that
// debits it afterwards.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Event, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event must end after it starts")
	}
	if len(req.TicketTypes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ticket type required")
	}
	for _, tier := range req.TicketTypes {
		if !tier.SaleEndAt.After(tier.SaleStartAt) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale window must end after it starts").
				WithDetails(map[string]any{"ticketType": tier.Name})
		}
		if tier.TotalSupply < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total supply must be positive").
				WithDetails(map[string]any{"ticketType": tier.Name})
		}
	}

	event := &models.Event{
		ID:               uuid.New(),
		Name:             req.Name,
		Description:      req.Description,
		Venue:            req.Venue,
		OrganizerAddress: req.OrganizerAddress,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
	}
	for _, tier := range req.TicketTypes {
		event.TicketTypes = append(event.TicketTypes, models.TicketType{
			ID:              uuid.New(),
			EventID:         event.ID,
			Name:            tier.Name,
			UnitPriceMinor:  tier.UnitPriceMinor,
			TotalSupply:     tier.TotalSupply,
			AvailableSupply: tier.TotalSupply,
			SaleStartAt:     tier.SaleStartAt,
			SaleEndAt:       tier.SaleEndAt,
			IsActive:        true,
		})
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithField(ctx, "event_id", event.ID.String()), "event created")
	return event, nil
}

// Get returns one event with its ticket types.
func (s *Service) Get(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return s.repo.FindByID(ctx, eventID)
}

// List returns events ordered by start time.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Event, error) {
	return s.repo.List(ctx, limit, offset)
}
