package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/internal/reservations"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
)

// RegisterRequest records the tickets minted for one confirmed order. The
// minting collaborator reports the chain-assigned token ids here.
type RegisterRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	TokenIDs []string  `json:"token_ids" validate:"required,min=1,dive,required"`
}

// TicketResponse is the wire shape of a minted ticket.
type TicketResponse struct {
	ID           uuid.UUID  `json:"id"`
	EventID      uuid.UUID  `json:"event_id"`
	TicketTypeID uuid.UUID  `json:"ticket_type_id"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	OwnerAddress string     `json:"owner_address"`
	TokenID      string     `json:"token_id"`
	MintedAt     time.Time  `json:"minted_at"`
}

// Service records minted tickets and answers ownership queries.
type Service struct {
	db     *db.Client
	repo   Repository
	orders reservations.Repository
	clock  clock.Clock
	logger *logger.Logger
}

// NewService wires the tickets service.
func NewService(client *db.Client, repo Repository, orders reservations.Repository, clk clock.Clock, logg *logger.Logger) *Service {
	return &Service{db: client, repo: repo, orders: orders, clock: clk, logger: logg}
}

// Register stores one ticket row per minted token for a confirmed order.
// The token count must match the order quantity; token id uniqueness makes a
// replayed registration fail as a conflict instead of duplicating tickets.
func (s *Service) Register(ctx context.Context, req RegisterRequest) ([]TicketResponse, error) {
	if len(req.TokenIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token ids required")
	}

	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not confirmed")
	}
	if len(req.TokenIDs) != order.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token count does not match order quantity").
			WithDetails(map[string]any{"expected": order.Quantity, "got": len(req.TokenIDs)})
	}

	now := s.clock.Now()
	minted := make([]models.Ticket, 0, len(req.TokenIDs))
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, tokenID := range req.TokenIDs {
			orderID := order.ID
			ticket := &models.Ticket{
				ID:           uuid.New(),
				EventID:      order.EventID,
				TicketTypeID: order.TicketTypeID,
				OrderID:      &orderID,
				OwnerAddress: order.BuyerAddress,
				TokenID:      tokenID,
				MintedAt:     now,
			}
			created, err := repo.Create(ctx, ticket)
			if err != nil {
				return err
			}
			minted = append(minted, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	s.logger.Info(ctx, "minted tickets registered")
	return toTicketResponses(minted), nil
}

// Get returns one minted ticket.
func (s *Service) Get(ctx context.Context, ticketID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	resp := toTicketResponse(ticket)
	return &resp, nil
}

// ListByOwner returns all tickets currently held by one wallet address.
func (s *Service) ListByOwner(ctx context.Context, ownerAddress string) ([]TicketResponse, error) {
	if ownerAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner address required")
	}
	result, err := s.repo.ListByOwner(ctx, ownerAddress)
	if err != nil {
		return nil, err
	}
	return toTicketResponses(result), nil
}

func toTicketResponse(ticket *models.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		EventID:      ticket.EventID,
		TicketTypeID: ticket.TicketTypeID,
		OrderID:      ticket.OrderID,
		OwnerAddress: ticket.OwnerAddress,
		TokenID:      ticket.TokenID,
		MintedAt:     ticket.MintedAt,
	}
}

func toTicketResponses(minted []models.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(minted))
	for i := range minted {
		out = append(out, toTicketResponse(&minted[i]))
	}
	return out
}
