package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/internal/inventory"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/payments"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/tickets"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/pagination"
)

// Service drives the secondary-market listing lifecycle. Structurally it is
// the order state machine over again, but the guarded resource is ticket
// ownership rather than fresh inventory.
type Service struct {
	db       *db.Client
	repo     Repository
	tickets  tickets.Repository
	oracle   tickets.OwnershipOracle
	verifier payments.Verifier
	clock    clock.Clock
	logger   *logger.Logger
	metrics  *metrics.ListingMetrics
	cfg      config.MarketplaceConfig
}

// NewService wires the marketplace service.
func NewService(
	client *db.Client,
	repo Repository,
	ticketRepo tickets.Repository,
	oracle tickets.OwnershipOracle,
	verifier payments.Verifier,
	clk clock.Clock,
	logg *logger.Logger,
	listingMetrics *metrics.ListingMetrics,
	cfg config.MarketplaceConfig,
) *Service {
	return &Service{
		db:       client,
		repo:     repo,
		tickets:  ticketRepo,
		oracle:   oracle,
		verifier: verifier,
		clock:    clk,
		logger:   logg,
		metrics:  listingMetrics,
		cfg:      cfg,
	}
}

// CreateListing offers a ticket for resale. Ownership is checked against the
// oracle up front, but the real double-listing guard is the partial unique
// index on active listings; the read-then-write check alone could race.
func (s *Service) CreateListing(ctx context.Context, req CreateListingRequest) (*ListingResponse, error) {
	if req.ListingPriceMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing price must be positive")
	}
	now := s.clock.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing deadline must be in the future")
	}

	owner, err := s.oracle.Owner(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if owner != req.SellerAddress {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller does not own this ticket")
	}

	ticket, err := s.tickets.FindByID(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	ticketType, err := inventory.FindTicketType(ctx, s.db.DB(), ticket.TicketTypeID)
	if err != nil {
		return nil, err
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil && s.cfg.ListingTTL > 0 {
		deadline := now.Add(s.cfg.ListingTTL)
		expiresAt = &deadline
	}

	listing := &models.MarketplaceListing{
		ID:                 uuid.New(),
		TicketID:           req.TicketID,
		SellerAddress:      req.SellerAddress,
		ListingPriceMinor:  req.ListingPriceMinor,
		OriginalPriceMinor: ticketType.UnitPriceMinor,
		Status:             enums.ListingStatusActive,
		ExpiresAt:          expiresAt,
	}
	if _, err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.ListingOutcomeListed)
	ctx = s.logger.WithListingID(ctx, listing.ID.String())
	s.logger.Info(ctx, "listing created")
	return ToListingResponse(listing), nil
}

// Buy settles an active listing after the on-chain transfer confirmed. The
// status flip and the owner-of-record update commit in one transaction, so a
// concurrent buyer loses the guarded transition and nothing else moves.
func (s *Service) Buy(ctx context.Context, listingID uuid.UUID, req BuyRequest) (*ListingResponse, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithListingID(ctx, listing.ID.String())

	listing, err = s.rejectUnlessActive(ctx, listing)
	if err != nil {
		return nil, err
	}
	if req.BuyerAddress == listing.SellerAddress {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "seller cannot buy own listing")
	}

	verifyErr := s.verifier.Verify(ctx, req.TransactionHash)
	switch {
	case verifyErr == nil:
	case errors.Is(verifyErr, payments.ErrRejected):
		// The listing stays active; a malformed hash is the buyer's problem.
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction hash rejected")
	default:
		s.logger.Error(ctx, "transfer verifier unavailable", verifyErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, verifyErr, "transfer verification unavailable")
	}

	now := s.clock.Now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		applied, txErr := s.repo.WithTx(tx).TransitionStatus(ctx, listing.ID,
			enums.ListingStatusActive, enums.ListingStatusSold,
			map[string]any{
				"buyer_address":         req.BuyerAddress,
				"sale_transaction_hash": req.TransactionHash,
				"sold_at":               now,
			})
		if txErr != nil {
			return txErr
		}
		if !applied {
			fresh, loadErr := s.repo.WithTx(tx).FindByID(ctx, listing.ID)
			if loadErr != nil {
				return loadErr
			}
			return listingStatusConflict(fresh.Status)
		}
		moved, txErr := s.tickets.WithTx(tx).TransferOwner(ctx, listing.TicketID, listing.SellerAddress, req.BuyerAddress)
		if txErr != nil {
			return txErr
		}
		if !moved {
			// An active listing whose ticket the seller no longer owns means a
			// transfer bypassed the marketplace; abort rather than paper over it.
			return pkgerrors.New(pkgerrors.CodeInvariant, "listed ticket owner changed outside marketplace").
				WithDetails(map[string]any{"ticketId": listing.TicketID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.ListingOutcomeSold)
	s.logger.Info(ctx, "listing sold")
	return s.response(ctx, listing.ID)
}

// Cancel withdraws an active listing. Only the seller may cancel; repeating a
// cancel is a no-op so retried requests stay safe.
func (s *Service) Cancel(ctx context.Context, listingID uuid.UUID, sellerAddress string) (*ListingResponse, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerAddress != sellerAddress {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
	}
	ctx = s.logger.WithListingID(ctx, listing.ID.String())

	if listing.Status == enums.ListingStatusCancelled {
		return ToListingResponse(listing), nil
	}
	listing, err = s.rejectUnlessActive(ctx, listing)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	applied, err := s.repo.TransitionStatus(ctx, listing.ID,
		enums.ListingStatusActive, enums.ListingStatusCancelled,
		map[string]any{"cancelled_at": now})
	if err != nil {
		return nil, err
	}
	if !applied {
		fresh, loadErr := s.repo.FindByID(ctx, listing.ID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, listingStatusConflict(fresh.Status)
	}

	s.metrics.Inc(metrics.ListingOutcomeCancelled)
	s.logger.Info(ctx, "listing cancelled")
	return s.response(ctx, listing.ID)
}

// Expire moves one overdue active listing to expired. Listings hold no
// inventory, so unlike order expiry there is nothing to credit back.
func (s *Service) Expire(ctx context.Context, listingID uuid.UUID) (bool, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return false, err
	}
	applied, err := s.repo.TransitionStatus(ctx, listing.ID,
		enums.ListingStatusActive, enums.ListingStatusExpired, nil)
	if err != nil {
		return false, err
	}
	if applied {
		s.metrics.Inc(metrics.ListingOutcomeExpired)
		s.logger.Info(s.logger.WithListingID(ctx, listing.ID.String()), "listing expired")
	}
	return applied, nil
}

// SweepExpired expires every active listing whose deadline elapsed before now,
// up to limit. Errors are collected per listing so the batch keeps going.
func (s *Service) SweepExpired(ctx context.Context, limit int) (int, error) {
	overdue, err := s.repo.FindActiveExpiredBefore(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs error
	for i := range overdue {
		applied, err := s.Expire(ctx, overdue[i].ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire listing %s: %w", overdue[i].ID, err))
			continue
		}
		if applied {
			expired++
		}
	}
	return expired, errs
}

// Get returns one listing, applying lazy expiry first.
func (s *Service) Get(ctx context.Context, listingID uuid.UUID) (*ListingResponse, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if s.deadlineElapsed(listing) {
		if _, err := s.Expire(ctx, listing.ID); err != nil {
			return nil, err
		}
		return s.response(ctx, listing.ID)
	}
	return ToListingResponse(listing), nil
}

// ListActiveByEvent returns one cursor page of the live listings for an event.
func (s *Service) ListActiveByEvent(ctx context.Context, eventID uuid.UUID, params pagination.Params) (*ListingPage, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	listings, nextCursor, err := s.repo.ListActiveByEvent(ctx, eventID, params)
	if err != nil {
		return nil, err
	}
	return &ListingPage{Listings: ToListingResponses(listings), NextCursor: nextCursor}, nil
}

func (s *Service) rejectUnlessActive(ctx context.Context, listing *models.MarketplaceListing) (*models.MarketplaceListing, error) {
	if listing.Status.IsTerminal() {
		return nil, listingStatusConflict(listing.Status)
	}
	if s.deadlineElapsed(listing) {
		if _, err := s.Expire(ctx, listing.ID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeGone, "listing has expired")
	}
	return listing, nil
}

func (s *Service) deadlineElapsed(listing *models.MarketplaceListing) bool {
	return listing.Status == enums.ListingStatusActive &&
		listing.ExpiresAt != nil &&
		!s.clock.Now().Before(*listing.ExpiresAt)
}

func (s *Service) response(ctx context.Context, listingID uuid.UUID) (*ListingResponse, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return ToListingResponse(listing), nil
}

func listingStatusConflict(status enums.ListingStatus) error {
	switch status {
	case enums.ListingStatusExpired:
		return pkgerrors.New(pkgerrors.CodeGone, "listing has expired")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is already "+status.String())
	}
}
