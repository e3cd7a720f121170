package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/internal/inventory"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/payments"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
)

// Service drives the reservation and order lifecycle: placing holds against
// the inventory ledger, confirming them with a payment proof, and returning
// held units when a hold is cancelled or expires.
type Service struct {
	db       *db.Client
	repo     Repository
	verifier payments.Verifier
	clock    clock.Clock
	logger   *logger.Logger
	metrics  *metrics.ReservationMetrics
	cfg      config.ReservationsConfig
}

// NewService wires the reservation service.
func NewService(
	client *db.Client,
	repo Repository,
	verifier payments.Verifier,
	clk clock.Clock,
	logg *logger.Logger,
	reservationMetrics *metrics.ReservationMetrics,
	cfg config.ReservationsConfig,
) *Service {
	return &Service{
		db:       client,
		repo:     repo,
		verifier: verifier,
		clock:    clk,
		logger:   logg,
		metrics:  reservationMetrics,
		cfg:      cfg,
	}
}

// Create places a hold: it debits available supply and records a pending order
// in one transaction, so a crash between the two can never strand inventory.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*OrderResponse, error) {
	if req.Quantity < 1 || req.Quantity > s.cfg.MaxPerOrder {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range").
			WithDetails(map[string]any{"min": 1, "max": s.cfg.MaxPerOrder})
	}

	ticketType, err := inventory.FindTicketType(ctx, s.db.DB(), req.TicketTypeID)
	if err != nil {
		return nil, err
	}
	if req.EventID != uuid.Nil && req.EventID != ticketType.EventID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket type does not belong to event")
	}

	now := s.clock.Now()
	if !ticketType.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ticket type is not on sale")
	}
	if now.Before(ticketType.SaleStartAt) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sale has not started").
			WithDetails(map[string]any{"saleStartAt": ticketType.SaleStartAt})
	}
	if !now.Before(ticketType.SaleEndAt) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sale has ended").
			WithDetails(map[string]any{"saleEndAt": ticketType.SaleEndAt})
	}

	order := &models.Order{
		ID:              uuid.New(),
		EventID:         ticketType.EventID,
		TicketTypeID:    ticketType.ID,
		BuyerAddress:    req.BuyerAddress,
		Quantity:        req.Quantity,
		TotalPriceMinor: ticketType.UnitPriceMinor * int64(req.Quantity),
		Status:          enums.OrderStatusPending,
		ExpiresAt:       now.Add(s.cfg.HoldDuration),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := inventory.Reserve(ctx, tx, ticketType.ID, req.Quantity); err != nil {
			return err
		}
		_, err := s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.metrics.Inc(metrics.OutcomeInsufficient)
		}
		return nil, err
	}

	s.metrics.Inc(metrics.OutcomeReserved)
	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	s.logger.Info(ctx, "reservation created")
	return ToOrderResponse(order), nil
}

// Confirm settles a pending hold with a payment proof. The proof check runs
// outside any transaction: a slow or unreachable verifier must never pin DB
// locks, and an unavailable verifier leaves the order untouched for retry.
func (s *Service) Confirm(ctx context.Context, orderID uuid.UUID, buyerAddress string, req ConfirmRequest) (*OrderResponse, error) {
	order, err := s.loadOwned(ctx, orderID, buyerAddress)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())

	order, err = s.rejectUnlessPending(ctx, order)
	if err != nil {
		return nil, err
	}

	verifyErr := s.verifier.Verify(ctx, req.PaymentSignature)
	switch {
	case verifyErr == nil:
	case errors.Is(verifyErr, payments.ErrRejected):
		return nil, s.failOrder(ctx, order)
	default:
		s.logger.Error(ctx, "payment verifier unavailable", verifyErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, verifyErr, "payment verification unavailable")
	}

	now := s.clock.Now()
	var applied bool
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		applied, txErr = s.repo.WithTx(tx).TransitionStatus(ctx, order.ID,
			enums.OrderStatusPending, enums.OrderStatusConfirmed,
			map[string]any{
				"confirmed_at":      now,
				"payment_signature": req.PaymentSignature,
			})
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race against expiry or cancellation; report whatever won.
		fresh, loadErr := s.repo.FindByID(ctx, order.ID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, statusConflict(fresh.Status)
	}

	s.metrics.Inc(metrics.OutcomeConfirmed)
	s.logger.Info(ctx, "reservation confirmed")
	return s.response(ctx, order.ID)
}

// Cancel releases a pending hold at the buyer's request. Cancelling an order
// that is already cancelled is a no-op so retried requests stay safe.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, buyerAddress string) (*OrderResponse, error) {
	order, err := s.loadOwned(ctx, orderID, buyerAddress)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())

	if order.Status == enums.OrderStatusCancelled {
		return ToOrderResponse(order), nil
	}
	order, err = s.rejectUnlessPending(ctx, order)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		applied, txErr := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID,
			enums.OrderStatusPending, enums.OrderStatusCancelled,
			map[string]any{"cancelled_at": now})
		if txErr != nil {
			return txErr
		}
		if !applied {
			fresh, loadErr := s.repo.WithTx(tx).FindByID(ctx, order.ID)
			if loadErr != nil {
				return loadErr
			}
			return statusConflict(fresh.Status)
		}
		return inventory.Release(ctx, tx, order.TicketTypeID, order.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.OutcomeCancelled)
	s.logger.Info(ctx, "reservation cancelled")
	return s.response(ctx, order.ID)
}

// Expire moves one overdue pending order to expired and returns its units to
// the ledger, atomically. The guarded transition makes it safe to call from
// the sweep worker and the lazy read path at the same time: exactly one caller
// releases the inventory.
func (s *Service) Expire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	now := s.clock.Now()
	var applied bool
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		applied, txErr = s.repo.WithTx(tx).TransitionStatus(ctx, order.ID,
			enums.OrderStatusPending, enums.OrderStatusExpired,
			map[string]any{"expired_at": now})
		if txErr != nil {
			return txErr
		}
		if !applied {
			return nil
		}
		return inventory.Release(ctx, tx, order.TicketTypeID, order.Quantity)
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.metrics.Inc(metrics.OutcomeExpired)
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "reservation expired")
	}
	return applied, nil
}

// SweepExpired expires every pending order whose hold elapsed before now, up
// to limit. One broken record must not block the rest of the batch, so errors
// are collected and the sweep keeps going.
func (s *Service) SweepExpired(ctx context.Context, limit int) (int, error) {
	overdue, err := s.repo.FindPendingExpiredBefore(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs error
	for i := range overdue {
		applied, err := s.Expire(ctx, overdue[i].ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", overdue[i].ID, err))
			continue
		}
		if applied {
			expired++
		}
	}
	return expired, errs
}

// Get returns one order, applying lazy expiry first so callers never observe
// a pending order whose hold has already elapsed.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.holdElapsed(order) {
		if _, err := s.Expire(ctx, order.ID); err != nil {
			return nil, err
		}
		return s.response(ctx, order.ID)
	}
	return ToOrderResponse(order), nil
}

// ListByBuyer returns all orders placed from one wallet address.
func (s *Service) ListByBuyer(ctx context.Context, buyerAddress string) ([]OrderResponse, error) {
	if buyerAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer address required")
	}
	orders, err := s.repo.ListByBuyer(ctx, buyerAddress)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

func (s *Service) loadOwned(ctx context.Context, orderID uuid.UUID, buyerAddress string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerAddress != buyerAddress {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	return order, nil
}

// rejectUnlessPending enforces terminal-state finality and applies lazy expiry
// to overdue pending orders before letting a mutation proceed.
func (s *Service) rejectUnlessPending(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Status.IsTerminal() {
		return nil, statusConflict(order.Status)
	}
	if s.holdElapsed(order) {
		if _, err := s.Expire(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeGone, "reservation hold has expired")
	}
	return order, nil
}

func (s *Service) holdElapsed(order *models.Order) bool {
	return order.Status == enums.OrderStatusPending && !s.clock.Now().Before(order.ExpiresAt)
}

// failOrder records a rejected payment: the order moves to failed and its
// units go back on sale. If the guarded transition loses to a concurrent
// expiry the inventory was already released, so nothing more to do.
func (s *Service) failOrder(ctx context.Context, order *models.Order) error {
	now := s.clock.Now()
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		applied, txErr := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID,
			enums.OrderStatusPending, enums.OrderStatusFailed,
			map[string]any{"failed_at": now})
		if txErr != nil {
			return txErr
		}
		if !applied {
			return nil
		}
		return inventory.Release(ctx, tx, order.TicketTypeID, order.Quantity)
	})
	if err != nil {
		return err
	}
	s.metrics.Inc(metrics.OutcomeFailed)
	s.logger.Warn(ctx, "payment proof rejected")
	return pkgerrors.New(pkgerrors.CodeValidation, "payment proof rejected")
}

func (s *Service) response(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

func statusConflict(status enums.OrderStatus) error {
	switch status {
	case enums.OrderStatusExpired:
		return pkgerrors.New(pkgerrors.CodeGone, "reservation hold has expired")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already "+status.String())
	}
}
