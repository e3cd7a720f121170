package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
)

// Reserve atomically debits available supply for one ticket type inside the
// caller's transaction. The guard rides on the UPDATE itself, so two
// concurrent reservations can never both win the last unit.
func Reserve(ctx context.Context, tx *gorm.DB, ticketTypeID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for reserve")
	}
	if ticketTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket type id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.TicketType{}).
		Where("id = ? AND available_supply >= ?", ticketTypeID, qty).
		Update("available_supply", gorm.Expr("available_supply - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit available supply")
	}
	if res.RowsAffected == 0 {
		exists, err := ticketTypeExists(ctx, tx, ticketTypeID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ticket type not found")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient inventory").
			WithDetails(map[string]any{"ticketTypeId": ticketTypeID, "requested": qty})
	}
	return nil
}

// Release atomically credits available supply back, capped at total supply.
// A credit that would exceed total supply means a transition guard is broken
// somewhere; it is surfaced as an invariant violation, never silently clamped.
func Release(ctx context.Context, tx *gorm.DB, ticketTypeID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for release")
	}
	if ticketTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket type id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.TicketType{}).
		Where("id = ? AND available_supply + ? <= total_supply", ticketTypeID, qty).
		Update("available_supply", gorm.Expr("available_supply + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit available supply")
	}
	if res.RowsAffected == 0 {
		exists, err := ticketTypeExists(ctx, tx, ticketTypeID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ticket type not found")
		}
		return pkgerrors.New(pkgerrors.CodeInvariant, "release would exceed total supply").
			WithDetails(map[string]any{"ticketTypeId": ticketTypeID, "quantity": qty})
	}
	return nil
}

// FindTicketType loads one ticket type through the provided connection or transaction.
func FindTicketType(ctx context.Context, tx *gorm.DB, ticketTypeID uuid.UUID) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := tx.WithContext(ctx).
		Where("id = ?", ticketTypeID).
		First(&ticketType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket type")
	}
	return &ticketType, nil
}

func ticketTypeExists(ctx context.Context, tx *gorm.DB, ticketTypeID uuid.UUID) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&models.TicketType{}).
		Where("id = ?", ticketTypeID).
		Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ticket type existence")
	}
	return count > 0, nil
}
