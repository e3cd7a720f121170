package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
)

func TestReserveDebitsSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ticketType := seedTicketType(t, db, 5, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, ticketType.ID, 3)
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var reloaded models.TicketType
	if err := db.First(&reloaded, "id = ?", ticketType.ID).Error; err != nil {
		t.Fatalf("reload ticket type: %v", err)
	}
	if reloaded.AvailableSupply != 2 {
		t.Fatalf("expected available supply 2, got %d", reloaded.AvailableSupply)
	}
}

func TestReserveInsufficientInventory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ticketType := seedTicketType(t, db, 5, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, ticketType.ID, 3)
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	var reloaded models.TicketType
	if err := db.First(&reloaded, "id = ?", ticketType.ID).Error; err != nil {
		t.Fatalf("reload ticket type: %v", err)
	}
	if reloaded.AvailableSupply != 2 {
		t.Fatalf("failed reserve must not touch supply, got %d", reloaded.AvailableSupply)
	}
}

func TestReserveUnknownTicketType(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(context.Background(), tx, uuid.New(), 1)
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestReserveInvalidQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ticketType := seedTicketType(t, db, 5, 5)
	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(context.Background(), tx, ticketType.ID, 0)
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReleaseCreditsSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ticketType := seedTicketType(t, db, 5, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, ticketType.ID, 3)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	var reloaded models.TicketType
	if err := db.First(&reloaded, "id = ?", ticketType.ID).Error; err != nil {
		t.Fatalf("reload ticket type: %v", err)
	}
	if reloaded.AvailableSupply != 5 {
		t.Fatalf("expected available supply 5, got %d", reloaded.AvailableSupply)
	}
}

func TestReleaseBeyondTotalIsInvariantViolation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ticketType := seedTicketType(t, db, 5, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, ticketType.ID, 1)
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvariant) {
		t.Fatalf("expected INVARIANT_VIOLATION, got %v", err)
	}

	var reloaded models.TicketType
	if err := db.First(&reloaded, "id = ?", ticketType.ID).Error; err != nil {
		t.Fatalf("reload ticket type: %v", err)
	}
	if reloaded.AvailableSupply != 5 {
		t.Fatalf("invariant violation must not mutate supply, got %d", reloaded.AvailableSupply)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.TicketType{}); err != nil {
		t.Fatalf("migrate ticket types: %v", err)
	}
	return db
}

func seedTicketType(t *testing.T, db *gorm.DB, total, available int) models.TicketType {
	t.Helper()
	ticketType := models.TicketType{
		ID:              uuid.New(),
		EventID:         uuid.New(),
		Name:            "general-admission",
		UnitPriceMinor:  2500,
		TotalSupply:     total,
		AvailableSupply: available,
	}
	if err := db.Create(&ticketType).Error; err != nil {
		t.Fatalf("seed ticket type: %v", err)
	}
	return ticketType
}
