package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
)

// The test fixtures across the repo build their schema with AutoMigrate on
// sqlite, so the model tags must avoid postgres-only expressions; DB-side
// column defaults that need them live in the SQL migrations instead.
func TestModelsAutoMigrateOnSQLite(t *testing.T) {
	t.Parallel()

	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.Event{},
		&models.TicketType{},
		&models.Order{},
		&models.Ticket{},
		&models.MarketplaceListing{},
	))

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ticketType := models.TicketType{
		ID:              uuid.New(),
		EventID:         uuid.New(),
		Name:            "general",
		UnitPriceMinor:  1500,
		TotalSupply:     10,
		AvailableSupply: 10,
		SaleStartAt:     now.Add(-time.Hour),
		SaleEndAt:       now.Add(time.Hour),
		IsActive:        true,
	}
	require.NoError(t, conn.Create(&ticketType).Error)

	order := models.Order{
		ID:              uuid.New(),
		EventID:         ticketType.EventID,
		TicketTypeID:    ticketType.ID,
		BuyerAddress:    "0xbuyer",
		Quantity:        2,
		TotalPriceMinor: 3000,
		Status:          enums.OrderStatusPending,
		ExpiresAt:       now.Add(15 * time.Minute),
	}
	require.NoError(t, conn.Create(&order).Error)

	var reloaded models.Order
	require.NoError(t, conn.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, order.ID, reloaded.ID)
	require.Equal(t, enums.OrderStatusPending, reloaded.Status)
	require.False(t, reloaded.CreatedAt.IsZero())
}
