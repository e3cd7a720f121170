package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketType holds the inventory counters for one tier of tickets.
//
// AvailableSupply is the only contended counter in the system; every mutation
// goes through the inventory ledger's guarded updates, never blind writes.
type TicketType struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID         uuid.UUID `gorm:"column:event_id;type:uuid;not null;index" json:"eventId"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	UnitPriceMinor  int64     `gorm:"column:unit_price_minor;not null" json:"unitPriceMinor"`
	TotalSupply     int       `gorm:"column:total_supply;not null" json:"totalSupply"`
	AvailableSupply int       `gorm:"column:available_supply;not null" json:"availableSupply"`
	SaleStartAt     time.Time `gorm:"column:sale_start_at;not null" json:"saleStartAt"`
	SaleEndAt       time.Time `gorm:"column:sale_end_at;not null" json:"saleEndAt"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
