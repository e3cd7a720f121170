package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a minted ticket NFT of record. OwnerAddress mirrors the on-chain
// owner and is the authority the default ownership oracle answers from.
type Ticket struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index" json:"eventId"`
	TicketTypeID uuid.UUID  `gorm:"column:ticket_type_id;type:uuid;not null;index" json:"ticketTypeId"`
	OrderID      *uuid.UUID `gorm:"column:order_id;type:uuid;index" json:"orderId,omitempty"`
	OwnerAddress string     `gorm:"column:owner_address;not null;index" json:"ownerAddress"`
	TokenID      string     `gorm:"column:token_id;not null;uniqueIndex" json:"tokenId"`
	MintedAt     time.Time  `gorm:"column:minted_at;not null" json:"mintedAt"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
