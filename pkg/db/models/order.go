package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
)

// Order is a time-bounded hold of ticket inventory and, once confirmed, the
// purchase record. Status is mutated only through guarded status transitions.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID          uuid.UUID         `gorm:"column:event_id;type:uuid;not null;index" json:"eventId"`
	TicketTypeID     uuid.UUID         `gorm:"column:ticket_type_id;type:uuid;not null;index" json:"ticketTypeId"`
	BuyerAddress     string            `gorm:"column:buyer_address;not null;index" json:"buyerAddress"`
	Quantity         int               `gorm:"column:quantity;not null" json:"quantity"`
	TotalPriceMinor  int64             `gorm:"column:total_price_minor;not null" json:"totalPriceMinor"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	ExpiresAt        time.Time         `gorm:"column:expires_at;not null;index" json:"expiresAt"`
	ConfirmedAt      *time.Time        `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	ExpiredAt        *time.Time        `gorm:"column:expired_at" json:"expiredAt,omitempty"`
	FailedAt         *time.Time        `gorm:"column:failed_at" json:"failedAt,omitempty"`
	PaymentSignature *string           `gorm:"column:payment_signature" json:"paymentSignature,omitempty"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
