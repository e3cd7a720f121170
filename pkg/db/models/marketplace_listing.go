package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
)

// MarketplaceListing is a resale offer for one minted ticket.
//
// A partial unique index (ticket_id WHERE status = 'active') enforces at most
// one live listing per ticket; the repository surfaces the violation as a
// conflict rather than relying on read-then-write checks alone.
type MarketplaceListing struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TicketID            uuid.UUID           `gorm:"column:ticket_id;type:uuid;not null;index" json:"ticketId"`
	SellerAddress       string              `gorm:"column:seller_address;not null;index" json:"sellerAddress"`
	BuyerAddress        *string             `gorm:"column:buyer_address" json:"buyerAddress,omitempty"`
	ListingPriceMinor   int64               `gorm:"column:listing_price_minor;not null" json:"listingPriceMinor"`
	OriginalPriceMinor  int64               `gorm:"column:original_price_minor;not null" json:"originalPriceMinor"`
	Status              enums.ListingStatus `gorm:"column:status;type:text;not null;default:'active';index" json:"status"`
	SaleTransactionHash *string             `gorm:"column:sale_transaction_hash" json:"saleTransactionHash,omitempty"`
	ExpiresAt           *time.Time          `gorm:"column:expires_at;index" json:"expiresAt,omitempty"`
	SoldAt              *time.Time          `gorm:"column:sold_at" json:"soldAt,omitempty"`
	CancelledAt         *time.Time          `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
