package marketplace

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
)

// CreateListingRequest is the payload for offering a ticket for resale.
type CreateListingRequest struct {
	TicketID          uuid.UUID  `json:"ticket_id" validate:"required"`
	SellerAddress     string     `json:"seller_address" validate:"required,min=3,max=128"`
	ListingPriceMinor int64      `json:"listing_price_minor" validate:"required,min=1"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// BuyRequest settles an active listing with an on-chain transfer hash.
type BuyRequest struct {
	BuyerAddress    string `json:"buyer_address" validate:"required,min=3,max=128"`
	TransactionHash string `json:"transaction_hash" validate:"required"`
}

// ListingResponse is the wire shape of a listing. MarkupRatio is the listing
// price over the original primary-sale price, as a decimal string.
type ListingResponse struct {
	ID                  uuid.UUID  `json:"id"`
	TicketID            uuid.UUID  `json:"ticket_id"`
	SellerAddress       string     `json:"seller_address"`
	BuyerAddress        *string    `json:"buyer_address,omitempty"`
	ListingPriceMinor   int64      `json:"listing_price_minor"`
	OriginalPriceMinor  int64      `json:"original_price_minor"`
	MarkupRatio         string     `json:"markup_ratio"`
	Status              string     `json:"status"`
	SaleTransactionHash *string    `json:"sale_transaction_hash,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	SoldAt              *time.Time `json:"sold_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ToListingResponse maps a persisted listing onto its wire shape.
func ToListingResponse(listing *models.MarketplaceListing) *ListingResponse {
	if listing == nil {
		return nil
	}
	return &ListingResponse{
		ID:                  listing.ID,
		TicketID:            listing.TicketID,
		SellerAddress:       listing.SellerAddress,
		BuyerAddress:        listing.BuyerAddress,
		ListingPriceMinor:   listing.ListingPriceMinor,
		OriginalPriceMinor:  listing.OriginalPriceMinor,
		MarkupRatio:         markupRatio(listing.ListingPriceMinor, listing.OriginalPriceMinor),
		Status:              listing.Status.String(),
		SaleTransactionHash: listing.SaleTransactionHash,
		ExpiresAt:           listing.ExpiresAt,
		SoldAt:              listing.SoldAt,
		CancelledAt:         listing.CancelledAt,
		CreatedAt:           listing.CreatedAt,
	}
}

// ListingPage is one cursor page of a listings feed.
type ListingPage struct {
	Listings   []ListingResponse `json:"listings"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ToListingResponses maps a slice of listings.
func ToListingResponses(listings []models.MarketplaceListing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, *ToListingResponse(&listings[i]))
	}
	return out
}

func markupRatio(listingPrice, originalPrice int64) string {
	if originalPrice <= 0 {
		return ""
	}
	return decimal.NewFromInt(listingPrice).
		Div(decimal.NewFromInt(originalPrice)).
		Round(4).
		String()
}
