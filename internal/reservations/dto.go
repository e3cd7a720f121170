package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
)

// CreateRequest is the payload for placing a hold on inventory. EventID is
// optional; when set it must match the event the ticket type belongs to.
type CreateRequest struct {
	EventID      uuid.UUID `json:"event_id,omitempty"`
	TicketTypeID uuid.UUID `json:"ticket_type_id" validate:"required"`
	BuyerAddress string    `json:"buyer_address" validate:"required,min=3,max=128"`
	Quantity     int       `json:"quantity" validate:"required,min=1"`
}

// ConfirmRequest carries the payment proof presented at confirmation.
type ConfirmRequest struct {
	PaymentSignature string `json:"payment_signature" validate:"required"`
}

// OrderResponse is the wire shape of an order.
type OrderResponse struct {
	ID              uuid.UUID  `json:"id"`
	EventID         uuid.UUID  `json:"event_id"`
	TicketTypeID    uuid.UUID  `json:"ticket_type_id"`
	BuyerAddress    string     `json:"buyer_address"`
	Quantity        int        `json:"quantity"`
	TotalPriceMinor int64      `json:"total_price_minor"`
	Status          string     `json:"status"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty"`
	FailedAt        *time.Time `json:"failed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToOrderResponse maps a persisted order onto its wire shape.
func ToOrderResponse(order *models.Order) *OrderResponse {
	if order == nil {
		return nil
	}
	return &OrderResponse{
		ID:              order.ID,
		EventID:         order.EventID,
		TicketTypeID:    order.TicketTypeID,
		BuyerAddress:    order.BuyerAddress,
		Quantity:        order.Quantity,
		TotalPriceMinor: order.TotalPriceMinor,
		Status:          order.Status.String(),
		ExpiresAt:       order.ExpiresAt,
		ConfirmedAt:     order.ConfirmedAt,
		CancelledAt:     order.CancelledAt,
		ExpiredAt:       order.ExpiredAt,
		FailedAt:        order.FailedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// ToOrderResponses maps a slice of orders.
func ToOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, *ToOrderResponse(&orders[i]))
	}
	return out
}
