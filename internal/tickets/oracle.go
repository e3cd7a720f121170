package tickets

import (
	"context"

	"github.com/google/uuid"
)

// OwnershipOracle answers who currently owns a ticket. The marketplace asks it
// before accepting a listing; implementations may consult a chain node.
type OwnershipOracle interface {
	Owner(ctx context.Context, ticketID uuid.UUID) (string, error)
}

// RecordOracle answers ownership from the tickets table, the owner of record.
// It keeps the marketplace runnable without a chain node; the owner column is
// kept in lockstep with on-chain transfers by the registration and sale paths.
type RecordOracle struct {
	repo Repository
}

// NewRecordOracle builds the owner-of-record oracle.
func NewRecordOracle(repo Repository) *RecordOracle {
	return &RecordOracle{repo: repo}
}

func (o *RecordOracle) Owner(ctx context.Context, ticketID uuid.UUID) (string, error) {
	ticket, err := o.repo.FindByID(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return ticket.OwnerAddress, nil
}
