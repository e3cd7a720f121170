package tickets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
)

// Repository defines persistence operations for minted tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	FindByID(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	ListByOwner(ctx context.Context, ownerAddress string) ([]models.Ticket, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error)
	// TransferOwner flips owner_address only while the expected current owner
	// still holds the ticket, so a concurrent transfer cannot be overwritten.
	TransferOwner(ctx context.Context, ticketID uuid.UUID, fromAddress, toAddress string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tickets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "token id already registered").
				WithDetails(map[string]any{"tokenId": ticket.TokenID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
	}
	return ticket, nil
}

func (r *repository) FindByID(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ?", ticketID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return &ticket, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerAddress string) ([]models.Ticket, error) {
	var result []models.Ticket
	err := r.db.WithContext(ctx).
		Where("owner_address = ?", ownerAddress).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner tickets")
	}
	return result, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error) {
	var result []models.Ticket
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("token_id ASC").
		Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order tickets")
	}
	return result, nil
}

func (r *repository) TransferOwner(ctx context.Context, ticketID uuid.UUID, fromAddress, toAddress string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND owner_address = ?", ticketID, fromAddress).
		Update("owner_address", toAddress)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "transfer ticket owner")
	}
	return res.RowsAffected == 1, nil
}
