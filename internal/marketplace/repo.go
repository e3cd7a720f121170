package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/pagination"
)

// Repository defines persistence operations for marketplace listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.MarketplaceListing) (*models.MarketplaceListing, error)
	FindByID(ctx context.Context, listingID uuid.UUID) (*models.MarketplaceListing, error)
	ListActiveByEvent(ctx context.Context, eventID uuid.UUID, params pagination.Params) ([]models.MarketplaceListing, string, error)
	FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.MarketplaceListing, error)
	// TransitionStatus performs the guarded status flip for one listing; false
	// means another caller already moved it out of the expected status.
	TransitionStatus(ctx context.Context, listingID uuid.UUID, from, to enums.ListingStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.MarketplaceListing) (*models.MarketplaceListing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		// The partial unique index on (ticket_id) WHERE status='active' fires here.
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ticket already has an active listing").
				WithDetails(map[string]any{"ticketId": listing.TicketID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return listing, nil
}

func (r *repository) FindByID(ctx context.Context, listingID uuid.UUID) (*models.MarketplaceListing, error) {
	var listing models.MarketplaceListing
	err := r.db.WithContext(ctx).
		Where("id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return &listing, nil
}

func (r *repository) ListActiveByEvent(ctx context.Context, eventID uuid.UUID, params pagination.Params) ([]models.MarketplaceListing, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Joins("JOIN tickets ON tickets.id = marketplace_listings.ticket_id").
		Where("tickets.event_id = ? AND marketplace_listings.status = ?", eventID, enums.ListingStatusActive)
	if cursor != nil {
		query = query.Where(
			"(marketplace_listings.created_at < ?) OR (marketplace_listings.created_at = ? AND marketplace_listings.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var listings []models.MarketplaceListing
	err = query.
		Order("marketplace_listings.created_at DESC").
		Order("marketplace_listings.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&listings).Error
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list event listings")
	}

	nextCursor := ""
	if len(listings) > limit {
		listings = listings[:limit]
		last := listings[len(listings)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return listings, nextCursor, nil
}

func (r *repository) FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.MarketplaceListing, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", enums.ListingStatusActive, cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var listings []models.MarketplaceListing
	if err := query.Find(&listings).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue listings")
	}
	return listings, nil
}

func (r *repository) TransitionStatus(ctx context.Context, listingID uuid.UUID, from, to enums.ListingStatus, updates map[string]any) (bool, error) {
	all := map[string]any{"status": to}
	for column, value := range updates {
		all[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.MarketplaceListing{}).
		Where("id = ? AND status = ?", listingID, from).
		Updates(all)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "transition listing status")
	}
	return res.RowsAffected == 1, nil
}
