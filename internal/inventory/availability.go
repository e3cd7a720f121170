package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/redis"
)

// Snapshot is the public availability view for one ticket type.
type Snapshot struct {
	EventID         uuid.UUID `json:"eventId"`
	TicketTypeID    uuid.UUID `json:"ticketTypeId"`
	AvailableSupply int       `json:"availableSupply"`
	TotalSupply     int       `json:"totalSupply"`
}

type availabilityCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	AvailabilityKey(eventID, ticketTypeID string) string
}

// AvailabilityService serves supply reads, fronted by a short-TTL cache so hot
// on-sale ticket types do not hammer the counters row.
type AvailabilityService struct {
	db    *gorm.DB
	cache availabilityCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewAvailabilityService builds the read service. Cache may be nil; reads then
// always hit the database.
func NewAvailabilityService(db *gorm.DB, cache availabilityCache, ttl time.Duration, logg *logger.Logger) (*AvailabilityService, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &AvailabilityService{db: db, cache: cache, ttl: ttl, logg: logg}, nil
}

// Availability returns the current counters for a ticket type within an event.
func (s *AvailabilityService) Availability(ctx context.Context, eventID, ticketTypeID uuid.UUID) (*Snapshot, error) {
	if eventID == uuid.Nil || ticketTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and ticket type id required")
	}

	if snap := s.cached(ctx, eventID, ticketTypeID); snap != nil {
		return snap, nil
	}

	var ticketType models.TicketType
	err := s.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", ticketTypeID, eventID).
		First(&ticketType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load availability")
	}

	snap := &Snapshot{
		EventID:         ticketType.EventID,
		TicketTypeID:    ticketType.ID,
		AvailableSupply: ticketType.AvailableSupply,
		TotalSupply:     ticketType.TotalSupply,
	}
	s.store(ctx, snap)
	return snap, nil
}

func (s *AvailabilityService) cached(ctx context.Context, eventID, ticketTypeID uuid.UUID) *Snapshot {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.AvailabilityKey(eventID.String(), ticketTypeID.String()))
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logg != nil {
			s.logg.Warn(ctx, "availability cache read failed")
		}
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil
	}
	return &snap
}

func (s *AvailabilityService) store(ctx context.Context, snap *Snapshot) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	key := s.cache.AvailabilityKey(snap.EventID.String(), snap.TicketTypeID.String())
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "availability cache write failed")
	}
}
