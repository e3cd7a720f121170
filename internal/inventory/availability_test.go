package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/redis"
)

type fakeCache struct {
	data map[string]string
	sets int
	gets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	if raw, ok := f.data[key]; ok {
		return raw, nil
	}
	return "", redis.Nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCache) AvailabilityKey(eventID, ticketTypeID string) string {
	return "tix:availability:" + eventID + ":" + ticketTypeID
}

func TestAvailabilityReadsThroughCache(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ticketType := seedTicketType(t, db, 10, 7)
	cache := newFakeCache()

	svc, err := NewAvailabilityService(db, cache, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	snap, err := svc.Availability(context.Background(), ticketType.EventID, ticketType.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if snap.AvailableSupply != 7 || snap.TotalSupply != 10 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if cache.sets != 1 {
		t.Fatalf("expected a cache fill, got %d sets", cache.sets)
	}

	// Mutate the row directly; the cached snapshot should still be served.
	if err := db.Model(&models.TicketType{}).Where("id = ?", ticketType.ID).
		Update("available_supply", 1).Error; err != nil {
		t.Fatalf("mutate supply: %v", err)
	}

	snap, err = svc.Availability(context.Background(), ticketType.EventID, ticketType.ID)
	if err != nil {
		t.Fatalf("availability (cached): %v", err)
	}
	if snap.AvailableSupply != 7 {
		t.Fatalf("expected cached value 7, got %d", snap.AvailableSupply)
	}
}

func TestAvailabilityUnknownTicketType(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewAvailabilityService(db, nil, 0, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	_, err = svc.Availability(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
