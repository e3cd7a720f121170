package marketplace

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangteo0103/nft-ticketing-backend/internal/payments"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/tickets"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/clock"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/db/models"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/enums"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/pagination"
)

const (
	testSeller = "0xseller00000000000000000000000000000001"
	testBuyer  = "0xbuyer000000000000000000000000000000002"
	testHash   = "0xfeedface01"
)

type stubVerifier struct {
	err error
}

func (s *stubVerifier) Verify(context.Context, string) error {
	return s.err
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	clock    *clock.Fixed
	verifier *stubVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:marketplace_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.TicketType{}, &models.Ticket{}, &models.MarketplaceListing{}))
	// AutoMigrate cannot express the partial unique index guarding one active
	// listing per ticket; mirror the production migration by hand.
	require.NoError(t, conn.Exec(
		`CREATE UNIQUE INDEX uq_marketplace_listings_active_ticket
		 ON marketplace_listings (ticket_id) WHERE status = 'active'`).Error)

	client, err := db.NewWithConn(conn)
	require.NoError(t, err)

	fixed := clock.NewFixed(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	verifier := &stubVerifier{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	ticketRepo := tickets.NewRepository(conn)

	svc := NewService(
		client,
		NewRepository(conn),
		ticketRepo,
		tickets.NewRecordOracle(ticketRepo),
		verifier,
		fixed,
		logg,
		metrics.NewListingMetrics(nil),
		config.MarketplaceConfig{},
	)
	return &fixture{svc: svc, db: conn, clock: fixed, verifier: verifier}
}

func (f *fixture) seedTicket(t *testing.T, owner string) models.Ticket {
	t.Helper()
	ticketType := models.TicketType{
		ID:              uuid.New(),
		EventID:         uuid.New(),
		Name:            "vip",
		UnitPriceMinor:  2000,
		TotalSupply:     10,
		AvailableSupply: 0,
		SaleStartAt:     f.clock.Now().Add(-time.Hour),
		SaleEndAt:       f.clock.Now().Add(time.Hour),
		IsActive:        true,
	}
	require.NoError(t, f.db.Create(&ticketType).Error)
	ticket := models.Ticket{
		ID:           uuid.New(),
		EventID:      ticketType.EventID,
		TicketTypeID: ticketType.ID,
		OwnerAddress: owner,
		TokenID:      "token-" + uuid.NewString(),
		MintedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&ticket).Error)
	return ticket
}

func (f *fixture) seedTicketForEvent(t *testing.T, owner string, eventID, ticketTypeID uuid.UUID) models.Ticket {
	t.Helper()
	ticket := models.Ticket{
		ID:           uuid.New(),
		EventID:      eventID,
		TicketTypeID: ticketTypeID,
		OwnerAddress: owner,
		TokenID:      "token-" + uuid.NewString(),
		MintedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&ticket).Error)
	return ticket
}

func (f *fixture) list(t *testing.T, ticketID uuid.UUID, price int64) *ListingResponse {
	t.Helper()
	listing, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          ticketID,
		SellerAddress:     testSeller,
		ListingPriceMinor: price,
	})
	require.NoError(t, err)
	return listing
}

func TestCreateListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)

	listing := f.list(t, ticket.ID, 3000)

	require.Equal(t, enums.ListingStatusActive.String(), listing.Status)
	require.Equal(t, int64(2000), listing.OriginalPriceMinor)
	require.Equal(t, "1.5", listing.MarkupRatio)
	require.Nil(t, listing.ExpiresAt)
}

func TestCreateListingNotOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, "0xrealowner")

	_, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          ticket.ID,
		SellerAddress:     testSeller,
		ListingPriceMinor: 3000,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestCreateListingUnknownTicket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          uuid.New(),
		SellerAddress:     testSeller,
		ListingPriceMinor: 3000,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestCreateListingAlreadyListed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	f.list(t, ticket.ID, 3000)

	_, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          ticket.ID,
		SellerAddress:     testSeller,
		ListingPriceMinor: 3500,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestRelistAfterCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	first := f.list(t, ticket.ID, 3000)

	_, err := f.svc.Cancel(context.Background(), first.ID, testSeller)
	require.NoError(t, err)

	// Only active listings occupy the unique slot.
	second := f.list(t, ticket.ID, 2800)
	require.Equal(t, enums.ListingStatusActive.String(), second.Status)
}

func TestBuyTransfersOwnership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	sold, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testBuyer,
		TransactionHash: testHash,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusSold.String(), sold.Status)
	require.NotNil(t, sold.BuyerAddress)
	require.Equal(t, testBuyer, *sold.BuyerAddress)
	require.NotNil(t, sold.SoldAt)

	var owned models.Ticket
	require.NoError(t, f.db.First(&owned, "id = ?", ticket.ID).Error)
	require.Equal(t, testBuyer, owned.OwnerAddress)
}

func TestBuySelfPurchase(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	_, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testSeller,
		TransactionHash: testHash,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestBuyRejectedHashLeavesListingActive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.verifier.err = payments.ErrRejected
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	_, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testBuyer,
		TransactionHash: "junk",
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)

	fresh, err := f.svc.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusActive.String(), fresh.Status)
}

func TestBuyExpiredListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	deadline := f.clock.Now().Add(time.Hour)
	listing, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          ticket.ID,
		SellerAddress:     testSeller,
		ListingPriceMinor: 3000,
		ExpiresAt:         &deadline,
	})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testBuyer,
		TransactionHash: testHash,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGone), "got %v", err)

	fresh, err := f.svc.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusExpired.String(), fresh.Status)
}

func TestBuyOwnerDriftAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	// Owner of record changed without going through the marketplace.
	require.NoError(t, f.db.Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("owner_address", "0xelsewhere").Error)

	_, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testBuyer,
		TransactionHash: testHash,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvariant), "got %v", err)

	// The aborted transaction must leave the listing purchasable state intact.
	fresh, err := f.svc.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusActive.String(), fresh.Status)
}

func TestCancelSellerOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	_, err := f.svc.Cancel(context.Background(), listing.ID, testBuyer)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)

	cancelled, err := f.svc.Cancel(context.Background(), listing.ID, testSeller)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusCancelled.String(), cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// Cancel is idempotent.
	again, err := f.svc.Cancel(context.Background(), listing.ID, testSeller)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusCancelled.String(), again.Status)
}

func TestCancelSoldListingIsStateConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)
	_, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
		BuyerAddress:    testBuyer,
		TransactionHash: testHash,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), listing.ID, testSeller)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestSweepExpiredListings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	soonTicket := f.seedTicket(t, testSeller)
	openTicket := f.seedTicket(t, testSeller)

	deadline := f.clock.Now().Add(30 * time.Minute)
	soon, err := f.svc.CreateListing(context.Background(), CreateListingRequest{
		TicketID:          soonTicket.ID,
		SellerAddress:     testSeller,
		ListingPriceMinor: 3000,
		ExpiresAt:         &deadline,
	})
	require.NoError(t, err)
	open := f.list(t, openTicket.ID, 2500)

	f.clock.Advance(time.Hour)
	moved, err := f.svc.SweepExpired(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	expired, err := f.svc.Get(context.Background(), soon.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusExpired.String(), expired.Status)
	// No deadline means the listing never expires.
	still, err := f.svc.Get(context.Background(), open.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusActive.String(), still.Status)
}

func TestListActiveByEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	otherEventTicket := f.seedTicket(t, testSeller)
	f.list(t, ticket.ID, 3000)
	f.list(t, otherEventTicket.ID, 4000)

	page, err := f.svc.ListActiveByEvent(context.Background(), ticket.EventID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	require.Equal(t, ticket.ID, page.Listings[0].TicketID)
	require.Empty(t, page.NextCursor)
}

func TestListActiveByEventPaginates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	sibling := f.seedTicketForEvent(t, testSeller, ticket.EventID, ticket.TicketTypeID)
	third := f.seedTicketForEvent(t, testSeller, ticket.EventID, ticket.TicketTypeID)
	f.list(t, ticket.ID, 3000)
	f.list(t, sibling.ID, 3200)
	f.list(t, third.ID, 3400)

	first, err := f.svc.ListActiveByEvent(context.Background(), ticket.EventID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Listings, 2)
	require.NotEmpty(t, first.NextCursor)

	rest, err := f.svc.ListActiveByEvent(context.Background(), ticket.EventID, pagination.Params{
		Limit:  2,
		Cursor: first.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, rest.Listings, 1)
	require.Empty(t, rest.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, l := range append(first.Listings, rest.Listings...) {
		seen[l.ID] = true
	}
	require.Len(t, seen, 3)
}

func TestConcurrentBuySucceedsExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ticket := f.seedTicket(t, testSeller)
	listing := f.list(t, ticket.ID, 3000)

	const buyers = 10
	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		buyer := testBuyer + "-" + uuid.NewString()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Buy(context.Background(), listing.ID, BuyRequest{
				BuyerAddress:    buyer,
				TransactionHash: testHash,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	}
	require.Equal(t, 1, won)
}
