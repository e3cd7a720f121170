package sweep

import (
	"context"
	"fmt"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
)

// ListingExpiryJobParams configure the listing expiry job.
type ListingExpiryJobParams struct {
	Logger      *logger.Logger
	Marketplace expirer
	Metrics     *metrics.SweepJobMetrics
	BatchSize   int
}

// NewListingExpiryJob builds the job that retires listings past their deadline.
func NewListingExpiryJob(params ListingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Marketplace == nil {
		return nil, fmt.Errorf("marketplace service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &listingExpiryJob{
		logg:        params.Logger,
		marketplace: params.Marketplace,
		metrics:     params.Metrics,
		batch:       batch,
	}, nil
}

type listingExpiryJob struct {
	logg        *logger.Logger
	marketplace expirer
	metrics     *metrics.SweepJobMetrics
	batch       int
}

func (j *listingExpiryJob) Name() string { return "listing-expiry" }

func (j *listingExpiryJob) Run(ctx context.Context) error {
	expired, err := j.marketplace.SweepExpired(ctx, j.batch)
	if expired > 0 {
		j.metrics.AddExpired(j.Name(), expired)
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "overdue listings retired")
	}
	return err
}
