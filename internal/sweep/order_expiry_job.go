package sweep

import (
	"context"
	"fmt"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/metrics"
)

const defaultBatchSize = 200

// expirer is the sweep surface of a lifecycle service: it expires overdue
// records up to the batch limit and reports how many it moved.
type expirer interface {
	SweepExpired(ctx context.Context, limit int) (int, error)
}

// OrderExpiryJobParams configure the order expiry job.
type OrderExpiryJobParams struct {
	Logger       *logger.Logger
	Reservations expirer
	Metrics      *metrics.SweepJobMetrics
	BatchSize    int
}

// NewOrderExpiryJob builds the job that returns elapsed holds to inventory.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservations service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &orderExpiryJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		metrics:      params.Metrics,
		batch:        batch,
	}, nil
}

type orderExpiryJob struct {
	logg         *logger.Logger
	reservations expirer
	metrics      *metrics.SweepJobMetrics
	batch        int
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	expired, err := j.reservations.SweepExpired(ctx, j.batch)
	if expired > 0 {
		j.metrics.AddExpired(j.Name(), expired)
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "overdue holds released")
	}
	return err
}
