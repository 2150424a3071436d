package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

const defaultPendingOrderTTL = 24 * time.Hour

// OrderTTLJobParams configure the stale pending order sweeper.
type OrderTTLJobParams struct {
	Logger *logger.Logger
	Orders pendingExpirer
	TTL    time.Duration
}

type pendingExpirer interface {
	ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error)
}

// NewOrderTTLJob builds the cron job that cancels orders whose payment window
// has lapsed. Stock reserved at checkout flows back when a group voids.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &orderTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	orders pendingExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpireStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire stale pending orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"groups_expired": expired,
	})
	j.logg.Info(logCtx, "pending order expiration complete")
	return nil
}
