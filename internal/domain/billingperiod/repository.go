package billingperiod

import (
	"context"
	"time"
)

// Repository is the storage contract for billing periods, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, period *BillingPeriod) error
	Get(ctx context.Context, id string) (*BillingPeriod, error)

	// GetBySubscriptionAndTime returns the period of the subscription covering
	// the given timestamp
	GetBySubscriptionAndTime(ctx context.Context, subscriptionID string, at time.Time) (*BillingPeriod, error)
}
