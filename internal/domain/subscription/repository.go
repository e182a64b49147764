package subscription

import (
	"context"
)

// Repository is the storage contract for subscriptions, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
}
