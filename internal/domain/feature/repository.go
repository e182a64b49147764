package feature

import (
	"context"
)

// Repository is the storage contract for features, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, feature *Feature) error
	Get(ctx context.Context, id string) (*Feature, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Feature, error)
}
