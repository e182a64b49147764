package price

import (
	"context"
)

// Repository is the storage contract for prices. Every implementation must
// scope reads and writes to the (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, price *Price) error
	Get(ctx context.Context, id string) (*Price, error)
	GetBySlug(ctx context.Context, slug string) (*Price, error)
	ListByProduct(ctx context.Context, productID string) ([]*Price, error)
	ListByUsageMeter(ctx context.Context, usageMeterID string) ([]*Price, error)
}
