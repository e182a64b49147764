package meter

import (
	"context"
)

// Repository is the storage contract for usage meters. Every implementation
// must scope reads and writes to the (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, meter *UsageMeter) error
	Get(ctx context.Context, id string) (*UsageMeter, error)
	GetBySlug(ctx context.Context, slug string) (*UsageMeter, error)
	List(ctx context.Context) ([]*UsageMeter, error)
}
