package customer

import (
	"context"
)

// Repository is the storage contract for customers, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
}
