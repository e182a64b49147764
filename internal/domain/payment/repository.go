package payment

import (
	"context"
)

// Repository is the storage contract for payments, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	// Create records a payment. A duplicate processor_transaction_id within
	// the tenant scope returns ErrAlreadyExists.
	Create(ctx context.Context, payment *Payment) error

	Get(ctx context.Context, id string) (*Payment, error)
	GetByProcessorTransactionID(ctx context.Context, processorTransactionID string) (*Payment, error)
}
