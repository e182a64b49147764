package events

import (
	"context"
)

// Repository is the storage contract for usage events, scoped to the
// (organization, livemode) of the context.
type Repository interface {
	// Insert appends a usage event. A duplicate (transaction_id,
	// usage_meter_id) within the tenant scope returns ErrAlreadyExists;
	// callers with at-least-once delivery treat that as success and fetch the
	// original row.
	Insert(ctx context.Context, event *UsageEvent) error

	Get(ctx context.Context, id string) (*UsageEvent, error)

	// GetByTransactionIDAndMeter fetches the event holding the idempotency key
	GetByTransactionIDAndMeter(ctx context.Context, transactionID, usageMeterID string) (*UsageEvent, error)

	ListBySubscription(ctx context.Context, subscriptionID string) ([]*UsageEvent, error)
}
