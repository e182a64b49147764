package usagecredit

import (
	"context"
)

// Repository is the storage contract for usage credits and their derived
// records, scoped to the (organization, livemode) of the context.
type Repository interface {
	// Create issues a credit. A duplicate (source_reference_type,
	// source_reference_id, usage_meter_id) within the tenant scope returns
	// ErrAlreadyExists; retried webhooks treat that as success.
	Create(ctx context.Context, credit *UsageCredit) error

	Get(ctx context.Context, id string) (*UsageCredit, error)

	// GetBySourceReference fetches the credit holding the issuance
	// idempotency key
	GetBySourceReference(ctx context.Context, sourceType, sourceID, usageMeterID string) (*UsageCredit, error)

	ListBySubscription(ctx context.Context, subscriptionID string) ([]*UsageCredit, error)

	CreateApplication(ctx context.Context, application *CreditApplication) error
	CreateBalanceAdjustment(ctx context.Context, adjustment *BalanceAdjustment) error
}
