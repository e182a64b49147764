package billingperiod

import (
	"context"
	"time"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// BillingPeriod is one billing cycle of a subscription. Period boundaries are
// computed by an external collaborator; this engine only validates the link
// between a usage event and its period.
type BillingPeriod struct {
	ID string `db:"id" json:"id"`

	// SubscriptionID is the owning subscription
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// StartDate and EndDate bound the period, start inclusive, end exclusive
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`

	types.BaseModel
}

// NewBillingPeriod creates a billing period with defaults from the request context
func NewBillingPeriod(ctx context.Context, subscriptionID string, startDate, endDate time.Time) *BillingPeriod {
	return &BillingPeriod{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_PERIOD),
		SubscriptionID: subscriptionID,
		StartDate:      startDate.UTC(),
		EndDate:        endDate.UTC(),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// Covers reports whether t falls inside the period
func (bp *BillingPeriod) Covers(t time.Time) bool {
	return !t.Before(bp.StartDate) && t.Before(bp.EndDate)
}

func (bp *BillingPeriod) Validate() error {
	if bp.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Billing period must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if !bp.EndDate.After(bp.StartDate) {
		return ierr.NewError("end_date must be after start_date").
			WithHint("Billing period end must be after its start").
			Mark(ierr.ErrValidation)
	}
	return nil
}
