package subscription

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// Subscription ties a customer to the prices it is billed under. Usage events
// and ledger entries both anchor on the subscription.
type Subscription struct {
	ID string `db:"id" json:"id"`

	// CustomerID is the owning customer. A usage event's subscription must
	// belong to the event's customer
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PlanName is a display label for the subscribed plan
	PlanName string `db:"plan_name" json:"plan_name"`

	types.BaseModel
}

// NewSubscription creates a subscription with defaults from the request context
func NewSubscription(ctx context.Context, customerID, planName string) *Subscription {
	return &Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID: customerID,
		PlanName:   planName,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

func (s *Subscription) Validate() error {
	if s.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Subscription must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	return nil
}
