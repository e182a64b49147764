package dto

import (
	"time"

	"github.com/metergrid/metergrid/internal/domain/events"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

// UsageMeterOrPriceRef carries exactly one of the four identifiers a usage
// ingestion caller may use to say which meter the event counts against.
// Supplying zero or more than one is a validation error before any lookup.
type UsageMeterOrPriceRef struct {
	PriceID        string `json:"price_id,omitempty"`
	PriceSlug      string `json:"price_slug,omitempty"`
	UsageMeterID   string `json:"usage_meter_id,omitempty"`
	UsageMeterSlug string `json:"usage_meter_slug,omitempty"`
}

// Validate enforces the exactly-one constraint
func (r UsageMeterOrPriceRef) Validate() error {
	set := 0
	for _, v := range []string{r.PriceID, r.PriceSlug, r.UsageMeterID, r.UsageMeterSlug} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return ierr.NewError("ambiguous usage target identifier").
			WithHint("Provide exactly one of price_id, price_slug, usage_meter_id or usage_meter_slug").
			WithReportableDetails(map[string]any{"identifiers_provided": set}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IngestUsageEventRequest is the payload of POST /v1/events/usage
type IngestUsageEventRequest struct {
	UsageMeterOrPriceRef

	CustomerID      string                 `json:"customer_id" validate:"required"`
	SubscriptionID  string                 `json:"subscription_id" validate:"required"`
	BillingPeriodID string                 `json:"billing_period_id,omitempty"`
	TransactionID   string                 `json:"transaction_id" validate:"required"`
	Amount          int64                  `json:"amount" validate:"required,gt=0"`
	UsageDate       int64                  `json:"usage_date" validate:"required"` // epoch milliseconds
	Properties      map[string]interface{} `json:"properties,omitempty"`
}

// UsageDateTime converts the epoch millisecond usage date to UTC time
func (r IngestUsageEventRequest) UsageDateTime() time.Time {
	return time.UnixMilli(r.UsageDate).UTC()
}

func (r IngestUsageEventRequest) Validate() error {
	if err := r.UsageMeterOrPriceRef.Validate(); err != nil {
		return err
	}
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	if r.TransactionID == "" {
		return ierr.NewError("transaction_id is required").
			WithHint("Transaction ID is required for idempotent ingestion").
			Mark(ierr.ErrValidation)
	}
	if r.Amount <= 0 {
		return ierr.NewError("amount must be positive").
			WithHint("Usage amount must be a positive integer").
			WithReportableDetails(map[string]any{"amount": r.Amount}).
			Mark(ierr.ErrValidation)
	}
	if r.UsageDate <= 0 {
		return ierr.NewError("usage_date must be a positive epoch millisecond timestamp").
			WithHint("Usage date must be provided in epoch milliseconds").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UsageEventResponse wraps a persisted usage event
type UsageEventResponse struct {
	*events.UsageEvent
}

// ListUsageEventsResponse is the payload of GET /v1/subscriptions/:id/events
type ListUsageEventsResponse struct {
	Items []*events.UsageEvent `json:"items"`
	Total int                  `json:"total"`
}
