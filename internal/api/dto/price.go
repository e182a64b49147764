package dto

import (
	"context"

	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// CreatePriceRequest creates a price of one of the supported variants,
// discriminated by Type. Fields that do not belong to the requested variant
// are rejected by the domain constructors.
type CreatePriceRequest struct {
	Type       types.PriceType `json:"type" validate:"required"`
	Slug       string          `json:"slug" validate:"required"`
	Currency   string          `json:"currency" validate:"required"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	IsDefault  bool            `json:"is_default"`
	Metadata   types.Metadata  `json:"metadata,omitempty"`

	// Subscription and single payment prices
	ProductID string `json:"product_id,omitempty"`

	// Subscription prices
	IntervalUnit  types.IntervalUnit `json:"interval_unit,omitempty"`
	IntervalCount int                `json:"interval_count,omitempty"`
	TrialDays     int                `json:"trial_days,omitempty"`

	// Usage prices
	UsageMeterID       string `json:"usage_meter_id,omitempty"`
	UsageEventsPerUnit int    `json:"usage_events_per_unit,omitempty"`
}

func (r CreatePriceRequest) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid price type").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPrice dispatches to the constructor of the requested variant. This is the
// only path from the API into a Price value.
func (r CreatePriceRequest) ToPrice(ctx context.Context) (*price.Price, error) {
	switch r.Type {
	case types.PriceTypeSubscription:
		return price.NewSubscriptionPrice(ctx, price.SubscriptionPriceParams{
			ProductID:     r.ProductID,
			Slug:          r.Slug,
			Currency:      r.Currency,
			UnitAmount:    r.UnitAmount,
			IntervalUnit:  r.IntervalUnit,
			IntervalCount: r.IntervalCount,
			TrialDays:     r.TrialDays,
			IsDefault:     r.IsDefault,
			Metadata:      r.Metadata,
		})
	case types.PriceTypeSinglePayment:
		return price.NewSinglePaymentPrice(ctx, price.SinglePaymentPriceParams{
			ProductID:  r.ProductID,
			Slug:       r.Slug,
			Currency:   r.Currency,
			UnitAmount: r.UnitAmount,
			IsDefault:  r.IsDefault,
			Metadata:   r.Metadata,
		})
	case types.PriceTypeUsage:
		return price.NewUsagePrice(ctx, price.UsagePriceParams{
			UsageMeterID:       r.UsageMeterID,
			Slug:               r.Slug,
			Currency:           r.Currency,
			UnitAmount:         r.UnitAmount,
			UsageEventsPerUnit: r.UsageEventsPerUnit,
			IsDefault:          r.IsDefault,
			Metadata:           r.Metadata,
		})
	}
	return nil, ierr.NewErrorf("unsupported price type %s", r.Type).
		WithHint("Invalid price type").
		Mark(ierr.ErrValidation)
}

// PriceResponse wraps a price for API responses
type PriceResponse struct {
	*price.Price
}

// ListPricesResponse is the list envelope for prices
type ListPricesResponse struct {
	Items []*price.Price `json:"items"`
	Total int            `json:"total"`
}
