package dto

import (
	"github.com/metergrid/metergrid/internal/domain/meter"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// CreateUsageMeterRequest creates a usage meter
type CreateUsageMeterRequest struct {
	Name            string                `json:"name" validate:"required"`
	Slug            string                `json:"slug" validate:"required"`
	PricingModelID  string                `json:"pricing_model_id" validate:"required"`
	AggregationType types.AggregationType `json:"aggregation_type" validate:"required"`
}

func (r CreateUsageMeterRequest) Validate() error {
	if r.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Meter name is required").
			Mark(ierr.ErrValidation)
	}
	if r.Slug == "" {
		return ierr.NewError("slug is required").
			WithHint("Meter slug is required").
			Mark(ierr.ErrValidation)
	}
	if r.PricingModelID == "" {
		return ierr.NewError("pricing_model_id is required").
			WithHint("Meters must belong to a pricing model").
			Mark(ierr.ErrValidation)
	}
	if err := r.AggregationType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid aggregation type").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UsageMeterResponse wraps a meter for API responses
type UsageMeterResponse struct {
	*meter.UsageMeter
}

// ListUsageMetersResponse is the list envelope for meters
type ListUsageMetersResponse struct {
	Items []*meter.UsageMeter `json:"items"`
	Total int                 `json:"total"`
}
