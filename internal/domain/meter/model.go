package meter

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// UsageMeter is an organization-scoped countable resource dimension, ex API
// calls. Its identity is immutable once usage events reference it.
type UsageMeter struct {
	// ID is the unique identifier for the meter
	ID string `db:"id" json:"id"`

	// Name is the display name of the meter
	Name string `db:"name" json:"name"`

	// Slug is the human-readable identifier used by ingestion callers.
	// Unique per (organization, livemode, pricing model)
	Slug string `db:"slug" json:"slug"`

	// PricingModelID groups meters under a pricing model
	PricingModelID string `db:"pricing_model_id" json:"pricing_model_id"`

	// AggregationType defines how usage events roll up into the meter's value
	AggregationType types.AggregationType `db:"aggregation_type" json:"aggregation_type"`

	types.BaseModel
}

// NewUsageMeter creates a meter with defaults from the request context
func NewUsageMeter(ctx context.Context, name, slug, pricingModelID string, aggregationType types.AggregationType) *UsageMeter {
	return &UsageMeter{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_METER),
		Name:            name,
		Slug:            slug,
		PricingModelID:  pricingModelID,
		AggregationType: aggregationType,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// Validate validates the meter configuration
func (m *UsageMeter) Validate() error {
	if m.ID == "" {
		return ierr.NewError("id is required").
			WithHint("Meter ID is required").
			Mark(ierr.ErrValidation)
	}
	if m.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Meter name is required").
			Mark(ierr.ErrValidation)
	}
	if m.Slug == "" {
		return ierr.NewError("slug is required").
			WithHint("Meter slug is required").
			Mark(ierr.ErrValidation)
	}
	if err := m.AggregationType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid aggregation type").
			Mark(ierr.ErrValidation)
	}
	return nil
}
