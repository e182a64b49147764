package dto

import (
	"context"

	"github.com/metergrid/metergrid/internal/domain/feature"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// CreateFeatureRequest creates a feature of one of the supported variants,
// discriminated by Type
type CreateFeatureRequest struct {
	SubscriptionID string            `json:"subscription_id" validate:"required"`
	Name           string            `json:"name" validate:"required"`
	Slug           string            `json:"slug" validate:"required"`
	Description    string            `json:"description,omitempty"`
	Type           types.FeatureType `json:"type" validate:"required"`

	// Usage credit grant features
	Amount           int64                  `json:"amount,omitempty"`
	UsageMeterID     string                 `json:"usage_meter_id,omitempty"`
	RenewalFrequency types.RenewalFrequency `json:"renewal_frequency,omitempty"`
}

func (r CreateFeatureRequest) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid feature type").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToFeature dispatches to the constructor of the requested variant
func (r CreateFeatureRequest) ToFeature(ctx context.Context) (*feature.Feature, error) {
	switch r.Type {
	case types.FeatureTypeToggle:
		return feature.NewToggleFeature(ctx, r.SubscriptionID, r.Name, r.Slug, r.Description)
	case types.FeatureTypeUsageCreditGrant:
		return feature.NewUsageCreditGrantFeature(ctx, feature.UsageCreditGrantParams{
			SubscriptionID:   r.SubscriptionID,
			Name:             r.Name,
			Slug:             r.Slug,
			Description:      r.Description,
			Amount:           r.Amount,
			UsageMeterID:     r.UsageMeterID,
			RenewalFrequency: r.RenewalFrequency,
		})
	}
	return nil, ierr.NewErrorf("unsupported feature type %s", r.Type).
		WithHint("Invalid feature type").
		Mark(ierr.ErrValidation)
}

// FeatureResponse wraps a feature for API responses
type FeatureResponse struct {
	*feature.Feature
}

// ListFeaturesResponse is the list envelope for features
type ListFeaturesResponse struct {
	Items []*feature.Feature `json:"items"`
	Total int                `json:"total"`
}
