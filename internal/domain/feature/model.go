package feature

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
)

// Feature is one of a closed set of variants discriminated by Type. A toggle
// feature is a bare on/off entitlement; a usage credit grant feature issues a
// usage allowance against a meter on a renewal schedule. The amount, meter and
// frequency trio is mutually exclusive with the toggle variant, and the
// constructors below are the only supported way to build a feature.
type Feature struct {
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription the feature entitles
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	Name        string            `db:"name" json:"name"`
	Slug        string            `db:"slug" json:"slug"`
	Description string            `db:"description" json:"description"`
	Type        types.FeatureType `db:"type" json:"type"`

	// Amount is the integer credit amount granted per renewal.
	// Usage credit grant features only, and always >= 1
	Amount *int64 `db:"amount" json:"amount,omitempty"`

	// UsageMeterID is the meter the granted credits apply to.
	// Usage credit grant features only
	UsageMeterID *string `db:"usage_meter_id" json:"usage_meter_id,omitempty"`

	// RenewalFrequency is how often the grant re-issues.
	// Usage credit grant features only
	RenewalFrequency *types.RenewalFrequency `db:"renewal_frequency" json:"renewal_frequency,omitempty"`

	types.BaseModel
}

// NewToggleFeature builds an on/off feature carrying no grant fields
func NewToggleFeature(ctx context.Context, subscriptionID, name, slug, description string) (*Feature, error) {
	f := &Feature{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEATURE),
		SubscriptionID: subscriptionID,
		Name:           name,
		Slug:           slug,
		Description:    description,
		Type:           types.FeatureTypeToggle,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// UsageCreditGrantParams are the fields a usage credit grant feature requires
type UsageCreditGrantParams struct {
	SubscriptionID   string
	Name             string
	Slug             string
	Description      string
	Amount           int64
	UsageMeterID     string
	RenewalFrequency types.RenewalFrequency
}

// NewUsageCreditGrantFeature builds a feature that grants usage credits
// against a meter
func NewUsageCreditGrantFeature(ctx context.Context, params UsageCreditGrantParams) (*Feature, error) {
	f := &Feature{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEATURE),
		SubscriptionID:   params.SubscriptionID,
		Name:             params.Name,
		Slug:             params.Slug,
		Description:      params.Description,
		Type:             types.FeatureTypeUsageCreditGrant,
		Amount:           lo.ToPtr(params.Amount),
		UsageMeterID:     lo.ToPtr(params.UsageMeterID),
		RenewalFrequency: lo.ToPtr(params.RenewalFrequency),
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate enforces the variant invariants on construction and at the
// repository boundary
func (f *Feature) Validate() error {
	if err := f.Type.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid feature type").
			Mark(ierr.ErrValidation)
	}
	if f.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Features must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if f.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Feature name is required").
			Mark(ierr.ErrValidation)
	}
	if f.Slug == "" {
		return ierr.NewError("slug is required").
			WithHint("Feature slug is required").
			Mark(ierr.ErrValidation)
	}

	switch f.Type {
	case types.FeatureTypeToggle:
		if f.Amount != nil || f.UsageMeterID != nil || f.RenewalFrequency != nil {
			return ierr.NewError("grant fields are not allowed for toggle features").
				WithHint("Toggle features cannot carry an amount, meter or renewal frequency").
				Mark(ierr.ErrValidation)
		}
	case types.FeatureTypeUsageCreditGrant:
		if f.Amount == nil || *f.Amount < 1 {
			return ierr.NewError("amount must be a positive integer").
				WithHint("Usage credit grant features must grant at least 1 credit").
				Mark(ierr.ErrValidation)
		}
		if f.UsageMeterID == nil || *f.UsageMeterID == "" {
			return ierr.NewError("usage_meter_id is required").
				WithHint("Usage credit grant features must reference a usage meter").
				Mark(ierr.ErrValidation)
		}
		if f.RenewalFrequency == nil {
			return ierr.NewError("renewal_frequency is required").
				WithHint("Usage credit grant features must define a renewal frequency").
				Mark(ierr.ErrValidation)
		}
		if err := f.RenewalFrequency.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Invalid renewal frequency").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
