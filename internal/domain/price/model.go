package price

import (
	"context"
	"strings"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ReservedPriceSlugSuffix marks system-generated no-charge fallback prices.
// Usage prices may never be written with this suffix; other price types can
// use it freely.
const ReservedPriceSlugSuffix = "no_charge"

// Price is one of a closed set of variants discriminated by Type. The
// constructors below are the only supported way to build one: each variant
// forbids the fields that do not belong to it, and the type of a price never
// changes after creation; callers create a new price instead.
//
// Invariant: exactly one of ProductID / UsageMeterID is non-nil. Subscription
// and single payment prices belong to a product; usage prices belong to a
// usage meter, never a product.
type Price struct {
	// ID is the unique identifier for the price
	ID string `db:"id" json:"id"`

	// Type discriminates the variant and is immutable
	Type types.PriceType `db:"type" json:"type"`

	// Slug used for looking up the price by callers
	Slug string `db:"slug" json:"slug"`

	// UnitAmount stored in minor currency units
	UnitAmount decimal.Decimal `db:"unit_amount" json:"unit_amount"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `db:"currency" json:"currency"`

	// IsDefault marks the fallback price for its product or meter.
	// At most one default per product (or per meter)
	IsDefault bool `db:"is_default" json:"is_default"`

	// ProductID is set for subscription and single payment prices only
	ProductID *string `db:"product_id" json:"product_id,omitempty"`

	// UsageMeterID is set for usage prices only
	UsageMeterID *string `db:"usage_meter_id" json:"usage_meter_id,omitempty"`

	// IntervalUnit and IntervalCount define the recurrence of subscription prices
	IntervalUnit  *types.IntervalUnit `db:"interval_unit" json:"interval_unit,omitempty"`
	IntervalCount *int                `db:"interval_count" json:"interval_count,omitempty"`

	// TrialDays is the free trial length for subscription prices
	TrialDays *int `db:"trial_days" json:"trial_days,omitempty"`

	// UsageEventsPerUnit is how many usage events make up one billable unit
	// for usage prices
	UsageEventsPerUnit *int `db:"usage_events_per_unit" json:"usage_events_per_unit,omitempty"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// IsReservedPriceSlug reports whether the slug carries the reserved
// no-charge suffix
func IsReservedPriceSlug(slug string) bool {
	return strings.HasSuffix(slug, ReservedPriceSlugSuffix)
}

// SubscriptionPriceParams are the fields a subscription price may carry
type SubscriptionPriceParams struct {
	ProductID     string
	Slug          string
	Currency      string
	UnitAmount    decimal.Decimal
	IntervalUnit  types.IntervalUnit
	IntervalCount int
	TrialDays     int
	IsDefault     bool
	Metadata      types.Metadata
}

// NewSubscriptionPrice builds a recurring price attached to a product
func NewSubscriptionPrice(ctx context.Context, params SubscriptionPriceParams) (*Price, error) {
	p := &Price{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE),
		Type:          types.PriceTypeSubscription,
		Slug:          params.Slug,
		UnitAmount:    params.UnitAmount,
		Currency:      params.Currency,
		IsDefault:     params.IsDefault,
		ProductID:     lo.ToPtr(params.ProductID),
		IntervalUnit:  lo.ToPtr(params.IntervalUnit),
		IntervalCount: lo.ToPtr(params.IntervalCount),
		TrialDays:     lo.ToPtr(params.TrialDays),
		Metadata:      params.Metadata,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SinglePaymentPriceParams are the fields a single payment price may carry
type SinglePaymentPriceParams struct {
	ProductID  string
	Slug       string
	Currency   string
	UnitAmount decimal.Decimal
	IsDefault  bool
	Metadata   types.Metadata
}

// NewSinglePaymentPrice builds a one-time price attached to a product
func NewSinglePaymentPrice(ctx context.Context, params SinglePaymentPriceParams) (*Price, error) {
	p := &Price{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE),
		Type:       types.PriceTypeSinglePayment,
		Slug:       params.Slug,
		UnitAmount: params.UnitAmount,
		Currency:   params.Currency,
		IsDefault:  params.IsDefault,
		ProductID:  lo.ToPtr(params.ProductID),
		Metadata:   params.Metadata,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// UsagePriceParams are the fields a usage price may carry
type UsagePriceParams struct {
	UsageMeterID       string
	Slug               string
	Currency           string
	UnitAmount         decimal.Decimal
	UsageEventsPerUnit int
	IsDefault          bool
	Metadata           types.Metadata
}

// NewUsagePrice builds a metered price attached to a usage meter
func NewUsagePrice(ctx context.Context, params UsagePriceParams) (*Price, error) {
	p := &Price{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE),
		Type:               types.PriceTypeUsage,
		Slug:               params.Slug,
		UnitAmount:         params.UnitAmount,
		Currency:           params.Currency,
		IsDefault:          params.IsDefault,
		UsageMeterID:       lo.ToPtr(params.UsageMeterID),
		UsageEventsPerUnit: lo.ToPtr(params.UsageEventsPerUnit),
		Metadata:           params.Metadata,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces the variant invariants. It runs on construction and again
// at the repository boundary so rows read back from storage obey the same
// constraints.
func (p *Price) Validate() error {
	if err := p.Type.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid price type").
			Mark(ierr.ErrValidation)
	}
	if p.Slug == "" {
		return ierr.NewError("slug is required").
			WithHint("Price slug is required").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Price currency is required").
			Mark(ierr.ErrValidation)
	}
	if p.UnitAmount.IsNegative() {
		return ierr.NewError("unit amount must not be negative").
			WithHint("Price unit amount must not be negative").
			Mark(ierr.ErrValidation)
	}

	switch p.Type {
	case types.PriceTypeSubscription:
		return p.validateSubscription()
	case types.PriceTypeSinglePayment:
		return p.validateSinglePayment()
	case types.PriceTypeUsage:
		return p.validateUsage()
	}
	return nil
}

func (p *Price) validateSubscription() error {
	if p.ProductID == nil || *p.ProductID == "" {
		return ierr.NewError("product_id is required for subscription prices").
			WithHint("Subscription prices must belong to a product").
			Mark(ierr.ErrValidation)
	}
	if p.UsageMeterID != nil {
		return ierr.NewError("usage_meter_id is not allowed for subscription prices").
			WithHint("Subscription prices cannot reference a usage meter").
			Mark(ierr.ErrValidation)
	}
	if p.UsageEventsPerUnit != nil {
		return ierr.NewError("usage_events_per_unit is not allowed for subscription prices").
			WithHint("Subscription prices cannot carry usage fields").
			Mark(ierr.ErrValidation)
	}
	if p.IntervalUnit == nil {
		return ierr.NewError("interval_unit is required for subscription prices").
			WithHint("Subscription prices must define a billing interval").
			Mark(ierr.ErrValidation)
	}
	if err := p.IntervalUnit.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid interval unit").
			Mark(ierr.ErrValidation)
	}
	if p.IntervalCount == nil || *p.IntervalCount < 1 {
		return ierr.NewError("interval_count must be at least 1").
			WithHint("Subscription prices must define a positive interval count").
			Mark(ierr.ErrValidation)
	}
	if p.TrialDays != nil && *p.TrialDays < 0 {
		return ierr.NewError("trial_days must not be negative").
			WithHint("Trial days must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (p *Price) validateSinglePayment() error {
	if p.ProductID == nil || *p.ProductID == "" {
		return ierr.NewError("product_id is required for single payment prices").
			WithHint("Single payment prices must belong to a product").
			Mark(ierr.ErrValidation)
	}
	if p.UsageMeterID != nil {
		return ierr.NewError("usage_meter_id is not allowed for single payment prices").
			WithHint("Single payment prices cannot reference a usage meter").
			Mark(ierr.ErrValidation)
	}
	if p.IntervalUnit != nil || p.IntervalCount != nil || p.TrialDays != nil {
		return ierr.NewError("interval fields are not allowed for single payment prices").
			WithHint("Single payment prices cannot carry recurrence fields").
			Mark(ierr.ErrValidation)
	}
	if p.UsageEventsPerUnit != nil {
		return ierr.NewError("usage_events_per_unit is not allowed for single payment prices").
			WithHint("Single payment prices cannot carry usage fields").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (p *Price) validateUsage() error {
	if p.UsageMeterID == nil || *p.UsageMeterID == "" {
		return ierr.NewError("usage_meter_id is required for usage prices").
			WithHint("Usage prices must belong to a usage meter").
			Mark(ierr.ErrValidation)
	}
	if p.ProductID != nil {
		return ierr.NewError("product_id is not allowed for usage prices").
			WithHint("Usage prices never belong to a product").
			Mark(ierr.ErrValidation)
	}
	if p.IntervalUnit != nil || p.IntervalCount != nil || p.TrialDays != nil {
		return ierr.NewError("interval fields are not allowed for usage prices").
			WithHint("Usage prices cannot carry recurrence fields").
			Mark(ierr.ErrValidation)
	}
	if p.UsageEventsPerUnit == nil || *p.UsageEventsPerUnit < 1 {
		return ierr.NewError("usage_events_per_unit must be at least 1").
			WithHint("Usage prices must define how many events make one unit").
			Mark(ierr.ErrValidation)
	}
	if IsReservedPriceSlug(p.Slug) {
		return ierr.NewError("slug uses the reserved no-charge suffix").
			WithHintf("Usage price slugs may not end in %q", ReservedPriceSlugSuffix).
			WithReportableDetails(map[string]any{"slug": p.Slug}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
