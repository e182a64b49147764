package usagecredit

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// UsageCredit is an issued grant of usage allowance against a meter. It is
// created exactly once per triggering event: the (source_reference_type,
// source_reference_id, usage_meter_id) tuple is unique within the tenant
// scope, which is what makes retried webhooks safe.
type UsageCredit struct {
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription the credit belongs to
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// UsageMeterID is the meter the credit applies to
	UsageMeterID string `db:"usage_meter_id" json:"usage_meter_id"`

	// IssuedAmount is the granted allowance
	IssuedAmount decimal.Decimal `db:"issued_amount" json:"issued_amount"`

	// SourceReferenceType and SourceReferenceID identify the triggering event
	SourceReferenceType types.UsageCreditSourceReferenceType `db:"source_reference_type" json:"source_reference_type"`
	SourceReferenceID   string                               `db:"source_reference_id" json:"source_reference_id"`

	// PaymentID is set when the credit was funded by a confirmed payment
	PaymentID *string `db:"payment_id" json:"payment_id,omitempty"`

	// CreditStatus is the lifecycle status of the grant
	CreditStatus types.UsageCreditStatus `db:"credit_status" json:"credit_status"`

	types.BaseModel
}

// NewUsageCreditParams are the fields required to issue a usage credit
type NewUsageCreditParams struct {
	SubscriptionID      string
	UsageMeterID        string
	IssuedAmount        decimal.Decimal
	SourceReferenceType types.UsageCreditSourceReferenceType
	SourceReferenceID   string
	PaymentID           *string
}

// NewUsageCredit issues a credit with defaults from the request context
func NewUsageCredit(ctx context.Context, params NewUsageCreditParams) *UsageCredit {
	return &UsageCredit{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_CREDIT),
		SubscriptionID:      params.SubscriptionID,
		UsageMeterID:        params.UsageMeterID,
		IssuedAmount:        params.IssuedAmount,
		SourceReferenceType: params.SourceReferenceType,
		SourceReferenceID:   params.SourceReferenceID,
		PaymentID:           params.PaymentID,
		CreditStatus:        types.UsageCreditStatusActive,
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
}

func (c *UsageCredit) Validate() error {
	if c.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Usage credits must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if c.UsageMeterID == "" {
		return ierr.NewError("usage_meter_id is required").
			WithHint("Usage credits must apply to a usage meter").
			Mark(ierr.ErrValidation)
	}
	if !c.IssuedAmount.IsPositive() {
		return ierr.NewError("issued_amount must be positive").
			WithHint("Usage credits must grant a positive amount").
			Mark(ierr.ErrValidation)
	}
	if err := c.SourceReferenceType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid source reference type").
			Mark(ierr.ErrValidation)
	}
	if c.SourceReferenceID == "" {
		return ierr.NewError("source_reference_id is required").
			WithHint("Usage credits must reference their triggering event").
			Mark(ierr.ErrValidation)
	}
	return nil
}
