package usagecredit

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// CreditApplication records credit consumed against usage during one
// calculation run. It backs a debit ledger entry.
type CreditApplication struct {
	ID string `db:"id" json:"id"`

	// UsageCreditID is the grant being consumed
	UsageCreditID string `db:"usage_credit_id" json:"usage_credit_id"`

	// SubscriptionID and UsageMeterID denormalize the grant's scope
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`
	UsageMeterID   string `db:"usage_meter_id" json:"usage_meter_id"`

	// AmountApplied is the consumed allowance
	AmountApplied decimal.Decimal `db:"amount_applied" json:"amount_applied"`

	// UsageEventID links the application to a specific event when known
	UsageEventID *string `db:"usage_event_id" json:"usage_event_id,omitempty"`

	// CalculationRunID identifies the usage calculation that consumed the
	// credit, for traceability from ledger entries back to the run
	CalculationRunID string `db:"calculation_run_id" json:"calculation_run_id"`

	types.BaseModel
}

// NewCreditApplicationParams are the fields required to record a credit application
type NewCreditApplicationParams struct {
	UsageCreditID    string
	SubscriptionID   string
	UsageMeterID     string
	AmountApplied    decimal.Decimal
	UsageEventID     *string
	CalculationRunID string
}

// NewCreditApplication records a consumption with defaults from the request context
func NewCreditApplication(ctx context.Context, params NewCreditApplicationParams) *CreditApplication {
	return &CreditApplication{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_APPLICATION),
		UsageCreditID:    params.UsageCreditID,
		SubscriptionID:   params.SubscriptionID,
		UsageMeterID:     params.UsageMeterID,
		AmountApplied:    params.AmountApplied,
		UsageEventID:     params.UsageEventID,
		CalculationRunID: params.CalculationRunID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
}

func (a *CreditApplication) Validate() error {
	if a.UsageCreditID == "" {
		return ierr.NewError("usage_credit_id is required").
			WithHint("Credit applications must reference the consumed grant").
			Mark(ierr.ErrValidation)
	}
	if !a.AmountApplied.IsPositive() {
		return ierr.NewError("amount_applied must be positive").
			WithHint("Credit applications must consume a positive amount").
			Mark(ierr.ErrValidation)
	}
	if a.CalculationRunID == "" {
		return ierr.NewError("calculation_run_id is required").
			WithHint("Credit applications must reference their calculation run").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BalanceAdjustment is an administrative claw-back of previously issued
// credit. It backs a debit ledger entry carrying a human-readable reason.
type BalanceAdjustment struct {
	ID string `db:"id" json:"id"`

	// AdjustedUsageCreditID is the grant being adjusted
	AdjustedUsageCreditID string `db:"adjusted_usage_credit_id" json:"adjusted_usage_credit_id"`

	// SubscriptionID and UsageMeterID denormalize the grant's scope
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`
	UsageMeterID   string `db:"usage_meter_id" json:"usage_meter_id"`

	// Amount is the clawed-back allowance, always positive
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Reason is the human-readable justification for the adjustment
	Reason string `db:"reason" json:"reason"`

	// AdjustedByUserID is the acting principal
	AdjustedByUserID string `db:"adjusted_by_user_id" json:"adjusted_by_user_id"`

	types.BaseModel
}

// NewBalanceAdjustmentParams are the fields required to record an adjustment
type NewBalanceAdjustmentParams struct {
	AdjustedUsageCreditID string
	SubscriptionID        string
	UsageMeterID          string
	Amount                decimal.Decimal
	Reason                string
}

// NewBalanceAdjustment records an adjustment with defaults from the request context
func NewBalanceAdjustment(ctx context.Context, params NewBalanceAdjustmentParams) *BalanceAdjustment {
	return &BalanceAdjustment{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_BALANCE_ADJUSTMENT),
		AdjustedUsageCreditID: params.AdjustedUsageCreditID,
		SubscriptionID:        params.SubscriptionID,
		UsageMeterID:          params.UsageMeterID,
		Amount:                params.Amount,
		Reason:                params.Reason,
		AdjustedByUserID:      types.GetUserID(ctx),
		BaseModel:             types.GetDefaultBaseModel(ctx),
	}
}

func (b *BalanceAdjustment) Validate() error {
	if b.AdjustedUsageCreditID == "" {
		return ierr.NewError("adjusted_usage_credit_id is required").
			WithHint("Balance adjustments must reference the adjusted grant").
			Mark(ierr.ErrValidation)
	}
	if !b.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Balance adjustments must claw back a positive amount").
			Mark(ierr.ErrValidation)
	}
	if b.Reason == "" {
		return ierr.NewError("reason is required").
			WithHint("Balance adjustments must carry a reason").
			Mark(ierr.ErrValidation)
	}
	return nil
}
