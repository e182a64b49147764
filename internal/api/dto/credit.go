package dto

import (
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/shopspring/decimal"
)

// GrantRenewalCreditsRequest re-issues every_billing_period credit grants for
// a subscription entering a new billing period
type GrantRenewalCreditsRequest struct {
	SubscriptionID  string `json:"subscription_id" validate:"required"`
	BillingPeriodID string `json:"billing_period_id" validate:"required"`
}

func (r GrantRenewalCreditsRequest) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Renewal grants must target a subscription").
			Mark(ierr.ErrValidation)
	}
	if r.BillingPeriodID == "" {
		return ierr.NewError("billing_period_id is required").
			WithHint("Renewal grants must reference the new billing period").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ApplyCreditToUsageRequest consumes part of a credit grant against usage
// during a calculation run
type ApplyCreditToUsageRequest struct {
	UsageCreditID string          `json:"usage_credit_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	UsageEventID  string          `json:"usage_event_id,omitempty"`

	// CalculationRunID groups all applications of one run; generated when empty
	CalculationRunID string `json:"calculation_run_id,omitempty"`
}

func (r ApplyCreditToUsageRequest) Validate() error {
	if r.UsageCreditID == "" {
		return ierr.NewError("usage_credit_id is required").
			WithHint("Credit applications must reference the consumed grant").
			Mark(ierr.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Credit applications must consume a positive amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AdjustCreditBalanceRequest claws back previously issued credit with a
// human-readable reason
type AdjustCreditBalanceRequest struct {
	UsageCreditID string          `json:"usage_credit_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Reason        string          `json:"reason" validate:"required"`
}

func (r AdjustCreditBalanceRequest) Validate() error {
	if r.UsageCreditID == "" {
		return ierr.NewError("usage_credit_id is required").
			WithHint("Balance adjustments must reference the adjusted grant").
			Mark(ierr.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Balance adjustments must claw back a positive amount").
			Mark(ierr.ErrValidation)
	}
	if r.Reason == "" {
		return ierr.NewError("reason is required").
			WithHint("Balance adjustments must carry a reason").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditOperationResponse reports a credit mutation and its ledger posting
type CreditOperationResponse struct {
	IssuedCredits []*usagecredit.UsageCredit     `json:"issued_credits,omitempty"`
	Application   *usagecredit.CreditApplication `json:"application,omitempty"`
	Adjustment    *usagecredit.BalanceAdjustment `json:"adjustment,omitempty"`
	Posting       *ledger.PostingResult          `json:"-"`

	LedgerTransactionID string `json:"ledger_transaction_id,omitempty"`
}

// BalanceResponse is the available balance of a subscription's meter
type BalanceResponse struct {
	SubscriptionID string          `json:"subscription_id"`
	UsageMeterID   string          `json:"usage_meter_id"`
	Balance        decimal.Decimal `json:"balance"`
}
