package dto

import (
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/payment"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/shopspring/decimal"
)

// PaymentSucceededEvent is the normalized "charge succeeded" event emitted by
// the payment processor integration. Processor specifics never reach this
// engine.
type PaymentSucceededEvent struct {
	ProcessorTransactionID string          `json:"processor_transaction_id" validate:"required"`
	CustomerID             string          `json:"customer_id" validate:"required"`
	SubscriptionID         string          `json:"subscription_id,omitempty"`
	Amount                 decimal.Decimal `json:"amount" validate:"required"`
	Currency               string          `json:"currency" validate:"required"`
}

func (r PaymentSucceededEvent) Validate() error {
	if r.ProcessorTransactionID == "" {
		return ierr.NewError("processor_transaction_id is required").
			WithHint("Payment events must carry the processor transaction id").
			Mark(ierr.ErrValidation)
	}
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Payment events must reference a customer").
			Mark(ierr.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Payment amount must be positive").
			Mark(ierr.ErrValidation)
	}
	if r.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Payment events must carry a currency").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentProcessedResponse reports the outcome of handling a payment event
type PaymentProcessedResponse struct {
	Payment       *payment.Payment           `json:"payment"`
	IssuedCredits []*usagecredit.UsageCredit `json:"issued_credits,omitempty"`
	Posting       *ledger.PostingResult      `json:"-"`

	// LedgerTransactionID of the posting, when credits were issued
	LedgerTransactionID string `json:"ledger_transaction_id,omitempty"`
}
