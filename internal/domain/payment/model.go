package payment

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is the normalized record of a processor "charge succeeded/failed"
// event. Processor integration details live outside this engine; only the
// normalized outcome enters here. ProcessorTransactionID is unique within the
// tenant scope so webhook retries collapse onto one row.
type Payment struct {
	ID string `db:"id" json:"id"`

	// CustomerID is the paying customer
	CustomerID string `db:"customer_id" json:"customer_id"`

	// SubscriptionID is the funded subscription, when known
	SubscriptionID *string `db:"subscription_id" json:"subscription_id,omitempty"`

	// Amount in minor currency units
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	// PaymentStatus is the normalized processor outcome
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`

	// ProcessorTransactionID is the processor-side identifier of the charge
	ProcessorTransactionID string `db:"processor_transaction_id" json:"processor_transaction_id"`

	types.BaseModel
}

// NewPaymentParams are the fields required to record a payment
type NewPaymentParams struct {
	CustomerID             string
	SubscriptionID         *string
	Amount                 decimal.Decimal
	Currency               string
	PaymentStatus          types.PaymentStatus
	ProcessorTransactionID string
}

// NewPayment records a payment with defaults from the request context
func NewPayment(ctx context.Context, params NewPaymentParams) *Payment {
	return &Payment{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		CustomerID:             params.CustomerID,
		SubscriptionID:         params.SubscriptionID,
		Amount:                 params.Amount,
		Currency:               params.Currency,
		PaymentStatus:          params.PaymentStatus,
		ProcessorTransactionID: params.ProcessorTransactionID,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
}

func (p *Payment) Validate() error {
	if p.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Payments must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if !p.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Payment amount must be positive").
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentStatus.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid payment status").
			Mark(ierr.ErrValidation)
	}
	if p.ProcessorTransactionID == "" {
		return ierr.NewError("processor_transaction_id is required").
			WithHint("Payments must carry the processor transaction id").
			Mark(ierr.ErrValidation)
	}
	return nil
}
