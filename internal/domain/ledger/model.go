package ledger

import (
	"time"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// LedgerTransaction is the envelope for one financial event being posted. It
// anchors zero or more ledger entries and records which upstream event
// initiated the posting.
type LedgerTransaction struct {
	ID string `db:"id" json:"id"`

	// InitiatingSourceType and InitiatingSourceID identify the upstream event
	InitiatingSourceType types.LedgerTransactionSourceType `db:"initiating_source_type" json:"initiating_source_type"`
	InitiatingSourceID   string                            `db:"initiating_source_id" json:"initiating_source_id"`

	// SubscriptionID is the subscription all entries of this transaction post against
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// Description is a human-readable summary of the financial event
	Description string `db:"description" json:"description"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

func (t *LedgerTransaction) Validate() error {
	if err := t.InitiatingSourceType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid initiating source type").
			Mark(ierr.ErrValidation)
	}
	if t.InitiatingSourceID == "" {
		return ierr.NewError("initiating_source_id is required").
			WithHint("Ledger transactions must reference their initiating event").
			Mark(ierr.ErrValidation)
	}
	if t.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger transactions must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LedgerEntry is one immutable posting line against a subscription's usage
// meter balance. Entries are append-only: corrections are new offsetting
// entries referencing the original, never updates.
//
// Invariant: for any (subscription, meter), the sum of posted entries signed
// by direction equals the externally observable available balance. The
// invariant is order-independent: it is a sum, not a sequence.
type LedgerEntry struct {
	ID string `db:"id" json:"id"`

	// LedgerTransactionID is the parent envelope
	LedgerTransactionID string `db:"ledger_transaction_id" json:"ledger_transaction_id"`

	// SubscriptionID is the subscription the entry posts against
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// UsageMeterID is the meter balance the entry moves
	UsageMeterID *string `db:"usage_meter_id" json:"usage_meter_id,omitempty"`

	// Direction is credit or debit relative to the meter balance
	Direction types.LedgerEntryDirection `db:"direction" json:"direction"`

	// EntryType identifies the kind of financial event recorded
	EntryType types.LedgerEntryType `db:"entry_type" json:"entry_type"`

	// Amount is the posted quantity, always positive; Direction carries the sign
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// EntryStatus is posted or pending; never mutated after insert
	EntryStatus types.LedgerEntryStatus `db:"entry_status" json:"entry_status"`

	// Source references: exactly one is set depending on EntryType
	SourceUsageCreditID             *string `db:"source_usage_credit_id" json:"source_usage_credit_id,omitempty"`
	SourceCreditApplicationID       *string `db:"source_credit_application_id" json:"source_credit_application_id,omitempty"`
	SourceCreditBalanceAdjustmentID *string `db:"source_credit_balance_adjustment_id" json:"source_credit_balance_adjustment_id,omitempty"`
	SourcePaymentID                 *string `db:"source_payment_id" json:"source_payment_id,omitempty"`

	// CalculationRunID traces credit applications back to their usage
	// calculation run
	CalculationRunID *string `db:"calculation_run_id" json:"calculation_run_id,omitempty"`

	// EntryTimestamp is when the entry was posted
	EntryTimestamp time.Time `db:"entry_timestamp" json:"entry_timestamp"`

	// Description is a human-readable summary of the posting line
	Description string `db:"description" json:"description"`

	// Metadata is a jsonb field; metadata[created_by] records the acting principal
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

func (e *LedgerEntry) Validate() error {
	if e.LedgerTransactionID == "" {
		return ierr.NewError("ledger_transaction_id is required").
			WithHint("Ledger entries must anchor on a ledger transaction").
			Mark(ierr.ErrValidation)
	}
	if e.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger entries must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if err := e.Direction.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid entry direction").
			Mark(ierr.ErrValidation)
	}
	if err := e.EntryType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid entry type").
			Mark(ierr.ErrValidation)
	}
	if !e.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Ledger entry amounts are positive; direction carries the sign").
			Mark(ierr.ErrValidation)
	}
	if err := e.EntryStatus.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid entry status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SignedAmount returns the amount signed by direction: credits positive,
// debits negative
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == types.LedgerEntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
