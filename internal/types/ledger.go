package types

import (
	"fmt"

	"github.com/samber/lo"
)

// LedgerEntryDirection is the posting direction of a ledger entry relative to
// the subscription's usage meter balance.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
)

func (d LedgerEntryDirection) String() string {
	return string(d)
}

func (d LedgerEntryDirection) Validate() error {
	allowed := []LedgerEntryDirection{
		LedgerEntryDirectionCredit,
		LedgerEntryDirectionDebit,
	}
	if !lo.Contains(allowed, d) {
		return fmt.Errorf("invalid ledger entry direction: %s", d)
	}
	return nil
}

// LedgerEntryType identifies what kind of financial event an entry records.
type LedgerEntryType string

const (
	// LedgerEntryTypePaymentRecognized is a credit issued because a payment was confirmed
	LedgerEntryTypePaymentRecognized LedgerEntryType = "payment_recognized"
	// LedgerEntryTypeCreditGrantRecognized is a credit issued from a feature grant
	LedgerEntryTypeCreditGrantRecognized LedgerEntryType = "credit_grant_recognized"
	// LedgerEntryTypeCreditAppliedToUsage is a debit for credit consumed against usage
	LedgerEntryTypeCreditAppliedToUsage LedgerEntryType = "credit_applied_to_usage"
	// LedgerEntryTypeCreditBalanceAdjusted is a debit for an administrative balance adjustment
	LedgerEntryTypeCreditBalanceAdjusted LedgerEntryType = "credit_balance_adjusted"
	// LedgerEntryTypeEntryReversed offsets a previously posted entry
	LedgerEntryTypeEntryReversed LedgerEntryType = "entry_reversed"
)

func (t LedgerEntryType) String() string {
	return string(t)
}

func (t LedgerEntryType) Validate() error {
	allowed := []LedgerEntryType{
		LedgerEntryTypePaymentRecognized,
		LedgerEntryTypeCreditGrantRecognized,
		LedgerEntryTypeCreditAppliedToUsage,
		LedgerEntryTypeCreditBalanceAdjusted,
		LedgerEntryTypeEntryReversed,
	}
	if !lo.Contains(allowed, t) {
		return fmt.Errorf("invalid ledger entry type: %s", t)
	}
	return nil
}

// LedgerEntryStatus is the posting status of a ledger entry. Entries are never
// updated after insert; a reversal is a new entry referencing the original.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPosted  LedgerEntryStatus = "posted"
	LedgerEntryStatusPending LedgerEntryStatus = "pending"
)

func (s LedgerEntryStatus) String() string {
	return string(s)
}

func (s LedgerEntryStatus) Validate() error {
	allowed := []LedgerEntryStatus{
		LedgerEntryStatusPosted,
		LedgerEntryStatusPending,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid ledger entry status: %s", s)
	}
	return nil
}

// LedgerTransactionSourceType identifies the upstream financial event that
// initiated a ledger transaction.
type LedgerTransactionSourceType string

const (
	LedgerTransactionSourceTypePayment                 LedgerTransactionSourceType = "payment"
	LedgerTransactionSourceTypeBillingPeriodTransition LedgerTransactionSourceType = "billing_period_transition"
	LedgerTransactionSourceTypeUsageCalculation        LedgerTransactionSourceType = "usage_calculation"
	LedgerTransactionSourceTypeAdminAction             LedgerTransactionSourceType = "admin_action"
)

func (s LedgerTransactionSourceType) String() string {
	return string(s)
}

func (s LedgerTransactionSourceType) Validate() error {
	allowed := []LedgerTransactionSourceType{
		LedgerTransactionSourceTypePayment,
		LedgerTransactionSourceTypeBillingPeriodTransition,
		LedgerTransactionSourceTypeUsageCalculation,
		LedgerTransactionSourceTypeAdminAction,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid ledger transaction source type: %s", s)
	}
	return nil
}
