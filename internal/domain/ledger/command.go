package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
)

// TransactionDetails describes the financial event a command posts. The
// organization and livemode scope is never carried here: it always comes
// from the authenticated context of the caller.
type TransactionDetails struct {
	InitiatingSourceType types.LedgerTransactionSourceType
	InitiatingSourceID   string
	SubscriptionID       string
	Description          string
	Metadata             types.Metadata
}

func (d TransactionDetails) Validate() error {
	if err := d.InitiatingSourceType.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid initiating source type").
			Mark(ierr.ErrValidation)
	}
	if d.InitiatingSourceID == "" {
		return ierr.NewError("initiating_source_id is required").
			WithHint("Ledger commands must reference their initiating event").
			Mark(ierr.ErrValidation)
	}
	if d.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger commands must target a subscription").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BackingRecords is the set of typed financial records a command posts
// entries for. New record kinds extend this struct; the mapper below must be
// extended in lockstep or the processor reports a mapping gap.
type BackingRecords struct {
	UsageCredits       []*usagecredit.UsageCredit
	CreditApplications []*usagecredit.CreditApplication
	BalanceAdjustments []*usagecredit.BalanceAdjustment
}

// Count returns the number of backing records across all kinds
func (r BackingRecords) Count() int {
	return len(r.UsageCredits) + len(r.CreditApplications) + len(r.BalanceAdjustments)
}

// Command is the input of the ledger command processor: one transaction
// envelope plus the backing records to post entries for. Processing a command
// is idempotent as long as its backing records are idempotently created
// upstream; the processor itself adds no dedup.
type Command struct {
	TransactionDetails TransactionDetails
	BackingRecords     BackingRecords
}

func (c Command) Validate() error {
	return c.TransactionDetails.Validate()
}

// PostingResult is the outcome of processing a command: the persisted
// envelope and the entries inserted for it. Reprocessing a command returns
// the original transaction with zero new entries.
type PostingResult struct {
	Transaction *LedgerTransaction
	Entries     []*LedgerEntry
}

// NewTransaction builds the parent envelope for a command with the tenant
// scope of the calling context
func NewTransaction(ctx context.Context, details TransactionDetails) *LedgerTransaction {
	return &LedgerTransaction{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		InitiatingSourceType: details.InitiatingSourceType,
		InitiatingSourceID:   details.InitiatingSourceID,
		SubscriptionID:       details.SubscriptionID,
		Description:          details.Description,
		Metadata:             details.Metadata,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
}

// EntryFromCreditIssuance maps an issued usage credit to its posting line.
// A payment-funded issuance is recognized as payment revenue; any other
// issuance is a recognized credit grant. Direction is always credit.
func EntryFromCreditIssuance(ctx context.Context, ledgerTransactionID string, credit *usagecredit.UsageCredit) *LedgerEntry {
	entryType := types.LedgerEntryTypeCreditGrantRecognized
	description := fmt.Sprintf("Credit grant recognized for meter %s", credit.UsageMeterID)
	if credit.PaymentID != nil {
		entryType = types.LedgerEntryTypePaymentRecognized
		description = fmt.Sprintf("Payment recognized for meter %s", credit.UsageMeterID)
	}

	return &LedgerEntry{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		LedgerTransactionID: ledgerTransactionID,
		SubscriptionID:      credit.SubscriptionID,
		UsageMeterID:        lo.ToPtr(credit.UsageMeterID),
		Direction:           types.LedgerEntryDirectionCredit,
		EntryType:           entryType,
		Amount:              credit.IssuedAmount,
		EntryStatus:         types.LedgerEntryStatusPosted,
		SourceUsageCreditID: lo.ToPtr(credit.ID),
		SourcePaymentID:     credit.PaymentID,
		EntryTimestamp:      time.Now().UTC(),
		Description:         description,
		Metadata:            entryMetadata(ctx),
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
}

// EntryFromCreditApplication maps a credit application to its posting line:
// a debit against the meter balance carrying the consumed grant and the
// originating calculation run.
func EntryFromCreditApplication(ctx context.Context, ledgerTransactionID string, application *usagecredit.CreditApplication) *LedgerEntry {
	return &LedgerEntry{
		ID:                        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		LedgerTransactionID:       ledgerTransactionID,
		SubscriptionID:            application.SubscriptionID,
		UsageMeterID:              lo.ToPtr(application.UsageMeterID),
		Direction:                 types.LedgerEntryDirectionDebit,
		EntryType:                 types.LedgerEntryTypeCreditAppliedToUsage,
		Amount:                    application.AmountApplied,
		EntryStatus:               types.LedgerEntryStatusPosted,
		SourceUsageCreditID:       lo.ToPtr(application.UsageCreditID),
		SourceCreditApplicationID: lo.ToPtr(application.ID),
		CalculationRunID:          lo.ToPtr(application.CalculationRunID),
		EntryTimestamp:            time.Now().UTC(),
		Description:               fmt.Sprintf("Credit applied to usage for meter %s", application.UsageMeterID),
		Metadata:                  entryMetadata(ctx),
		BaseModel:                 types.GetDefaultBaseModel(ctx),
	}
}

// EntryFromBalanceAdjustment maps an administrative balance adjustment to its
// posting line: a debit carrying the human-readable reason.
func EntryFromBalanceAdjustment(ctx context.Context, ledgerTransactionID string, adjustment *usagecredit.BalanceAdjustment) *LedgerEntry {
	metadata := entryMetadata(ctx)
	metadata[types.MetadataKeyReason] = adjustment.Reason

	return &LedgerEntry{
		ID:                              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		LedgerTransactionID:             ledgerTransactionID,
		SubscriptionID:                  adjustment.SubscriptionID,
		UsageMeterID:                    lo.ToPtr(adjustment.UsageMeterID),
		Direction:                       types.LedgerEntryDirectionDebit,
		EntryType:                       types.LedgerEntryTypeCreditBalanceAdjusted,
		Amount:                          adjustment.Amount,
		EntryStatus:                     types.LedgerEntryStatusPosted,
		SourceUsageCreditID:             lo.ToPtr(adjustment.AdjustedUsageCreditID),
		SourceCreditBalanceAdjustmentID: lo.ToPtr(adjustment.ID),
		EntryTimestamp:                  time.Now().UTC(),
		Description:                     adjustment.Reason,
		Metadata:                        metadata,
		BaseModel:                       types.GetDefaultBaseModel(ctx),
	}
}

func entryMetadata(ctx context.Context) types.Metadata {
	return types.Metadata{
		types.MetadataKeyCreatedBy: types.GetUserID(ctx),
	}
}
