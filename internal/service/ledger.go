package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/domain/ledger"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

// LedgerService is the single entry point for posting financial events to the
// ledger. Nothing else writes ledger transactions or entries.
type LedgerService interface {
	// ProcessLedgerCommand turns one financial event into one ledger
	// transaction and zero or more entries, atomically. Reprocessing the same
	// command (same initiating source) is a no-op returning the original
	// posting.
	ProcessLedgerCommand(ctx context.Context, command ledger.Command) (*ledger.PostingResult, error)

	// GetBalance returns the available balance for a subscription's meter:
	// the sum of posted entries signed by direction.
	GetBalance(ctx context.Context, subscriptionID, usageMeterID string) (decimal.Decimal, error)
}

type ledgerService struct {
	ServiceParams
}

func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{
		ServiceParams: params,
	}
}

func (s *ledgerService) ProcessLedgerCommand(ctx context.Context, command ledger.Command) (*ledger.PostingResult, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Ledger commands require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := command.Validate(); err != nil {
		return nil, err
	}

	details := command.TransactionDetails
	transaction := ledger.NewTransaction(ctx, details)

	var result *ledger.PostingResult
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.LedgerRepo.CreateTransaction(ctx, transaction); err != nil {
			if ierr.IsAlreadyExists(err) {
				// Same financial event already posted, ex a retried webhook.
				// Return the original posting untouched.
				existing, getErr := s.LedgerRepo.GetTransactionBySource(ctx,
					details.InitiatingSourceType.String(), details.InitiatingSourceID)
				if getErr != nil {
					return getErr
				}
				s.Logger.Debugw("ledger command already processed, skipping",
					"ledger_transaction_id", existing.ID,
					"initiating_source_type", details.InitiatingSourceType,
					"initiating_source_id", details.InitiatingSourceID,
				)
				result = &ledger.PostingResult{Transaction: existing, Entries: nil}
				return nil
			}
			return err
		}
		if transaction.ID == "" {
			// Callers depend on the transaction id to anchor entries
			return ierr.NewError("ledger transaction insert returned no identity").
				WithHint("Ledger posting failed").
				Mark(ierr.ErrSystem)
		}

		entries := s.mapBackingRecords(ctx, transaction.ID, command.BackingRecords)

		if command.BackingRecords.Count() > 0 && len(entries) == 0 {
			// An unmapped backing-record kind reached the processor. Not a
			// failure, but it must be investigated.
			s.Logger.Warnw("ledger command produced no entries from non-empty backing records",
				"ledger_transaction_id", transaction.ID,
				"initiating_source_type", details.InitiatingSourceType,
				"initiating_source_id", details.InitiatingSourceID,
				"backing_record_count", command.BackingRecords.Count(),
			)
		}

		if len(entries) > 0 {
			if err := s.LedgerRepo.BulkInsertEntries(ctx, entries); err != nil {
				return err
			}
		}

		result = &ledger.PostingResult{Transaction: transaction, Entries: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("processed ledger command",
		"ledger_transaction_id", result.Transaction.ID,
		"initiating_source_type", details.InitiatingSourceType,
		"initiating_source_id", details.InitiatingSourceID,
		"entry_count", len(result.Entries),
	)

	return result, nil
}

// mapBackingRecords maps each backing record to one entry, in the order
// credit issuances, applications, adjustments
func (s *ledgerService) mapBackingRecords(ctx context.Context, ledgerTransactionID string, records ledger.BackingRecords) []*ledger.LedgerEntry {
	entries := make([]*ledger.LedgerEntry, 0, records.Count())

	for _, credit := range records.UsageCredits {
		entries = append(entries, ledger.EntryFromCreditIssuance(ctx, ledgerTransactionID, credit))
	}
	for _, application := range records.CreditApplications {
		entries = append(entries, ledger.EntryFromCreditApplication(ctx, ledgerTransactionID, application))
	}
	for _, adjustment := range records.BalanceAdjustments {
		entries = append(entries, ledger.EntryFromBalanceAdjustment(ctx, ledgerTransactionID, adjustment))
	}

	return entries
}

func (s *ledgerService) GetBalance(ctx context.Context, subscriptionID, usageMeterID string) (decimal.Decimal, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Balance reads require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	return s.LedgerRepo.GetBalance(ctx, subscriptionID, usageMeterID)
}
