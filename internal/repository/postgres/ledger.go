package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/ledger"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{db: db, logger: logger}
}

const ledgerTransactionColumns = `
	id, initiating_source_type, initiating_source_id, subscription_id, description, metadata,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

const ledgerEntryColumns = `
	id, ledger_transaction_id, subscription_id, usage_meter_id, direction, entry_type,
	amount, entry_status, source_usage_credit_id, source_credit_application_id,
	source_credit_balance_adjustment_id, source_payment_id, calculation_run_id,
	entry_timestamp, description, metadata,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *ledgerRepository) CreateTransaction(ctx context.Context, t *ledger.LedgerTransaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO ledger_transactions (` + ledgerTransactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	r.logger.Debugw("creating ledger transaction",
		"ledger_transaction_id", t.ID,
		"initiating_source_type", t.InitiatingSourceType,
		"initiating_source_id", t.InitiatingSourceID,
	)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		t.ID, t.InitiatingSourceType, t.InitiatingSourceID, t.SubscriptionID, t.Description, t.Metadata,
		t.OrganizationID, t.Livemode, t.Status, t.CreatedAt, t.UpdatedAt, t.CreatedBy, t.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This financial event is already posted").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create ledger transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) BulkInsertEntries(ctx context.Context, entries []*ledger.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	// One multi-row INSERT: all entries of a posting land in a single
	// statement on the caller's transaction
	query := `
	INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
	VALUES (:id, :ledger_transaction_id, :subscription_id, :usage_meter_id, :direction, :entry_type,
		:amount, :entry_status, :source_usage_credit_id, :source_credit_application_id,
		:source_credit_balance_adjustment_id, :source_payment_id, :calculation_run_id,
		:entry_timestamp, :description, :metadata,
		:organization_id, :livemode, :status, :created_at, :updated_at, :created_by, :updated_by)
	`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, entries); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) GetTransaction(ctx context.Context, id string) (*ledger.LedgerTransaction, error) {
	query := `
	SELECT ` + ledgerTransactionColumns + `
	FROM ledger_transactions
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var t ledger.LedgerTransaction
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Ledger transaction %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger transaction").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

func (r *ledgerRepository) GetTransactionBySource(ctx context.Context, sourceType, sourceID string) (*ledger.LedgerTransaction, error) {
	query := `
	SELECT ` + ledgerTransactionColumns + `
	FROM ledger_transactions
	WHERE initiating_source_type = $1 AND initiating_source_id = $2
		AND organization_id = $3 AND livemode = $4 AND status = $5
	`

	var t ledger.LedgerTransaction
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query,
		sourceType, sourceID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No ledger transaction is posted for this source").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger transaction by source").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

func (r *ledgerRepository) ListEntriesByTransaction(ctx context.Context, ledgerTransactionID string) ([]*ledger.LedgerEntry, error) {
	query := `
	SELECT ` + ledgerEntryColumns + `
	FROM ledger_entries
	WHERE ledger_transaction_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY entry_timestamp
	`

	var entries []*ledger.LedgerEntry
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query,
		ledgerTransactionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntriesBySubscription(ctx context.Context, subscriptionID string) ([]*ledger.LedgerEntry, error) {
	query := `
	SELECT ` + ledgerEntryColumns + `
	FROM ledger_entries
	WHERE subscription_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY entry_timestamp
	`

	var entries []*ledger.LedgerEntry
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query,
		subscriptionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, subscriptionID, usageMeterID string) (decimal.Decimal, error) {
	// Sum of posted entries signed by direction. The sum is order-independent,
	// so concurrent postings never change the result once committed.
	query := `
	SELECT COALESCE(SUM(
		CASE direction WHEN 'credit' THEN amount ELSE -amount END
	), 0)
	FROM ledger_entries
	WHERE subscription_id = $1 AND usage_meter_id = $2 AND entry_status = $3
		AND organization_id = $4 AND livemode = $5 AND status = $6
	`

	var balance decimal.Decimal
	err := r.db.GetQuerier(ctx).GetContext(ctx, &balance, query,
		subscriptionID, usageMeterID, types.LedgerEntryStatusPosted,
		types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to compute balance").
			Mark(ierr.ErrDatabase)
	}
	return balance, nil
}
