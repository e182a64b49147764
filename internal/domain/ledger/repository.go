package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the storage contract for the financial ledger, scoped to the
// (organization, livemode) of the context.
//
// Transactions and entries are append-only: there is no update or delete.
type Repository interface {
	// CreateTransaction inserts the parent envelope and returns it with its
	// identity populated. An insert that yields no identity is a fatal
	// storage error (ErrSystem), since entries cannot anchor without it. A
	// duplicate (initiating_source_type, initiating_source_id) within the
	// tenant scope returns ErrAlreadyExists: the same financial event is
	// never posted twice.
	CreateTransaction(ctx context.Context, transaction *LedgerTransaction) error

	// BulkInsertEntries inserts all entries of one transaction in a single
	// call. Callers wrap CreateTransaction and BulkInsertEntries in one
	// database transaction so no partial ledger state is ever visible.
	BulkInsertEntries(ctx context.Context, entries []*LedgerEntry) error

	GetTransaction(ctx context.Context, id string) (*LedgerTransaction, error)

	// GetTransactionBySource fetches the transaction holding the posting
	// idempotency key (initiating_source_type, initiating_source_id)
	GetTransactionBySource(ctx context.Context, sourceType, sourceID string) (*LedgerTransaction, error)
	ListEntriesByTransaction(ctx context.Context, ledgerTransactionID string) ([]*LedgerEntry, error)
	ListEntriesBySubscription(ctx context.Context, subscriptionID string) ([]*LedgerEntry, error)

	// GetBalance returns the sum of posted entries signed by direction for
	// the given subscription and meter, the externally observable available
	// balance.
	GetBalance(ctx context.Context, subscriptionID, usageMeterID string) (decimal.Decimal, error)
}
