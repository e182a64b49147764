package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/ledger"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
)

type InMemoryLedgerStore struct {
	mu           sync.RWMutex
	transactions map[string]*ledger.LedgerTransaction
	entries      map[string]*ledger.LedgerEntry

	// FailNextEntryInsert makes the next BulkInsertEntries call fail, for
	// asserting that a posting error propagates out of the processor
	FailNextEntryInsert bool
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		transactions: make(map[string]*ledger.LedgerTransaction),
		entries:      make(map[string]*ledger.LedgerEntry),
	}
}

func (s *InMemoryLedgerStore) CreateTransaction(ctx context.Context, t *ledger.LedgerTransaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Same uniqueness as the SQL schema: (initiating_source_type,
	// initiating_source_id) within the tenant scope
	for _, existing := range s.transactions {
		if tenantMatch(ctx, existing.BaseModel) &&
			existing.InitiatingSourceType == t.InitiatingSourceType &&
			existing.InitiatingSourceID == t.InitiatingSourceID {
			return ierr.NewError("ledger transaction already posted").
				WithHint("This financial event is already posted").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.transactions[t.ID] = t
	return nil
}

func (s *InMemoryLedgerStore) BulkInsertEntries(ctx context.Context, entries []*ledger.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNextEntryInsert {
		s.FailNextEntryInsert = false
		return ierr.NewError("entry insert failed").
			WithHint("Failed to insert ledger entry").
			Mark(ierr.ErrDatabase)
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

func (s *InMemoryLedgerStore) GetTransaction(ctx context.Context, id string) (*ledger.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok || !tenantMatch(ctx, t.BaseModel) {
		return nil, ierr.NewErrorf("ledger transaction %s not found", id).
			WithHintf("Ledger transaction %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return t, nil
}

func (s *InMemoryLedgerStore) GetTransactionBySource(ctx context.Context, sourceType, sourceID string) (*ledger.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions {
		if tenantMatch(ctx, t.BaseModel) &&
			t.InitiatingSourceType.String() == sourceType &&
			t.InitiatingSourceID == sourceID {
			return t, nil
		}
	}
	return nil, ierr.NewError("ledger transaction not found").
		WithHint("No ledger transaction is posted for this source").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryLedgerStore) ListEntriesByTransaction(ctx context.Context, ledgerTransactionID string) ([]*ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*ledger.LedgerEntry
	for _, e := range s.entries {
		if tenantMatch(ctx, e.BaseModel) && e.LedgerTransactionID == ledgerTransactionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *InMemoryLedgerStore) ListEntriesBySubscription(ctx context.Context, subscriptionID string) ([]*ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*ledger.LedgerEntry
	for _, e := range s.entries {
		if tenantMatch(ctx, e.BaseModel) && e.SubscriptionID == subscriptionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *InMemoryLedgerStore) GetBalance(ctx context.Context, subscriptionID, usageMeterID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := decimal.Zero
	for _, e := range s.entries {
		if !tenantMatch(ctx, e.BaseModel) {
			continue
		}
		if e.SubscriptionID != subscriptionID {
			continue
		}
		if e.UsageMeterID == nil || *e.UsageMeterID != usageMeterID {
			continue
		}
		if e.EntryStatus != types.LedgerEntryStatusPosted {
			continue
		}
		balance = balance.Add(e.SignedAmount())
	}
	return balance, nil
}

func (s *InMemoryLedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make(map[string]*ledger.LedgerTransaction)
	s.entries = make(map[string]*ledger.LedgerEntry)
}
