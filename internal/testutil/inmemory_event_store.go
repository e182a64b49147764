package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/events"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string]*events.UsageEvent
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string]*events.UsageEvent),
	}
}

func (s *InMemoryEventStore) Insert(ctx context.Context, e *events.UsageEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Same uniqueness as the SQL schema: (transaction_id, usage_meter_id)
	// within the tenant scope
	for _, existing := range s.events {
		if tenantMatch(ctx, existing.BaseModel) &&
			existing.TransactionID == e.TransactionID &&
			existing.UsageMeterID == e.UsageMeterID {
			return ierr.NewError("usage event already exists").
				WithHint("A usage event with this transaction id already exists for the meter").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.events[e.ID] = e
	return nil
}

func (s *InMemoryEventStore) Get(ctx context.Context, id string) (*events.UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok || !tenantMatch(ctx, e.BaseModel) {
		return nil, ierr.NewErrorf("usage event %s not found", id).
			WithHintf("Usage event %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return e, nil
}

func (s *InMemoryEventStore) GetByTransactionIDAndMeter(ctx context.Context, transactionID, usageMeterID string) (*events.UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if tenantMatch(ctx, e.BaseModel) &&
			e.TransactionID == transactionID && e.UsageMeterID == usageMeterID {
			return e, nil
		}
	}
	return nil, ierr.NewError("usage event not found").
		WithHint("No usage event holds this transaction id for the meter").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryEventStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*events.UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*events.UsageEvent
	for _, e := range s.events {
		if tenantMatch(ctx, e.BaseModel) && e.SubscriptionID == subscriptionID {
			items = append(items, e)
		}
	}
	return items, nil
}

func (s *InMemoryEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]*events.UsageEvent)
}
