package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/metergrid/metergrid/internal/domain/billingperiod"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryBillingPeriodStore struct {
	mu      sync.RWMutex
	periods map[string]*billingperiod.BillingPeriod
}

func NewInMemoryBillingPeriodStore() *InMemoryBillingPeriodStore {
	return &InMemoryBillingPeriodStore{
		periods: make(map[string]*billingperiod.BillingPeriod),
	}
}

func (s *InMemoryBillingPeriodStore) Create(ctx context.Context, bp *billingperiod.BillingPeriod) error {
	if err := bp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[bp.ID] = bp
	return nil
}

func (s *InMemoryBillingPeriodStore) Get(ctx context.Context, id string) (*billingperiod.BillingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bp, ok := s.periods[id]
	if !ok || !tenantMatch(ctx, bp.BaseModel) {
		return nil, ierr.NewErrorf("billing period %s not found", id).
			WithHintf("Billing period %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return bp, nil
}

func (s *InMemoryBillingPeriodStore) GetBySubscriptionAndTime(ctx context.Context, subscriptionID string, at time.Time) (*billingperiod.BillingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bp := range s.periods {
		if tenantMatch(ctx, bp.BaseModel) && bp.SubscriptionID == subscriptionID && bp.Covers(at) {
			return bp, nil
		}
	}
	return nil, ierr.NewError("no billing period covers the given time").
		WithHint("No billing period covers the given time").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryBillingPeriodStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = make(map[string]*billingperiod.BillingPeriod)
}
