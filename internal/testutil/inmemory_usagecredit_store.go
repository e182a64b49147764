package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryUsageCreditStore struct {
	mu          sync.RWMutex
	credits     map[string]*usagecredit.UsageCredit
	apps        map[string]*usagecredit.CreditApplication
	adjustments map[string]*usagecredit.BalanceAdjustment
}

func NewInMemoryUsageCreditStore() *InMemoryUsageCreditStore {
	return &InMemoryUsageCreditStore{
		credits:     make(map[string]*usagecredit.UsageCredit),
		apps:        make(map[string]*usagecredit.CreditApplication),
		adjustments: make(map[string]*usagecredit.BalanceAdjustment),
	}
}

func (s *InMemoryUsageCreditStore) Create(ctx context.Context, c *usagecredit.UsageCredit) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Same uniqueness as the SQL schema: (source_reference_type,
	// source_reference_id, usage_meter_id) within the tenant scope
	for _, existing := range s.credits {
		if tenantMatch(ctx, existing.BaseModel) &&
			existing.SourceReferenceType == c.SourceReferenceType &&
			existing.SourceReferenceID == c.SourceReferenceID &&
			existing.UsageMeterID == c.UsageMeterID {
			return ierr.NewError("credit already issued").
				WithHint("A credit with this source reference is already issued for the meter").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.credits[c.ID] = c
	return nil
}

func (s *InMemoryUsageCreditStore) Get(ctx context.Context, id string) (*usagecredit.UsageCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credits[id]
	if !ok || !tenantMatch(ctx, c.BaseModel) {
		return nil, ierr.NewErrorf("usage credit %s not found", id).
			WithHintf("Usage credit %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryUsageCreditStore) GetBySourceReference(ctx context.Context, sourceType, sourceID, usageMeterID string) (*usagecredit.UsageCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.credits {
		if tenantMatch(ctx, c.BaseModel) &&
			c.SourceReferenceType.String() == sourceType &&
			c.SourceReferenceID == sourceID &&
			c.UsageMeterID == usageMeterID {
			return c, nil
		}
	}
	return nil, ierr.NewError("usage credit not found").
		WithHint("No credit is issued for this source reference").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryUsageCreditStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usagecredit.UsageCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var credits []*usagecredit.UsageCredit
	for _, c := range s.credits {
		if tenantMatch(ctx, c.BaseModel) && c.SubscriptionID == subscriptionID {
			credits = append(credits, c)
		}
	}
	return credits, nil
}

func (s *InMemoryUsageCreditStore) CreateApplication(ctx context.Context, a *usagecredit.CreditApplication) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[a.ID] = a
	return nil
}

func (s *InMemoryUsageCreditStore) CreateBalanceAdjustment(ctx context.Context, b *usagecredit.BalanceAdjustment) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments[b.ID] = b
	return nil
}

// Applications returns all recorded applications, for assertions
func (s *InMemoryUsageCreditStore) Applications() []*usagecredit.CreditApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make([]*usagecredit.CreditApplication, 0, len(s.apps))
	for _, a := range s.apps {
		apps = append(apps, a)
	}
	return apps
}

func (s *InMemoryUsageCreditStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = make(map[string]*usagecredit.UsageCredit)
	s.apps = make(map[string]*usagecredit.CreditApplication)
	s.adjustments = make(map[string]*usagecredit.BalanceAdjustment)
}
