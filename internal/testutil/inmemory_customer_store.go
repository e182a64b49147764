package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/customer"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*customer.Customer
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		customers: make(map[string]*customer.Customer),
	}
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return nil
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok || !tenantMatch(ctx, c.BaseModel) {
		return nil, ierr.NewErrorf("customer %s not found", id).
			WithHintf("Customer %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCustomerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = make(map[string]*customer.Customer)
}
