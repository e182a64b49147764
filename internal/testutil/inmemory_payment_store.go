package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/payment"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments: make(map[string]*payment.Payment),
	}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if tenantMatch(ctx, existing.BaseModel) &&
			existing.ProcessorTransactionID == p.ProcessorTransactionID {
			return ierr.NewError("payment already recorded").
				WithHint("A payment with this processor transaction id is already recorded").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.payments[p.ID] = p
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok || !tenantMatch(ctx, p.BaseModel) {
		return nil, ierr.NewErrorf("payment %s not found", id).
			WithHintf("Payment %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) GetByProcessorTransactionID(ctx context.Context, processorTransactionID string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if tenantMatch(ctx, p.BaseModel) && p.ProcessorTransactionID == processorTransactionID {
			return p, nil
		}
	}
	return nil, ierr.NewError("payment not found").
		WithHint("No payment is recorded for this processor transaction id").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = make(map[string]*payment.Payment)
}
