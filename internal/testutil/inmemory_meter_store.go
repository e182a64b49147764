package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/meter"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryMeterStore struct {
	mu     sync.RWMutex
	meters map[string]*meter.UsageMeter
}

func NewInMemoryMeterStore() *InMemoryMeterStore {
	return &InMemoryMeterStore{
		meters: make(map[string]*meter.UsageMeter),
	}
}

func (s *InMemoryMeterStore) Create(ctx context.Context, m *meter.UsageMeter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.meters {
		if tenantMatch(ctx, existing.BaseModel) &&
			existing.Slug == m.Slug && existing.PricingModelID == m.PricingModelID {
			return ierr.NewError("meter slug already exists").
				WithHint("A meter with this slug already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.meters[m.ID] = m
	return nil
}

func (s *InMemoryMeterStore) Get(ctx context.Context, id string) (*meter.UsageMeter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meters[id]
	if !ok || !tenantMatch(ctx, m.BaseModel) {
		return nil, ierr.NewErrorf("meter %s not found", id).
			WithHintf("Meter %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

func (s *InMemoryMeterStore) GetBySlug(ctx context.Context, slug string) (*meter.UsageMeter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.meters {
		if tenantMatch(ctx, m.BaseModel) && m.Slug == slug {
			return m, nil
		}
	}
	return nil, ierr.NewErrorf("meter with slug %s not found", slug).
		WithHintf("Meter with slug %s was not found", slug).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryMeterStore) List(ctx context.Context) ([]*meter.UsageMeter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var meters []*meter.UsageMeter
	for _, m := range s.meters {
		if tenantMatch(ctx, m.BaseModel) {
			meters = append(meters, m)
		}
	}
	return meters, nil
}

func (s *InMemoryMeterStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meters = make(map[string]*meter.UsageMeter)
}
