package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryPriceStore struct {
	mu     sync.RWMutex
	prices map[string]*price.Price
}

func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		prices: make(map[string]*price.Price),
	}
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.Price) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.prices {
		if tenantMatch(ctx, existing.BaseModel) && existing.Slug == p.Slug {
			return ierr.NewError("price slug already exists").
				WithHint("A price with this slug already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.prices[p.ID] = p
	return nil
}

func (s *InMemoryPriceStore) Get(ctx context.Context, id string) (*price.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[id]
	if !ok || !tenantMatch(ctx, p.BaseModel) {
		return nil, ierr.NewErrorf("price %s not found", id).
			WithHintf("Price %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPriceStore) GetBySlug(ctx context.Context, slug string) (*price.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.prices {
		if tenantMatch(ctx, p.BaseModel) && p.Slug == slug {
			return p, nil
		}
	}
	return nil, ierr.NewErrorf("price with slug %s not found", slug).
		WithHintf("Price with slug %s was not found", slug).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPriceStore) ListByProduct(ctx context.Context, productID string) ([]*price.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prices []*price.Price
	for _, p := range s.prices {
		if tenantMatch(ctx, p.BaseModel) && p.ProductID != nil && *p.ProductID == productID {
			prices = append(prices, p)
		}
	}
	return prices, nil
}

func (s *InMemoryPriceStore) ListByUsageMeter(ctx context.Context, usageMeterID string) ([]*price.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prices []*price.Price
	for _, p := range s.prices {
		if tenantMatch(ctx, p.BaseModel) && p.UsageMeterID != nil && *p.UsageMeterID == usageMeterID {
			prices = append(prices, p)
		}
	}
	return prices, nil
}

func (s *InMemoryPriceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = make(map[string]*price.Price)
}
