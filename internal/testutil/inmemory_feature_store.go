package testutil

import (
	"context"
	"sync"

	"github.com/metergrid/metergrid/internal/domain/feature"
	ierr "github.com/metergrid/metergrid/internal/errors"
)

type InMemoryFeatureStore struct {
	mu       sync.RWMutex
	features map[string]*feature.Feature
}

func NewInMemoryFeatureStore() *InMemoryFeatureStore {
	return &InMemoryFeatureStore{
		features: make(map[string]*feature.Feature),
	}
}

func (s *InMemoryFeatureStore) Create(ctx context.Context, f *feature.Feature) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.features[f.ID] = f
	return nil
}

func (s *InMemoryFeatureStore) Get(ctx context.Context, id string) (*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.features[id]
	if !ok || !tenantMatch(ctx, f.BaseModel) {
		return nil, ierr.NewErrorf("feature %s not found", id).
			WithHintf("Feature %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return f, nil
}

func (s *InMemoryFeatureStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var features []*feature.Feature
	for _, f := range s.features {
		if tenantMatch(ctx, f.BaseModel) && f.SubscriptionID == subscriptionID {
			features = append(features, f)
		}
	}
	return features, nil
}

func (s *InMemoryFeatureStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = make(map[string]*feature.Feature)
}
