package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// FeatureService manages subscription features
type FeatureService interface {
	CreateFeature(ctx context.Context, req dto.CreateFeatureRequest) (*dto.FeatureResponse, error)
	GetFeature(ctx context.Context, id string) (*dto.FeatureResponse, error)
	ListFeaturesBySubscription(ctx context.Context, subscriptionID string) (*dto.ListFeaturesResponse, error)
}

type featureService struct {
	ServiceParams
}

func NewFeatureService(params ServiceParams) FeatureService {
	return &featureService{
		ServiceParams: params,
	}
}

func (s *featureService) CreateFeature(ctx context.Context, req dto.CreateFeatureRequest) (*dto.FeatureResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Feature writes require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.SubscriptionRepo.Get(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	f, err := req.ToFeature(ctx)
	if err != nil {
		return nil, err
	}

	// A grant feature must reference an existing meter in this tenant scope
	if f.UsageMeterID != nil {
		if _, err := s.MeterRepo.Get(ctx, *f.UsageMeterID); err != nil {
			return nil, err
		}
	}

	if err := s.FeatureRepo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.Logger.Infow("created feature",
		"feature_id", f.ID,
		"type", f.Type,
		"subscription_id", f.SubscriptionID,
	)

	return &dto.FeatureResponse{Feature: f}, nil
}

func (s *featureService) GetFeature(ctx context.Context, id string) (*dto.FeatureResponse, error) {
	f, err := s.FeatureRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.FeatureResponse{Feature: f}, nil
}

func (s *featureService) ListFeaturesBySubscription(ctx context.Context, subscriptionID string) (*dto.ListFeaturesResponse, error) {
	items, err := s.FeatureRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return &dto.ListFeaturesResponse{Items: items, Total: len(items)}, nil
}
