package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/meter"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// MeterService manages usage meters
type MeterService interface {
	CreateUsageMeter(ctx context.Context, req dto.CreateUsageMeterRequest) (*dto.UsageMeterResponse, error)
	GetUsageMeter(ctx context.Context, id string) (*dto.UsageMeterResponse, error)
	ListUsageMeters(ctx context.Context) (*dto.ListUsageMetersResponse, error)
}

type meterService struct {
	ServiceParams
}

func NewMeterService(params ServiceParams) MeterService {
	return &meterService{
		ServiceParams: params,
	}
}

func (s *meterService) CreateUsageMeter(ctx context.Context, req dto.CreateUsageMeterRequest) (*dto.UsageMeterResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Meter writes require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m := meter.NewUsageMeter(ctx, req.Name, req.Slug, req.PricingModelID, req.AggregationType)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := s.MeterRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.Logger.Infow("created usage meter",
		"usage_meter_id", m.ID,
		"slug", m.Slug,
		"aggregation_type", m.AggregationType,
	)

	return &dto.UsageMeterResponse{UsageMeter: m}, nil
}

func (s *meterService) GetUsageMeter(ctx context.Context, id string) (*dto.UsageMeterResponse, error) {
	m, err := s.MeterRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UsageMeterResponse{UsageMeter: m}, nil
}

func (s *meterService) ListUsageMeters(ctx context.Context) (*dto.ListUsageMetersResponse, error) {
	items, err := s.MeterRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ListUsageMetersResponse{
		Items: items,
		Total: len(items),
	}, nil
}
