package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/cache"
	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// PriceService manages prices. Variant invariants live in the domain
// constructors; this layer adds the cross-row checks, ex at most one default
// price per product or meter.
type PriceService interface {
	CreatePrice(ctx context.Context, req dto.CreatePriceRequest) (*dto.PriceResponse, error)
	GetPrice(ctx context.Context, id string) (*dto.PriceResponse, error)
	ListPricesByProduct(ctx context.Context, productID string) (*dto.ListPricesResponse, error)
	ListPricesByUsageMeter(ctx context.Context, usageMeterID string) (*dto.ListPricesResponse, error)
}

type priceService struct {
	ServiceParams
}

func NewPriceService(params ServiceParams) PriceService {
	return &priceService{
		ServiceParams: params,
	}
}

func (s *priceService) CreatePrice(ctx context.Context, req dto.CreatePriceRequest) (*dto.PriceResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Price writes require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := req.ToPrice(ctx)
	if err != nil {
		return nil, err
	}

	if p.UsageMeterID != nil {
		if _, err := s.MeterRepo.Get(ctx, *p.UsageMeterID); err != nil {
			return nil, err
		}
	}

	if p.IsDefault {
		if err := s.checkSingleDefault(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := s.PriceRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	// Stale slug lookups must not survive a price write
	if s.Cache != nil {
		s.Cache.DeleteByPrefix(ctx, cache.PrefixPrice)
	}

	s.Logger.Infow("created price",
		"price_id", p.ID,
		"type", p.Type,
		"slug", p.Slug,
	)

	return &dto.PriceResponse{Price: p}, nil
}

// checkSingleDefault rejects a second default price for the same product or
// meter. The partial unique index in storage backs this up under concurrency.
func (s *priceService) checkSingleDefault(ctx context.Context, p *price.Price) error {
	var existing []*price.Price
	var err error
	if p.ProductID != nil {
		existing, err = s.PriceRepo.ListByProduct(ctx, *p.ProductID)
	} else {
		existing, err = s.PriceRepo.ListByUsageMeter(ctx, *p.UsageMeterID)
	}
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.IsDefault {
			return ierr.NewError("a default price already exists").
				WithHint("Only one default price is allowed per product or meter").
				WithReportableDetails(map[string]any{"existing_price_id": other.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return nil
}

func (s *priceService) GetPrice(ctx context.Context, id string) (*dto.PriceResponse, error) {
	p, err := s.PriceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PriceResponse{Price: p}, nil
}

func (s *priceService) ListPricesByProduct(ctx context.Context, productID string) (*dto.ListPricesResponse, error) {
	items, err := s.PriceRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &dto.ListPricesResponse{Items: items, Total: len(items)}, nil
}

func (s *priceService) ListPricesByUsageMeter(ctx context.Context, usageMeterID string) (*dto.ListPricesResponse, error) {
	items, err := s.PriceRepo.ListByUsageMeter(ctx, usageMeterID)
	if err != nil {
		return nil, err
	}
	return &dto.ListPricesResponse{Items: items, Total: len(items)}, nil
}
