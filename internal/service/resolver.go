package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/cache"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
)

// ResolvedUsageTarget is the unambiguous outcome of identifier resolution:
// always a meter, and a price only when the caller addressed one. A nil
// PriceID means the caller may later attach a default or fallback price.
type ResolvedUsageTarget struct {
	UsageMeterID string
	PriceID      *string
}

// UsageIdentifierResolver resolves a usage event's ambiguous input (id or
// slug, for a price or a usage meter) to a single canonical target. It is a
// pure lookup: it never creates meters, prices or events.
type UsageIdentifierResolver interface {
	Resolve(ctx context.Context, ref dto.UsageMeterOrPriceRef) (*ResolvedUsageTarget, error)
}

type usageIdentifierResolver struct {
	ServiceParams
}

func NewUsageIdentifierResolver(params ServiceParams) UsageIdentifierResolver {
	return &usageIdentifierResolver{
		ServiceParams: params,
	}
}

func (r *usageIdentifierResolver) Resolve(ctx context.Context, ref dto.UsageMeterOrPriceRef) (*ResolvedUsageTarget, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch {
	case ref.PriceID != "":
		p, err := r.PriceRepo.Get(ctx, ref.PriceID)
		if err != nil {
			return nil, err
		}
		return r.targetFromPrice(p)

	case ref.PriceSlug != "":
		p, err := r.getPriceBySlug(ctx, ref.PriceSlug)
		if err != nil {
			return nil, err
		}
		return r.targetFromPrice(p)

	case ref.UsageMeterID != "":
		m, err := r.MeterRepo.Get(ctx, ref.UsageMeterID)
		if err != nil {
			return nil, err
		}
		return &ResolvedUsageTarget{UsageMeterID: m.ID}, nil

	default:
		m, err := r.getMeterBySlug(ctx, ref.UsageMeterSlug)
		if err != nil {
			return nil, err
		}
		return &ResolvedUsageTarget{UsageMeterID: m.ID}, nil
	}
}

// targetFromPrice derives the meter from a price. Only usage prices carry a
// meter, so addressing any other price type is a caller error.
func (r *usageIdentifierResolver) targetFromPrice(p *price.Price) (*ResolvedUsageTarget, error) {
	if p.Type != types.PriceTypeUsage || p.UsageMeterID == nil {
		return nil, ierr.NewError("price is not a usage price").
			WithHintf("Price %s cannot be used to ingest usage events", p.ID).
			WithReportableDetails(map[string]any{"price_id": p.ID, "price_type": p.Type}).
			Mark(ierr.ErrValidation)
	}
	return &ResolvedUsageTarget{
		UsageMeterID: *p.UsageMeterID,
		PriceID:      lo.ToPtr(p.ID),
	}, nil
}

func (r *usageIdentifierResolver) getPriceBySlug(ctx context.Context, slug string) (*price.Price, error) {
	key := cache.GenerateKey(cache.PrefixPrice, types.GetOrganizationID(ctx), types.GetLivemode(ctx), "slug", slug)
	if r.Cache != nil {
		if cached, found := r.Cache.Get(ctx, key); found {
			if p, ok := cached.(*price.Price); ok {
				return p, nil
			}
		}
	}

	p, err := r.PriceRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		r.Cache.Set(ctx, key, p, cache.DefaultExpiration)
	}
	return p, nil
}

func (r *usageIdentifierResolver) getMeterBySlug(ctx context.Context, slug string) (*meter.UsageMeter, error) {
	key := cache.GenerateKey(cache.PrefixMeter, types.GetOrganizationID(ctx), types.GetLivemode(ctx), "slug", slug)
	if r.Cache != nil {
		if cached, found := r.Cache.Get(ctx, key); found {
			if m, ok := cached.(*meter.UsageMeter); ok {
				return m, nil
			}
		}
	}

	m, err := r.MeterRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		r.Cache.Set(ctx, key, m, cache.DefaultExpiration)
	}
	return m, nil
}
