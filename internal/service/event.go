package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/events"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
)

// EventService ingests usage events. Ingestion is idempotent on
// (transaction_id, usage_meter_id): retried submissions return the original
// row instead of failing or duplicating.
type EventService interface {
	IngestUsageEvent(ctx context.Context, req dto.IngestUsageEventRequest) (*dto.UsageEventResponse, error)
	GetUsageEvent(ctx context.Context, id string) (*dto.UsageEventResponse, error)
	ListUsageEvents(ctx context.Context, subscriptionID string) (*dto.ListUsageEventsResponse, error)
}

type eventService struct {
	ServiceParams
	resolver UsageIdentifierResolver
}

func NewEventService(params ServiceParams) EventService {
	return &eventService{
		ServiceParams: params,
		resolver:      NewUsageIdentifierResolver(params),
	}
}

func (s *eventService) IngestUsageEvent(ctx context.Context, req dto.IngestUsageEventRequest) (*dto.UsageEventResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Request is missing tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target, err := s.resolver.Resolve(ctx, req.UsageMeterOrPriceRef)
	if err != nil {
		return nil, err
	}

	// The subscription must belong to the event's customer
	sub, err := s.SubscriptionRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.CustomerID != req.CustomerID {
		return nil, ierr.NewError("subscription does not belong to customer").
			WithHint("The subscription must belong to the customer emitting the usage").
			WithReportableDetails(map[string]any{
				"subscription_id": req.SubscriptionID,
				"customer_id":     req.CustomerID,
			}).
			Mark(ierr.ErrConsistency)
	}

	billingPeriodID, err := s.resolveBillingPeriod(ctx, req)
	if err != nil {
		return nil, err
	}

	// A caller-addressed price must target the same meter the event counts
	// against
	if target.PriceID != nil {
		p, err := s.PriceRepo.Get(ctx, *target.PriceID)
		if err != nil {
			return nil, err
		}
		if p.UsageMeterID == nil || *p.UsageMeterID != target.UsageMeterID {
			return nil, ierr.NewError("price meter does not match event meter").
				WithHint("The price must target the same usage meter as the event").
				WithReportableDetails(map[string]any{
					"price_id":       *target.PriceID,
					"usage_meter_id": target.UsageMeterID,
				}).
				Mark(ierr.ErrConsistency)
		}
	}

	event := &events.UsageEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_EVENT),
		CustomerID:      req.CustomerID,
		SubscriptionID:  req.SubscriptionID,
		UsageMeterID:    target.UsageMeterID,
		BillingPeriodID: billingPeriodID,
		PriceID:         target.PriceID,
		Amount:          req.Amount,
		UsageDate:       req.UsageDateTime(),
		TransactionID:   req.TransactionID,
		Properties:      req.Properties,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.EventRepo.Insert(ctx, event); err != nil {
		if ierr.IsAlreadyExists(err) {
			// At-least-once delivery: the retry collapses onto the original row
			existing, getErr := s.EventRepo.GetByTransactionIDAndMeter(ctx, req.TransactionID, target.UsageMeterID)
			if getErr != nil {
				return nil, getErr
			}
			s.Logger.Debugw("duplicate usage event submission, returning original",
				"transaction_id", req.TransactionID,
				"usage_meter_id", target.UsageMeterID,
				"usage_event_id", existing.ID,
			)
			return &dto.UsageEventResponse{UsageEvent: existing}, nil
		}
		return nil, err
	}

	s.Logger.Debugw("ingested usage event",
		"usage_event_id", event.ID,
		"usage_meter_id", event.UsageMeterID,
		"subscription_id", event.SubscriptionID,
		"amount", event.Amount,
	)

	return &dto.UsageEventResponse{UsageEvent: event}, nil
}

// resolveBillingPeriod validates a caller-supplied period or asks the billing
// period collaborator for the period covering the usage date. A subscription
// with no covering period leaves the link empty.
func (s *eventService) resolveBillingPeriod(ctx context.Context, req dto.IngestUsageEventRequest) (*string, error) {
	if req.BillingPeriodID != "" {
		bp, err := s.BillingPeriodRepo.Get(ctx, req.BillingPeriodID)
		if err != nil {
			return nil, err
		}
		if bp.SubscriptionID != req.SubscriptionID {
			return nil, ierr.NewError("billing period does not belong to subscription").
				WithHint("The billing period must belong to the event's subscription").
				WithReportableDetails(map[string]any{
					"billing_period_id": req.BillingPeriodID,
					"subscription_id":   req.SubscriptionID,
				}).
				Mark(ierr.ErrConsistency)
		}
		return lo.ToPtr(bp.ID), nil
	}

	bp, err := s.BillingPeriodRepo.GetBySubscriptionAndTime(ctx, req.SubscriptionID, req.UsageDateTime())
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return lo.ToPtr(bp.ID), nil
}

func (s *eventService) GetUsageEvent(ctx context.Context, id string) (*dto.UsageEventResponse, error) {
	event, err := s.EventRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UsageEventResponse{UsageEvent: event}, nil
}

func (s *eventService) ListUsageEvents(ctx context.Context, subscriptionID string) (*dto.ListUsageEventsResponse, error) {
	items, err := s.EventRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return &dto.ListUsageEventsResponse{
		Items: items,
		Total: len(items),
	}, nil
}
