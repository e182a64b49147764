package service

import (
	"testing"
	"time"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/billingperiod"
	"github.com/metergrid/metergrid/internal/domain/customer"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/price"
	"github.com/metergrid/metergrid/internal/domain/subscription"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type EventServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service EventService

	testCustomer     *customer.Customer
	testSubscription *subscription.Subscription
	testMeter        *meter.UsageMeter
	testPrice        *price.Price
	testPeriod       *billingperiod.BillingPeriod
}

func TestEventService(t *testing.T) {
	suite.Run(t, new(EventServiceTestSuite))
}

func (s *EventServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewEventService(newTestServiceParams(&s.BaseServiceTestSuite))

	ctx := s.GetContext()
	stores := s.GetStores()

	s.testCustomer = customer.NewCustomer(ctx, "Acme Corp", "acme", "billing@acme.test")
	s.NoError(stores.CustomerRepo.Create(ctx, s.testCustomer))

	s.testSubscription = subscription.NewSubscription(ctx, s.testCustomer.ID, "Pro")
	s.NoError(stores.SubscriptionRepo.Create(ctx, s.testSubscription))

	s.testMeter = meter.NewUsageMeter(ctx, "API Requests", "api_requests", "pm_1", types.AggregationSum)
	s.NoError(stores.MeterRepo.Create(ctx, s.testMeter))

	var err error
	s.testPrice, err = price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       s.testMeter.ID,
		Slug:               "api_requests_metered",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 1000,
	})
	s.NoError(err)
	s.NoError(stores.PriceRepo.Create(ctx, s.testPrice))

	s.testPeriod = billingperiod.NewBillingPeriod(ctx, s.testSubscription.ID,
		s.GetNow().Add(-24*time.Hour), s.GetNow().Add(24*time.Hour))
	s.NoError(stores.BillingPeriodRepo.Create(ctx, s.testPeriod))
}

func (s *EventServiceTestSuite) ingestRequest() dto.IngestUsageEventRequest {
	return dto.IngestUsageEventRequest{
		UsageMeterOrPriceRef: dto.UsageMeterOrPriceRef{UsageMeterSlug: s.testMeter.Slug},
		CustomerID:           s.testCustomer.ID,
		SubscriptionID:       s.testSubscription.ID,
		TransactionID:        "txn_001",
		Amount:               42,
		UsageDate:            s.GetNow().UnixMilli(),
	}
}

func (s *EventServiceTestSuite) TestIngestUsageEvent() {
	resp, err := s.service.IngestUsageEvent(s.GetContext(), s.ingestRequest())
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal(s.testMeter.ID, resp.UsageMeterID)
	s.Equal(int64(42), resp.Amount)
	s.Nil(resp.PriceID)

	// The covering period is resolved from the usage date
	s.NotNil(resp.BillingPeriodID)
	s.Equal(s.testPeriod.ID, *resp.BillingPeriodID)
}

func (s *EventServiceTestSuite) TestIngestByPriceLinksPrice() {
	req := s.ingestRequest()
	req.UsageMeterOrPriceRef = dto.UsageMeterOrPriceRef{PriceID: s.testPrice.ID}

	resp, err := s.service.IngestUsageEvent(s.GetContext(), req)
	s.NoError(err)
	s.Equal(s.testMeter.ID, resp.UsageMeterID)
	s.NotNil(resp.PriceID)
	s.Equal(s.testPrice.ID, *resp.PriceID)
}

func (s *EventServiceTestSuite) TestIngestDuplicateReturnsOriginal() {
	ctx := s.GetContext()

	first, err := s.service.IngestUsageEvent(ctx, s.ingestRequest())
	s.NoError(err)

	retry := s.ingestRequest()
	retry.Amount = 42
	second, err := s.service.IngestUsageEvent(ctx, retry)
	s.NoError(err)
	s.Equal(first.ID, second.ID)

	list, err := s.service.ListUsageEvents(ctx, s.testSubscription.ID)
	s.NoError(err)
	s.Len(list.Items, 1)
}

func (s *EventServiceTestSuite) TestIngestSameTransactionDifferentMeter() {
	ctx := s.GetContext()
	stores := s.GetStores()

	otherMeter := meter.NewUsageMeter(ctx, "Storage", "storage_gb", "pm_1", types.AggregationSum)
	s.NoError(stores.MeterRepo.Create(ctx, otherMeter))

	first, err := s.service.IngestUsageEvent(ctx, s.ingestRequest())
	s.NoError(err)

	// Same transaction id against another meter is a distinct event
	req := s.ingestRequest()
	req.UsageMeterOrPriceRef = dto.UsageMeterOrPriceRef{UsageMeterID: otherMeter.ID}
	second, err := s.service.IngestUsageEvent(ctx, req)
	s.NoError(err)
	s.NotEqual(first.ID, second.ID)
}

func (s *EventServiceTestSuite) TestIngestRejectsSubscriptionCustomerMismatch() {
	ctx := s.GetContext()

	other := customer.NewCustomer(ctx, "Other Corp", "other", "")
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, other))

	req := s.ingestRequest()
	req.CustomerID = other.ID

	_, err := s.service.IngestUsageEvent(ctx, req)
	s.Error(err)
	s.True(ierr.IsConsistency(err))
}

func (s *EventServiceTestSuite) TestIngestRejectsForeignBillingPeriod() {
	ctx := s.GetContext()
	stores := s.GetStores()

	otherSub := subscription.NewSubscription(ctx, s.testCustomer.ID, "Starter")
	s.NoError(stores.SubscriptionRepo.Create(ctx, otherSub))
	otherPeriod := billingperiod.NewBillingPeriod(ctx, otherSub.ID,
		s.GetNow().Add(-24*time.Hour), s.GetNow().Add(24*time.Hour))
	s.NoError(stores.BillingPeriodRepo.Create(ctx, otherPeriod))

	req := s.ingestRequest()
	req.BillingPeriodID = otherPeriod.ID

	_, err := s.service.IngestUsageEvent(ctx, req)
	s.Error(err)
	s.True(ierr.IsConsistency(err))
}

func (s *EventServiceTestSuite) TestIngestOutsideAnyPeriodLeavesLinkEmpty() {
	req := s.ingestRequest()
	req.UsageDate = s.GetNow().Add(72 * time.Hour).UnixMilli()

	resp, err := s.service.IngestUsageEvent(s.GetContext(), req)
	s.NoError(err)
	s.Nil(resp.BillingPeriodID)
}

func (s *EventServiceTestSuite) TestIngestValidation() {
	req := s.ingestRequest()
	req.Amount = 0
	_, err := s.service.IngestUsageEvent(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	req = s.ingestRequest()
	req.TransactionID = ""
	_, err = s.service.IngestUsageEvent(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EventServiceTestSuite) TestTenantIsolation() {
	ctx := s.GetContext()

	resp, err := s.service.IngestUsageEvent(ctx, s.ingestRequest())
	s.NoError(err)

	otherCtx := testutil.ContextForTenant(testutil.OtherOrganizationID, false)

	_, err = s.service.GetUsageEvent(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	list, err := s.service.ListUsageEvents(otherCtx, s.testSubscription.ID)
	s.NoError(err)
	s.Empty(list.Items)
}
