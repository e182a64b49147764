package service

import (
	"testing"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// newTestServiceParams wires the in-memory stores into ServiceParams for the
// service suites in this package
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		Cache:             s.GetCache(),
		MeterRepo:         stores.MeterRepo,
		PriceRepo:         stores.PriceRepo,
		FeatureRepo:       stores.FeatureRepo,
		CustomerRepo:      stores.CustomerRepo,
		SubscriptionRepo:  stores.SubscriptionRepo,
		BillingPeriodRepo: stores.BillingPeriodRepo,
		EventRepo:         stores.EventRepo,
		UsageCreditRepo:   stores.UsageCreditRepo,
		PaymentRepo:       stores.PaymentRepo,
		LedgerRepo:        stores.LedgerRepo,
	}
}

type ResolverTestSuite struct {
	testutil.BaseServiceTestSuite
	resolver UsageIdentifierResolver

	testMeter *meter.UsageMeter
	testPrice *price.Price
}

func TestUsageIdentifierResolver(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func (s *ResolverTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.resolver = NewUsageIdentifierResolver(newTestServiceParams(&s.BaseServiceTestSuite))

	ctx := s.GetContext()

	s.testMeter = meter.NewUsageMeter(ctx, "API Requests", "api_requests", "pm_1", types.AggregationSum)
	s.NoError(s.GetStores().MeterRepo.Create(ctx, s.testMeter))

	var err error
	s.testPrice, err = price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       s.testMeter.ID,
		Slug:               "api_requests_metered",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 1000,
	})
	s.NoError(err)
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testPrice))
}

func (s *ResolverTestSuite) TestResolveRejectsZeroIdentifiers() {
	_, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ResolverTestSuite) TestResolveRejectsMultipleIdentifiers() {
	_, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		PriceID:      s.testPrice.ID,
		UsageMeterID: s.testMeter.ID,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		PriceSlug:      s.testPrice.Slug,
		UsageMeterSlug: s.testMeter.Slug,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ResolverTestSuite) TestResolveByMeterID() {
	target, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		UsageMeterID: s.testMeter.ID,
	})
	s.NoError(err)
	s.Equal(s.testMeter.ID, target.UsageMeterID)
	s.Nil(target.PriceID)
}

func (s *ResolverTestSuite) TestResolveByMeterSlug() {
	target, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		UsageMeterSlug: s.testMeter.Slug,
	})
	s.NoError(err)
	s.Equal(s.testMeter.ID, target.UsageMeterID)
	s.Nil(target.PriceID)
}

func (s *ResolverTestSuite) TestResolveByPriceID() {
	target, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		PriceID: s.testPrice.ID,
	})
	s.NoError(err)
	s.Equal(s.testMeter.ID, target.UsageMeterID)
	s.NotNil(target.PriceID)
	s.Equal(s.testPrice.ID, *target.PriceID)
}

func (s *ResolverTestSuite) TestResolveByPriceSlug() {
	target, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		PriceSlug: s.testPrice.Slug,
	})
	s.NoError(err)
	s.Equal(s.testMeter.ID, target.UsageMeterID)
	s.NotNil(target.PriceID)
	s.Equal(s.testPrice.ID, *target.PriceID)
}

func (s *ResolverTestSuite) TestResolveRejectsNonUsagePrice() {
	ctx := s.GetContext()

	subPrice, err := price.NewSubscriptionPrice(ctx, price.SubscriptionPriceParams{
		ProductID:     "prod_1",
		Slug:          "pro_monthly",
		Currency:      "usd",
		UnitAmount:    decimal.NewFromInt(2900),
		IntervalUnit:  types.IntervalUnitMonth,
		IntervalCount: 1,
	})
	s.NoError(err)
	s.NoError(s.GetStores().PriceRepo.Create(ctx, subPrice))

	_, err = s.resolver.Resolve(ctx, dto.UsageMeterOrPriceRef{PriceID: subPrice.ID})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ResolverTestSuite) TestResolveUnknownSlug() {
	_, err := s.resolver.Resolve(s.GetContext(), dto.UsageMeterOrPriceRef{
		UsageMeterSlug: "does_not_exist",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ResolverTestSuite) TestResolveMeterSlugServedFromCache() {
	ctx := s.GetContext()

	_, err := s.resolver.Resolve(ctx, dto.UsageMeterOrPriceRef{UsageMeterSlug: s.testMeter.Slug})
	s.NoError(err)

	// The store is emptied but the slug lookup still resolves from cache
	s.GetStores().MeterRepo.(*testutil.InMemoryMeterStore).Clear()

	target, err := s.resolver.Resolve(ctx, dto.UsageMeterOrPriceRef{UsageMeterSlug: s.testMeter.Slug})
	s.NoError(err)
	s.Equal(s.testMeter.ID, target.UsageMeterID)
}
