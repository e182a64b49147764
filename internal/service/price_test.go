package service

import (
	"testing"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/meter"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PriceServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service PriceService

	testMeter *meter.UsageMeter
}

func TestPriceService(t *testing.T) {
	suite.Run(t, new(PriceServiceTestSuite))
}

func (s *PriceServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPriceService(newTestServiceParams(&s.BaseServiceTestSuite))

	ctx := s.GetContext()
	s.testMeter = meter.NewUsageMeter(ctx, "API Requests", "api_requests", "pm_1", types.AggregationSum)
	s.NoError(s.GetStores().MeterRepo.Create(ctx, s.testMeter))
}

func (s *PriceServiceTestSuite) usagePriceRequest(slug string) dto.CreatePriceRequest {
	return dto.CreatePriceRequest{
		Type:               types.PriceTypeUsage,
		Slug:               slug,
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageMeterID:       s.testMeter.ID,
		UsageEventsPerUnit: 1000,
	}
}

func (s *PriceServiceTestSuite) TestCreateUsagePrice() {
	resp, err := s.service.CreatePrice(s.GetContext(), s.usagePriceRequest("api_requests_metered"))
	s.NoError(err)
	s.Equal(types.PriceTypeUsage, resp.Type)
	s.Equal(s.testMeter.ID, *resp.UsageMeterID)
}

func (s *PriceServiceTestSuite) TestCreatePriceUnknownMeter() {
	req := s.usagePriceRequest("api_requests_metered")
	req.UsageMeterID = "meter_missing"

	_, err := s.service.CreatePrice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PriceServiceTestSuite) TestCreateSecondDefaultRejected() {
	ctx := s.GetContext()

	first := s.usagePriceRequest("api_requests_metered")
	first.IsDefault = true
	_, err := s.service.CreatePrice(ctx, first)
	s.NoError(err)

	second := s.usagePriceRequest("api_requests_discounted")
	second.IsDefault = true
	_, err = s.service.CreatePrice(ctx, second)
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PriceServiceTestSuite) TestSecondDefaultAllowedOnOtherMeter() {
	ctx := s.GetContext()

	first := s.usagePriceRequest("api_requests_metered")
	first.IsDefault = true
	_, err := s.service.CreatePrice(ctx, first)
	s.NoError(err)

	otherMeter := meter.NewUsageMeter(ctx, "Storage", "storage_gb", "pm_1", types.AggregationSum)
	s.NoError(s.GetStores().MeterRepo.Create(ctx, otherMeter))

	second := s.usagePriceRequest("storage_metered")
	second.UsageMeterID = otherMeter.ID
	second.IsDefault = true
	_, err = s.service.CreatePrice(ctx, second)
	s.NoError(err)
}
