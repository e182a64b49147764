package price_test

import (
	"testing"

	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriptionPrice(t *testing.T) {
	ctx := testutil.SetupContext()

	p, err := price.NewSubscriptionPrice(ctx, price.SubscriptionPriceParams{
		ProductID:     "prod_1",
		Slug:          "pro_monthly",
		Currency:      "usd",
		UnitAmount:    decimal.NewFromInt(2900),
		IntervalUnit:  types.IntervalUnitMonth,
		IntervalCount: 1,
		TrialDays:     14,
	})
	require.NoError(t, err)

	assert.Equal(t, types.PriceTypeSubscription, p.Type)
	assert.Equal(t, "prod_1", *p.ProductID)
	assert.Nil(t, p.UsageMeterID)
	assert.Nil(t, p.UsageEventsPerUnit)
	assert.Equal(t, testutil.DefaultOrganizationID, p.OrganizationID)
	assert.False(t, p.Livemode)
}

func TestNewSubscriptionPriceRequiresInterval(t *testing.T) {
	ctx := testutil.SetupContext()

	_, err := price.NewSubscriptionPrice(ctx, price.SubscriptionPriceParams{
		ProductID:  "prod_1",
		Slug:       "pro_monthly",
		Currency:   "usd",
		UnitAmount: decimal.NewFromInt(2900),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestNewSinglePaymentPrice(t *testing.T) {
	ctx := testutil.SetupContext()

	p, err := price.NewSinglePaymentPrice(ctx, price.SinglePaymentPriceParams{
		ProductID:  "prod_1",
		Slug:       "lifetime_deal",
		Currency:   "usd",
		UnitAmount: decimal.NewFromInt(49900),
	})
	require.NoError(t, err)

	assert.Equal(t, types.PriceTypeSinglePayment, p.Type)
	assert.Nil(t, p.IntervalUnit)
	assert.Nil(t, p.IntervalCount)
	assert.Nil(t, p.TrialDays)
}

func TestNewUsagePrice(t *testing.T) {
	ctx := testutil.SetupContext()

	p, err := price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       "meter_1",
		Slug:               "api_requests",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, types.PriceTypeUsage, p.Type)
	assert.Equal(t, "meter_1", *p.UsageMeterID)
	assert.Nil(t, p.ProductID)
}

func TestUsagePriceRejectsProductFields(t *testing.T) {
	ctx := testutil.SetupContext()

	p, err := price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       "meter_1",
		Slug:               "api_requests",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 1000,
	})
	require.NoError(t, err)

	p.ProductID = lo.ToPtr("prod_1")
	err = p.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	p.ProductID = nil
	p.IntervalUnit = lo.ToPtr(types.IntervalUnitMonth)
	err = p.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestUsagePriceRequiresPositiveEventsPerUnit(t *testing.T) {
	ctx := testutil.SetupContext()

	_, err := price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       "meter_1",
		Slug:               "api_requests",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 0,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestIsReservedPriceSlug(t *testing.T) {
	assert.True(t, price.IsReservedPriceSlug("api_requests_no_charge"))
	assert.True(t, price.IsReservedPriceSlug("no_charge"))
	assert.False(t, price.IsReservedPriceSlug("api_requests"))
	assert.False(t, price.IsReservedPriceSlug("no_charge_tier"))
}

func TestUsagePriceRejectsReservedSlug(t *testing.T) {
	ctx := testutil.SetupContext()

	_, err := price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       "meter_1",
		Slug:               "api_requests_no_charge",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(2),
		UsageEventsPerUnit: 1000,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestNonUsagePriceAllowsReservedSlug(t *testing.T) {
	ctx := testutil.SetupContext()

	// The suffix is only reserved within the usage variant
	_, err := price.NewSubscriptionPrice(ctx, price.SubscriptionPriceParams{
		ProductID:     "prod_1",
		Slug:          "plan_no_charge",
		Currency:      "usd",
		UnitAmount:    decimal.Zero,
		IntervalUnit:  types.IntervalUnitMonth,
		IntervalCount: 1,
	})
	require.NoError(t, err)

	_, err = price.NewSinglePaymentPrice(ctx, price.SinglePaymentPriceParams{
		ProductID:  "prod_1",
		Slug:       "onboarding_no_charge",
		Currency:   "usd",
		UnitAmount: decimal.Zero,
	})
	require.NoError(t, err)
}

func TestPriceRejectsNegativeAmount(t *testing.T) {
	ctx := testutil.SetupContext()

	_, err := price.NewUsagePrice(ctx, price.UsagePriceParams{
		UsageMeterID:       "meter_1",
		Slug:               "api_requests",
		Currency:           "usd",
		UnitAmount:         decimal.NewFromInt(-1),
		UsageEventsPerUnit: 1000,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
