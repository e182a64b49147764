package feature_test

import (
	"testing"

	"github.com/metergrid/metergrid/internal/domain/feature"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToggleFeature(t *testing.T) {
	ctx := testutil.SetupContext()

	f, err := feature.NewToggleFeature(ctx, "sub_1", "SSO", "sso", "Single sign-on")
	require.NoError(t, err)

	assert.Equal(t, types.FeatureTypeToggle, f.Type)
	assert.Equal(t, "sub_1", f.SubscriptionID)
	assert.Nil(t, f.Amount)
	assert.Nil(t, f.UsageMeterID)
	assert.Nil(t, f.RenewalFrequency)
}

func TestToggleFeatureForbidsGrantFields(t *testing.T) {
	ctx := testutil.SetupContext()

	f, err := feature.NewToggleFeature(ctx, "sub_1", "SSO", "sso", "")
	require.NoError(t, err)

	f.Amount = lo.ToPtr(int64(100))
	err = f.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	f.Amount = nil
	f.UsageMeterID = lo.ToPtr("meter_1")
	err = f.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	f.UsageMeterID = nil
	f.RenewalFrequency = lo.ToPtr(types.RenewalFrequencyEveryBillingPeriod)
	err = f.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestNewUsageCreditGrantFeature(t *testing.T) {
	ctx := testutil.SetupContext()

	f, err := feature.NewUsageCreditGrantFeature(ctx, feature.UsageCreditGrantParams{
		SubscriptionID:   "sub_1",
		Name:             "Included requests",
		Slug:             "included_requests",
		Amount:           5000,
		UsageMeterID:     "meter_1",
		RenewalFrequency: types.RenewalFrequencyEveryBillingPeriod,
	})
	require.NoError(t, err)

	assert.Equal(t, types.FeatureTypeUsageCreditGrant, f.Type)
	assert.Equal(t, int64(5000), *f.Amount)
	assert.Equal(t, "meter_1", *f.UsageMeterID)
	assert.Equal(t, types.RenewalFrequencyEveryBillingPeriod, *f.RenewalFrequency)
}

func TestUsageCreditGrantFeatureValidation(t *testing.T) {
	ctx := testutil.SetupContext()

	base := feature.UsageCreditGrantParams{
		SubscriptionID:   "sub_1",
		Name:             "Included requests",
		Slug:             "included_requests",
		Amount:           5000,
		UsageMeterID:     "meter_1",
		RenewalFrequency: types.RenewalFrequencyEveryBillingPeriod,
	}

	t.Run("zero amount rejected", func(t *testing.T) {
		params := base
		params.Amount = 0
		_, err := feature.NewUsageCreditGrantFeature(ctx, params)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		params := base
		params.Amount = -10
		_, err := feature.NewUsageCreditGrantFeature(ctx, params)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("missing meter rejected", func(t *testing.T) {
		params := base
		params.UsageMeterID = ""
		_, err := feature.NewUsageCreditGrantFeature(ctx, params)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("invalid frequency rejected", func(t *testing.T) {
		params := base
		params.RenewalFrequency = types.RenewalFrequency("weekly")
		_, err := feature.NewUsageCreditGrantFeature(ctx, params)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("missing subscription rejected", func(t *testing.T) {
		params := base
		params.SubscriptionID = ""
		_, err := feature.NewUsageCreditGrantFeature(ctx, params)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})
}
