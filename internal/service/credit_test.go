package service

import (
	"testing"
	"time"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/billingperiod"
	"github.com/metergrid/metergrid/internal/domain/customer"
	"github.com/metergrid/metergrid/internal/domain/feature"
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/subscription"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CreditServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service CreditService
	ledger  LedgerService

	testCustomer     *customer.Customer
	testSubscription *subscription.Subscription
	testMeter        *meter.UsageMeter
	testPeriod       *billingperiod.BillingPeriod
}

func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}

func (s *CreditServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewCreditService(params)
	s.ledger = NewLedgerService(params)

	ctx := s.GetContext()
	stores := s.GetStores()

	s.testCustomer = customer.NewCustomer(ctx, "Acme Corp", "acme", "billing@acme.test")
	s.NoError(stores.CustomerRepo.Create(ctx, s.testCustomer))

	s.testSubscription = subscription.NewSubscription(ctx, s.testCustomer.ID, "Pro")
	s.NoError(stores.SubscriptionRepo.Create(ctx, s.testSubscription))

	s.testMeter = meter.NewUsageMeter(ctx, "API Requests", "api_requests", "pm_1", types.AggregationSum)
	s.NoError(stores.MeterRepo.Create(ctx, s.testMeter))

	s.testPeriod = billingperiod.NewBillingPeriod(ctx, s.testSubscription.ID,
		s.GetNow().Add(-24*time.Hour), s.GetNow().Add(24*time.Hour))
	s.NoError(stores.BillingPeriodRepo.Create(ctx, s.testPeriod))
}

func (s *CreditServiceTestSuite) addGrantFeature(slug string, amount int64, frequency types.RenewalFrequency) {
	ctx := s.GetContext()
	grant, err := feature.NewUsageCreditGrantFeature(ctx, feature.UsageCreditGrantParams{
		SubscriptionID:   s.testSubscription.ID,
		Name:             slug,
		Slug:             slug,
		Amount:           amount,
		UsageMeterID:     s.testMeter.ID,
		RenewalFrequency: frequency,
	})
	s.NoError(err)
	s.NoError(s.GetStores().FeatureRepo.Create(ctx, grant))
}

// issueCredit funds the meter balance directly so application and adjustment
// tests have something to draw down
func (s *CreditServiceTestSuite) issueCredit(amount int64) *usagecredit.UsageCredit {
	ctx := s.GetContext()
	credit := usagecredit.NewUsageCredit(ctx, usagecredit.NewUsageCreditParams{
		SubscriptionID:      s.testSubscription.ID,
		UsageMeterID:        s.testMeter.ID,
		IssuedAmount:        decimal.NewFromInt(amount),
		SourceReferenceType: types.UsageCreditSourceReferenceTypePayment,
		SourceReferenceID:   "pay_seed",
	})
	s.NoError(s.GetStores().UsageCreditRepo.Create(ctx, credit))

	_, err := s.ledger.ProcessLedgerCommand(ctx, ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   "pay_seed",
			SubscriptionID:       s.testSubscription.ID,
		},
		BackingRecords: ledger.BackingRecords{
			UsageCredits: []*usagecredit.UsageCredit{credit},
		},
	})
	s.NoError(err)
	return credit
}

func (s *CreditServiceTestSuite) TestGrantRenewalCredits() {
	s.addGrantFeature("included_requests", 5000, types.RenewalFrequencyEveryBillingPeriod)
	ctx := s.GetContext()

	resp, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.NoError(err)
	s.Len(resp.IssuedCredits, 1)
	s.NotEmpty(resp.LedgerTransactionID)

	credit := resp.IssuedCredits[0]
	s.Equal(types.UsageCreditSourceReferenceTypeBillingPeriodTransition, credit.SourceReferenceType)
	s.Equal(s.testPeriod.ID, credit.SourceReferenceID)
	s.Nil(credit.PaymentID)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(5000)))
}

func (s *CreditServiceTestSuite) TestGrantRenewalSkipsOnceFeatures() {
	s.addGrantFeature("signup_bonus", 1000, types.RenewalFrequencyOnce)

	resp, err := s.service.GrantRenewalCredits(s.GetContext(), dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.NoError(err)
	s.Empty(resp.IssuedCredits)
	s.Empty(resp.LedgerTransactionID)
}

func (s *CreditServiceTestSuite) TestGrantRenewalReplayIssuesNothing() {
	s.addGrantFeature("included_requests", 5000, types.RenewalFrequencyEveryBillingPeriod)
	ctx := s.GetContext()

	first, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.NoError(err)
	s.Len(first.IssuedCredits, 1)

	second, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.NoError(err)
	s.Empty(second.IssuedCredits)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(5000)))
}

func (s *CreditServiceTestSuite) TestGrantRenewalNewPeriodIssuesAgain() {
	s.addGrantFeature("included_requests", 5000, types.RenewalFrequencyEveryBillingPeriod)
	ctx := s.GetContext()

	_, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.NoError(err)

	nextPeriod := billingperiod.NewBillingPeriod(ctx, s.testSubscription.ID,
		s.testPeriod.EndDate, s.testPeriod.EndDate.Add(48*time.Hour))
	s.NoError(s.GetStores().BillingPeriodRepo.Create(ctx, nextPeriod))

	resp, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  s.testSubscription.ID,
		BillingPeriodID: nextPeriod.ID,
	})
	s.NoError(err)
	s.Len(resp.IssuedCredits, 1)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(10000)))
}

func (s *CreditServiceTestSuite) TestGrantRenewalForeignPeriod() {
	ctx := s.GetContext()

	otherSub := subscription.NewSubscription(ctx, s.testCustomer.ID, "Starter")
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, otherSub))

	_, err := s.service.GrantRenewalCredits(ctx, dto.GrantRenewalCreditsRequest{
		SubscriptionID:  otherSub.ID,
		BillingPeriodID: s.testPeriod.ID,
	})
	s.Error(err)
	s.True(ierr.IsConsistency(err))
}

func (s *CreditServiceTestSuite) TestApplyCreditToUsage() {
	credit := s.issueCredit(1000)
	ctx := s.GetContext()

	resp, err := s.service.ApplyCreditToUsage(ctx, dto.ApplyCreditToUsageRequest{
		UsageCreditID: credit.ID,
		Amount:        decimal.NewFromInt(300),
	})
	s.NoError(err)
	s.NotNil(resp.Application)
	s.True(resp.Application.AmountApplied.Equal(decimal.NewFromInt(300)))
	s.NotEmpty(resp.Application.CalculationRunID)
	s.NotEmpty(resp.LedgerTransactionID)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(700)))
}

func (s *CreditServiceTestSuite) TestApplySameCalculationRunPostsEachApplication() {
	credit := s.issueCredit(100)
	ctx := s.GetContext()

	first, err := s.service.ApplyCreditToUsage(ctx, dto.ApplyCreditToUsageRequest{
		UsageCreditID:    credit.ID,
		Amount:           decimal.NewFromInt(30),
		CalculationRunID: "calc_run_1",
	})
	s.NoError(err)
	s.Len(first.Posting.Entries, 1)

	second, err := s.service.ApplyCreditToUsage(ctx, dto.ApplyCreditToUsageRequest{
		UsageCreditID:    credit.ID,
		Amount:           decimal.NewFromInt(20),
		CalculationRunID: "calc_run_1",
	})
	s.NoError(err)
	s.Len(second.Posting.Entries, 1)
	s.NotEqual(first.LedgerTransactionID, second.LedgerTransactionID)
	s.Equal("calc_run_1", *second.Posting.Entries[0].CalculationRunID)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(50)))
}

func (s *CreditServiceTestSuite) TestApplyRejectsOverdraw() {
	credit := s.issueCredit(1000)

	_, err := s.service.ApplyCreditToUsage(s.GetContext(), dto.ApplyCreditToUsageRequest{
		UsageCreditID: credit.ID,
		Amount:        decimal.NewFromInt(1500),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// Nothing was recorded
	balance, err := s.ledger.GetBalance(s.GetContext(), s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(1000)))
}

func (s *CreditServiceTestSuite) TestApplyRejectsInactiveCredit() {
	credit := s.issueCredit(1000)
	credit.CreditStatus = types.UsageCreditStatusDepleted

	_, err := s.service.ApplyCreditToUsage(s.GetContext(), dto.ApplyCreditToUsageRequest{
		UsageCreditID: credit.ID,
		Amount:        decimal.NewFromInt(100),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CreditServiceTestSuite) TestAdjustCreditBalance() {
	credit := s.issueCredit(1000)
	ctx := s.GetContext()

	resp, err := s.service.AdjustCreditBalance(ctx, dto.AdjustCreditBalanceRequest{
		UsageCreditID: credit.ID,
		Amount:        decimal.NewFromInt(250),
		Reason:        "Refund claw-back",
	})
	s.NoError(err)
	s.NotNil(resp.Adjustment)
	s.Equal("Refund claw-back", resp.Adjustment.Reason)
	s.Equal(types.DefaultUserID, resp.Adjustment.AdjustedByUserID)
	s.NotEmpty(resp.LedgerTransactionID)

	s.Len(resp.Posting.Entries, 1)
	s.Equal(types.LedgerEntryDirectionDebit, resp.Posting.Entries[0].Direction)
	s.Equal(types.LedgerEntryTypeCreditBalanceAdjusted, resp.Posting.Entries[0].EntryType)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(750)))
}

func (s *CreditServiceTestSuite) TestAdjustUnknownCredit() {
	_, err := s.service.AdjustCreditBalance(s.GetContext(), dto.AdjustCreditBalanceRequest{
		UsageCreditID: "credit_missing",
		Amount:        decimal.NewFromInt(10),
		Reason:        "typo",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
