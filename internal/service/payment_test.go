package service

import (
	"testing"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/customer"
	"github.com/metergrid/metergrid/internal/domain/feature"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/subscription"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentService
	ledger  LedgerService

	testCustomer     *customer.Customer
	testSubscription *subscription.Subscription
	testMeter        *meter.UsageMeter
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewPaymentService(params)
	s.ledger = NewLedgerService(params)

	ctx := s.GetContext()
	stores := s.GetStores()

	s.testCustomer = customer.NewCustomer(ctx, "Acme Corp", "acme", "billing@acme.test")
	s.NoError(stores.CustomerRepo.Create(ctx, s.testCustomer))

	s.testSubscription = subscription.NewSubscription(ctx, s.testCustomer.ID, "Pro")
	s.NoError(stores.SubscriptionRepo.Create(ctx, s.testSubscription))

	s.testMeter = meter.NewUsageMeter(ctx, "API Requests", "api_requests", "pm_1", types.AggregationSum)
	s.NoError(stores.MeterRepo.Create(ctx, s.testMeter))

	grant, err := feature.NewUsageCreditGrantFeature(ctx, feature.UsageCreditGrantParams{
		SubscriptionID:   s.testSubscription.ID,
		Name:             "Included requests",
		Slug:             "included_requests",
		Amount:           5000,
		UsageMeterID:     s.testMeter.ID,
		RenewalFrequency: types.RenewalFrequencyEveryBillingPeriod,
	})
	s.NoError(err)
	s.NoError(stores.FeatureRepo.Create(ctx, grant))

	toggle, err := feature.NewToggleFeature(ctx, s.testSubscription.ID, "SSO", "sso", "")
	s.NoError(err)
	s.NoError(stores.FeatureRepo.Create(ctx, toggle))
}

func (s *PaymentServiceTestSuite) paymentEvent() dto.PaymentSucceededEvent {
	return dto.PaymentSucceededEvent{
		ProcessorTransactionID: "ch_001",
		CustomerID:             s.testCustomer.ID,
		SubscriptionID:         s.testSubscription.ID,
		Amount:                 decimal.NewFromInt(2900),
		Currency:               "usd",
	}
}

func (s *PaymentServiceTestSuite) TestHandlePaymentSucceeded() {
	ctx := s.GetContext()

	resp, err := s.service.HandlePaymentSucceeded(ctx, s.paymentEvent())
	s.NoError(err)

	s.NotEmpty(resp.Payment.ID)
	s.Equal(types.PaymentStatusSucceeded, resp.Payment.PaymentStatus)
	s.Equal("ch_001", resp.Payment.ProcessorTransactionID)

	// One credit per grant feature, toggles issue nothing
	s.Len(resp.IssuedCredits, 1)
	credit := resp.IssuedCredits[0]
	s.Equal(s.testMeter.ID, credit.UsageMeterID)
	s.True(credit.IssuedAmount.Equal(decimal.NewFromInt(5000)))
	s.NotNil(credit.PaymentID)
	s.Equal(resp.Payment.ID, *credit.PaymentID)

	s.NotEmpty(resp.LedgerTransactionID)
	s.Len(resp.Posting.Entries, 1)
	s.Equal(types.LedgerEntryTypePaymentRecognized, resp.Posting.Entries[0].EntryType)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(5000)))
}

func (s *PaymentServiceTestSuite) TestWebhookRetryRecordsNothingNew() {
	ctx := s.GetContext()

	first, err := s.service.HandlePaymentSucceeded(ctx, s.paymentEvent())
	s.NoError(err)

	second, err := s.service.HandlePaymentSucceeded(ctx, s.paymentEvent())
	s.NoError(err)

	s.Equal(first.Payment.ID, second.Payment.ID)
	s.Empty(second.IssuedCredits)
	s.Empty(second.LedgerTransactionID)

	credits, err := s.GetStores().UsageCreditRepo.ListBySubscription(ctx, s.testSubscription.ID)
	s.NoError(err)
	s.Len(credits, 1)

	balance, err := s.ledger.GetBalance(ctx, s.testSubscription.ID, s.testMeter.ID)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(5000)))
}

func (s *PaymentServiceTestSuite) TestPaymentWithoutSubscription() {
	req := s.paymentEvent()
	req.SubscriptionID = ""

	resp, err := s.service.HandlePaymentSucceeded(s.GetContext(), req)
	s.NoError(err)
	s.NotEmpty(resp.Payment.ID)
	s.Nil(resp.Payment.SubscriptionID)
	s.Empty(resp.IssuedCredits)
	s.Empty(resp.LedgerTransactionID)
}

func (s *PaymentServiceTestSuite) TestPaymentUnknownCustomer() {
	req := s.paymentEvent()
	req.CustomerID = "cust_missing"

	_, err := s.service.HandlePaymentSucceeded(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceTestSuite) TestPaymentSubscriptionCustomerMismatch() {
	ctx := s.GetContext()

	other := customer.NewCustomer(ctx, "Other Corp", "other", "")
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, other))

	req := s.paymentEvent()
	req.CustomerID = other.ID

	_, err := s.service.HandlePaymentSucceeded(ctx, req)
	s.Error(err)
	s.True(ierr.IsConsistency(err))
}

func (s *PaymentServiceTestSuite) TestPaymentValidation() {
	req := s.paymentEvent()
	req.Amount = decimal.Zero

	_, err := s.service.HandlePaymentSucceeded(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
