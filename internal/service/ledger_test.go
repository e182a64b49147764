package service

import (
	"context"
	"testing"

	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/testutil"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service LedgerService
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewLedgerService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *LedgerServiceTestSuite) issuedCredit(amount int64, paymentID *string) *usagecredit.UsageCredit {
	ctx := s.GetContext()
	sourceType := types.UsageCreditSourceReferenceTypeBillingPeriodTransition
	sourceID := "period_1"
	if paymentID != nil {
		sourceType = types.UsageCreditSourceReferenceTypePayment
		sourceID = *paymentID
	}

	credit := usagecredit.NewUsageCredit(ctx, usagecredit.NewUsageCreditParams{
		SubscriptionID:      "sub_1",
		UsageMeterID:        "meter_1",
		IssuedAmount:        decimal.NewFromInt(amount),
		SourceReferenceType: sourceType,
		SourceReferenceID:   sourceID,
		PaymentID:           paymentID,
	})
	s.NoError(s.GetStores().UsageCreditRepo.Create(ctx, credit))
	return credit
}

func (s *LedgerServiceTestSuite) TestProcessPaymentFundedIssuance() {
	paymentID := "pay_1"
	credit := s.issuedCredit(777, lo.ToPtr(paymentID))

	result, err := s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   paymentID,
			SubscriptionID:       "sub_1",
			Description:          "Payment recognized",
		},
		BackingRecords: ledger.BackingRecords{
			UsageCredits: []*usagecredit.UsageCredit{credit},
		},
	})
	s.NoError(err)
	s.NotEmpty(result.Transaction.ID)
	s.Len(result.Entries, 1)

	entry := result.Entries[0]
	s.Equal(types.LedgerEntryDirectionCredit, entry.Direction)
	s.Equal(types.LedgerEntryTypePaymentRecognized, entry.EntryType)
	s.True(entry.Amount.Equal(decimal.NewFromInt(777)))
	s.Equal(result.Transaction.ID, entry.LedgerTransactionID)
	s.NotNil(entry.SourceUsageCreditID)
	s.Equal(credit.ID, *entry.SourceUsageCreditID)
	s.NotNil(entry.SourcePaymentID)
	s.Equal(paymentID, *entry.SourcePaymentID)

	balance, err := s.service.GetBalance(s.GetContext(), "sub_1", "meter_1")
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(777)))
}

func (s *LedgerServiceTestSuite) TestGrantIssuanceWithoutPayment() {
	credit := s.issuedCredit(500, nil)

	result, err := s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypeBillingPeriodTransition,
			InitiatingSourceID:   "period_1",
			SubscriptionID:       "sub_1",
		},
		BackingRecords: ledger.BackingRecords{
			UsageCredits: []*usagecredit.UsageCredit{credit},
		},
	})
	s.NoError(err)
	s.Len(result.Entries, 1)
	s.Equal(types.LedgerEntryTypeCreditGrantRecognized, result.Entries[0].EntryType)
	s.Nil(result.Entries[0].SourcePaymentID)
}

func (s *LedgerServiceTestSuite) TestReprocessingIsNoOp() {
	credit := s.issuedCredit(777, lo.ToPtr("pay_1"))
	command := ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   "pay_1",
			SubscriptionID:       "sub_1",
		},
		BackingRecords: ledger.BackingRecords{
			UsageCredits: []*usagecredit.UsageCredit{credit},
		},
	}

	first, err := s.service.ProcessLedgerCommand(s.GetContext(), command)
	s.NoError(err)

	second, err := s.service.ProcessLedgerCommand(s.GetContext(), command)
	s.NoError(err)
	s.Equal(first.Transaction.ID, second.Transaction.ID)
	s.Empty(second.Entries)

	// The balance is unchanged by the replay
	balance, err := s.service.GetBalance(s.GetContext(), "sub_1", "meter_1")
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(777)))
}

func (s *LedgerServiceTestSuite) TestMixedRecordsBalance() {
	ctx := s.GetContext()
	credit := s.issuedCredit(1000, lo.ToPtr("pay_1"))

	_, err := s.service.ProcessLedgerCommand(ctx, ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   "pay_1",
			SubscriptionID:       "sub_1",
		},
		BackingRecords: ledger.BackingRecords{UsageCredits: []*usagecredit.UsageCredit{credit}},
	})
	s.NoError(err)

	application := usagecredit.NewCreditApplication(ctx, usagecredit.NewCreditApplicationParams{
		UsageCreditID:    credit.ID,
		SubscriptionID:   "sub_1",
		UsageMeterID:     "meter_1",
		AmountApplied:    decimal.NewFromInt(300),
		CalculationRunID: "calc_1",
	})
	s.NoError(s.GetStores().UsageCreditRepo.CreateApplication(ctx, application))

	result, err := s.service.ProcessLedgerCommand(ctx, ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypeUsageCalculation,
			InitiatingSourceID:   "calc_1",
			SubscriptionID:       "sub_1",
		},
		BackingRecords: ledger.BackingRecords{
			CreditApplications: []*usagecredit.CreditApplication{application},
		},
	})
	s.NoError(err)
	s.Len(result.Entries, 1)
	s.Equal(types.LedgerEntryDirectionDebit, result.Entries[0].Direction)
	s.Equal(types.LedgerEntryTypeCreditAppliedToUsage, result.Entries[0].EntryType)
	s.NotNil(result.Entries[0].CalculationRunID)
	s.Equal("calc_1", *result.Entries[0].CalculationRunID)

	balance, err := s.service.GetBalance(ctx, "sub_1", "meter_1")
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(700)))
}

func (s *LedgerServiceTestSuite) TestEmptyBackingRecords() {
	result, err := s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypeAdminAction,
			InitiatingSourceID:   "adj_1",
			SubscriptionID:       "sub_1",
		},
	})
	s.NoError(err)
	s.NotEmpty(result.Transaction.ID)
	s.Empty(result.Entries)
}

func (s *LedgerServiceTestSuite) TestEntryInsertFailurePropagates() {
	credit := s.issuedCredit(100, lo.ToPtr("pay_1"))

	store := s.GetStores().LedgerRepo.(*testutil.InMemoryLedgerStore)
	store.FailNextEntryInsert = true

	_, err := s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   "pay_1",
			SubscriptionID:       "sub_1",
		},
		BackingRecords: ledger.BackingRecords{UsageCredits: []*usagecredit.UsageCredit{credit}},
	})
	s.Error(err)
	s.True(ierr.IsDatabase(err))
}

func (s *LedgerServiceTestSuite) TestCommandValidation() {
	_, err := s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			SubscriptionID:       "sub_1",
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.ProcessLedgerCommand(s.GetContext(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceType("unknown"),
			InitiatingSourceID:   "x",
			SubscriptionID:       "sub_1",
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceTestSuite) TestRequiresTenantContext() {
	_, err := s.service.ProcessLedgerCommand(context.Background(), ledger.Command{
		TransactionDetails: ledger.TransactionDetails{
			InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
			InitiatingSourceID:   "pay_1",
			SubscriptionID:       "sub_1",
		},
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}
