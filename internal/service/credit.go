package service

import (
	"context"
	"fmt"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/feature"
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreditService manages the lifecycle of usage credits after their initial
// payment-funded issuance: renewal grants on billing period transitions,
// consumption against usage, and administrative claw-backs. Every mutation
// posts exactly one ledger command.
type CreditService interface {
	// GrantRenewalCredits re-issues every_billing_period grants when a
	// subscription enters a new billing period. Keyed on the period id, so a
	// replayed transition issues nothing new.
	GrantRenewalCredits(ctx context.Context, req dto.GrantRenewalCreditsRequest) (*dto.CreditOperationResponse, error)

	// ApplyCreditToUsage consumes part of a grant against metered usage
	ApplyCreditToUsage(ctx context.Context, req dto.ApplyCreditToUsageRequest) (*dto.CreditOperationResponse, error)

	// AdjustCreditBalance claws back previously issued credit
	AdjustCreditBalance(ctx context.Context, req dto.AdjustCreditBalanceRequest) (*dto.CreditOperationResponse, error)

	GetUsageCredit(ctx context.Context, id string) (*usagecredit.UsageCredit, error)
	ListUsageCredits(ctx context.Context, subscriptionID string) ([]*usagecredit.UsageCredit, error)
}

type creditService struct {
	ServiceParams
	ledgerService LedgerService
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{
		ServiceParams: params,
		ledgerService: NewLedgerService(params),
	}
}

func (s *creditService) GrantRenewalCredits(ctx context.Context, req dto.GrantRenewalCreditsRequest) (*dto.CreditOperationResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Renewal grants require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	period, err := s.BillingPeriodRepo.Get(ctx, req.BillingPeriodID)
	if err != nil {
		return nil, err
	}
	if period.SubscriptionID != req.SubscriptionID {
		return nil, ierr.NewError("billing period does not belong to subscription").
			WithHint("The billing period must belong to the renewing subscription").
			WithReportableDetails(map[string]any{
				"billing_period_id": req.BillingPeriodID,
				"subscription_id":   req.SubscriptionID,
			}).
			Mark(ierr.ErrConsistency)
	}

	features, err := s.FeatureRepo.ListBySubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	renewing := lo.Filter(features, func(f *feature.Feature, _ int) bool {
		return f.Type == types.FeatureTypeUsageCreditGrant &&
			f.RenewalFrequency != nil &&
			*f.RenewalFrequency == types.RenewalFrequencyEveryBillingPeriod
	})

	response := &dto.CreditOperationResponse{}
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		issued := make([]*usagecredit.UsageCredit, 0, len(renewing))
		for _, f := range renewing {
			credit := usagecredit.NewUsageCredit(ctx, usagecredit.NewUsageCreditParams{
				SubscriptionID:      req.SubscriptionID,
				UsageMeterID:        *f.UsageMeterID,
				IssuedAmount:        decimal.NewFromInt(*f.Amount),
				SourceReferenceType: types.UsageCreditSourceReferenceTypeBillingPeriodTransition,
				SourceReferenceID:   period.ID,
			})
			if err := credit.Validate(); err != nil {
				return err
			}
			if err := s.UsageCreditRepo.Create(ctx, credit); err != nil {
				if ierr.IsAlreadyExists(err) {
					s.Logger.Debugw("renewal credit already issued for period, skipping",
						"billing_period_id", period.ID,
						"usage_meter_id", *f.UsageMeterID,
					)
					continue
				}
				return err
			}
			issued = append(issued, credit)
		}
		response.IssuedCredits = issued
		if len(issued) == 0 {
			return nil
		}

		posting, err := s.ledgerService.ProcessLedgerCommand(ctx, ledger.Command{
			TransactionDetails: ledger.TransactionDetails{
				InitiatingSourceType: types.LedgerTransactionSourceTypeBillingPeriodTransition,
				InitiatingSourceID:   period.ID,
				SubscriptionID:       req.SubscriptionID,
				Description:          fmt.Sprintf("Renewal credit grants for billing period %s", period.ID),
			},
			BackingRecords: ledger.BackingRecords{
				UsageCredits: issued,
			},
		})
		if err != nil {
			return err
		}
		response.Posting = posting
		response.LedgerTransactionID = posting.Transaction.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("granted renewal credits",
		"subscription_id", req.SubscriptionID,
		"billing_period_id", req.BillingPeriodID,
		"issued_credit_count", len(response.IssuedCredits),
	)

	return response, nil
}

func (s *creditService) ApplyCreditToUsage(ctx context.Context, req dto.ApplyCreditToUsageRequest) (*dto.CreditOperationResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Credit applications require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	credit, err := s.UsageCreditRepo.Get(ctx, req.UsageCreditID)
	if err != nil {
		return nil, err
	}
	if credit.CreditStatus != types.UsageCreditStatusActive {
		return nil, ierr.NewError("usage credit is not active").
			WithHint("Only active credits can be applied to usage").
			WithReportableDetails(map[string]any{
				"usage_credit_id": credit.ID,
				"credit_status":   credit.CreditStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	// The application must not overdraw the meter balance
	balance, err := s.LedgerRepo.GetBalance(ctx, credit.SubscriptionID, credit.UsageMeterID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(req.Amount) {
		return nil, ierr.NewError("insufficient credit balance").
			WithHint("The application exceeds the available meter balance").
			WithReportableDetails(map[string]any{
				"usage_meter_id": credit.UsageMeterID,
				"balance":        balance,
				"requested":      req.Amount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	calculationRunID := req.CalculationRunID
	if calculationRunID == "" {
		calculationRunID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CALCULATION_RUN)
	}

	var usageEventID *string
	if req.UsageEventID != "" {
		event, err := s.EventRepo.Get(ctx, req.UsageEventID)
		if err != nil {
			return nil, err
		}
		if event.UsageMeterID != credit.UsageMeterID {
			return nil, ierr.NewError("usage event meter does not match credit meter").
				WithHint("The applied event must count against the credit's meter").
				WithReportableDetails(map[string]any{
					"usage_event_id":  event.ID,
					"usage_credit_id": credit.ID,
				}).
				Mark(ierr.ErrConsistency)
		}
		usageEventID = lo.ToPtr(event.ID)
	}

	response := &dto.CreditOperationResponse{}
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		application := usagecredit.NewCreditApplication(ctx, usagecredit.NewCreditApplicationParams{
			UsageCreditID:    credit.ID,
			SubscriptionID:   credit.SubscriptionID,
			UsageMeterID:     credit.UsageMeterID,
			AmountApplied:    req.Amount,
			UsageEventID:     usageEventID,
			CalculationRunID: calculationRunID,
		})
		if err := application.Validate(); err != nil {
			return err
		}
		if err := s.UsageCreditRepo.CreateApplication(ctx, application); err != nil {
			return err
		}
		response.Application = application

		// Keyed on the application id, not the calculation run: one run can
		// apply several credits, and each application must post its own debit.
		posting, err := s.ledgerService.ProcessLedgerCommand(ctx, ledger.Command{
			TransactionDetails: ledger.TransactionDetails{
				InitiatingSourceType: types.LedgerTransactionSourceTypeUsageCalculation,
				InitiatingSourceID:   application.ID,
				SubscriptionID:       credit.SubscriptionID,
				Description:          fmt.Sprintf("Usage calculation %s applied credit", calculationRunID),
			},
			BackingRecords: ledger.BackingRecords{
				CreditApplications: []*usagecredit.CreditApplication{application},
			},
		})
		if err != nil {
			return err
		}
		response.Posting = posting
		response.LedgerTransactionID = posting.Transaction.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("applied credit to usage",
		"usage_credit_id", credit.ID,
		"amount", req.Amount,
		"calculation_run_id", calculationRunID,
	)

	return response, nil
}

func (s *creditService) AdjustCreditBalance(ctx context.Context, req dto.AdjustCreditBalanceRequest) (*dto.CreditOperationResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Balance adjustments require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	credit, err := s.UsageCreditRepo.Get(ctx, req.UsageCreditID)
	if err != nil {
		return nil, err
	}

	response := &dto.CreditOperationResponse{}
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		adjustment := usagecredit.NewBalanceAdjustment(ctx, usagecredit.NewBalanceAdjustmentParams{
			AdjustedUsageCreditID: credit.ID,
			SubscriptionID:        credit.SubscriptionID,
			UsageMeterID:          credit.UsageMeterID,
			Amount:                req.Amount,
			Reason:                req.Reason,
		})
		if err := adjustment.Validate(); err != nil {
			return err
		}
		if err := s.UsageCreditRepo.CreateBalanceAdjustment(ctx, adjustment); err != nil {
			return err
		}
		response.Adjustment = adjustment

		posting, err := s.ledgerService.ProcessLedgerCommand(ctx, ledger.Command{
			TransactionDetails: ledger.TransactionDetails{
				InitiatingSourceType: types.LedgerTransactionSourceTypeAdminAction,
				InitiatingSourceID:   adjustment.ID,
				SubscriptionID:       credit.SubscriptionID,
				Description:          fmt.Sprintf("Balance adjustment: %s", req.Reason),
			},
			BackingRecords: ledger.BackingRecords{
				BalanceAdjustments: []*usagecredit.BalanceAdjustment{adjustment},
			},
		})
		if err != nil {
			return err
		}
		response.Posting = posting
		response.LedgerTransactionID = posting.Transaction.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("adjusted credit balance",
		"usage_credit_id", credit.ID,
		"amount", req.Amount,
		"reason", req.Reason,
	)

	return response, nil
}

func (s *creditService) GetUsageCredit(ctx context.Context, id string) (*usagecredit.UsageCredit, error) {
	return s.UsageCreditRepo.Get(ctx, id)
}

func (s *creditService) ListUsageCredits(ctx context.Context, subscriptionID string) ([]*usagecredit.UsageCredit, error) {
	return s.UsageCreditRepo.ListBySubscription(ctx, subscriptionID)
}
