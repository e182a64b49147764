package service

import (
	"context"
	"fmt"

	"github.com/metergrid/metergrid/internal/api/dto"
	"github.com/metergrid/metergrid/internal/domain/feature"
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/payment"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentService turns confirmed payments into recorded payments, issued
// usage credits and one ledger posting. The whole chain is idempotent on the
// processor transaction id: a retried webhook records nothing new.
type PaymentService interface {
	HandlePaymentSucceeded(ctx context.Context, req dto.PaymentSucceededEvent) (*dto.PaymentProcessedResponse, error)
	GetPayment(ctx context.Context, id string) (*payment.Payment, error)
}

type paymentService struct {
	ServiceParams
	ledgerService LedgerService
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		ledgerService: NewLedgerService(params),
	}
}

func (s *paymentService) HandlePaymentSucceeded(ctx context.Context, req dto.PaymentSucceededEvent) (*dto.PaymentProcessedResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment events require tenant context").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	var subscriptionID *string
	if req.SubscriptionID != "" {
		sub, err := s.SubscriptionRepo.Get(ctx, req.SubscriptionID)
		if err != nil {
			return nil, err
		}
		if sub.CustomerID != req.CustomerID {
			return nil, ierr.NewError("subscription does not belong to customer").
				WithHint("The payment's subscription must belong to the paying customer").
				WithReportableDetails(map[string]any{
					"subscription_id": req.SubscriptionID,
					"customer_id":     req.CustomerID,
				}).
				Mark(ierr.ErrConsistency)
		}
		subscriptionID = lo.ToPtr(sub.ID)
	}

	response := &dto.PaymentProcessedResponse{}
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p := payment.NewPayment(ctx, payment.NewPaymentParams{
			CustomerID:             req.CustomerID,
			SubscriptionID:         subscriptionID,
			Amount:                 req.Amount,
			Currency:               req.Currency,
			PaymentStatus:          types.PaymentStatusSucceeded,
			ProcessorTransactionID: req.ProcessorTransactionID,
		})
		if err := p.Validate(); err != nil {
			return err
		}

		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			if !ierr.IsAlreadyExists(err) {
				return err
			}
			// Webhook retry: the charge is already recorded, reuse it so
			// downstream idempotency keys line up
			existing, getErr := s.PaymentRepo.GetByProcessorTransactionID(ctx, req.ProcessorTransactionID)
			if getErr != nil {
				return getErr
			}
			s.Logger.Debugw("duplicate payment event, reusing recorded payment",
				"payment_id", existing.ID,
				"processor_transaction_id", req.ProcessorTransactionID,
			)
			p = existing
		}
		response.Payment = p

		if subscriptionID == nil {
			return nil
		}

		issued, err := s.issuePaymentCredits(ctx, p, *subscriptionID)
		if err != nil {
			return err
		}
		response.IssuedCredits = issued
		if len(issued) == 0 {
			return nil
		}

		posting, err := s.ledgerService.ProcessLedgerCommand(ctx, ledger.Command{
			TransactionDetails: ledger.TransactionDetails{
				InitiatingSourceType: types.LedgerTransactionSourceTypePayment,
				InitiatingSourceID:   p.ID,
				SubscriptionID:       *subscriptionID,
				Description:          fmt.Sprintf("Payment %s recognized", p.ProcessorTransactionID),
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

	s.Logger.Infow("processed payment event",
		"payment_id", response.Payment.ID,
		"processor_transaction_id", req.ProcessorTransactionID,
		"issued_credit_count", len(response.IssuedCredits),
	)

	return response, nil
}

// issuePaymentCredits issues one credit per usage credit grant feature of the
// funded subscription, keyed on the payment id. Credits that already exist
// from an earlier delivery of the same event are skipped.
func (s *paymentService) issuePaymentCredits(ctx context.Context, p *payment.Payment, subscriptionID string) ([]*usagecredit.UsageCredit, error) {
	features, err := s.FeatureRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	grantFeatures := lo.Filter(features, func(f *feature.Feature, _ int) bool {
		return f.Type == types.FeatureTypeUsageCreditGrant
	})

	issued := make([]*usagecredit.UsageCredit, 0, len(grantFeatures))
	for _, f := range grantFeatures {
		credit := usagecredit.NewUsageCredit(ctx, usagecredit.NewUsageCreditParams{
			SubscriptionID:      subscriptionID,
			UsageMeterID:        *f.UsageMeterID,
			IssuedAmount:        decimal.NewFromInt(*f.Amount),
			SourceReferenceType: types.UsageCreditSourceReferenceTypePayment,
			SourceReferenceID:   p.ID,
			PaymentID:           lo.ToPtr(p.ID),
		})
		if err := credit.Validate(); err != nil {
			return nil, err
		}
		if err := s.UsageCreditRepo.Create(ctx, credit); err != nil {
			if ierr.IsAlreadyExists(err) {
				s.Logger.Debugw("credit already issued for payment, skipping",
					"payment_id", p.ID,
					"usage_meter_id", *f.UsageMeterID,
				)
				continue
			}
			return nil, err
		}
		issued = append(issued, credit)
	}
	return issued, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	return s.PaymentRepo.Get(ctx, id)
}
