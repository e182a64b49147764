package types

import (
	"fmt"

	"github.com/samber/lo"
)

// UsageCreditStatus is the lifecycle status of an issued usage credit
type UsageCreditStatus string

const (
	UsageCreditStatusActive   UsageCreditStatus = "active"
	UsageCreditStatusExpired  UsageCreditStatus = "expired"
	UsageCreditStatusDepleted UsageCreditStatus = "depleted"
)

func (s UsageCreditStatus) String() string {
	return string(s)
}

func (s UsageCreditStatus) Validate() error {
	allowed := []UsageCreditStatus{
		UsageCreditStatusActive,
		UsageCreditStatusExpired,
		UsageCreditStatusDepleted,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid usage credit status: %s", s)
	}
	return nil
}

// UsageCreditSourceReferenceType identifies the event that triggered issuance
// of a usage credit. Together with the source reference id it forms the
// idempotency key for issuance: one credit per triggering event per meter.
type UsageCreditSourceReferenceType string

const (
	UsageCreditSourceReferenceTypePayment                 UsageCreditSourceReferenceType = "payment"
	UsageCreditSourceReferenceTypeBillingPeriodTransition UsageCreditSourceReferenceType = "billing_period_transition"
	UsageCreditSourceReferenceTypeManual                  UsageCreditSourceReferenceType = "manual"
)

func (s UsageCreditSourceReferenceType) String() string {
	return string(s)
}

func (s UsageCreditSourceReferenceType) Validate() error {
	allowed := []UsageCreditSourceReferenceType{
		UsageCreditSourceReferenceTypePayment,
		UsageCreditSourceReferenceTypeBillingPeriodTransition,
		UsageCreditSourceReferenceTypeManual,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid usage credit source reference type: %s", s)
	}
	return nil
}
