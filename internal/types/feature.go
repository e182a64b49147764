package types

import (
	"fmt"

	"github.com/samber/lo"
)

// FeatureType discriminates the closed set of feature variants.
type FeatureType string

const (
	// FeatureTypeToggle is an on/off entitlement with no amount, meter or frequency
	FeatureTypeToggle FeatureType = "toggle"
	// FeatureTypeUsageCreditGrant grants a usage allowance against a meter on a
	// renewal schedule
	FeatureTypeUsageCreditGrant FeatureType = "usage_credit_grant"
)

func (f FeatureType) String() string {
	return string(f)
}

func (f FeatureType) Validate() error {
	allowed := []FeatureType{
		FeatureTypeToggle,
		FeatureTypeUsageCreditGrant,
	}
	if !lo.Contains(allowed, f) {
		return fmt.Errorf("invalid feature type: %s", f)
	}
	return nil
}

// RenewalFrequency is how often a usage credit grant feature re-issues credits
type RenewalFrequency string

const (
	RenewalFrequencyOnce               RenewalFrequency = "once"
	RenewalFrequencyEveryBillingPeriod RenewalFrequency = "every_billing_period"
)

func (r RenewalFrequency) String() string {
	return string(r)
}

func (r RenewalFrequency) Validate() error {
	allowed := []RenewalFrequency{
		RenewalFrequencyOnce,
		RenewalFrequencyEveryBillingPeriod,
	}
	if !lo.Contains(allowed, r) {
		return fmt.Errorf("invalid renewal frequency: %s", r)
	}
	return nil
}
