package types

import (
	"fmt"

	"github.com/samber/lo"
)

// PriceType discriminates the closed set of price variants. The type of a
// price is fixed at creation; changing it requires creating a new price.
type PriceType string

const (
	// PriceTypeSubscription is a recurring price attached to a product
	PriceTypeSubscription PriceType = "subscription"
	// PriceTypeSinglePayment is a one-time price attached to a product
	PriceTypeSinglePayment PriceType = "single_payment"
	// PriceTypeUsage is a metered price attached to a usage meter, never a product
	PriceTypeUsage PriceType = "usage"
)

func (p PriceType) String() string {
	return string(p)
}

func (p PriceType) Validate() error {
	allowed := []PriceType{
		PriceTypeSubscription,
		PriceTypeSinglePayment,
		PriceTypeUsage,
	}
	if !lo.Contains(allowed, p) {
		return fmt.Errorf("invalid price type: %s", p)
	}
	return nil
}

// IntervalUnit is the recurrence unit for subscription prices
type IntervalUnit string

const (
	IntervalUnitDay   IntervalUnit = "day"
	IntervalUnitWeek  IntervalUnit = "week"
	IntervalUnitMonth IntervalUnit = "month"
	IntervalUnitYear  IntervalUnit = "year"
)

func (i IntervalUnit) String() string {
	return string(i)
}

func (i IntervalUnit) Validate() error {
	allowed := []IntervalUnit{
		IntervalUnitDay,
		IntervalUnitWeek,
		IntervalUnitMonth,
		IntervalUnitYear,
	}
	if !lo.Contains(allowed, i) {
		return fmt.Errorf("invalid interval unit: %s", i)
	}
	return nil
}
