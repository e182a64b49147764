package types

import (
	"fmt"

	"github.com/samber/lo"
)

// AggregationType is the type of aggregation applied to usage events when
// computing a meter's value for a billing period.
type AggregationType string

const (
	// AggregationSum sums the amount field across matching events
	AggregationSum AggregationType = "sum"
	// AggregationCountDistinctProperties counts events with distinct values of
	// the meter's property key
	AggregationCountDistinctProperties AggregationType = "count_distinct_properties"
)

func (a AggregationType) String() string {
	return string(a)
}

func (a AggregationType) Validate() error {
	allowed := []AggregationType{
		AggregationSum,
		AggregationCountDistinctProperties,
	}
	if !lo.Contains(allowed, a) {
		return fmt.Errorf("invalid aggregation type: %s", a)
	}
	return nil
}
