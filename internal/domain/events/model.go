package events

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// JSONBProperties is a free-form JSONB payload attached to a usage event
type JSONBProperties map[string]interface{}

// UsageEvent is an immutable usage fact. It is created once by ingestion and
// never mutated; corrections are compensating events, not in-place edits.
//
// The idempotency key is (transaction_id, usage_meter_id): the same
// transaction may legitimately touch several meters, but a retry against the
// same meter must collapse onto the original row.
type UsageEvent struct {
	// ID is the unique identifier for the event
	ID string `db:"id" json:"id"`

	// CustomerID is the customer the usage belongs to
	CustomerID string `db:"customer_id" json:"customer_id"`

	// SubscriptionID is the subscription the usage is billed under. It must
	// belong to CustomerID
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// UsageMeterID is the meter this event counts against
	UsageMeterID string `db:"usage_meter_id" json:"usage_meter_id"`

	// BillingPeriodID, when set, must belong to SubscriptionID
	BillingPeriodID *string `db:"billing_period_id" json:"billing_period_id,omitempty"`

	// PriceID, when set, must reference a usage price whose meter equals
	// UsageMeterID
	PriceID *string `db:"price_id" json:"price_id,omitempty"`

	// Amount is the usage quantity, always positive
	Amount int64 `db:"amount" json:"amount"`

	// UsageDate is when the usage occurred
	UsageDate time.Time `db:"usage_date" json:"usage_date"`

	// TransactionID is the caller-supplied idempotency token
	TransactionID string `db:"transaction_id" json:"transaction_id"`

	// Properties carries additional dimensions, ex model_name for LLM calls
	Properties JSONBProperties `db:"properties" json:"properties,omitempty"`

	types.BaseModel
}

// Validate validates the event before insert
func (e *UsageEvent) Validate() error {
	if e.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Usage events must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if e.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Usage events must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if e.UsageMeterID == "" {
		return ierr.NewError("usage_meter_id is required").
			WithHint("Usage events must count against a usage meter").
			Mark(ierr.ErrValidation)
	}
	if e.TransactionID == "" {
		return ierr.NewError("transaction_id is required").
			WithHint("Usage events must carry an idempotency transaction id").
			Mark(ierr.ErrValidation)
	}
	if e.Amount <= 0 {
		return ierr.NewError("amount must be positive").
			WithHint("Usage event amount must be a positive integer").
			WithReportableDetails(map[string]any{"amount": e.Amount}).
			Mark(ierr.ErrValidation)
	}
	if e.UsageDate.IsZero() {
		return ierr.NewError("usage_date is required").
			WithHint("Usage events must carry a usage date").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Scan implements the sql.Scanner interface for JSONBProperties
func (j *JSONBProperties) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for jsonb properties")
	}
	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface for JSONBProperties
func (j JSONBProperties) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
