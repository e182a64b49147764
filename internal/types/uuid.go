package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex price_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_USAGE_EVENT               = "event"
	UUID_PREFIX_USAGE_METER               = "meter"
	UUID_PREFIX_PRICE                     = "price"
	UUID_PREFIX_FEATURE                   = "feat"
	UUID_PREFIX_CUSTOMER                  = "cust"
	UUID_PREFIX_SUBSCRIPTION              = "sub"
	UUID_PREFIX_BILLING_PERIOD            = "bp"
	UUID_PREFIX_USAGE_CREDIT              = "credit"
	UUID_PREFIX_CREDIT_APPLICATION        = "capp"
	UUID_PREFIX_CREDIT_BALANCE_ADJUSTMENT = "cadj"
	UUID_PREFIX_PAYMENT                   = "pay"
	UUID_PREFIX_LEDGER_TRANSACTION        = "ltxn"
	UUID_PREFIX_LEDGER_ENTRY              = "lent"
	UUID_PREFIX_CALCULATION_RUN           = "calc"
)
