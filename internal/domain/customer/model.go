package customer

import (
	"context"

	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/types"
)

// Customer is the billing counterparty that owns subscriptions and emits
// usage events
type Customer struct {
	ID string `db:"id" json:"id"`

	// Name is the display name of the customer
	Name string `db:"name" json:"name"`

	// ExternalID is the identifier of the customer in the caller's system
	ExternalID string `db:"external_id" json:"external_id"`

	// Email of the customer
	Email string `db:"email" json:"email"`

	types.BaseModel
}

// NewCustomer creates a customer with defaults from the request context
func NewCustomer(ctx context.Context, name, externalID, email string) *Customer {
	return &Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		Name:       name,
		ExternalID: externalID,
		Email:      email,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Customer name is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
