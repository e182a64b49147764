package testutil

import (
	"context"

	"github.com/metergrid/metergrid/internal/types"
)

const (
	// DefaultOrganizationID is the tenant all suite tests run under unless a
	// test opts into another one
	DefaultOrganizationID = "org_test"

	// OtherOrganizationID is a second tenant for isolation tests
	OtherOrganizationID = "org_other"
)

// SetupContext returns a context carrying the default test tenant scope in
// test mode
func SetupContext() context.Context {
	return ContextForTenant(DefaultOrganizationID, false)
}

// ContextForTenant returns a context scoped to the given organization and mode
func ContextForTenant(organizationID string, livemode bool) context.Context {
	ctx := context.Background()
	ctx = types.SetOrganizationID(ctx, organizationID)
	ctx = types.SetLivemode(ctx, livemode)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
