package types

import (
	"context"
	"fmt"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID      ContextKey = "ctx_request_id"
	CtxOrganizationID ContextKey = "ctx_organization_id"
	CtxUserID         ContextKey = "ctx_user_id"
	CtxLivemode       ContextKey = "ctx_livemode"
	CtxDBTransaction  ContextKey = "ctx_db_transaction"

	// Default values
	DefaultUserID = "00000000-0000-0000-0000-000000000000"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetOrganizationID(ctx context.Context) string {
	if organizationID, ok := ctx.Value(CtxOrganizationID).(string); ok {
		return organizationID
	}
	return ""
}

// GetLivemode returns the livemode flag from the context. The zero value is
// false (test mode) so a missing flag can never leak live data.
func GetLivemode(ctx context.Context) bool {
	if livemode, ok := ctx.Value(CtxLivemode).(bool); ok {
		return livemode
	}
	return false
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetOrganizationID sets the organization ID in the context
func SetOrganizationID(ctx context.Context, organizationID string) context.Context {
	return context.WithValue(ctx, CtxOrganizationID, organizationID)
}

// SetLivemode sets the livemode flag in the context
func SetLivemode(ctx context.Context, livemode bool) context.Context {
	return context.WithValue(ctx, CtxLivemode, livemode)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// ValidateTenantContext validates that the required tenant context fields are
// present. Every request boundary must call this before touching storage so
// that no query ever runs without an (organization, livemode) scope.
func ValidateTenantContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context is nil")
	}

	organizationID := GetOrganizationID(ctx)
	if organizationID == "" {
		return fmt.Errorf("no organization context found in context")
	}

	if _, ok := ctx.Value(CtxLivemode).(bool); !ok {
		return fmt.Errorf("no livemode context found in context")
	}

	return nil
}
