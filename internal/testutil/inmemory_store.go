package testutil

import (
	"context"

	"github.com/metergrid/metergrid/internal/types"
)

// tenantMatch reports whether a row is visible to the tenant scope of the
// context. In-memory stores enforce the same (organization, livemode)
// partitioning as the SQL repositories so isolation tests mean something.
func tenantMatch(ctx context.Context, base types.BaseModel) bool {
	return base.OrganizationID == types.GetOrganizationID(ctx) &&
		base.Livemode == types.GetLivemode(ctx) &&
		base.Status == types.StatusPublished
}
