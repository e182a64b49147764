package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/types"
)

// TenantMiddleware reads the tenant scope set by the upstream authentication
// proxy into the request context. Every handler downstream can rely on
// (organization, livemode) being present; requests without it never reach a
// service.
func TenantMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		organizationID := c.GetHeader(types.HeaderOrganizationID)
		if organizationID == "" {
			log.Warnw("request missing organization header",
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusForbidden, ierr.ErrorResponse{
				Success: false,
				Error: ierr.ErrorDetail{
					Display: "Missing organization context",
				},
			})
			return
		}

		// Anything other than an explicit "true" is test mode
		livemode := c.GetHeader(types.HeaderLivemode) == "true"

		ctx = types.SetOrganizationID(ctx, organizationID)
		ctx = types.SetLivemode(ctx, livemode)

		if userID := c.GetHeader(types.HeaderUserID); userID != "" {
			ctx = types.SetUserID(ctx, userID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
