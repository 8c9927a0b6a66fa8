package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	obscontext "github.com/smallbiznis/etabridge/internal/observability/context"
	obstracing "github.com/smallbiznis/etabridge/internal/observability/tracing"
)

const HeaderCompany = obstracing.CompanyHeader

// CompanyContext scopes the request to the company named in the path, or in
// the X-Company header when the route carries none.
func CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		company := strings.TrimSpace(c.Param("company"))
		if company == "" {
			company = strings.TrimSpace(c.GetHeader(HeaderCompany))
		}
		if company == "" {
			AbortWithError(c, newValidationError("company", "invalid_company", "company is required"))
			return
		}
		c.Request = c.Request.WithContext(obscontext.WithCompany(c.Request.Context(), company))
		c.Next()
	}
}

func companyFromRequest(c *gin.Context) string {
	return obscontext.CompanyFromContext(c.Request.Context())
}
