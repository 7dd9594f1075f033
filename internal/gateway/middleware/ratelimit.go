package middleware

import (
	"fmt"
	"time"

	"codejudge/internal/gateway/service"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type RateLimitPolicy struct {
	Window     time.Duration
	SubjectMax int
	IPMax      int
	RouteMax   int
}

// RateLimitMiddleware enforces per-route rate limiting. Service tokens are
// exempt; their work was already counted against the originating request.
func RateLimitMiddleware(rateService *service.RateLimitService, routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); rateService == nil || role == service.RoleService {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if policy.IPMax > 0 {
			key := fmt.Sprintf("judge:rate:ip:%s:%s", c.ClientIP(), routeKey)
			if err := rateService.Allow(ctx, key, policy.IPMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}

		if policy.SubjectMax > 0 {
			if subject, ok := c.Get("subject"); ok {
				key := fmt.Sprintf("judge:rate:subject:%v:%s", subject, routeKey)
				if err := rateService.Allow(ctx, key, policy.SubjectMax, policy.Window); err != nil {
					response.AbortWithError(c, err)
					return
				}
			}
		}

		if policy.RouteMax > 0 {
			key := fmt.Sprintf("judge:rate:route:%s", routeKey)
			if err := rateService.Allow(ctx, key, policy.RouteMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}

		c.Next()
	}
}
