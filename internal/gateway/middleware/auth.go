package middleware

import (
	"strings"

	"codejudge/internal/gateway/service"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid bearer token, taken from the Authorization
// header or the access_token query parameter. A nil service disables auth.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			c.Next()
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			// browsers cannot set headers on websocket upgrades
			token = c.Query("access_token")
		}
		principal, err := authService.Authenticate(token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set("subject", principal.Subject)
		c.Set("role", principal.Role)
		c.Next()
	}
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
