package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minsu-lab/mstrack/internal/auth"
	"github.com/minsu-lab/mstrack/internal/utils"
)

// AuthRequired accepts an operator JWT as a Bearer token or the shared
// key in X-API-Key. With no credentials configured the route runs open;
// serve warns about that at startup.
func AuthRequired(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Set("user", "anonymous")
			c.Next()
			return
		}

		if a.VerifyAPIKey(c.GetHeader("X-API-Key")) {
			c.Set("user", "api_user")
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header")
			c.Abort()
			return
		}

		subject, err := a.VerifyToken(parts[1])
		if err != nil {
			// The shared key may arrive as a bearer credential too.
			if a.VerifyAPIKey(parts[1]) {
				c.Set("user", "api_user")
				c.Next()
				return
			}
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user", subject)
		c.Next()
	}
}
