// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mcsiot/license-server/internal/utils"
)

// AdminAuth gates the management API behind the shared admin secret,
// presented as "Authorization: Bearer <token>". The comparison is exact
// and case-sensitive; there is no identity, expiry or rotation. The verify
// endpoint is deliberately left outside this guard so devices can
// self-verify without administrative credentials.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || token == "" || parts[1] != token {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
