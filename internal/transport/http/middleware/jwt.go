package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-training/internal/pkg/jwtutil"
	"gopherai-training/internal/transport/http/response"
)

const (
	ContextSubjectKey = "subject"
	ContextRoleKey    = "role"
)

// RoleContext places the caller's role claim in the request context. Requests without an
// Authorization header pass through anonymously; a presented token must verify.
func RoleContext(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// Role returns the caller's role, or "" for anonymous requests.
func Role(c *gin.Context) string {
	return c.GetString(ContextRoleKey)
}
