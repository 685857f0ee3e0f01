// README: Bearer-token auth middleware and caller accessors.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"courier/internal/infra"
)

const (
	ctxKeyUID  = "caller_uid"
	ctxKeyRole = "caller_role"
)

// Auth verifies the bearer token and stores the caller's UID and role
// ("role" custom claim, empty when absent) on the context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}
		tok, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil || tok == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		role, _ := tok.Claims["role"].(string)
		c.Set(ctxKeyUID, tok.UID)
		c.Set(ctxKeyRole, role)
		c.Next()
	}
}

// Anonymous treats every request as coming from uid. Used when the local
// API runs without authentication.
func Anonymous(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyUID, uid)
		c.Set(ctxKeyRole, "partner")
		c.Next()
	}
}

// RequireCaller rejects requests whose caller is not uid.
func RequireCaller(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerUID(c) != uid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: token does not belong to this partner"})
			return
		}
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}
