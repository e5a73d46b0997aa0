package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"velt/config"
	"velt/internal/auth"
)

// AuthRequired validates the bearer token and sets UserID and Email in the
// request context. Billing never proceeds without a resolved identity.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID (must run after AuthRequired).
func GetUserID(c *gin.Context) string {
	v, _ := c.Get("user_id")
	if v == nil {
		return ""
	}
	return v.(string)
}

// GetEmail returns the authenticated user's email.
func GetEmail(c *gin.Context) string {
	v, _ := c.Get("email")
	if v == nil {
		return ""
	}
	return v.(string)
}
