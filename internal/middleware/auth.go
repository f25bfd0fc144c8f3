package middleware

import (
	"net/http"
	"strings"

	"github.com/canopyhq/canopy/internal/utils"
	"github.com/gin-gonic/gin"
)

const ContextAccountID = "account_id"

// AuthRequired is a middleware that checks for a valid JWT token. It only
// establishes the account identity; organization membership and role are
// resolved per request by the access service.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextAccountID, claims.AccountID)

		c.Next()
	}
}

// GetAccountID gets the current account ID from context.
func GetAccountID(c *gin.Context) uint {
	if id, exists := c.Get(ContextAccountID); exists {
		return id.(uint)
	}
	return 0
}
