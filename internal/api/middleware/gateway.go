package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role)
// This is used when the API runs behind a gateway that handles login and
// quota checks.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used in the hosted environment with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for gateway headers
		userIDStr := c.GetHeader("X-User-ID")
		userEmail := c.GetHeader("X-User-Email")
		userRole := c.GetHeader("X-User-Role")

		if userIDStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		// Set context values
		c.Set("user_id", userIDStr)
		c.Set("user_email", userEmail)
		c.Set("user_role", userRole)

		// Also set API key info if present
		if apiKeyID := c.GetHeader("X-API-Key-ID"); apiKeyID != "" {
			c.Set("api_key_id", apiKeyID)
			c.Set("api_key_scopes", c.GetHeader("X-API-Key-Scopes"))
		}

		c.Next()
	}
}
