package middleware

import (
	"github.com/gin-gonic/gin"
)

const anonymousUser = "anonymous"

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// It allows all requests without authentication.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a placeholder user ID for logging purposes
		c.Set("user_id", anonymousUser)
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" for anonymous requests
func UserID(c *gin.Context) string {
	id := c.GetString("user_id")
	if id == anonymousUser {
		return ""
	}
	return id
}
