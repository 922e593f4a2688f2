package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	persistence bool
	profileMode string
}

func NewHealthHandler(persistence bool, profileMode string) *HealthHandler {
	return &HealthHandler{persistence: persistence, profileMode: profileMode}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	persistence := "disabled"
	if h.persistence {
		persistence = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"persistence": persistence,
		"solver": gin.H{
			"mode": h.profileMode,
		},
	})
}
