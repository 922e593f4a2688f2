package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmony/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

type HarmonyHandler struct {
	service *services.HarmonyService
}

func NewHarmonyHandler(service *services.HarmonyService) *HarmonyHandler {
	return &HarmonyHandler{service: service}
}

// Harmonize chooses chords for a melody
func (h *HarmonyHandler) Harmonize(c *gin.Context) {
	var req models.HarmonizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Harmonize(c.Request.Context(), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VoiceLead voices a chord progression in four parts. An infeasible
// progression is still a 200 with is_valid=false.
func (h *HarmonyHandler) VoiceLead(c *gin.Context) {
	var req models.VoiceLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.VoiceLead(c.Request.Context(), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Arrange harmonizes a melody and voice-leads the chords
func (h *HarmonyHandler) Arrange(c *gin.Context) {
	var req models.ArrangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Arrange(c.Request.Context(), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns the cost profile in effect
func (h *HarmonyHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Profile())
}

// ListRuns lists stored runs, optionally filtered by ?kind=
func (h *HarmonyHandler) ListRuns(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultRunPageSize)
	if err != nil || limit < 1 || limit > maxRunPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	runs, err := h.service.ListRuns(c.Request.Context(), database.RunFilter{
		Kind:   c.Query("kind"),
		UserID: middleware.UserID(c),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

// GetRun returns one stored run with its payloads
func (h *HarmonyHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if userID := middleware.UserID(c); userID != "" && run.UserID != userID {
		respondError(c, database.ErrRunNotFound)
		return
	}
	c.JSON(http.StatusOK, run)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// respondError maps domain errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	var (
		inputErr  *harmony.InvalidInputError
		chordErr  *theory.InvalidChordSymbolError
		optionErr *services.InvalidOptionsError
		segErr    *harmony.UnharmonizableSegmentError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &inputErr), errors.As(err, &chordErr), errors.As(err, &optionErr):
		status = http.StatusBadRequest
	case errors.As(err, &segErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, database.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrPersistenceDisabled):
		status = http.StatusNotImplemented
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", err, logger.WithContext(c))
		c.JSON(status, gin.H{"error": "Internal server error", "request_id": c.GetString("request_id")})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
