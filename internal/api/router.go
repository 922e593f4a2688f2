package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmony/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-harmony/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

// Deps are the collaborators the router wires into handlers. Metrics sinks
// may be nil.
type Deps struct {
	Config     *config.Config
	Service    *services.HarmonyService
	Collector  *metrics.Collector
	Sentry     *metrics.SentryMetrics
	CloudWatch *metrics.Client
	Version    string
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Sentry, deps.CloudWatch))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Service.PersistenceEnabled(), deps.Service.Profile().Mode)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoints
	metricsHandler := handlers.NewMetricsHandler(deps.Version, map[string]interface{}{
		"auth_mode":   deps.Config.AuthMode,
		"persistence": deps.Service.PersistenceEnabled(),
		"cloudwatch":  deps.CloudWatch != nil && deps.CloudWatch.Enabled(),
	}, deps.Collector)
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	if deps.Collector != nil {
		router.GET("/metrics", gin.WrapH(deps.Collector.Handler()))
	}

	// API routes v1, authenticated per AUTH_MODE
	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.ForMode(deps.Config.AuthMode, deps.Config.JWTSecret))
	{
		harmonyHandler := handlers.NewHarmonyHandler(deps.Service)
		v1.POST("/harmonize", harmonyHandler.Harmonize)
		v1.POST("/voicelead", harmonyHandler.VoiceLead)
		v1.POST("/arrange", harmonyHandler.Arrange)
		v1.GET("/profile", harmonyHandler.Profile)

		// Stored runs
		v1.GET("/runs", harmonyHandler.ListRuns)
		v1.GET("/runs/:id", harmonyHandler.GetRun)
	}

	return router
}
