// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/travelbooks/backoffice/internal/integration/entrypoint/controller"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                   *gin.Engine
	healthController         *controller.HealthController
	reconciliationController *controller.ReconciliationController
	discrepancyController    *controller.DiscrepancyController
	agingController          *controller.AgingController
	triggerRateLimiter       *middleware.RateLimiter
	authMiddleware           *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	reconciliationController *controller.ReconciliationController,
	discrepancyController *controller.DiscrepancyController,
	agingController *controller.AgingController,
	triggerRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:         healthController,
		reconciliationController: reconciliationController,
		discrepancyController:    discrepancyController,
		agingController:          agingController,
		triggerRateLimiter:       triggerRateLimiter,
		authMiddleware:           authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Reconciliation routes (require authentication)
		if r.reconciliationController != nil && r.authMiddleware != nil {
			reconciliation := v1.Group("/reconciliation")
			reconciliation.Use(r.authMiddleware.Authenticate())
			{
				// A pass is heavy; the trigger gets its own rate limit.
				if r.triggerRateLimiter != nil {
					reconciliation.POST("/runs", r.triggerRateLimiter.Middleware(), r.reconciliationController.TriggerRun)
				} else {
					reconciliation.POST("/runs", r.reconciliationController.TriggerRun)
				}
				reconciliation.GET("/receipts/:id/suggestions", r.reconciliationController.SuggestMatches)
				reconciliation.POST("/matches", r.reconciliationController.ConfirmMatch)
				reconciliation.POST("/matches/:id/reverse", r.reconciliationController.ReverseMatch)
			}
		}

		// Discrepancy routes (require authentication)
		if r.discrepancyController != nil && r.authMiddleware != nil {
			discrepancies := v1.Group("/discrepancies")
			discrepancies.Use(r.authMiddleware.Authenticate())
			{
				discrepancies.GET("", r.discrepancyController.List)
				discrepancies.PATCH("/:id/resolve", r.discrepancyController.Resolve)
			}
		}

		// Accounts receivable routes (require authentication)
		if r.agingController != nil && r.authMiddleware != nil {
			receivable := v1.Group("/accounts-receivable")
			receivable.Use(r.authMiddleware.Authenticate())
			{
				receivable.GET("", r.agingController.List)
			}
		}
	}
}
