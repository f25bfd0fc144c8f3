package main

import (
	"github.com/canopyhq/canopy/internal/handlers"
	"github.com/canopyhq/canopy/internal/middleware"
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Protected routes. Role-based decisions happen in the services
		// against the per-request access scope, not in route groups.
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Jobs and reviewer assignments
			jobHandler := handlers.NewJobHandler(models.GetDB())
			protected.GET("/jobs", jobHandler.List)
			protected.GET("/jobs/:id", jobHandler.Get)
			protected.POST("/jobs", jobHandler.Create)
			protected.PUT("/jobs/:id", jobHandler.Update)
			protected.DELETE("/jobs/:id", jobHandler.Delete)
			protected.GET("/jobs/:id/assignments", jobHandler.ListAssignments)
			protected.POST("/jobs/:id/assignments", jobHandler.AddAssignment)
			protected.DELETE("/jobs/:id/assignments/:memberId", jobHandler.RemoveAssignment)

			// Applications
			appHandler := handlers.NewApplicationHandler(models.GetDB())
			protected.GET("/applications", appHandler.List)
			protected.GET("/applications/:id", appHandler.Get)
			protected.POST("/applications", appHandler.Create)
			protected.PUT("/applications/:id/stage", appHandler.UpdateStage)
			protected.DELETE("/applications/:id", appHandler.Delete)
			protected.GET("/applications/:id/notes", appHandler.ListNotes)
			protected.POST("/applications/:id/notes", appHandler.AddNote)

			// Scorecards and blind review
			scorecardHandler := handlers.NewScorecardHandler(models.GetDB())
			protected.POST("/applications/:id/scorecards", scorecardHandler.Submit)
			protected.GET("/applications/:id/scorecards", scorecardHandler.GetScores)
			protected.GET("/applications/:id/blind-review", scorecardHandler.GetBlindReviewStatus)

			// Members
			memberHandler := handlers.NewMemberHandler(models.GetDB())
			protected.GET("/members", memberHandler.List)
			protected.POST("/members", memberHandler.Add)
			protected.PUT("/members/:id/role", memberHandler.UpdateRole)
			protected.DELETE("/members/:id", memberHandler.Remove)

			// Audit trail
			auditHandler := handlers.NewAuditHandler(models.GetDB())
			protected.GET("/audit-logs", auditHandler.List)
		}
	}
}
