package handlers

import (
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	queue := services.GetEventQueue()
	queueMode := "sync"
	if queue != nil && queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var openJobs int64
	models.GetDB().Model(&models.Job{}).
		Where("status = ?", models.JobStatusOpen).
		Count(&openJobs)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "canopy",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"open_jobs":  openJobs,
		},
	})
}
