package main

import (
	"github.com/canopyhq/canopy/internal/config"
	"github.com/canopyhq/canopy/internal/handlers"
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/internal/utils"
	"github.com/canopyhq/canopy/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	notificationService *services.NotificationService
	digestService       *services.DigestService
	eventQueue          services.EventQueue
	eventWorker         *services.EventWorker
	authHandler         *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize audit trail
	services.InitAuditLogger(models.GetDB())
	services.StartAuditCleanupScheduler(models.GetDB())

	// Event queue (uses Redis if enabled, otherwise sync mode) with webhook
	// delivery as the processor
	notificationService := services.NewNotificationService(models.GetDB())
	eventQueue := services.InitEventQueue(cfg)
	if syncQueue, ok := eventQueue.(*services.SyncEventQueue); ok {
		syncQueue.SetProcessor(notificationService.DispatchEvent)
	}

	// Start async worker if Redis is enabled
	var eventWorker *services.EventWorker
	if cfg.Redis.Enabled {
		eventWorker = services.InitEventWorker(&cfg.Redis)
		if eventWorker != nil {
			eventWorker.SetProcessor(notificationService.DispatchEvent)
			eventWorker.Start()
		}
	}

	// Nightly digest scheduler
	digestService := services.NewDigestService(models.GetDB(), &cfg.Digest)
	digestService.StartScheduler()

	// Seed default organization and owner account
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.EnsureDefaultOwner(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default owner")
	}

	return &appServices{
		notificationService: notificationService,
		digestService:       digestService,
		eventQueue:          eventQueue,
		eventWorker:         eventWorker,
		authHandler:         authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.digestService.StopScheduler()
	services.StopAuditCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.eventWorker != nil {
		s.eventWorker.Stop()
	}
	if s.eventQueue != nil {
		s.eventQueue.Close()
	}
}
