package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/canopyhq/canopy/internal/config"
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DigestService produces the nightly per-organization review-activity digest
// and publishes it as a domain event for webhook delivery.
type DigestService struct {
	db             *gorm.DB
	cfg            *config.DigestConfig
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewDigestService(db *gorm.DB, cfg *config.DigestConfig) *DigestService {
	return &DigestService{
		db:  db,
		cfg: cfg,
	}
}

// DigestStats summarizes one organization's activity over the digest window.
type DigestStats struct {
	NewApplications     int     `json:"new_applications"`
	ScorecardsSubmitted int     `json:"scorecards_submitted"`
	StageChanges        int     `json:"stage_changes"`
	ActiveScorers       int     `json:"active_scorers"`
	AverageRating       float64 `json:"average_rating"`
	OpenJobs            int     `json:"open_jobs"`
	PendingBlindReviews int     `json:"pending_blind_reviews"`
}

func (s *DigestService) StartScheduler() {
	if !s.cfg.Enabled {
		logger.Infof("[Digest] Scheduler disabled")
		return
	}

	s.cronScheduler = cron.New()
	s.updateSchedule()
	s.cronScheduler.Start()
	logger.Infof("[Digest] Scheduler started")
}

func (s *DigestService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *DigestService) updateSchedule() {
	if s.currentEntryID != 0 {
		s.cronScheduler.Remove(s.currentEntryID)
	}

	parts := strings.Split(s.cfg.SendTime, ":")
	hour := "7"
	minute := "0"
	if len(parts) == 2 {
		hour = parts[0]
		minute = parts[1]
	}

	cronExpr := fmt.Sprintf("%s %s * * *", minute, hour)

	entryID, err := s.cronScheduler.AddFunc(cronExpr, func() {
		s.GenerateAndPublish()
	})
	if err != nil {
		logger.Warnf("[Digest] Failed to add cron job: %v", err)
		return
	}

	s.currentEntryID = entryID
	logger.Infof("[Digest] Scheduled at %s (cron: %s)", s.cfg.SendTime, cronExpr)
}

// GenerateAndPublish builds and publishes a digest event for every
// organization with activity in the last 24 hours.
func (s *DigestService) GenerateAndPublish() {
	endOfWindow := time.Now()
	startOfWindow := endOfWindow.Add(-24 * time.Hour)

	var orgs []models.Organization
	if err := s.db.Find(&orgs).Error; err != nil {
		logger.Warnf("[Digest] Failed to list organizations: %v", err)
		return
	}

	queue := GetEventQueue()
	if queue == nil {
		logger.Warnf("[Digest] Event queue not initialized, digest skipped")
		return
	}

	published := 0
	for _, org := range orgs {
		stats := s.collectStats(org.ID, startOfWindow, endOfWindow)
		if stats.NewApplications == 0 && stats.ScorecardsSubmitted == 0 && stats.StageChanges == 0 {
			continue
		}

		event := &DomainEvent{
			Type:           EventDailyDigest,
			OrganizationID: org.ID,
			Payload: map[string]interface{}{
				"window_start": startOfWindow,
				"window_end":   endOfWindow,
				"stats":        stats,
			},
		}
		if err := queue.Publish(event); err != nil {
			logger.Warnf("[Digest] Failed to publish digest for org %d: %v", org.ID, err)
			continue
		}
		published++
	}

	logger.Infof("[Digest] Published %d digests for window %s - %s",
		published, startOfWindow.Format("2006-01-02 15:04"), endOfWindow.Format("2006-01-02 15:04"))
}

func (s *DigestService) collectStats(orgID uint, startTime, endTime time.Time) DigestStats {
	var stats DigestStats

	var newApplications int64
	s.db.Model(&models.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id AND jobs.deleted_at IS NULL").
		Where("jobs.organization_id = ?", orgID).
		Where("applications.created_at BETWEEN ? AND ?", startTime, endTime).
		Count(&newApplications)
	stats.NewApplications = int(newApplications)

	scorecardBase := func() *gorm.DB {
		return s.db.Model(&models.Scorecard{}).
			Joins("JOIN applications ON applications.id = scorecards.application_id AND applications.deleted_at IS NULL").
			Joins("JOIN jobs ON jobs.id = applications.job_id AND jobs.deleted_at IS NULL").
			Where("jobs.organization_id = ?", orgID).
			Where("scorecards.created_at BETWEEN ? AND ?", startTime, endTime)
	}

	var submitted int64
	scorecardBase().Count(&submitted)
	stats.ScorecardsSubmitted = int(submitted)

	var activeScorers int64
	scorecardBase().Distinct("scorecards.scorer_id").Count(&activeScorers)
	stats.ActiveScorers = int(activeScorers)

	scorecardBase().Select("COALESCE(AVG(scorecards.overall_rating), 0)").Scan(&stats.AverageRating)

	var stageChanges int64
	s.db.Model(&models.AuditLog{}).
		Where("organization_id = ?", orgID).
		Where("action = ?", "application.stage_changed").
		Where("created_at BETWEEN ? AND ?", startTime, endTime).
		Count(&stageChanges)
	stats.StageChanges = int(stageChanges)

	var openJobs int64
	s.db.Model(&models.Job{}).
		Where("organization_id = ? AND status = ?", orgID, models.JobStatusOpen).
		Count(&openJobs)
	stats.OpenJobs = int(openJobs)

	// Applications on open jobs where assigned reviewers have not all
	// submitted yet.
	var pending int64
	s.db.Model(&models.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id AND jobs.deleted_at IS NULL").
		Where("jobs.organization_id = ? AND jobs.status = ?", orgID, models.JobStatusOpen).
		Where("(SELECT COUNT(*) FROM job_assignments WHERE job_assignments.job_id = jobs.id) > "+
			"(SELECT COUNT(*) FROM scorecards WHERE scorecards.application_id = applications.id AND scorecards.deleted_at IS NULL)").
		Count(&pending)
	stats.PendingBlindReviews = int(pending)

	return stats
}
