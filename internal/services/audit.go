package services

import (
	"encoding/json"
	"time"

	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/pkg/logger"
	"gorm.io/gorm"
)

var auditDB *gorm.DB

// InitAuditLogger sets the database used by the package-level audit helpers.
func InitAuditLogger(db *gorm.DB) {
	auditDB = db
}

// Audit writes an audit record. Best-effort: a write failure must never fail
// the mutation being audited.
func Audit(orgID, actorID *uint, action, entity string, entityID uint, message string, extra interface{}) {
	if auditDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	record := &models.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Entity:         entity,
		EntityID:       entityID,
		Message:        message,
		Extra:          extraStr,
		CreatedAt:      time.Now(),
	}
	if err := auditDB.Create(record).Error; err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

type AuditListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Action    string `form:"action"`
	Entity    string `form:"entity"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type AuditListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.AuditLog `json:"items"`
}

// List returns audit records for one organization, newest first.
func (s *AuditService) List(organizationID uint, req *AuditListRequest) (*AuditListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	var logs []models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{}).Where("organization_id = ?", organizationID)

	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.Entity != "" {
		query = query.Where("entity = ?", req.Entity)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &AuditListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// DefaultAuditRetentionDays is how long audit records are kept.
const DefaultAuditRetentionDays = 180

// CleanupOldLogs deletes audit records older than the given number of days
// and returns how many were removed.
func (s *AuditService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

var auditCleanupStop chan struct{}

// StartAuditCleanupScheduler starts a goroutine that prunes old audit
// records once a day.
func StartAuditCleanupScheduler(db *gorm.DB) {
	auditCleanupStop = make(chan struct{})

	go func() {
		service := NewAuditService(db)

		runAuditCleanup(service)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runAuditCleanup(service)
			case <-auditCleanupStop:
				return
			}
		}
	}()
}

// StopAuditCleanupScheduler stops the cleanup goroutine.
func StopAuditCleanupScheduler() {
	if auditCleanupStop != nil {
		close(auditCleanupStop)
		auditCleanupStop = nil
	}
}

func runAuditCleanup(service *AuditService) {
	deleted, err := service.CleanupOldLogs(DefaultAuditRetentionDays)
	if err != nil {
		logger.Warnf("[Audit] Failed to cleanup old records: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("[Audit] Cleaned up %d records older than %d days", deleted, DefaultAuditRetentionDays)
	}
}
