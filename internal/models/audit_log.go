package models

import "time"

// AuditLog records privileged mutations (stage moves, roster edits,
// scorecard submissions) for later inspection.
type AuditLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID *uint     `gorm:"index" json:"organization_id"`
	ActorID        *uint     `gorm:"index" json:"actor_id"` // member id, nil for system actions
	Action         string    `gorm:"size:100;index" json:"action"`
	Entity         string    `gorm:"size:50;index" json:"entity"`
	EntityID       uint      `json:"entity_id"`
	Message        string    `gorm:"type:text" json:"message"`
	IP             string    `gorm:"size:50" json:"ip"`
	UserAgent      string    `gorm:"size:500" json:"user_agent"`
	Extra          string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
