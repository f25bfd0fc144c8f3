package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization owns jobs and members.
type Organization struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	WebhookURL    string         `gorm:"size:500" json:"webhook_url"`
	WebhookSecret string         `gorm:"size:255" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Account represents a login identity. Marketplace seekers and organization
// staff share the same account table; organization access is granted through
// OrganizationMember rows.
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Name      string         `gorm:"size:200" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Job is a posting owned by exactly one organization. Recruiter and hiring
// manager are optional default associations; further reviewer visibility is
// granted through JobAssignment rows.
type Job struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrganizationID  uint           `gorm:"index;not null" json:"organization_id"`
	Organization    *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Title           string         `gorm:"size:200;not null" json:"title"`
	Location        string         `gorm:"size:200" json:"location"`
	Status          string         `gorm:"size:50;default:OPEN" json:"status"` // OPEN, CLOSED
	RecruiterID     *uint          `gorm:"index" json:"recruiter_id"`
	HiringManagerID *uint          `gorm:"index" json:"hiring_manager_id"`
	CreatedBy       uint           `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Job statuses.
const (
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"
)

// Application stages, in pipeline order.
const (
	StageApplied   = "APPLIED"
	StageScreen    = "SCREEN"
	StageInterview = "INTERVIEW"
	StageOffer     = "OFFER"
	StageHired     = "HIRED"
	StageRejected  = "REJECTED"
)

// Application is one seeker's candidacy for one job. Soft-deleted rows are
// excluded from every scoped query.
type Application struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	JobID     uint           `gorm:"index;not null" json:"job_id"`
	Job       *Job           `gorm:"foreignKey:JobID" json:"job,omitempty"`
	SeekerID  uint           `gorm:"index;not null" json:"seeker_id"`
	Seeker    *Account       `gorm:"foreignKey:SeekerID" json:"seeker,omitempty"`
	Stage     string         `gorm:"size:50;default:APPLIED" json:"stage"`
	Source    string         `gorm:"size:100" json:"source"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ApplicationNote is free-form commentary on an application.
type ApplicationNote struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	ApplicationID uint                `gorm:"index;not null" json:"application_id"`
	MemberID      uint                `gorm:"index;not null" json:"member_id"`
	Member        *OrganizationMember `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Body          string              `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TableName overrides
func (Organization) TableName() string    { return "organizations" }
func (Account) TableName() string         { return "accounts" }
func (Job) TableName() string             { return "jobs" }
func (Application) TableName() string     { return "applications" }
func (ApplicationNote) TableName() string { return "application_notes" }
