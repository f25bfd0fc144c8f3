package models

import "time"

// OrganizationMember represents an account's membership and role within an
// organization. An account is expected to hold at most one membership.
// Removal deletes the row outright: keeping a soft-deleted row around would
// block re-enrolling the same account through the unique index.
type OrganizationMember struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrganizationID uint          `gorm:"uniqueIndex:idx_org_account;not null" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	AccountID      uint          `gorm:"uniqueIndex:idx_org_account;not null" json:"account_id"`
	Account        *Account      `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Role           OrgRole       `gorm:"size:50;default:MEMBER" json:"role"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (OrganizationMember) TableName() string { return "organization_members" }

// JobAssignment grants a member reviewer duty and visibility on a job beyond
// the recruiter / hiring-manager defaults. The set of assignments for a job
// is also its blind-review roster.
type JobAssignment struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	JobID     uint                `gorm:"uniqueIndex:idx_job_member;not null" json:"job_id"`
	Job       *Job                `gorm:"foreignKey:JobID" json:"job,omitempty"`
	MemberID  uint                `gorm:"uniqueIndex:idx_job_member;not null" json:"member_id"`
	Member    *OrganizationMember `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	CreatedBy uint                `json:"created_by"`
	CreatedAt time.Time           `json:"created_at"`
}

func (JobAssignment) TableName() string { return "job_assignments" }
