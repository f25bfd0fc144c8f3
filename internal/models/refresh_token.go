package models

import "time"

// RefreshToken stores the hash of an issued refresh token.
type RefreshToken struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AccountID         uint       `gorm:"index;not null" json:"account_id"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
	ReplacedByTokenID *uint      `json:"replaced_by_token_id"`
	CreatedByIP       string     `gorm:"size:50" json:"created_by_ip"`
	UserAgent         string     `gorm:"size:500" json:"user_agent"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }
