package models

import (
	"time"

	"gorm.io/gorm"
)

// Recommendation labels on a scorecard.
const (
	RecommendStrongYes = "STRONG_YES"
	RecommendYes       = "YES"
	RecommendNeutral   = "NEUTRAL"
	RecommendNo        = "NO"
	RecommendStrongNo  = "STRONG_NO"
)

// Scorecard is one reviewer's structured evaluation of one application.
// Responses holds a serialized JSON array of per-criterion entries:
// [{"criterion_id","criterion_label","rating","weight"}]. Uniqueness per
// (application, scorer) is a caller concern, not enforced here.
type Scorecard struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ApplicationID  uint                `gorm:"index;not null" json:"application_id"`
	Application    *Application        `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	ScorerID       uint                `gorm:"index;not null" json:"scorer_id"`
	Scorer         *OrganizationMember `gorm:"foreignKey:ScorerID" json:"scorer,omitempty"`
	OverallRating  int                 `gorm:"not null" json:"overall_rating"` // 1-5
	Recommendation string              `gorm:"size:20;not null" json:"recommendation"`
	Comments       string              `gorm:"type:text" json:"comments"`
	Responses      string              `gorm:"type:text" json:"responses"`
	CreatedAt      time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Scorecard) TableName() string { return "scorecards" }
