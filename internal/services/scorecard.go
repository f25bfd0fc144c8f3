package services

import (
	"encoding/json"
	"errors"

	"github.com/canopyhq/canopy/internal/models"
	"gorm.io/gorm"
)

// ScorecardService handles scorecard submission and score retrieval. The
// visibility rules themselves live in ScoringService; this layer does access
// scoping, validation and event publication.
type ScorecardService struct {
	db      *gorm.DB
	apps    *ApplicationService
	scoring *ScoringService
}

func NewScorecardService(db *gorm.DB) *ScorecardService {
	return &ScorecardService{
		db:      db,
		apps:    NewApplicationService(db),
		scoring: NewScoringService(db),
	}
}

type SubmitScorecardRequest struct {
	OverallRating  int                 `json:"overall_rating" binding:"required"`
	Recommendation string              `json:"recommendation" binding:"required"`
	Comments       string              `json:"comments"`
	Responses      []CriterionResponse `json:"responses"`
}

func validRecommendation(r string) bool {
	switch r {
	case models.RecommendStrongYes, models.RecommendYes, models.RecommendNeutral,
		models.RecommendNo, models.RecommendStrongNo:
		return true
	}
	return false
}

// Submit records the context member's evaluation of an application. A member
// submits at most one scorecard per application; resubmitting replaces the
// previous one.
func (s *ScorecardService) Submit(ctx *AuthContext, applicationID uint, req *SubmitScorecardRequest) (*models.Scorecard, error) {
	if !ctx.CanSubmitScorecard() {
		return nil, ErrForbidden
	}
	if req.OverallRating < 1 || req.OverallRating > 5 {
		return nil, ErrInvalidRating
	}
	if !validRecommendation(req.Recommendation) {
		return nil, ErrInvalidRecommend
	}
	for _, r := range req.Responses {
		if r.Rating < 1 || r.Rating > 5 {
			return nil, ErrInvalidRating
		}
	}

	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	responses := "[]"
	if len(req.Responses) > 0 {
		b, err := json.Marshal(req.Responses)
		if err != nil {
			return nil, err
		}
		responses = string(b)
	}

	var card models.Scorecard
	err = s.db.Where("application_id = ? AND scorer_id = ?", app.ID, ctx.MemberID).First(&card).Error
	switch {
	case err == nil:
		card.OverallRating = req.OverallRating
		card.Recommendation = req.Recommendation
		card.Comments = req.Comments
		card.Responses = responses
		if err := s.db.Save(&card).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		card = models.Scorecard{
			ApplicationID:  app.ID,
			ScorerID:       ctx.MemberID,
			OverallRating:  req.OverallRating,
			Recommendation: req.Recommendation,
			Comments:       req.Comments,
			Responses:      responses,
		}
		if err := s.db.Create(&card).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "scorecard.submitted", "scorecard", card.ID, "", map[string]interface{}{
		"application_id": app.ID,
		"overall_rating": req.OverallRating,
	})
	publishEvent(&DomainEvent{
		Type:           EventScorecardSubmitted,
		OrganizationID: ctx.OrganizationID,
		JobID:          app.JobID,
		ApplicationID:  app.ID,
		ActorID:        ctx.MemberID,
		Payload:        map[string]interface{}{"scorecard_id": card.ID},
	})

	return &card, nil
}

// GetScores returns the scorecards of an application the context may see,
// the application's blind-review state and, when all scores are visible,
// their aggregate.
func (s *ScorecardService) GetScores(ctx *AuthContext, applicationID uint) (*ScoresResult, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return s.scoring.GetScoresForApplication(&ScoresRequest{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		RequesterID:   ctx.MemberID,
		RequesterRole: ctx.Role,
	}), nil
}

// GetBlindReviewStatus exposes the blind-review state of one application.
func (s *ScorecardService) GetBlindReviewStatus(ctx *AuthContext, applicationID uint) (*BlindReviewStatus, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	status := s.scoring.GetBlindReviewStatus(app.ID, app.JobID)
	return &status, nil
}
