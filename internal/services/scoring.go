package services

import (
	"encoding/json"
	"math"
	"time"

	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/pkg/logger"
	"gorm.io/gorm"
)

// ScoringService gates visibility of peer scorecards until the blind-review
// quorum is met and computes aggregates once they are visible. Read paths
// here inform the UI and never gate security-critical actions, so lookup
// failures degrade to a safe logged default instead of erroring the request.
type ScoringService struct {
	db *gorm.DB
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{db: db}
}

// BlindReviewStatus describes the blind-review state of one application.
type BlindReviewStatus struct {
	TotalAssigned  int64 `json:"total_assigned"`
	Submitted      int64 `json:"submitted"`
	IsBlindEnabled bool  `json:"is_blind_enabled"`
	IsBlindLifted  bool  `json:"is_blind_lifted"`
}

// permissiveBlindReviewStatus is the fail-open fallback when counts cannot be
// read. Lifting blind here does not leak stored scores: the score fetch is
// still scoped by requester when visibility is restricted.
func permissiveBlindReviewStatus() BlindReviewStatus {
	return BlindReviewStatus{IsBlindLifted: true}
}

// GetBlindReviewStatus derives the blind-review state for an application.
// Blind review is enabled iff the job has at least one reviewer assignment,
// and lifts once the number of submitted scorecards reaches the roster size.
// Submissions are counted per application regardless of roster membership.
func (s *ScoringService) GetBlindReviewStatus(applicationID, jobID uint) BlindReviewStatus {
	var totalAssigned int64
	if err := s.db.Model(&models.JobAssignment{}).
		Where("job_id = ?", jobID).
		Count(&totalAssigned).Error; err != nil {
		logger.Error().Err(err).Uint("job_id", jobID).Msg("blind review: counting assignments failed")
		return permissiveBlindReviewStatus()
	}

	var submitted int64
	if err := s.db.Model(&models.Scorecard{}).
		Where("application_id = ?", applicationID).
		Count(&submitted).Error; err != nil {
		logger.Error().Err(err).Uint("application_id", applicationID).Msg("blind review: counting scorecards failed")
		return permissiveBlindReviewStatus()
	}

	return deriveBlindReviewStatus(totalAssigned, submitted)
}

// deriveBlindReviewStatus derives the blind-review state from the roster size
// and the number of submitted scorecards. Blind review is enabled iff the job
// has a roster, and lifts once submissions reach the roster size regardless
// of who submitted them.
func deriveBlindReviewStatus(totalAssigned, submitted int64) BlindReviewStatus {
	enabled := totalAssigned > 0
	return BlindReviewStatus{
		TotalAssigned:  totalAssigned,
		Submitted:      submitted,
		IsBlindEnabled: enabled,
		IsBlindLifted:  !enabled || submitted >= totalAssigned,
	}
}

// CriterionResponse is one parsed per-criterion entry of a scorecard. Weight
// is optional; a missing weight counts as 1 in the weighted average and an
// explicit 0 excludes the criterion from it.
type CriterionResponse struct {
	CriterionID    string   `json:"criterion_id"`
	CriterionLabel string   `json:"criterion_label"`
	Rating         float64  `json:"rating"`
	Weight         *float64 `json:"weight,omitempty"`
}

// ScorecardResult is the externally visible shape of one scorecard.
type ScorecardResult struct {
	ID             uint                `json:"id"`
	ScorerID       uint                `json:"scorer_id"`
	ScorerName     string              `json:"scorer_name"`
	OverallRating  int                 `json:"overall_rating"`
	Recommendation string              `json:"recommendation"`
	Comments       string              `json:"comments"`
	Responses      []CriterionResponse `json:"responses"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// RecommendationCounts is the histogram over the five recommendation labels.
type RecommendationCounts struct {
	StrongYes int `json:"strong_yes"`
	Yes       int `json:"yes"`
	Neutral   int `json:"neutral"`
	No        int `json:"no"`
	StrongNo  int `json:"strong_no"`
}

// CriterionAverage aggregates one criterion across all visible scorecards.
type CriterionAverage struct {
	CriterionID    string  `json:"criterion_id"`
	CriterionLabel string  `json:"criterion_label"`
	AverageRating  float64 `json:"average_rating"`
	Weight         float64 `json:"weight"`
}

// AggregateScores is the computed summary over a set of scorecards.
type AggregateScores struct {
	AverageRating     float64              `json:"average_rating"`
	TotalScores       int                  `json:"total_scores"`
	Recommendations   RecommendationCounts `json:"recommendations"`
	CriterionAverages []CriterionAverage   `json:"criterion_averages"`
	WeightedScore     float64              `json:"weighted_score"` // 0-100
}

type ScoresRequest struct {
	ApplicationID uint
	JobID         uint
	RequesterID   uint // member id
	RequesterRole models.OrgRole
}

type ScoresResult struct {
	Scores      []ScorecardResult `json:"scores"`
	BlindReview BlindReviewStatus `json:"blind_review"`
	Aggregate   *AggregateScores  `json:"aggregate"`
}

// GetScoresForApplication returns the scorecards the requester may see.
// During the blind period a non-privileged requester sees only their own
// scorecards and no aggregate; OWNER, ADMIN and RECRUITER always see
// everything. The aggregate is computed only when all scores are visible, so
// no partial signal leaks while blind review is in effect.
func (s *ScoringService) GetScoresForApplication(req *ScoresRequest) *ScoresResult {
	blind := s.GetBlindReviewStatus(req.ApplicationID, req.JobID)
	showAll := blind.IsBlindLifted || req.RequesterRole.CanBypassBlindReview()

	query := s.db.Preload("Scorer.Account").
		Where("application_id = ?", req.ApplicationID)
	if !showAll {
		query = query.Where("scorer_id = ?", req.RequesterID)
	}

	var rows []models.Scorecard
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		logger.Error().Err(err).Uint("application_id", req.ApplicationID).Msg("fetching scorecards failed")
		return &ScoresResult{
			Scores:      []ScorecardResult{},
			BlindReview: permissiveBlindReviewStatus(),
			Aggregate:   nil,
		}
	}

	scores := make([]ScorecardResult, 0, len(rows))
	for i := range rows {
		scores = append(scores, mapScorecard(&rows[i]))
	}

	var aggregate *AggregateScores
	if showAll && len(scores) > 0 {
		agg := ComputeAggregateScores(scores)
		aggregate = &agg
	}

	return &ScoresResult{
		Scores:      scores,
		BlindReview: blind,
		Aggregate:   aggregate,
	}
}

// mapScorecard converts a stored row into its result shape. Malformed or
// missing serialized responses degrade to an empty list, never an error.
func mapScorecard(row *models.Scorecard) ScorecardResult {
	responses := []CriterionResponse{}
	if row.Responses != "" {
		if err := json.Unmarshal([]byte(row.Responses), &responses); err != nil {
			logger.Warn().Err(err).Uint("scorecard_id", row.ID).Msg("unparseable scorecard responses")
			responses = []CriterionResponse{}
		}
	}

	name := ""
	if row.Scorer != nil && row.Scorer.Account != nil {
		name = row.Scorer.Account.Name
		if name == "" {
			name = row.Scorer.Account.Email
		}
	}

	return ScorecardResult{
		ID:             row.ID,
		ScorerID:       row.ScorerID,
		ScorerName:     name,
		OverallRating:  row.OverallRating,
		Recommendation: row.Recommendation,
		Comments:       row.Comments,
		Responses:      responses,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// ComputeAggregateScores computes summary statistics over scorecards. Pure
// function, no I/O. Per criterion, the weight of the first occurrence seen
// wins; later divergent weights are ignored. A criterion rated by a single
// scorecard is aggregated as-is. Empty input yields a zeroed structure.
func ComputeAggregateScores(scores []ScorecardResult) AggregateScores {
	agg := AggregateScores{CriterionAverages: []CriterionAverage{}}
	if len(scores) == 0 {
		return agg
	}

	agg.TotalScores = len(scores)

	ratingSum := 0.0
	for _, sc := range scores {
		ratingSum += float64(sc.OverallRating)

		switch sc.Recommendation {
		case models.RecommendStrongYes:
			agg.Recommendations.StrongYes++
		case models.RecommendYes:
			agg.Recommendations.Yes++
		case models.RecommendNeutral:
			agg.Recommendations.Neutral++
		case models.RecommendNo:
			agg.Recommendations.No++
		case models.RecommendStrongNo:
			agg.Recommendations.StrongNo++
		}
	}
	averageRating := ratingSum / float64(len(scores))
	agg.AverageRating = round2(averageRating)

	type criterionAcc struct {
		label  string
		weight float64
		sum    float64
		count  int
	}
	var order []string
	groups := make(map[string]*criterionAcc)

	for _, sc := range scores {
		for _, r := range sc.Responses {
			acc, ok := groups[r.CriterionID]
			if !ok {
				weight := 1.0
				if r.Weight != nil {
					weight = *r.Weight
				}
				acc = &criterionAcc{label: r.CriterionLabel, weight: weight}
				groups[r.CriterionID] = acc
				order = append(order, r.CriterionID)
			}
			acc.sum += r.Rating
			acc.count++
		}
	}

	weightedSum := 0.0
	weightTotal := 0.0
	for _, id := range order {
		acc := groups[id]
		avg := acc.sum / float64(acc.count)
		agg.CriterionAverages = append(agg.CriterionAverages, CriterionAverage{
			CriterionID:    id,
			CriterionLabel: acc.label,
			AverageRating:  round2(avg),
			Weight:         acc.weight,
		})
		weightedSum += avg * acc.weight
		weightTotal += acc.weight
	}

	// Normalize the 1-5 scale to 0-100. Legacy scorecards without responses
	// fall back to the overall rating.
	if weightTotal > 0 {
		agg.WeightedScore = round2(weightedSum / weightTotal / 5 * 100)
	} else {
		agg.WeightedScore = round2(averageRating / 5 * 100)
	}

	return agg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
