package handlers

import (
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ScorecardHandler struct {
	scorecardService *services.ScorecardService
	accessService    *services.AccessService
}

func NewScorecardHandler(db *gorm.DB) *ScorecardHandler {
	return &ScorecardHandler{
		scorecardService: services.NewScorecardService(db),
		accessService:    services.NewAccessService(db),
	}
}

// Submit records the caller's scorecard for an application
// POST /api/applications/:id/scorecards
func (h *ScorecardHandler) Submit(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitScorecardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	card, err := h.scorecardService.Submit(ctx, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, card)
}

// GetScores returns the scorecards the caller may see, the blind-review
// state and the aggregate once all scores are visible
// GET /api/applications/:id/scorecards
func (h *ScorecardHandler) GetScores(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	result, err := h.scorecardService.GetScores(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// GetBlindReviewStatus returns the blind-review state of an application
// GET /api/applications/:id/blind-review
func (h *ScorecardHandler) GetBlindReviewStatus(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	status, err := h.scorecardService.GetBlindReviewStatus(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, status)
}
