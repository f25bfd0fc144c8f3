package handlers

import (
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	appService    *services.ApplicationService
	accessService *services.AccessService
}

func NewApplicationHandler(db *gorm.DB) *ApplicationHandler {
	return &ApplicationHandler{
		appService:    services.NewApplicationService(db),
		accessService: services.NewAccessService(db),
	}
}

// List returns the applications visible to the caller
// GET /api/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	var req services.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.appService.List(ctx, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// Get returns one application
// GET /api/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	app, err := h.appService.Get(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, app)
}

// Create records a new candidacy
// POST /api/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.appService.Create(ctx, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, app)
}

type updateStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// UpdateStage moves an application to a new pipeline stage
// PUT /api/applications/:id/stage
func (h *ApplicationHandler) UpdateStage(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.appService.UpdateStage(ctx, id, req.Stage)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, app)
}

// Delete soft-deletes an application
// DELETE /api/applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	if err := h.appService.Delete(ctx, id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "application deleted"})
}

// ListNotes returns an application's notes
// GET /api/applications/:id/notes
func (h *ApplicationHandler) ListNotes(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	notes, err := h.appService.ListNotes(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, notes)
}

// AddNote attaches a note to an application
// POST /api/applications/:id/notes
func (h *ApplicationHandler) AddNote(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req services.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	note, err := h.appService.AddNote(ctx, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, note)
}
