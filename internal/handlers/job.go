package handlers

import (
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type JobHandler struct {
	jobService    *services.JobService
	accessService *services.AccessService
}

func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{
		jobService:    services.NewJobService(db),
		accessService: services.NewAccessService(db),
	}
}

// List returns the jobs visible to the caller
// GET /api/jobs
func (h *JobHandler) List(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	var req services.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.jobService.List(ctx, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// Get returns one job
// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	job, err := h.jobService.Get(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, job)
}

// Create opens a new job posting
// POST /api/jobs
func (h *JobHandler) Create(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	var req services.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	job, err := h.jobService.Create(ctx, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, job)
}

// Update modifies a job posting
// PUT /api/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	job, err := h.jobService.Update(ctx, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, job)
}

// Delete soft-deletes a job
// DELETE /api/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	if err := h.jobService.Delete(ctx, id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "job deleted"})
}

// ListAssignments returns a job's reviewer roster
// GET /api/jobs/:id/assignments
func (h *JobHandler) ListAssignments(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	assignments, err := h.jobService.ListAssignments(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, assignments)
}

type assignmentRequest struct {
	MemberID uint `json:"member_id" binding:"required"`
}

// AddAssignment puts a member on a job's reviewer roster
// POST /api/jobs/:id/assignments
func (h *JobHandler) AddAssignment(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	assignment, err := h.jobService.AddAssignment(ctx, id, req.MemberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, assignment)
}

// RemoveAssignment takes a member off a job's reviewer roster
// DELETE /api/jobs/:id/assignments/:memberId
func (h *JobHandler) RemoveAssignment(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}
	memberID := paramID(c, "memberId")
	if memberID == 0 {
		return
	}

	if err := h.jobService.RemoveAssignment(ctx, id, memberID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "assignment removed"})
}
