package handlers

import (
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MemberHandler struct {
	memberService *services.MemberService
	accessService *services.AccessService
}

func NewMemberHandler(db *gorm.DB) *MemberHandler {
	return &MemberHandler{
		memberService: services.NewMemberService(db),
		accessService: services.NewAccessService(db),
	}
}

// List returns the organization's roster
// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	members, err := h.memberService.List(ctx)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, members)
}

// Add enrolls an account in the organization
// POST /api/members
func (h *MemberHandler) Add(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.AddMember(ctx, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, member)
}

type updateRoleRequest struct {
	Role models.OrgRole `json:"role" binding:"required"`
}

// UpdateRole changes a member's role
// PUT /api/members/:id/role
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.UpdateRole(ctx, id, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, member)
}

// Remove takes a member out of the organization
// DELETE /api/members/:id
func (h *MemberHandler) Remove(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	id := paramID(c, "id")
	if id == 0 {
		return
	}

	if err := h.memberService.RemoveMember(ctx, id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed"})
}
