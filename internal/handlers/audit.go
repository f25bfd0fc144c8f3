package handlers

import (
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandler struct {
	auditService  *services.AuditService
	accessService *services.AccessService
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{
		auditService:  services.NewAuditService(db),
		accessService: services.NewAccessService(db),
	}
}

// List returns the organization's audit trail. Restricted to full-access
// roles; restricted members have no business reading the org-wide trail.
// GET /api/audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	ctx := resolveContext(c, h.accessService)
	if ctx == nil {
		return
	}

	if !ctx.HasFullAccess {
		response.Forbidden(c, "forbidden")
		return
	}

	var req services.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auditService.List(ctx.OrganizationID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}
