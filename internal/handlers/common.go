package handlers

import (
	"errors"
	"strconv"

	"github.com/canopyhq/canopy/internal/middleware"
	"github.com/canopyhq/canopy/internal/services"
	"github.com/canopyhq/canopy/pkg/response"
	"github.com/gin-gonic/gin"
)

// resolveContext turns the authenticated account into a full access scope.
// Writes the error response itself and returns nil when resolution fails.
func resolveContext(c *gin.Context, access *services.AccessService) *services.AuthContext {
	ctx, err := access.ResolveAuthContext(middleware.GetAccountID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			response.Unauthorized(c, "unauthenticated")
		case errors.Is(err, services.ErrNotAMember):
			response.Forbidden(c, "not a member of any organization")
		default:
			response.ServerError(c, "failed to resolve access scope")
		}
		return nil
	}
	return ctx
}

// handleServiceError maps service sentinel errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		response.Forbidden(c, "forbidden")
	case errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrApplicationNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidStage),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidRecommend):
		response.BadRequest(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// paramID parses a numeric path parameter. Writes the error response itself
// and returns 0 when parsing fails.
func paramID(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0
	}
	return uint(id)
}
