package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/services"
)

// respondError writes the API error matching the kind of err. Unclassified
// errors are attached to the context for the request logger and answered
// with a generic 500.
func respondError(c *gin.Context, err error) {
	var fieldErr *dto.FieldError
	if errors.As(err, &fieldErr) {
		apierrors.BadRequestWithDetails(c, fieldErr.Error(), gin.H{"field": fieldErr.Field})
		return
	}

	switch services.Kind(err) {
	case services.ErrValidation:
		apierrors.BadRequest(c, err.Error())
	case services.ErrAuth:
		apierrors.Unauthorized(c, err.Error())
	case services.ErrForbidden:
		apierrors.Forbidden(c, err.Error())
	case services.ErrNotFound:
		apierrors.NotFound(c, err.Error())
	case services.ErrConflict:
		apierrors.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the request body. Binding tag failures are
// answered with the offending field; anything else is a malformed body.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if fieldErr, ok := validationFieldError(err); ok {
			respondError(c, fieldErr)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// currentActor returns the authenticated actor or answers 401.
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return policy.Actor{}, false
	}
	return actor, true
}
