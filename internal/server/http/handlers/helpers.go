package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/app"
	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/dto"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/middleware"
)

// CurrentPrincipal extracts the authenticated identity from context.
func CurrentPrincipal(c *gin.Context) app.Principal {
	var p app.Principal
	if val, ok := c.Get(middleware.UserIDContextKey); ok {
		p.UserID, _ = val.(int64)
	}
	if val, ok := c.Get(middleware.UserRoleContextKey); ok {
		if role, ok := val.(model.Role); ok {
			p.Role = role
		}
	}
	return p
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// errorStatus maps domain errors onto response codes shared across handlers.
// Auth endpoints carry their own mapping.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrConflict),
		errors.Is(err, domainErrors.ErrSlotsUnavailable),
		errors.Is(err, domainErrors.ErrDuplicateApplication),
		errors.Is(err, domainErrors.ErrAlreadyPaid),
		errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrIllegalTransition),
		errors.Is(err, domainErrors.ErrInvalidArgument),
		errors.Is(err, domainErrors.ErrPaymentNotRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, domainErrors.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func patchField(v dto.OptionalString) model.PatchField {
	if !v.Set {
		return model.PatchField{}
	}
	if !v.Valid {
		return model.PatchNull()
	}
	return model.PatchValue(v.Value)
}
