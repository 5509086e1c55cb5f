package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/task-manager/internal/api/middleware"
	"github.com/taskboard/task-manager/internal/core/domain"
)

type requestIdentity struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

// ctxIdentity reads the claims injected by the Auth middleware. A missing
// user id means the route was mounted without Auth.
func ctxIdentity(c echo.Context) (requestIdentity, error) {
	id, ok := c.Get(middleware.ContextUserID).(int64)
	if !ok || id == 0 {
		return requestIdentity{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	email, _ := c.Get(middleware.ContextEmail).(string)
	role, _ := c.Get(middleware.ContextRole).(domain.Role)
	return requestIdentity{UserID: id, Email: email, Role: role}, nil
}
