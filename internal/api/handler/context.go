package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/api/middleware"
	"github.com/saudijob/jobboard/internal/core/domain"
)

// isAdmin reports whether the request carried a verified admin session
// token. Presence of the role proves OptionalAuth or Auth ran.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.ContextRole).(string)
	return role == domain.RoleAdmin
}
