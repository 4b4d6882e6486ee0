package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// RBAC lets the request through only when the role placed in context by
// Auth is one of roles. It must run after Auth.
func RBAC(roles ...string) echo.MiddlewareFunc {
	forbidden := echo.NewHTTPError(http.StatusForbidden, "forbidden")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, ok := c.Get(ContextRole).(string); !ok || !slices.Contains(roles, role) {
				return forbidden
			}
			return next(c)
		}
	}
}
