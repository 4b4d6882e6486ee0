package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set from a verified token.
const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

var (
	errMissingHeader = echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	errBadHeader     = echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	errBadToken      = echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
)

// Auth requires a valid HS256 bearer token with an expiry and copies its
// subject and role into the echo context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return bearer(jwtSecret, true)
}

// OptionalAuth is Auth for routes that also serve anonymous callers. A
// header that is present but invalid is still rejected.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return bearer(jwtSecret, false)
}

func bearer(jwtSecret string, required bool) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	key := func(*jwt.Token) (any, error) { return []byte(jwtSecret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				if required {
					return errMissingHeader
				}
				return next(c)
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				return errBadHeader
			}
			if jwtSecret == "" {
				return errBadToken
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, key)
			if err != nil || !tkn.Valid {
				return errBadToken
			}

			c.Set(ContextSubject, claims["sub"])
			c.Set(ContextRole, claims["role"])
			return next(c)
		}
	}
}
