package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRBAC(t *testing.T) {
	cases := []struct {
		name    string
		role    any
		allowed bool
	}{
		{"admin", "admin", true},
		{"other role", "seeker", false},
		{"no role", nil, false},
		{"non-string role", 42, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tc.role != nil {
				c.Set(ContextRole, tc.role)
			}

			reached := false
			err := RBAC("admin", "owner")(func(echo.Context) error {
				reached = true
				return nil
			})(c)

			if reached != tc.allowed {
				t.Fatalf("reached = %v, want %v", reached, tc.allowed)
			}
			if tc.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %v", err)
			}
		})
	}
}
