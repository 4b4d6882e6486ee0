package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/api/metrics"
	"github.com/saudijob/jobboard/internal/core/ports"
)

// AdminHandler serves the moderation endpoints.
type AdminHandler struct {
	jobs     ports.JobService
	sessions ports.AdminSessionService
	now      func() time.Time
}

func NewAdminHandler(jobs ports.JobService, sessions ports.AdminSessionService) *AdminHandler {
	return &AdminHandler{jobs: jobs, sessions: sessions, now: time.Now}
}

// Session handles POST /api/admin/session.
//
// @Summary      Exchange the admin key for a session token
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      sessionRequest  true  "Admin key"
// @Success      200   {object}  domain.AdminSession
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/admin/session [post]
func (h *AdminHandler) Session(c echo.Context) error {
	var req sessionRequest
	if err := decodeStrict(c, &req, false); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.sessions.Issue(c.Request().Context(), req.AdminKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// ListJobs handles GET /api/admin/jobs.
//
// @Summary      List every stored job
// @Description  Includes jobs past the public listing window.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   jobResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/jobs [get]
func (h *AdminHandler) ListJobs(c echo.Context) error {
	jobs, err := h.jobs.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toJobResponses(jobs, h.now()))
}

// Purge handles POST /api/admin/purge.
//
// @Summary      Purge records past the retention window
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  purgeResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/purge [post]
func (h *AdminHandler) Purge(c echo.Context) error {
	n, err := h.jobs.PurgeExpired(c.Request().Context(), h.now())
	if err != nil {
		return err
	}
	metrics.JobsPurgedTotal.Add(float64(n))
	return c.JSON(http.StatusOK, purgeResponse{Deleted: n})
}
