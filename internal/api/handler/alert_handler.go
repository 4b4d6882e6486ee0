package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/core/alerts"
	"github.com/saudijob/jobboard/internal/core/ports"
)

// AlertHandler matches visible jobs against a seeker's followed roles.
type AlertHandler struct {
	service ports.JobService
	now     func() time.Time
}

func NewAlertHandler(service ports.JobService) *AlertHandler {
	return &AlertHandler{service: service, now: time.Now}
}

// Get handles GET /api/alerts.
//
// @Summary      Job alerts
// @Description  Visible jobs whose role contains a followed keyword. count is the number posted after since.
// @Tags         alerts
// @Produce      json
// @Param        role   query     []string  true   "Followed role keywords (repeatable or comma separated)"
// @Param        since  query     int       false  "Last alert check, unix milliseconds"
// @Success      200    {object}  alertsResponse
// @Failure      400    {object}  errorResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) Get(c echo.Context) error {
	var roles []string
	for _, v := range c.QueryParams()["role"] {
		roles = append(roles, strings.Split(v, ",")...)
	}

	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be unix milliseconds")
		}
		since = time.UnixMilli(ms)
	}

	now := h.now()
	jobs, err := h.service.ListVisible(c.Request().Context(), now)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, alertsResponse{
		Count: alerts.CountNewMatches(jobs, roles, since),
		Jobs:  toJobResponses(alerts.MatchingJobs(jobs, roles), now),
	})
}
