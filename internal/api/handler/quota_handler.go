package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/api/metrics"
	"github.com/saudijob/jobboard/internal/core/ports"
)

// QuotaHandler exposes the urgent post allowance of an identity.
type QuotaHandler struct {
	service     ports.QuotaService
	rewardDelay time.Duration
}

// NewQuotaHandler wires the handler. rewardDelay is how long the reward
// endpoint holds the request before granting the credit, standing in for
// the rewarded ad the client plays.
func NewQuotaHandler(service ports.QuotaService, rewardDelay time.Duration) *QuotaHandler {
	return &QuotaHandler{service: service, rewardDelay: rewardDelay}
}

// Get handles GET /api/quota.
//
// @Summary      Urgent quota status
// @Tags         quota
// @Produce      json
// @Param        email  query     string  true  "Poster email"
// @Success      200    {object}  domain.QuotaStatus
// @Failure      422    {object}  errorResponse
// @Failure      503    {object}  errorResponse
// @Router       /api/quota [get]
func (h *QuotaHandler) Get(c echo.Context) error {
	status, err := h.service.GetStatus(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// Reward handles POST /api/quota/reward.
//
// @Summary      Grant an extra urgent credit
// @Description  Waits for the configured reward delay, then adds one credit for today.
// @Tags         quota
// @Accept       json
// @Produce      json
// @Param        body  body      rewardRequest  true  "Poster email"
// @Success      200   {object}  domain.QuotaStatus
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/quota/reward [post]
func (h *QuotaHandler) Reward(c echo.Context) error {
	var req rewardRequest
	if err := decodeStrict(c, &req, false); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if h.rewardDelay > 0 {
		t := time.NewTimer(h.rewardDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	status, err := h.service.GrantExtraCredit(ctx, req.Email)
	if err != nil {
		metrics.QuotaDecisionsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.QuotaDecisionsTotal.WithLabelValues("reward").Inc()
	return c.JSON(http.StatusOK, status)
}
