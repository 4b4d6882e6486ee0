package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// statusClientClosed is the nginx convention for a request abandoned by the
// client before the response was written.
const statusClientClosed = 499

type errorResponse struct {
	Error string `json:"error"`
}

// errorRule maps a sentinel to a response. An empty message means the
// error text itself is safe to show.
type errorRule struct {
	target  error
	status  int
	message string
	warn    bool
}

var errorRules = []errorRule{
	{target: domain.ErrJobNotFound, status: http.StatusNotFound, message: "job not found"},
	{target: domain.ErrUnauthorized, status: http.StatusForbidden, message: "unauthorized"},
	{target: domain.ErrValidation, status: http.StatusUnprocessableEntity},
	{target: domain.ErrQuotaExceeded, status: http.StatusTooManyRequests, message: "no urgent posts left today"},
	{target: domain.ErrStorageUnavailable, status: http.StatusServiceUnavailable, message: "service temporarily unavailable", warn: true},
	{target: context.Canceled, status: statusClientClosed, message: "request cancelled"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Domain
// sentinels get fixed status codes, echo errors keep theirs, and anything
// else is logged and returned as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := classify(err, log, c)
		_ = c.JSON(status, errorResponse{Error: msg})
	}
}

func classify(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, r := range errorRules {
		if !errors.Is(err, r.target) {
			continue
		}
		if r.warn {
			log.Warn().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed on storage")
		}
		if r.message == "" {
			return r.status, strings.TrimPrefix(err.Error(), r.target.Error()+": ")
		}
		return r.status, r.message
	}

	log.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}
