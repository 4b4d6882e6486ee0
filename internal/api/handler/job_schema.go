package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// schemaVersion is the only request body version accepted. It is optional
// in requests; clients that send it must send this value.
const schemaVersion = 1

const maxBodyBytes = 64 << 10

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createJobRequest struct {
	Version     *int   `json:"version,omitempty"`
	FullName    string `json:"fullName"    validate:"max=120"`
	PhoneNumber string `json:"phoneNumber" validate:"max=40"`
	City        string `json:"city"        validate:"max=120"`
	JobRole     string `json:"jobRole"     validate:"max=120"`
	Description string `json:"description" validate:"max=4000"`
	Email       string `json:"email"       validate:"notblank,max=254"`
	Company     string `json:"company"     validate:"max=120"`
	IsUrgent    bool   `json:"isUrgent"`
}

type updateJobRequest struct {
	Version     *int    `json:"version,omitempty"`
	Email       string  `json:"email"       validate:"max=254"`
	AdminKey    string  `json:"adminKey"`
	FullName    *string `json:"fullName"    validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=40"`
	City        *string `json:"city"        validate:"omitempty,max=120"`
	JobRole     *string `json:"jobRole"     validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	IsUrgent    *bool   `json:"isUrgent"`
}

type deleteJobRequest struct {
	Version  *int   `json:"version,omitempty"`
	Email    string `json:"email"`
	AdminKey string `json:"adminKey"`
}

type rewardRequest struct {
	Email string `json:"email" validate:"notblank,max=254"`
}

type sessionRequest struct {
	AdminKey string `json:"adminKey" validate:"required"`
}

// --- Response types ---

type jobResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
	City        string    `json:"city"`
	JobRole     string    `json:"jobRole"`
	Description string    `json:"description"`
	Company     string    `json:"company,omitempty"`
	IsUrgent    bool      `json:"isUrgent"`
	IsUrgentNow bool      `json:"isUrgentNow"`
	UrgentUntil *int64    `json:"urgentUntil,omitempty"`
	Views       int64     `json:"views"`
	PostedAt    int64     `json:"postedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

type alertsResponse struct {
	Count int           `json:"count"`
	Jobs  []jobResponse `json:"jobs"`
}

// decodeStrict reads a single JSON object into dst, rejecting unknown fields
// and trailing data. An empty body is accepted only when allowEmpty is set.
func decodeStrict(c echo.Context, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: unexpected data after object")
	}
	return nil
}

func checkVersion(v *int) error {
	if v != nil && *v != schemaVersion {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported request version")
	}
	return nil
}
