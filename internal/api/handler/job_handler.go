package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/api/metrics"
	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

// ViewQueue accepts view increments for asynchronous persistence.
type ViewQueue interface {
	Enqueue(id string) bool
}

// JobHandler handles HTTP requests for job listings.
type JobHandler struct {
	service ports.JobService
	views   ViewQueue
	now     func() time.Time
}

// NewJobHandler wires the handler. With a nil views queue increments are
// applied inline.
func NewJobHandler(service ports.JobService, views ViewQueue) *JobHandler {
	return &JobHandler{service: service, views: views, now: time.Now}
}

// List handles GET /api/jobs.
//
// @Summary      List visible jobs
// @Description  Jobs posted within the listing window, newest first.
// @Tags         jobs
// @Produce      json
// @Success      200  {array}   jobResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	now := h.now()
	jobs, err := h.service.ListVisible(c.Request().Context(), now)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toJobResponses(jobs, now))
}

// Create handles POST /api/jobs.
//
// @Summary      Publish a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        body  body      createJobRequest  true  "Job details"
// @Success      201   {object}  jobResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	var req createJobRequest
	if err := decodeStrict(c, &req, false); err != nil {
		return err
	}
	if err := checkVersion(req.Version); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	job, err := h.service.Create(c.Request().Context(), ports.CreateJobInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		JobRole:     req.JobRole,
		Description: req.Description,
		Email:       req.Email,
		Company:     req.Company,
		IsUrgent:    req.IsUrgent,
	})
	if req.IsUrgent {
		recordQuotaDecision(err)
	}
	if err != nil {
		return err
	}

	metrics.JobsCreatedTotal.WithLabelValues(strconv.FormatBool(job.IsUrgent)).Inc()
	return c.JSON(http.StatusCreated, toJobResponse(*job, h.now()))
}

// Update handles PUT /api/jobs/:id.
//
// @Summary      Update a job
// @Description  Only the poster (matching email) or an admin may update. Omitted fields are unchanged.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Job id"
// @Param        body  body      updateJobRequest  true  "Fields to change"
// @Success      200   {object}  jobResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/jobs/{id} [put]
func (h *JobHandler) Update(c echo.Context) error {
	var req updateJobRequest
	if err := decodeStrict(c, &req, false); err != nil {
		return err
	}
	if err := checkVersion(req.Version); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	job, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateJobInput{
		Email:       req.Email,
		AdminKey:    req.AdminKey,
		Admin:       isAdmin(c),
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		JobRole:     req.JobRole,
		Description: req.Description,
		IsUrgent:    req.IsUrgent,
	})
	metrics.JobMutationsTotal.WithLabelValues("update", mutationResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toJobResponse(*job, h.now()))
}

// Delete handles DELETE /api/jobs/:id.
//
// @Summary      Delete a job
// @Description  Permanently removes a job. Requires the poster email or the admin key.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id    path      string            true   "Job id"
// @Param        body  body      deleteJobRequest  false  "Credentials"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	var req deleteJobRequest
	if err := decodeStrict(c, &req, true); err != nil {
		return err
	}
	if err := checkVersion(req.Version); err != nil {
		return err
	}

	err := h.service.Delete(c.Request().Context(), c.Param("id"), ports.DeleteJobInput{
		Email:    req.Email,
		AdminKey: req.AdminKey,
		Admin:    isAdmin(c),
	})
	metrics.JobMutationsTotal.WithLabelValues("delete", mutationResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Job deleted successfully"})
}

// View handles POST /api/jobs/:id/view. Always succeeds; the increment is
// best effort.
//
// @Summary      Record a view
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  successResponse
// @Router       /api/jobs/{id}/view [post]
func (h *JobHandler) View(c echo.Context) error {
	id := c.Param("id")
	if h.views != nil {
		h.views.Enqueue(id)
	} else {
		_ = h.service.RecordView(c.Request().Context(), id)
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func mutationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrJobNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	default:
		return "error"
	}
}

func recordQuotaDecision(err error) {
	switch {
	case err == nil:
		metrics.QuotaDecisionsTotal.WithLabelValues("granted").Inc()
	case errors.Is(err, domain.ErrQuotaExceeded):
		metrics.QuotaDecisionsTotal.WithLabelValues("exhausted").Inc()
	case errors.Is(err, domain.ErrValidation):
	default:
		metrics.QuotaDecisionsTotal.WithLabelValues("error").Inc()
	}
}
