package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

type stubJobService struct {
	listVisibleFn func(ctx context.Context, now time.Time) ([]domain.Job, error)
	listAllFn     func(ctx context.Context) ([]domain.Job, error)
	createFn      func(ctx context.Context, in ports.CreateJobInput) (*domain.Job, error)
	updateFn      func(ctx context.Context, id string, in ports.UpdateJobInput) (*domain.Job, error)
	deleteFn      func(ctx context.Context, id string, in ports.DeleteJobInput) error
	recordViewFn  func(ctx context.Context, id string) error
	purgeFn       func(ctx context.Context, now time.Time) (int64, error)
}

func (s *stubJobService) ListVisible(ctx context.Context, now time.Time) ([]domain.Job, error) {
	return s.listVisibleFn(ctx, now)
}

func (s *stubJobService) ListAll(ctx context.Context) ([]domain.Job, error) {
	return s.listAllFn(ctx)
}

func (s *stubJobService) Create(ctx context.Context, in ports.CreateJobInput) (*domain.Job, error) {
	return s.createFn(ctx, in)
}

func (s *stubJobService) Update(ctx context.Context, id string, in ports.UpdateJobInput) (*domain.Job, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubJobService) Delete(ctx context.Context, id string, in ports.DeleteJobInput) error {
	return s.deleteFn(ctx, id, in)
}

func (s *stubJobService) RecordView(ctx context.Context, id string) error {
	return s.recordViewFn(ctx, id)
}

func (s *stubJobService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.purgeFn(ctx, now)
}

type stubQuotaService struct {
	getFn   func(ctx context.Context, email string) (domain.QuotaStatus, error)
	grantFn func(ctx context.Context, email string) (domain.QuotaStatus, error)
}

func (s *stubQuotaService) GetStatus(ctx context.Context, email string) (domain.QuotaStatus, error) {
	return s.getFn(ctx, email)
}

func (s *stubQuotaService) TryConsume(context.Context, string) (domain.QuotaStatus, error) {
	panic("not used by handlers")
}

func (s *stubQuotaService) RecordUrgentPost(context.Context, string) (domain.QuotaStatus, error) {
	panic("not used by handlers")
}

func (s *stubQuotaService) GrantExtraCredit(ctx context.Context, email string) (domain.QuotaStatus, error) {
	return s.grantFn(ctx, email)
}

type stubSessions struct {
	issueFn func(ctx context.Context, key string) (domain.AdminSession, error)
}

func (s *stubSessions) Issue(ctx context.Context, key string) (domain.AdminSession, error) {
	return s.issueFn(ctx, key)
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return true
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newRequest builds a JSON request context. params are name/value pairs.
func newRequest(e *echo.Echo, method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
