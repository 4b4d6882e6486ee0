package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/saudijob/jobboard/internal/api/middleware"
	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

var handlerNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newJobHandler(svc ports.JobService, q ViewQueue) *JobHandler {
	h := NewJobHandler(svc, q)
	h.now = func() time.Time { return handlerNow }
	return h
}

func TestJobHandler_List(t *testing.T) {
	until := handlerNow.Add(time.Hour)
	svc := &stubJobService{
		listVisibleFn: func(_ context.Context, now time.Time) ([]domain.Job, error) {
			if !now.Equal(handlerNow) {
				t.Fatalf("unexpected now %v", now)
			}
			return []domain.Job{
				{ID: "b", JobRole: "Cook", CreatedAt: handlerNow.Add(-time.Hour), IsUrgent: true, UrgentUntil: &until},
				{ID: "a", JobRole: "Driver", CreatedAt: handlerNow.Add(-2 * time.Hour)},
			}, nil
		},
	}
	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/jobs", "")

	if err := newJobHandler(svc, nil).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["id"] != "b" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp[0]["isUrgentNow"] != true || resp[1]["isUrgentNow"] != false {
		t.Fatalf("isUrgentNow not computed: %+v", resp)
	}
	if got, ok := resp[0]["postedAt"].(float64); !ok || int64(got) != handlerNow.Add(-time.Hour).UnixMilli() {
		t.Fatalf("postedAt = %#v, want unix ms number", resp[0]["postedAt"])
	}
	if got, ok := resp[0]["urgentUntil"].(float64); !ok || int64(got) != until.UnixMilli() {
		t.Fatalf("urgentUntil = %#v, want unix ms number", resp[0]["urgentUntil"])
	}
	if _, ok := resp[1]["urgentUntil"]; ok {
		t.Fatalf("urgentUntil should be omitted for a non-urgent job: %+v", resp[1])
	}
}

func TestJobHandler_ListEmptyIsArray(t *testing.T) {
	svc := &stubJobService{
		listVisibleFn: func(context.Context, time.Time) ([]domain.Job, error) { return nil, nil },
	}
	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/jobs", "")

	if err := newJobHandler(svc, nil).List(c); err != nil {
		t.Fatal(err)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("body = %q, want []", got)
	}
}

func TestJobHandler_Create_Success(t *testing.T) {
	svc := &stubJobService{
		createFn: func(_ context.Context, in ports.CreateJobInput) (*domain.Job, error) {
			if in.Email != "alice@x.com" || in.JobRole != "Driver" || !in.IsUrgent {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Job{ID: "j1", Email: in.Email, JobRole: in.JobRole, IsUrgent: true, CreatedAt: handlerNow}, nil
		},
	}
	e := newEcho()
	body := `{"version":1,"fullName":"Alice","phoneNumber":"050","city":"Riyadh","jobRole":"Driver","description":"d","email":"alice@x.com","isUrgent":true}`
	c, rec := newRequest(e, http.MethodPost, "/api/jobs", body)

	if err := newJobHandler(svc, nil).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["id"] != "j1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestJobHandler_Create_RejectsUnknownField(t *testing.T) {
	svc := &stubJobService{
		createFn: func(context.Context, ports.CreateJobInput) (*domain.Job, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	e := newEcho()
	c, _ := newRequest(e, http.MethodPost, "/api/jobs", `{"name":"Alice","email":"a@x.com"}`)

	err := newJobHandler(svc, nil).Create(c)
	if statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestJobHandler_Create_RejectsBadJSONAndVersion(t *testing.T) {
	svc := &stubJobService{}
	e := newEcho()

	for _, body := range []string{`{`, `{"email":"a@x.com","version":2}`, `{"email":"a@x.com"}{}`} {
		c, _ := newRequest(e, http.MethodPost, "/api/jobs", body)
		if err := newJobHandler(svc, nil).Create(c); statusOf(err) != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %v", body, err)
		}
	}
}

func TestJobHandler_Create_MissingEmail(t *testing.T) {
	svc := &stubJobService{}
	e := newEcho()
	c, _ := newRequest(e, http.MethodPost, "/api/jobs", `{"fullName":"Alice"}`)

	err := newJobHandler(svc, nil).Create(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobHandler_Create_QuotaExceeded(t *testing.T) {
	svc := &stubJobService{
		createFn: func(context.Context, ports.CreateJobInput) (*domain.Job, error) {
			return nil, domain.ErrQuotaExceeded
		},
	}
	e := newEcho()
	c, _ := newRequest(e, http.MethodPost, "/api/jobs", `{"email":"a@x.com","isUrgent":true}`)

	if err := newJobHandler(svc, nil).Create(c); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestJobHandler_Update_PassesOnlySuppliedFields(t *testing.T) {
	svc := &stubJobService{
		updateFn: func(_ context.Context, id string, in ports.UpdateJobInput) (*domain.Job, error) {
			if id != "j1" || in.Email != "alice@x.com" {
				t.Fatalf("unexpected call: %s %+v", id, in)
			}
			if in.City == nil || *in.City != "Jeddah" {
				t.Fatalf("city not passed: %+v", in)
			}
			if in.IsUrgent != nil || in.FullName != nil {
				t.Fatalf("omitted fields must stay nil: %+v", in)
			}
			if in.Admin {
				t.Fatal("anonymous caller marked admin")
			}
			return &domain.Job{ID: id, City: *in.City, CreatedAt: handlerNow}, nil
		},
	}
	e := newEcho()
	c, rec := newRequest(e, http.MethodPut, "/api/jobs/j1", `{"email":"alice@x.com","city":"Jeddah"}`, "id", "j1")

	if err := newJobHandler(svc, nil).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJobHandler_Update_AdminSession(t *testing.T) {
	svc := &stubJobService{
		updateFn: func(_ context.Context, id string, in ports.UpdateJobInput) (*domain.Job, error) {
			if !in.Admin {
				t.Fatal("admin session not propagated")
			}
			return &domain.Job{ID: id}, nil
		},
	}
	e := newEcho()
	c, _ := newRequest(e, http.MethodPut, "/api/jobs/j1", `{"city":"Jeddah"}`, "id", "j1")
	c.Set(middleware.ContextRole, domain.RoleAdmin)

	if err := newJobHandler(svc, nil).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestJobHandler_Update_Forbidden(t *testing.T) {
	svc := &stubJobService{
		updateFn: func(context.Context, string, ports.UpdateJobInput) (*domain.Job, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	e := newEcho()
	c, _ := newRequest(e, http.MethodPut, "/api/jobs/j1", `{"email":"bob@x.com","city":"X"}`, "id", "j1")

	if err := newJobHandler(svc, nil).Update(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJobHandler_Delete_EmptyBodyAllowed(t *testing.T) {
	called := false
	svc := &stubJobService{
		deleteFn: func(_ context.Context, id string, in ports.DeleteJobInput) error {
			called = true
			if in.Email != "" || in.AdminKey != "" {
				t.Fatalf("unexpected credentials: %+v", in)
			}
			return domain.ErrUnauthorized
		},
	}
	e := newEcho()
	c, _ := newRequest(e, http.MethodDelete, "/api/jobs/j1", "", "id", "j1")

	if err := newJobHandler(svc, nil).Delete(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !called {
		t.Fatal("service not called")
	}
}

func TestJobHandler_Delete_WithAdminKey(t *testing.T) {
	svc := &stubJobService{
		deleteFn: func(_ context.Context, id string, in ports.DeleteJobInput) error {
			if in.AdminKey != "k" {
				t.Fatalf("admin key not passed: %+v", in)
			}
			return nil
		},
	}
	e := newEcho()
	c, rec := newRequest(e, http.MethodDelete, "/api/jobs/j1", `{"adminKey":"k"}`, "id", "j1")

	if err := newJobHandler(svc, nil).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["message"] != "Job deleted successfully" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestJobHandler_View_Enqueues(t *testing.T) {
	q := &recordingQueue{}
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/jobs/j1/view", "", "id", "j1")

	if err := newJobHandler(&stubJobService{}, q).View(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"success\":true}\n" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if len(q.ids) != 1 || q.ids[0] != "j1" {
		t.Fatalf("queue = %v", q.ids)
	}
}

func TestJobHandler_View_InlineErrorSwallowed(t *testing.T) {
	svc := &stubJobService{
		recordViewFn: func(context.Context, string) error { return domain.ErrStorageUnavailable },
	}
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/jobs/j1/view", "", "id", "j1")

	if err := newJobHandler(svc, nil).View(c); err != nil {
		t.Fatalf("view must not fail: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
