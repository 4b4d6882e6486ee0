package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// apiClient talks to the public job board API.
type apiClient struct {
	base *url.URL
	http *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) (*apiClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	return &apiClient{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// apiError is a non-2xx response from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// wireJob is a job as the API renders it; postedAt and urgentUntil are unix ms.
type wireJob struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	City        string `json:"city"`
	JobRole     string `json:"jobRole"`
	Description string `json:"description"`
	Company     string `json:"company,omitempty"`
	IsUrgent    bool   `json:"isUrgent"`
	UrgentUntil *int64 `json:"urgentUntil,omitempty"`
	Views       int64  `json:"views"`
	PostedAt    int64  `json:"postedAt"`
}

func (w wireJob) toDomain() domain.Job {
	j := domain.Job{
		ID:          w.ID,
		FullName:    w.FullName,
		PhoneNumber: w.PhoneNumber,
		Email:       w.Email,
		City:        w.City,
		JobRole:     w.JobRole,
		Description: w.Description,
		Company:     w.Company,
		IsUrgent:    w.IsUrgent,
		Views:       w.Views,
		CreatedAt:   time.UnixMilli(w.PostedAt),
	}
	if w.UrgentUntil != nil {
		t := time.UnixMilli(*w.UrgentUntil)
		j.UrgentUntil = &t
	}
	return j
}

func (c *apiClient) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var wire []wireJob
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &wire); err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, len(wire))
	for i, w := range wire {
		jobs[i] = w.toDomain()
	}
	return jobs, nil
}

func (c *apiClient) RecordView(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/view", nil, nil)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
