package ports

import (
	"context"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// CreateJobInput is the DTO passed from the transport layer to JobService.
type CreateJobInput struct {
	FullName    string
	PhoneNumber string
	City        string
	JobRole     string
	Description string
	Email       string
	Company     string
	IsUrgent    bool
}

// UpdateJobInput carries the caller credentials and the fields to change.
// Nil fields are left untouched.
type UpdateJobInput struct {
	Email    string
	AdminKey string
	// Admin is set by the transport layer when the caller presented a valid
	// admin session token.
	Admin bool

	FullName    *string
	PhoneNumber *string
	City        *string
	JobRole     *string
	Description *string
	IsUrgent    *bool
}

type DeleteJobInput struct {
	Email    string
	AdminKey string
	Admin    bool
}

// JobService defines use-case operations for job listings.
type JobService interface {
	ListVisible(ctx context.Context, now time.Time) ([]domain.Job, error)
	ListAll(ctx context.Context) ([]domain.Job, error)
	Create(ctx context.Context, input CreateJobInput) (*domain.Job, error)
	Update(ctx context.Context, id string, input UpdateJobInput) (*domain.Job, error)
	Delete(ctx context.Context, id string, input DeleteJobInput) error
	RecordView(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
