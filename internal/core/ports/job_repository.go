package ports

import (
	"context"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// JobRepository defines persistence operations for job records.
type JobRepository interface {
	// List returns every stored job with no filtering.
	List(ctx context.Context) ([]domain.Job, error)
	// Create stores a new job. The repository assigns the id; CreatedAt and
	// Views are taken from the argument as set by the service.
	Create(ctx context.Context, job *domain.Job) (*domain.Job, error)
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	// Update applies patch with a single atomic write and returns the result.
	Update(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error)
	Delete(ctx context.Context, id string) error
	// IncrementViews adds exactly one to the view counter. Absent ids are a no-op.
	IncrementViews(ctx context.Context, id string) error
	// DeleteCreatedBefore removes jobs created strictly before cutoff.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
