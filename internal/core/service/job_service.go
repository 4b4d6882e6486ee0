package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/listing"
	"github.com/saudijob/jobboard/internal/core/ports"
)

var _ ports.JobService = (*JobService)(nil)

// DefaultUrgentDuration is how long a newly urgent job stays promoted.
const DefaultUrgentDuration = 24 * time.Hour

// JobServiceConfig tunes the listing lifecycle.
type JobServiceConfig struct {
	// ListingTTL is the public visibility window; zero means listing.DefaultTTL.
	ListingTTL time.Duration
	// UrgentDuration sets UrgentUntil when a job becomes urgent. Zero leaves
	// UrgentUntil unset so urgency lasts while the flag is on.
	UrgentDuration time.Duration
	// Retention is how long records are kept before PurgeExpired deletes
	// them. Zero disables purging. Values below ListingTTL are raised to it.
	Retention time.Duration
	Clock     func() time.Time
}

type JobService struct {
	repo      ports.JobRepository
	quota     ports.QuotaService
	guard     *OwnershipGuard
	engine    listing.Engine
	urgentFor time.Duration
	retention time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewJobService(
	repo ports.JobRepository,
	quota ports.QuotaService,
	guard *OwnershipGuard,
	cfg JobServiceConfig,
	logger zerolog.Logger,
) *JobService {
	ttl := cfg.ListingTTL
	if ttl <= 0 {
		ttl = listing.DefaultTTL
	}
	retention := cfg.Retention
	if retention > 0 && retention < ttl {
		retention = ttl
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	if guard == nil {
		guard = NewOwnershipGuard(nil)
	}
	return &JobService{
		repo:      repo,
		quota:     quota,
		guard:     guard,
		engine:    listing.Engine{TTL: ttl},
		urgentFor: cfg.UrgentDuration,
		retention: retention,
		now:       now,
		logger:    logger,
	}
}

// ListVisible returns the publicly visible jobs, newest first.
func (s *JobService) ListVisible(ctx context.Context, now time.Time) ([]domain.Job, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Active(jobs, now), nil
}

// ListAll returns every stored job including expired ones, newest first.
func (s *JobService) ListAll(ctx context.Context) ([]domain.Job, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	listing.SortNewestFirst(jobs)
	return jobs, nil
}

// Create publishes a new job. An urgent job consumes one of the poster's
// daily urgent credits; when none remain domain.ErrQuotaExceeded is
// returned and nothing is stored.
func (s *JobService) Create(ctx context.Context, in ports.CreateJobInput) (*domain.Job, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}

	now := s.now().UTC()
	job := &domain.Job{
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Email:       email,
		City:        in.City,
		JobRole:     in.JobRole,
		Description: in.Description,
		Company:     in.Company,
		CreatedAt:   now,
	}

	if in.IsUrgent {
		if _, err := s.quota.TryConsume(ctx, email); err != nil {
			return nil, err
		}
		job.IsUrgent = true
		job.UrgentUntil = s.urgentUntil(now)
	}

	created, err := s.repo.Create(ctx, job)
	if err != nil {
		// The consumed urgent credit is not refunded.
		s.logger.Error().Err(err).Str("email", email).Bool("urgent", in.IsUrgent).Msg("failed to create job")
		return nil, err
	}

	s.logger.Info().Str("job_id", created.ID).Bool("urgent", created.IsUrgent).Msg("job created")
	return created, nil
}

// Update applies the supplied fields after an ownership check.
//
// Omitting IsUrgent never changes urgency. Switching it on, or re-promoting
// a job whose urgent window has lapsed, charges the record owner's urgent
// quota (admins are not charged) and starts a new window. Switching it off
// clears the window as well.
func (s *JobService) Update(ctx context.Context, id string, in ports.UpdateJobInput) (*domain.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	admin := in.Admin || s.guard.IsAdmin(in.AdminKey)
	if !admin {
		if err := s.guard.Authorize(*job, in.Email, ""); err != nil {
			s.logger.Warn().Str("job_id", id).Msg("update rejected: ownership mismatch")
			return nil, err
		}
	}

	patch := domain.JobPatch{
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		City:        in.City,
		JobRole:     in.JobRole,
		Description: in.Description,
	}

	if in.IsUrgent != nil {
		switch now := s.now().UTC(); {
		case *in.IsUrgent && !listing.UrgentNow(*job, now):
			if !admin {
				if _, err := s.quota.TryConsume(ctx, job.Email); err != nil {
					return nil, err
				}
			}
			on := true
			patch.IsUrgent = &on
			patch.UrgentUntil = s.urgentUntil(now)
			patch.SetUrgentUntil = true
		case !*in.IsUrgent && job.IsUrgent:
			off := false
			patch.IsUrgent = &off
			patch.UrgentUntil = nil
			patch.SetUrgentUntil = true
		}
	}

	if patch.Empty() {
		return job, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("job_id", id).Bool("admin", admin).Msg("job updated")
	return updated, nil
}

// Delete permanently removes a job. Expired jobs can still be deleted.
func (s *JobService) Delete(ctx context.Context, id string, in ports.DeleteJobInput) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	admin := in.Admin || s.guard.IsAdmin(in.AdminKey)
	if !admin {
		if err := s.guard.Authorize(*job, in.Email, ""); err != nil {
			s.logger.Warn().Str("job_id", id).Msg("delete rejected: ownership mismatch")
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("job_id", id).Bool("admin", admin).Msg("job deleted")
	return nil
}

// RecordView adds one view. Unknown ids are ignored.
func (s *JobService) RecordView(ctx context.Context, id string) error {
	err := s.repo.IncrementViews(ctx, id)
	if errors.Is(err, domain.ErrJobNotFound) {
		return nil
	}
	return err
}

// PurgeExpired deletes records older than the retention window. Listings are
// already hidden from the public after the listing TTL; this reclaims storage.
func (s *JobService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.retention)
	n, err := s.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("expired jobs purged")
	}
	return n, nil
}

func (s *JobService) urgentUntil(from time.Time) *time.Time {
	if s.urgentFor <= 0 {
		return nil
	}
	t := from.Add(s.urgentFor)
	return &t
}
