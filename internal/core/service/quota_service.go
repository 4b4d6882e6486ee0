package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

var _ ports.QuotaService = (*QuotaService)(nil)

// QuotaService implements the urgent post throttle: a base daily allowance
// per identity plus reward credits, reset at local midnight.
type QuotaService struct {
	store  ports.QuotaStore
	base   int
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

type QuotaOption func(*QuotaService)

// WithDailyAllowance overrides the base number of free urgent posts per day.
func WithDailyAllowance(n int) QuotaOption {
	return func(s *QuotaService) {
		if n >= 0 {
			s.base = n
		}
	}
}

// WithLocation sets the time zone whose midnight resets the counters.
func WithLocation(loc *time.Location) QuotaOption {
	return func(s *QuotaService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithQuotaClock(now func() time.Time) QuotaOption {
	return func(s *QuotaService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewQuotaService(store ports.QuotaStore, logger zerolog.Logger, opts ...QuotaOption) *QuotaService {
	s := &QuotaService{
		store:  store,
		base:   domain.DefaultDailyUrgentAllowance,
		loc:    time.Local,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *QuotaService) today() time.Time {
	return domain.StartOfDay(s.now(), s.loc)
}

func identity(email string) (string, error) {
	e := domain.NormalizeEmail(email)
	if e == "" {
		return "", domain.Invalid("email is required")
	}
	return e, nil
}

// GetStatus returns today's allowance for email, creating or resetting the
// record as needed.
func (s *QuotaService) GetStatus(ctx context.Context, email string) (domain.QuotaStatus, error) {
	id, err := identity(email)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	q, err := s.store.Get(ctx, id, s.today())
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	return q.Status(s.base), nil
}

// TryConsume uses one urgent credit if any remain, in a single atomic store
// operation.
func (s *QuotaService) TryConsume(ctx context.Context, email string) (domain.QuotaStatus, error) {
	id, err := identity(email)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	q, ok, err := s.store.TryConsume(ctx, id, s.today(), s.base)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	status := q.Status(s.base)
	if !ok {
		s.logger.Info().Str("email", id).Int("count", q.Count).Int("allowed", status.TotalAllowed).Msg("urgent quota exhausted")
		return status, domain.ErrQuotaExceeded
	}
	return status, nil
}

// RecordUrgentPost bumps today's count without checking the allowance.
// Callers are expected to have checked GetStatus first; prefer TryConsume.
func (s *QuotaService) RecordUrgentPost(ctx context.Context, email string) (domain.QuotaStatus, error) {
	id, err := identity(email)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	q, err := s.store.IncrementCount(ctx, id, s.today())
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	return q.Status(s.base), nil
}

// GrantExtraCredit adds one credit for today. There is no cap.
func (s *QuotaService) GrantExtraCredit(ctx context.Context, email string) (domain.QuotaStatus, error) {
	id, err := identity(email)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	q, err := s.store.AddExtraCredit(ctx, id, s.today())
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	s.logger.Info().Str("email", id).Int("extra_credits", q.ExtraCredits).Msg("extra urgent credit granted")
	return q.Status(s.base), nil
}
