package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub job repository
// ---------------------------------------------------------------------------

type stubJobRepo struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]domain.Job
	nextID  int
	listErr error
	updates int
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{byID: make(map[string]domain.Job)}
}

func (r *stubJobRepo) seed(j domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[j.ID] = j
	r.order = append(r.order, j.ID)
}

func (r *stubJobRepo) get(id string) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	return j, ok
}

func (r *stubJobRepo) List(_ context.Context) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *stubJobRepo) Create(_ context.Context, j *domain.Job) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *j
	clone.ID = fmt.Sprintf("job-%d", r.nextID)
	r.byID[clone.ID] = clone
	r.order = append(r.order, clone.ID)
	return &clone, nil
}

func (r *stubJobRepo) FindByID(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (r *stubJobRepo) Update(_ context.Context, id string, p domain.JobPatch) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	r.updates++
	j = p.Apply(j)
	r.byID[id] = j
	return &j, nil
}

func (r *stubJobRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubJobRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Views++
	r.byID[id] = j
	return nil
}

func (r *stubJobRepo) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	kept := r.order[:0]
	for _, id := range r.order {
		if r.byID[id].CreatedAt.Before(cutoff) {
			delete(r.byID, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return n, nil
}

// ---------------------------------------------------------------------------
// In-memory stub quota store (mirrors the atomic semantics of the real stores)
// ---------------------------------------------------------------------------

type stubQuotaStore struct {
	mu      sync.Mutex
	records map[string]*domain.UrgentQuota
	err     error
}

func newStubQuotaStore() *stubQuotaStore {
	return &stubQuotaStore{records: make(map[string]*domain.UrgentQuota)}
}

func (s *stubQuotaStore) load(email string, today time.Time) *domain.UrgentQuota {
	q, ok := s.records[email]
	if !ok {
		q = &domain.UrgentQuota{Email: email, LastReset: today}
		s.records[email] = q
	}
	q.Rollover(today)
	return q
}

func (s *stubQuotaStore) Get(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.UrgentQuota{}, s.err
	}
	return *s.load(email, today), nil
}

func (s *stubQuotaStore) TryConsume(_ context.Context, email string, today time.Time, base int) (domain.UrgentQuota, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.UrgentQuota{}, false, s.err
	}
	q := s.load(email, today)
	if q.Count >= q.Allowance(base) {
		return *q, false, nil
	}
	q.Count++
	return *q, true, nil
}

func (s *stubQuotaStore) IncrementCount(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.load(email, today)
	q.Count++
	return *q, nil
}

func (s *stubQuotaStore) AddExtraCredit(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.load(email, today)
	q.ExtraCredits++
	return *q, nil
}

// fakeClock is a settable clock shared by services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
